package services

import (
	"fmt"
	"sort"
	"strings"

	"auction-scraper/models"
	"auction-scraper/utils"
)

// ReportService computes and prints the end-of-run summary over the
// canonical record set.
type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

func (s *ReportService) Generate(records []*models.CanonicalRecord) *models.RunReport {
	report := &models.RunReport{
		RecordsByCategory: make(map[string]int),
		RecordsByState:    make(map[string]int),
	}

	if len(records) == 0 {
		return report
	}

	report.TotalRecords = len(records)

	var priced []*models.CanonicalRecord
	for _, rec := range records {
		if rec.HasBid {
			report.WithBids++
		}
		if rec.AuctionRound != nil {
			report.SecondRound++
		}
		if rec.Value != nil && *rec.Value > 0 {
			priced = append(priced, rec)
		}
		if cat, ok := rec.Metadata["raw_category"].(string); ok && cat != "" {
			report.RecordsByCategory[cat]++
		}
		if rec.State != nil {
			report.RecordsByState[*rec.State]++
		}
	}

	if len(priced) > 0 {
		report.MinValue = *priced[0].Value
		report.MaxValue = *priced[0].Value
		var total float64
		for _, rec := range priced {
			v := *rec.Value
			total += v
			if v < report.MinValue {
				report.MinValue = v
			}
			if v >= report.MaxValue {
				report.MaxValue = v
				report.MostValuable = rec
			}
		}
		report.AverageValue = round2(total / float64(len(priced)))
	}

	return report
}

func (s *ReportService) Print(r *models.RunReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 AUCTION SCRAPE SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Canonical records : \033[1m%d\033[0m\n", r.TotalRecords)
	fmt.Printf("  With bids         : \033[1m%d\033[0m\n", r.WithBids)
	fmt.Printf("  Second round      : \033[1m%d\033[0m\n", r.SecondRound)
	fmt.Println()

	fmt.Printf("\033[1;33m  Value Statistics\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.AverageValue > 0 {
		fmt.Printf("  Average value : \033[1;32mR$ %.2f\033[0m\n", r.AverageValue)
		fmt.Printf("  Minimum value : \033[1;32mR$ %.2f\033[0m\n", r.MinValue)
		fmt.Printf("  Maximum value : \033[1;32mR$ %.2f\033[0m\n", r.MaxValue)
	} else {
		fmt.Printf("  No value data available\n")
	}
	fmt.Println()

	if r.MostValuable != nil {
		fmt.Printf("\033[1;33m  Most Valuable Lot\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s\n", truncateDisplay(r.MostValuable.Title, 50))
		if r.MostValuable.City != nil {
			fmt.Printf("  City  : %s\n", *r.MostValuable.City)
		}
		fmt.Printf("  Value : \033[1;31mR$ %.2f\033[0m\n", *r.MostValuable.Value)
		fmt.Println()
	}

	printDistribution("Records by Category", r.RecordsByCategory, thin)
	printDistribution("Records by State", r.RecordsByState, thin)

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func printDistribution(header string, counts map[string]int, thin string) {
	fmt.Printf("\033[1;33m  %s\033[0m\n", header)
	fmt.Printf("  %s\n", thin)
	if len(counts) == 0 {
		fmt.Printf("  No data\n")
		return
	}

	type entry struct {
		name  string
		count int
	}
	var entries []entry
	for name, count := range counts {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	for _, e := range entries {
		fmt.Printf("  %-30s \033[1m%d\033[0m\n", truncateDisplay(e.name, 28), e.count)
	}
	fmt.Println()
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncateDisplay(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
