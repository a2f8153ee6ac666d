package superbid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"auction-scraper/config"
	"auction-scraper/models"
	"auction-scraper/utils"
)

const (
	defaultBaseURL = "https://offer-query.superbid.net/seo/offers/"
	defaultSiteURL = "https://exchange.superbid.net"
	source         = "superbid"

	requestTimeout = 30 * time.Second
)

// Stats aggregates per-run collection counters.
type Stats struct {
	TotalScraped int
	Duplicates   int
	WithBids     int
	Errors       int
	ByCategory   map[string]int
}

// Scraper walks the Superbid offer API section by section, page by page,
// emitting raw listings shaped for the normalization pipeline. It is the
// Source Feed collaborator: pagination, politeness delays and bounded retry
// live here, never in the core.
type Scraper struct {
	// BaseURL and SiteURL are overridable for tests.
	BaseURL string
	SiteURL string
	// Sections is the category table to walk; defaults to the full site map.
	Sections []Section

	cfg     *config.Config
	logger  *utils.Logger
	client  *http.Client
	limiter *rate.Limiter
	retry   *utils.RetryConfig
	seen    *utils.SeenSet

	Stats Stats
}

// New creates a ready-to-use Superbid scraper. The seen set is owned by the
// caller so identity dedup can span multiple sources.
func New(cfg *config.Config, logger *utils.Logger, seen *utils.SeenSet) *Scraper {
	return &Scraper{
		BaseURL:  defaultBaseURL,
		SiteURL:  defaultSiteURL,
		Sections: defaultSections,
		cfg:      cfg,
		logger:   logger,
		client:   &http.Client{Timeout: requestTimeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		seen:  seen,
		Stats: Stats{ByCategory: make(map[string]int)},
	}
}

type offersPage struct {
	Offers []map[string]any `json:"offers"`
}

// Scrape walks every configured section to exhaustion and returns the
// collected raw listings.
func (s *Scraper) Scrape(ctx context.Context) ([]models.RawListing, error) {
	s.logger.Info("[superbid] Starting scrape — %d sections, page size %d",
		len(s.Sections), s.cfg.PageSize)

	var all []models.RawListing
	for i, sec := range s.Sections {
		s.logger.Info("[superbid] Section %d/%d: %s", i+1, len(s.Sections), sec.Category)

		items, err := s.scrapeSection(ctx, sec)
		if err != nil {
			return all, err
		}

		all = append(all, items...)
		s.Stats.ByCategory[sec.Category] = len(items)
		s.logger.Info("[superbid] %s: %d items", sec.Category, len(items))

		if i < len(s.Sections)-1 {
			select {
			case <-ctx.Done():
				return all, ctx.Err()
			case <-time.After(time.Duration(s.cfg.SectionPauseMs) * time.Millisecond):
			}
		}
	}

	s.Stats.TotalScraped = len(all)
	return all, nil
}

// scrapeSection pages through one section until the feed signals the end: an
// empty offers array, or too many consecutive page failures.
func (s *Scraper) scrapeSection(ctx context.Context, sec Section) ([]models.RawListing, error) {
	var items []models.RawListing
	consecutiveErrors := 0

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return items, err
		}

		result, err := s.fetchPage(ctx, sec.Slug, page)
		if err != nil {
			consecutiveErrors++
			s.Stats.Errors++
			s.logger.Warn("[superbid] %s page %d failed: %v", sec.Category, page, err)
			if consecutiveErrors >= s.cfg.MaxConsecutiveErrs {
				s.logger.Info("[superbid] %s: giving up after %d consecutive errors",
					sec.Category, consecutiveErrors)
				break
			}
			continue
		}

		if len(result.Offers) == 0 {
			s.logger.Debug("[superbid] %s: end of feed at page %d", sec.Category, page)
			break
		}
		consecutiveErrors = 0

		for _, offer := range result.Offers {
			raw, ok := s.parseOffer(offer, sec)
			if !ok {
				continue
			}
			if !s.seen.Add(source, raw.Str("external_id")) {
				s.Stats.Duplicates++
				continue
			}
			if hasBid, isBool := raw["has_bid"].(bool); isBool && hasBid {
				s.Stats.WithBids++
			}
			items = append(items, raw)
		}
	}

	return items, nil
}

// fetchPage performs one paginated GET with politeness pacing and bounded
// retry on transport failures.
func (s *Scraper) fetchPage(ctx context.Context, slug string, page int) (*offersPage, error) {
	var result offersPage

	err := s.retry.Do(ctx, fmt.Sprintf("superbid %s page %d", slug, page), func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		url := fmt.Sprintf("%s%s?page=%d&pageSize=%d", s.BaseURL, slug, page, s.cfg.PageSize)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "*/*")
		req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9")
		req.Header.Set("Origin", s.SiteURL)
		req.Header.Set("Referer", s.SiteURL+"/")
		req.Header.Set("User-Agent",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetching page: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading body: %w", err)
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("decoding offers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// parseOffer shapes one API offer into the raw listing the normalization
// pipeline expects. Demo/test stores and sub-R$1 offers are filtered out.
func (s *Scraper) parseOffer(offer map[string]any, sec Section) (models.RawListing, bool) {
	offerID, ok := numField(offer, "id")
	if !ok {
		return nil, false
	}
	externalID := fmt.Sprintf("%s_%d", source, int64(offerID))

	product := mapField(offer, "product")

	title := strField(product, "shortDesc")
	if title == "" {
		title = strField(mapField(offer, "offerDescription"), "offerDescription")
	}

	storeName := strField(mapField(offer, "store"), "name")
	lowered := strings.ToLower(storeName)
	if strings.Contains(lowered, "demo") || strings.Contains(lowered, "test") {
		return nil, false
	}

	price, hasPrice := numField(offer, "price")
	if hasPrice && price < 1 {
		return nil, false
	}

	city, state := s.parseLocation(offer, product)

	auction := mapField(offer, "auction")

	raw := models.RawListing{
		"source":       source,
		"external_id":  externalID,
		"title":        title,
		"description":  strField(product, "detailedDescription"),
		"city":         city,
		"state":        state,
		"address":      strField(auction, "address"),
		"auction_name": strField(auction, "desc"),
		"store_name":   storeName,
		"lot_number":   strField(offer, "lotNumber"),
		"auction_date": isoDate(strField(auction, "endDate")),
		"value":        offer["price"],
		"value_text":   strField(offer, "priceFormatted"),
		"has_bid":      offer["hasBids"],
		"link":         fmt.Sprintf("%s/oferta/%d", s.SiteURL, int64(offerID)),
		"destination":  sec.Destination,
		"raw_category": sec.Category,
		"metadata": map[string]any{
			"secao_site": sec.Category,
		},
	}

	if sec.TypeField != "" {
		raw[sec.TypeField] = sec.TypeValue
	}
	if qty, okQty := numField(offer, "quantityInLot"); okQty && qty > 0 {
		raw["quantity"] = qty
	}
	if year, okYear := templateYear(product); okYear {
		raw["year"] = year
	}

	return raw, true
}

// parseLocation extracts city and state from the "City - UF" location string,
// falling back to the seller city and then to a spelled-out state name.
func (s *Scraper) parseLocation(offer, product map[string]any) (string, string) {
	location := mapField(product, "location")
	full := strField(location, "city")

	var city, state string
	if full != "" {
		if idx := strings.Index(full, " - "); idx >= 0 {
			city = strings.TrimSpace(full[:idx])
			if uf := strings.TrimSpace(full[idx+3:]); len(uf) == 2 {
				state = strings.ToUpper(uf)
			}
		} else {
			city = strings.TrimSpace(full)
		}
	}

	if state == "" {
		sellerCity := strField(mapField(offer, "seller"), "city")
		if idx := strings.LastIndex(sellerCity, " - "); idx >= 0 {
			if uf := strings.TrimSpace(sellerCity[idx+3:]); len(uf) == 2 {
				state = strings.ToUpper(uf)
			}
		}
	}

	if state == "" {
		if name := strField(location, "state"); name != "" {
			state = fullStateNames[name]
		}
	}

	return city, state
}

// templateYear digs the manufacture year out of the product template
// property groups.
func templateYear(product map[string]any) (int, bool) {
	template := mapField(product, "template")
	groups, _ := template["groups"].([]any)
	for _, g := range groups {
		group, _ := g.(map[string]any)
		props, _ := group["properties"].([]any)
		for _, p := range props {
			prop, _ := p.(map[string]any)
			if strings.EqualFold(strField(prop, "id"), "anofabricacao") {
				if year, err := strconv.Atoi(strings.TrimSpace(strField(prop, "value"))); err == nil {
					return year, true
				}
			}
		}
	}
	return 0, false
}

// isoDate converts the API's "2006-01-02 15:04:05" timestamps to ISO-8601
// with the site's fixed UTC-3 offset. Anything else is passed through empty.
func isoDate(raw string) string {
	if raw == "" {
		return ""
	}
	t, err := time.Parse("2006-01-02 15:04:05", raw)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02T15:04:05") + "-03:00"
}

func mapField(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}

func strField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	v, _ := m[key].(string)
	return v
}

func numField(m map[string]any, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	v, ok := m[key].(float64)
	return v, ok
}
