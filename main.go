package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"auction-scraper/config"
	"auction-scraper/models"
	"auction-scraper/scraper/superbid"
	"auction-scraper/services"
	"auction-scraper/storage"
	"auction-scraper/telemetry"
	"auction-scraper/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Auction Scraping System starting ===")
	logger.Info("Config — page size: %d | batch size: %d | rate: %.1f req/s",
		cfg.PageSize, cfg.BatchSize, cfg.RequestsPerSecond)

	ctx := context.Background()
	reporter := telemetry.NewReporter(cfg, logger)
	reporter.Report(ctx, telemetry.StatusActive, "run started", telemetry.Metrics{})

	seen := utils.NewSeenSet()
	feed := superbid.New(cfg, logger, seen)

	rawListings, err := feed.Scrape(ctx)
	if err != nil {
		logger.Error("Superbid scrape stopped early: %v", err)
	}
	if len(rawListings) == 0 {
		logger.Error("No listings were scraped. Exiting.")
		reporter.Report(ctx, telemetry.StatusError, "no listings scraped", telemetry.Metrics{
			CategoriesProcessed: len(feed.Sections),
			Errors:              feed.Stats.Errors,
		})
		os.Exit(1)
	}

	logger.Info("Scraped %d raw listings (%d duplicates skipped) — normalizing...",
		len(rawListings), feed.Stats.Duplicates)

	assembler := services.NewAssembler(logger)
	byDestination := make(map[string][]*models.CanonicalRecord)
	var all []*models.CanonicalRecord
	rejected := 0

	for _, raw := range rawListings {
		destination := raw.Str("destination")
		record, err := assembler.Assemble(raw)
		if err != nil {
			if errors.Is(err, services.ErrRecordRejected) {
				rejected++
				continue
			}
			logger.Error("Assemble failed: %v", err)
			continue
		}
		byDestination[destination] = append(byDestination[destination], record)
		all = append(all, record)
	}

	logger.Info("Canonical dataset: %d records across %d destinations (%d rejected)",
		len(all), len(byDestination), rejected)

	if len(all) == 0 {
		logger.Error("All listings were rejected during normalization. Exiting.")
		reporter.Report(ctx, telemetry.StatusError, "all listings rejected", telemetry.Metrics{
			ItemsProcessed: len(rawListings),
			Errors:         rejected,
		})
		os.Exit(1)
	}

	// The local dump happens before any upload so a failed run can be
	// replayed from disk.
	jsonWriter, err := storage.NewJSONWriter(cfg.JSONOutputDir)
	if err != nil {
		logger.Error("Failed to create JSON writer: %v", err)
		os.Exit(1)
	}
	dumpPath, err := jsonWriter.WriteDump("superbid", all)
	if err != nil {
		logger.Error("JSON dump failed: %v", err)
	} else {
		logger.Info("Canonical records saved to %s", dumpPath)
	}

	if cfg.MirrorEnabled() {
		mirror, err := storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("Postgres mirror unavailable: %v", err)
		} else {
			defer mirror.Close()
			if err := mirror.Write(all); err != nil {
				logger.Error("Postgres mirror write failed: %v", err)
			} else {
				logger.Info("Canonical records mirrored to PostgreSQL")
			}
		}
	}

	var totals models.UpsertStats
	sink, err := storage.NewRESTSink(cfg, logger)
	if err != nil {
		logger.Warn("Record sink not configured — skipping upload: %v", err)
	} else if err := sink.Ping(ctx); err != nil {
		logger.Error("Record sink unreachable — skipping upload: %v", err)
		totals.Errors = len(all)
	} else {
		projector := services.NewProjector()
		for destination, records := range byDestination {
			rows := projector.ProjectBatch(records, destination)
			stats := sink.Upsert(ctx, destination, rows)
			totals.Add(stats)
			logger.Info("[%s] inserted: %d | updated: %d | errors: %d",
				destination, stats.Inserted, stats.Updated, stats.Errors)

			history := sink.SaveBidHistory(ctx, destination, records)
			if history.Errors > 0 {
				logger.Warn("[%s] bid history: %d saved, %d errors",
					destination, history.Saved, history.Errors)
			}
		}
	}

	reportSvc := services.NewReportService(logger)
	reportSvc.Print(reportSvc.Generate(all))

	status := telemetry.StatusActive
	if totals.Errors > 0 || feed.Stats.Errors > 0 {
		status = telemetry.StatusWarning
	}
	reporter.Report(ctx, status, "run finished", telemetry.Metrics{
		ItemsProcessed:      len(all),
		CategoriesProcessed: len(feed.Stats.ByCategory),
		Errors:              totals.Errors + feed.Stats.Errors,
		Warnings:            rejected + feed.Stats.Duplicates,
	})

	fmt.Printf("  Done. Audit dump → %s | Upserted: %d inserted, %d updated, %d errors\n\n",
		dumpPath, totals.Inserted, totals.Updated, totals.Errors)
}
