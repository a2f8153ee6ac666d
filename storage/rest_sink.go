package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"auction-scraper/config"
	"auction-scraper/models"
	"auction-scraper/utils"
)

const (
	historyTable     = "auction_bid_history"
	historyBatchSize = 1000

	sinkTimeout = 120 * time.Second
)

// RESTSink uploads projected record batches to a Supabase-style PostgREST
// endpoint. Upserts resolve duplicates server-side via the merge-duplicates
// preference; the sink only counts outcomes, it never fails the pipeline.
type RESTSink struct {
	baseURL string
	key     string
	schema  string

	client     *http.Client
	batchSize  int
	batchDelay time.Duration
	logger     *utils.Logger
}

// NewRESTSink validates the endpoint configuration and returns a ready sink.
func NewRESTSink(cfg *config.Config, logger *utils.Logger) (*RESTSink, error) {
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, errors.New("rest sink: SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY must be set")
	}
	return &RESTSink{
		baseURL:    strings.TrimRight(cfg.SupabaseURL, "/"),
		key:        cfg.SupabaseKey,
		schema:     cfg.SupabaseSchema,
		client:     &http.Client{Timeout: sinkTimeout},
		batchSize:  cfg.BatchSize,
		batchDelay: time.Duration(cfg.BatchDelayMs) * time.Millisecond,
		logger:     logger,
	}, nil
}

// Upsert posts the rows for one destination in capped batches and aggregates
// the per-batch outcome: 200/201 counts as inserted, 409 as merged/updated,
// anything else errors the whole batch.
func (s *RESTSink) Upsert(ctx context.Context, destination string, rows []map[string]any) models.UpsertStats {
	var stats models.UpsertStats
	if len(rows) == 0 {
		return stats
	}

	url := fmt.Sprintf("%s/rest/v1/%s", s.baseURL, destination)
	totalBatches := (len(rows) + s.batchSize - 1) / s.batchSize

	for i := 0; i < len(rows); i += s.batchSize {
		end := i + s.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[i:end]
		batchNum := i/s.batchSize + 1

		status, err := s.post(ctx, url, batch)
		switch {
		case err != nil:
			s.logger.Error("[sink] %s batch %d/%d: %v", destination, batchNum, totalBatches, err)
			stats.Errors += len(batch)
		case status == http.StatusOK || status == http.StatusCreated:
			s.logger.Info("[sink] %s batch %d/%d: %d rows", destination, batchNum, totalBatches, len(batch))
			stats.Inserted += len(batch)
		case status == http.StatusConflict:
			s.logger.Info("[sink] %s batch %d/%d: %d rows merged", destination, batchNum, totalBatches, len(batch))
			stats.Updated += len(batch)
		default:
			s.logger.Error("[sink] %s batch %d/%d: HTTP %d", destination, batchNum, totalBatches, status)
			stats.Errors += len(batch)
		}

		if batchNum < totalBatches {
			select {
			case <-ctx.Done():
				stats.Errors += len(rows) - end
				return stats
			case <-time.After(s.batchDelay):
			}
		}
	}

	return stats
}

// SaveBidHistory appends thin per-lot snapshots to the bid-history table so
// value/bid movement can be tracked across runs.
func (s *RESTSink) SaveBidHistory(ctx context.Context, category string, records []*models.CanonicalRecord) models.SnapshotStats {
	var stats models.SnapshotStats
	if len(records) == 0 {
		return stats
	}

	capturedAt := time.Now().Format(time.RFC3339)
	snapshots := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		if rec.ExternalID == "" {
			continue
		}
		snapshots = append(snapshots, map[string]any{
			"category":      category,
			"source":        rec.Source,
			"external_id":   rec.ExternalID,
			"lot_number":    derefOrNil(rec.LotNumber),
			"has_bid":       rec.HasBid,
			"current_value": derefFloatOrNil(rec.Value),
			"captured_at":   capturedAt,
		})
	}

	url := fmt.Sprintf("%s/rest/v1/%s", s.baseURL, historyTable)
	for i := 0; i < len(snapshots); i += historyBatchSize {
		end := i + historyBatchSize
		if end > len(snapshots) {
			end = len(snapshots)
		}
		batch := snapshots[i:end]

		status, err := s.post(ctx, url, batch)
		if err != nil || (status != http.StatusOK && status != http.StatusCreated) {
			s.logger.Warn("[sink] bid history batch failed (status %d): %v", status, err)
			stats.Errors += len(batch)
		} else {
			stats.Saved += len(batch)
		}
	}

	return stats
}

// Ping probes the REST root to verify connectivity and credentials.
func (s *RESTSink) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/rest/v1/", nil)
	if err != nil {
		return fmt.Errorf("rest sink: ping request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("rest sink: ping: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rest sink: ping returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// Count returns the exact row count of a destination table via the
// Content-Range header.
func (s *RESTSink) Count(ctx context.Context, destination string) (int, error) {
	url := fmt.Sprintf("%s/rest/v1/%s?select=count", s.baseURL, destination)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("rest sink: count request: %w", err)
	}
	s.setHeaders(req)
	req.Header.Set("Prefer", "count=exact")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("rest sink: count: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rest sink: count returned HTTP %d", resp.StatusCode)
	}

	contentRange := resp.Header.Get("Content-Range")
	idx := strings.LastIndex(contentRange, "/")
	if idx < 0 {
		return 0, fmt.Errorf("rest sink: malformed Content-Range %q", contentRange)
	}
	total, err := strconv.Atoi(contentRange[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("rest sink: malformed Content-Range %q", contentRange)
	}
	return total, nil
}

func (s *RESTSink) post(ctx context.Context, url string, payload any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encoding batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("posting batch: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func (s *RESTSink) setHeaders(req *http.Request) {
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Profile", s.schema)
	req.Header.Set("Accept-Profile", s.schema)
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")
}

func derefOrNil(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func derefFloatOrNil(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
