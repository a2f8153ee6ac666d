package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"auction-scraper/config"
	"auction-scraper/utils"
)

// Status is the heartbeat status enum reported to the monitoring table.
type Status string

const (
	StatusActive  Status = "active"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

const (
	statusTable   = "service_status"
	reportTimeout = 15 * time.Second
)

// Metrics carries the cumulative counters reported with each heartbeat.
type Metrics struct {
	ItemsProcessed      int `json:"items_processed"`
	CategoriesProcessed int `json:"categories_processed"`
	Errors              int `json:"errors"`
	Warnings            int `json:"warnings"`
}

// Reporter posts upsert-style heartbeat events keyed by service name.
// Reporting is fire-and-forget: every failure is swallowed and logged, so a
// monitoring outage can never abort the data pipeline.
type Reporter struct {
	baseURL     string
	key         string
	schema      string
	serviceName string
	runID       string
	enabled     bool

	client *http.Client
	logger *utils.Logger
	start  time.Time
}

// NewReporter creates a Reporter with a fresh run id. A missing endpoint
// configuration disables reporting rather than failing.
func NewReporter(cfg *config.Config, logger *utils.Logger) *Reporter {
	return &Reporter{
		baseURL:     strings.TrimRight(cfg.SupabaseURL, "/"),
		key:         cfg.SupabaseKey,
		schema:      cfg.SupabaseSchema,
		serviceName: cfg.ServiceName,
		runID:       uuid.NewString(),
		enabled:     cfg.HeartbeatEnabled && cfg.SupabaseURL != "" && cfg.SupabaseKey != "",
		client:      &http.Client{Timeout: reportTimeout},
		logger:      logger,
		start:       time.Now(),
	}
}

// Report upserts one status event. It never returns an error.
func (r *Reporter) Report(ctx context.Context, status Status, detail string, metrics Metrics) {
	if !r.enabled {
		return
	}

	payload := map[string]any{
		"service_name": r.serviceName,
		"status":       string(status),
		"details": map[string]any{
			"run_id":  r.runID,
			"message": detail,
		},
		"elapsed_seconds":      int(time.Since(r.start).Seconds()),
		"items_processed":      metrics.ItemsProcessed,
		"categories_processed": metrics.CategoriesProcessed,
		"error_count":          metrics.Errors,
		"warning_count":        metrics.Warnings,
		"reported_at":          time.Now().Format(time.RFC3339),
	}

	if err := r.post(ctx, payload); err != nil {
		r.logger.Warn("[heartbeat] report failed (ignored): %v", err)
	}
}

func (r *Reporter) post(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal([]map[string]any{payload})
	if err != nil {
		return fmt.Errorf("encoding heartbeat: %w", err)
	}

	url := fmt.Sprintf("%s/rest/v1/%s", r.baseURL, statusTable)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating heartbeat request: %w", err)
	}
	req.Header.Set("apikey", r.key)
	req.Header.Set("Authorization", "Bearer "+r.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Profile", r.schema)
	req.Header.Set("Accept-Profile", r.schema)
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting heartbeat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("heartbeat returned HTTP %d", resp.StatusCode)
	}
	return nil
}
