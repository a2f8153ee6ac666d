package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"auction-scraper/models"
)

// PostgresWriter mirrors canonical records into a local PostgreSQL table,
// upserting on the (source, external_id) identity pair. The mirror is an
// optional audit store — the REST sink remains the system of record.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection, runs schema migrations, and returns
// a ready-to-use writer.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS canonical_records (
			id                  SERIAL PRIMARY KEY,
			source              VARCHAR(50)  NOT NULL,
			external_id         VARCHAR(255) NOT NULL,
			title               VARCHAR(255) NOT NULL,
			normalized_title    VARCHAR(255) NOT NULL DEFAULT '',
			description         TEXT,
			description_preview VARCHAR(255),
			value               NUMERIC(14,2),
			value_text          TEXT,
			auction_round       SMALLINT,
			discount_percentage NUMERIC(6,2),
			first_round_value   NUMERIC(14,2),
			first_round_date    TEXT,
			auction_date        TEXT,
			auction_type        VARCHAR(100) NOT NULL DEFAULT '',
			auction_name        TEXT,
			store_name          TEXT,
			lot_number          TEXT,
			city                TEXT,
			state               CHAR(2),
			address             VARCHAR(255),
			has_bid             BOOLEAN      NOT NULL DEFAULT FALSE,
			link                TEXT,
			metadata            JSONB        NOT NULL DEFAULT '{}',
			is_active           BOOLEAN      NOT NULL DEFAULT TRUE,
			last_scraped_at     TEXT         NOT NULL DEFAULT '',
			UNIQUE (source, external_id)
		);

		CREATE INDEX IF NOT EXISTS idx_canonical_state ON canonical_records(state);
		CREATE INDEX IF NOT EXISTS idx_canonical_value ON canonical_records(value);
		CREATE INDEX IF NOT EXISTS idx_canonical_norm  ON canonical_records(normalized_title);
	`)
	return err
}

// Write upserts all records in batches keyed on (source, external_id).
func (pw *PostgresWriter) Write(records []*models.CanonicalRecord) error {
	if len(records) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := pw.upsertBatch(records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

const recordColumns = 25

var mirrorColumns = []string{
	"source", "external_id", "title", "normalized_title",
	"description", "description_preview", "value", "value_text",
	"auction_round", "discount_percentage", "first_round_value", "first_round_date",
	"auction_date", "auction_type", "auction_name", "store_name", "lot_number",
	"city", "state", "address", "has_bid", "link", "metadata", "is_active",
	"last_scraped_at",
}

func (pw *PostgresWriter) upsertBatch(batch []*models.CanonicalRecord) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*recordColumns)

	for idx, rec := range batch {
		placeholders := make([]string, recordColumns)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", idx*recordColumns+i+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		metadata, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("postgres: marshal metadata: %w", err)
		}

		valueArgs = append(valueArgs,
			rec.Source, rec.ExternalID, rec.Title, rec.NormalizedTitle,
			rec.Description, rec.DescriptionPreview, rec.Value, rec.ValueText,
			rec.AuctionRound, rec.DiscountPercentage, rec.FirstRoundValue, rec.FirstRoundDate,
			rec.AuctionDate, rec.AuctionType, rec.AuctionName, rec.StoreName, rec.LotNumber,
			rec.City, rec.State, rec.Address, rec.HasBid, rec.Link, metadata, rec.IsActive,
			rec.LastScrapedAt,
		)
	}

	updates := make([]string, 0, len(mirrorColumns)-2)
	for _, col := range mirrorColumns[2:] {
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}

	query := fmt.Sprintf(`
		INSERT INTO canonical_records (%s)
		VALUES %s
		ON CONFLICT (source, external_id) DO UPDATE SET %s
	`, strings.Join(mirrorColumns, ", "), strings.Join(valueStrings, ","), strings.Join(updates, ", "))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

// FetchAll retrieves every mirrored record, used for offline analysis.
func (pw *PostgresWriter) FetchAll() ([]*models.CanonicalRecord, error) {
	rows, err := pw.db.Query(fmt.Sprintf(`
		SELECT %s FROM canonical_records ORDER BY id
	`, strings.Join(mirrorColumns, ", ")))
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var records []*models.CanonicalRecord
	for rows.Next() {
		rec := &models.CanonicalRecord{}
		var metadata []byte
		if err := rows.Scan(
			&rec.Source, &rec.ExternalID, &rec.Title, &rec.NormalizedTitle,
			&rec.Description, &rec.DescriptionPreview, &rec.Value, &rec.ValueText,
			&rec.AuctionRound, &rec.DiscountPercentage, &rec.FirstRoundValue, &rec.FirstRoundDate,
			&rec.AuctionDate, &rec.AuctionType, &rec.AuctionName, &rec.StoreName, &rec.LotNumber,
			&rec.City, &rec.State, &rec.Address, &rec.HasBid, &rec.Link, &metadata, &rec.IsActive,
			&rec.LastScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("postgres: decode metadata: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
