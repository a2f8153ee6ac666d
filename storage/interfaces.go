package storage

import (
	"context"

	"auction-scraper/models"
)

// RecordSink accepts batches of projected records for a named destination
// and reports how many were inserted, merged or errored. Idempotent upsert
// keyed by (source, external_id) is the sink's responsibility.
type RecordSink interface {
	Upsert(ctx context.Context, destination string, rows []map[string]any) models.UpsertStats
	Ping(ctx context.Context) error
}

// RecordMirror persists canonical records to a local store for audit and
// offline analysis.
type RecordMirror interface {
	Write(records []*models.CanonicalRecord) error
	FetchAll() ([]*models.CanonicalRecord, error)
	Close() error
}

// DumpWriter persists the canonical record set to a local artifact before
// any network upload is attempted.
type DumpWriter interface {
	WriteDump(source string, records []*models.CanonicalRecord) (string, error)
}
