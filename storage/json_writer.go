package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"auction-scraper/models"
)

// JSONWriter dumps the canonical record set to a timestamped file for audit
// and replay. The dump is written before any network upload is attempted, so
// a failed run can always be replayed from disk.
type JSONWriter struct {
	dir string
}

// NewJSONWriter creates the output directory if needed.
func NewJSONWriter(dir string) (*JSONWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("json dump: create output dir: %w", err)
	}
	return &JSONWriter{dir: dir}, nil
}

// WriteDump serializes the records to <dir>/<source>_<timestamp>.json and
// returns the written path.
func (w *JSONWriter) WriteDump(source string, records []*models.CanonicalRecord) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(w.dir, fmt.Sprintf("%s_%s.json", source, timestamp))

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("json dump: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("json dump: write %q: %w", path, err)
	}
	return path, nil
}
