package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Meta keys stored in dataset_meta.
const (
	metaVersion      = "version"
	metaIntroduction = "template_introduction"
	metaConclusion   = "template_conclusion"
)

// Stats summarizes the stored dataset.
type Stats struct {
	Version        string     `json:"version"`
	Festivals      int        `json:"festivals"`
	Congregations  int        `json:"congregations"`
	Topics         int        `json:"topics"`
	Sources        int        `json:"sources"`
	LastImportedAt *time.Time `json:"last_imported_at,omitempty"`
}

// ImportLogEntry records one import attempt.
type ImportLogEntry struct {
	ID            int64     `json:"id"`
	Version       string    `json:"version"`
	Source        string    `json:"source"`
	Success       bool      `json:"success"`
	ErrorMessage  *string   `json:"error_message,omitempty"`
	Festivals     int       `json:"festivals"`
	Congregations int       `json:"congregations"`
	Topics        int       `json:"topics"`
	ImportedAt    time.Time `json:"imported_at"`
}

// -----------------------------------------------------------------
// JSON column helpers
// -----------------------------------------------------------------

// marshalColumn encodes v for a JSON text column. Nil slices are stored
// as an empty array so the column never holds null.
func marshalColumn[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// unmarshalColumn decodes a JSON array column. An empty array decodes to
// nil, matching what the YAML loader produces for an absent list.
func unmarshalColumn[T any](s, column string) ([]T, error) {
	if s == "" {
		return nil, nil
	}
	var v []T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", column, err)
	}
	if len(v) == 0 {
		return nil, nil
	}
	return v, nil
}

// NullString converts sql.NullString to *string.
func NullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// parseTimestamp parses a timestamp from SQLite TEXT format. Returns nil
// if no known layout matches.
func parseTimestamp(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, ns.String); err == nil {
			return &t
		}
	}
	return nil
}
