package catalog

import (
	"fmt"
	"time"
)

// InsertDocument inserts or refreshes a document row and returns its ID.
// Re-scanning an existing path updates the scan timestamp and ref count.
func (c *Catalog) InsertDocument(path, stem string, refCount int) (int64, error) {
	_, err := c.Exec(`
		INSERT INTO documents (path, stem, ref_count, last_scanned_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			stem = excluded.stem,
			ref_count = excluded.ref_count,
			last_scanned_at = CURRENT_TIMESTAMP
	`, path, stem, refCount)
	if err != nil {
		return 0, fmt.Errorf("failed to insert document: %w", err)
	}

	var docID int64
	if err := c.QueryRow("SELECT doc_id FROM documents WHERE path = ?", path).Scan(&docID); err != nil {
		return 0, fmt.Errorf("failed to query document ID: %w", err)
	}
	return docID, nil
}

// InsertRef inserts or updates a reference for a document and returns its ID.
// The (doc_id, name) pair is unique; a re-scan with a new URL for the same
// name replaces the stored URL (last definition wins).
func (c *Catalog) InsertRef(docID int64, name, url string) (int64, error) {
	_, err := c.Exec(`
		INSERT INTO refs (doc_id, name, url)
		VALUES (?, ?, ?)
		ON CONFLICT(doc_id, name) DO UPDATE SET url = excluded.url
	`, docID, name, url)
	if err != nil {
		return 0, fmt.Errorf("failed to insert ref: %w", err)
	}

	var refID int64
	if err := c.QueryRow("SELECT ref_id FROM refs WHERE doc_id = ? AND name = ?", docID, name).Scan(&refID); err != nil {
		return 0, fmt.Errorf("failed to query ref ID: %w", err)
	}
	return refID, nil
}

// RecordFetch records one fetch outcome for a reference.
func (c *Catalog) RecordFetch(refID int64, outcome string, statusCode, attempts int, sizeBytes int64, errMsg string) error {
	_, err := c.Exec(`
		INSERT INTO fetches (ref_id, outcome, status_code, attempts, size_bytes, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`, refID, outcome, statusCode, attempts, sizeBytes, errMsg)
	if err != nil {
		return fmt.Errorf("failed to record fetch: %w", err)
	}
	return nil
}

// FetchRecord is one row of fetch history joined with its reference.
type FetchRecord struct {
	DocumentPath string    `yaml:"document"`
	Name         string    `yaml:"name"`
	URL          string    `yaml:"url"`
	Outcome      string    `yaml:"outcome"`
	StatusCode   int       `yaml:"status_code,omitempty"`
	Attempts     int       `yaml:"attempts,omitempty"`
	SizeBytes    int64     `yaml:"size_bytes,omitempty"`
	Error        string    `yaml:"error,omitempty"`
	FetchedAt    time.Time `yaml:"fetched_at"`
}

// RecentFetches returns the most recent fetch records, newest first.
func (c *Catalog) RecentFetches(limit int) ([]FetchRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := c.Query(`
		SELECT d.path, r.name, r.url, f.outcome, f.status_code, f.attempts, f.size_bytes,
		       COALESCE(f.error, ''), f.fetched_at
		FROM fetches f
		JOIN refs r ON r.ref_id = f.ref_id
		JOIN documents d ON d.doc_id = r.doc_id
		ORDER BY f.fetch_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetches: %w", err)
	}
	defer rows.Close()

	var records []FetchRecord
	for rows.Next() {
		var rec FetchRecord
		if err := rows.Scan(&rec.DocumentPath, &rec.Name, &rec.URL, &rec.Outcome,
			&rec.StatusCode, &rec.Attempts, &rec.SizeBytes, &rec.Error, &rec.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fetch row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
