package index

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/onepage/internal/apperr"
	"github.com/starford/onepage/internal/models"
)

// SearchResult is one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Upsert inserts or replaces a catalogue row and its search text.
func (db *DB) Upsert(m models.AnalysisMetadata, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.Exec(`
		INSERT INTO analyses (path, title, method, fields, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			method     = excluded.method,
			fields     = excluded.fields,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, m.Path, m.Title, m.Method, m.Fields, m.Checksum, body, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert analysis: %w", err)
	}
	if err := ftsUpsert(tx, m.Path, m.Title, body); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a row and its search text.
func (db *DB) Delete(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM analyses WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete analysis: %w", err)
	}
	return tx.Commit()
}

const metadataColumns = `path, title, method, fields, checksum, updated_at`

func scanMetadata(s interface{ Scan(...any) error }) (models.AnalysisMetadata, error) {
	var m models.AnalysisMetadata
	err := s.Scan(&m.Path, &m.Title, &m.Method, &m.Fields, &m.Checksum, &m.UpdatedAt)
	return m, err
}

// Get returns the catalogue row for path.
func (db *DB) Get(path string) (*models.AnalysisMetadata, error) {
	m, err := scanMetadata(db.conn.QueryRow(`SELECT `+metadataColumns+` FROM analyses WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get analysis: %w", err)
	}
	return &m, nil
}

// GetChecksum returns the stored checksum for path, or "" when it is not
// catalogued.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM analyses WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// List returns one page of rows, most recently updated first, and the total
// row count.
func (db *DB) List(limit, offset int) ([]models.AnalysisMetadata, int, error) {
	if limit <= 0 {
		limit = 50
	}
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM analyses`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count: %w", err)
	}
	rows, err := db.conn.Query(`SELECT `+metadataColumns+` FROM analyses
		ORDER BY updated_at DESC, path ASC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list: %w", err)
	}
	defer rows.Close()

	out := []models.AnalysisMetadata{}
	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

// AllChecksums maps every catalogued path to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM analyses`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
