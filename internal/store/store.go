// Package store persists document records in a local SQLite database.
//
// The crawl may run for hours against a slow remote site, so durability
// of incremental progress wins over throughput: WAL journaling, one
// transaction per upsert, no batching. A crash mid-crawl leaves the
// database readable with every committed record intact.
package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Record is one row of the documents table, keyed by detail-page URL.
type Record struct {
	PageURL       string
	DocumentDate  string
	DirectPDFURL  sql.NullString
	Duplicate     string
	DiscoveryYear sql.NullInt64
}

// DownloadRow is the projection the download stage consumes.
type DownloadRow struct {
	RowID  int64
	PDFURL string
	Year   sql.NullInt64
}

// Store wraps the SQLite handle. It is written by the single crawl
// goroutine only; no external writer contention is designed for.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	page_url       TEXT PRIMARY KEY,
	document_date  TEXT,
	direct_pdf_url TEXT,
	duplicate      TEXT NOT NULL DEFAULT 'No',
	discovery_year INTEGER
);

CREATE INDEX IF NOT EXISTS idx_documents_year ON documents(discovery_year);
`

// Open opens or creates the database at path, applies the durability
// pragmas, and creates the schema if absent. Idempotent across calls.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: create schema")
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert writes one document record, replacing any existing row with
// the same page URL. The first insert for a key carries duplicate='No';
// every re-insert becomes 'Yes', even when the payload is identical.
// Each call commits before returning. It reports whether the key had
// been seen before.
func (s *Store) Upsert(ctx context.Context, pageURL, documentDate, pdfURL string, year int) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM documents WHERE page_url = ?`, pageURL,
	).Scan(&exists)
	duplicate := false
	switch {
	case err == nil:
		duplicate = true
	case err == sql.ErrNoRows:
	default:
		return false, eris.Wrapf(err, "sqlite: check existing %s", pageURL)
	}

	flag := "No"
	if duplicate {
		flag = "Yes"
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO documents
		 (page_url, document_date, direct_pdf_url, duplicate, discovery_year)
		 VALUES (?, ?, ?, ?, ?)`,
		pageURL, documentDate, nullString(pdfURL), flag, year,
	)
	if err != nil {
		return duplicate, eris.Wrapf(err, "sqlite: upsert %s", pageURL)
	}
	return duplicate, nil
}

// Get returns the record for a page URL, or nil when absent.
func (s *Store) Get(ctx context.Context, pageURL string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT page_url, document_date, direct_pdf_url, duplicate, discovery_year
		 FROM documents WHERE page_url = ?`, pageURL,
	)
	var r Record
	err := row.Scan(&r.PageURL, &r.DocumentDate, &r.DirectPDFURL, &r.Duplicate, &r.DiscoveryYear)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get %s", pageURL)
	}
	return &r, nil
}

// Count reports how many records exist, optionally for a single year.
func (s *Store) Count(ctx context.Context, year *int) (int, error) {
	query := `SELECT COUNT(*) FROM documents`
	var args []any
	if year != nil {
		query += ` WHERE discovery_year = ?`
		args = append(args, *year)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count")
	}
	return n, nil
}

// Downloadable returns the rows with a resolved PDF link, sorted by
// discovery year then insertion order. Rows without a year sort last.
// Duplicates are excluded unless includeDuplicates is set.
func (s *Store) Downloadable(ctx context.Context, includeDuplicates bool) ([]DownloadRow, error) {
	query := `
		SELECT rowid, direct_pdf_url, discovery_year
		FROM documents
		WHERE direct_pdf_url IS NOT NULL AND direct_pdf_url != ''`
	if !includeDuplicates {
		query += `
		AND (duplicate IS NULL OR duplicate = 'No')`
	}
	query += `
		ORDER BY COALESCE(discovery_year, 9999), rowid`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list downloadable")
	}
	defer rows.Close()

	var out []DownloadRow
	for rows.Next() {
		var r DownloadRow
		if err := rows.Scan(&r.RowID, &r.PDFURL, &r.Year); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan downloadable")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate downloadable")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
