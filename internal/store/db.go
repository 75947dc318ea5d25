// Package store persists the resolved-listing cache and the upload index
// in Postgres.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "embed"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
}

func NewStore(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing connection, used by tests.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RunMigrations applies the embedded schema. Every statement is idempotent,
// so the schema runs on each start.
func (s *Store) RunMigrations() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Listing is one cached resolution of a floor-plan page.
type Listing struct {
	PageURL    string
	ProjectID  string
	SaleStatus string
	Address    string
	ImageURL   string
	ResolvedAt time.Time
	ExpiresAt  time.Time
}

// GetListing returns the unexpired cache row for a page URL, or nil when
// there is none.
func (s *Store) GetListing(ctx context.Context, pageURL string) (*Listing, error) {
	var l Listing
	err := s.db.QueryRowContext(ctx, `
SELECT page_url, project_id, sale_status, address, image_url, resolved_at, expires_at
FROM listing_cache
WHERE page_url = $1 AND expires_at > NOW()
`, pageURL).Scan(&l.PageURL, &l.ProjectID, &l.SaleStatus, &l.Address, &l.ImageURL, &l.ResolvedAt, &l.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) UpsertListing(ctx context.Context, l Listing) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO listing_cache (page_url, project_id, sale_status, address, image_url, resolved_at, expires_at)
VALUES ($1, $2, $3, $4, $5, NOW(), $6)
ON CONFLICT (page_url) DO UPDATE SET
    project_id = EXCLUDED.project_id,
    sale_status = EXCLUDED.sale_status,
    address = EXCLUDED.address,
    image_url = EXCLUDED.image_url,
    resolved_at = NOW(),
    expires_at = EXCLUDED.expires_at
`, l.PageURL, l.ProjectID, l.SaleStatus, l.Address, l.ImageURL, l.ExpiresAt)
	return err
}

func (s *Store) DeleteExpiredListings(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM listing_cache
WHERE expires_at <= NOW()
`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RecordUpload indexes a stored file. Re-uploading identical content maps
// to the same filename, so conflicts are expected and ignored.
func (s *Store) RecordUpload(ctx context.Context, filename, kind string, sizeBytes int64) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO uploads (filename, kind, size_bytes, created_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (filename) DO NOTHING
`, filename, kind, sizeBytes)
	return err
}

// DeleteUploadsBefore removes index rows older than the cutoff and returns
// their filenames so the caller can delete the disk files.
func (s *Store) DeleteUploadsBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
DELETE FROM uploads
WHERE created_at < $1
RETURNING filename
`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var filenames []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		filenames = append(filenames, name)
	}
	return filenames, rows.Err()
}
