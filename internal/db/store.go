package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDuplicateURL is returned when a URL with the same name already exists
	ErrDuplicateURL = errors.New("url already exists")
	// ErrURLNotFound is returned when a check references a missing URL
	ErrURLNotFound = errors.New("url not found")
)

// InsertURL inserts a new URL and returns its ID. The statements in this file
// use "?" placeholders and target the embedded SQLite store.
func InsertURL(ctx context.Context, db *sql.DB, name string, createdAt time.Time) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx,
		`INSERT INTO urls (name, created_at) VALUES (?, ?)
		ON CONFLICT (name) DO NOTHING
		RETURNING id`,
		name, createdAt).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDuplicateURL
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert url: %w", err)
	}
	return id, nil
}

// GetURLByName returns the URL with the given name, or nil if there is none
func GetURLByName(ctx context.Context, db *sql.DB, name string) (*URLRecord, error) {
	return scanURL(db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM urls WHERE name = ?`, name))
}

// GetURLByID returns the URL with the given ID, or nil if there is none
func GetURLByID(ctx context.Context, db *sql.DB, id int64) (*URLRecord, error) {
	return scanURL(db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM urls WHERE id = ?`, id))
}

func scanURL(row *sql.Row) (*URLRecord, error) {
	var rec URLRecord
	err := row.Scan(&rec.ID, &rec.Name, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan url: %w", err)
	}
	return &rec, nil
}

// ListURLs returns all URLs, newest first, with their latest check
func ListURLs(ctx context.Context, db *sql.DB) ([]URLSummary, error) {
	rows, err := db.QueryContext(ctx, ListURLsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list urls: %w", err)
	}
	defer rows.Close()

	var summaries []URLSummary
	for rows.Next() {
		var (
			s          URLSummary
			lastCheck  sql.NullTime
			lastStatus sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &lastCheck, &lastStatus); err != nil {
			return nil, fmt.Errorf("failed to scan url summary: %w", err)
		}
		if lastCheck.Valid {
			t := lastCheck.Time
			s.LastCheckAt = &t
		}
		if lastStatus.Valid {
			code := int(lastStatus.Int64)
			s.LastStatusCode = &code
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetChecksByURLID returns all checks of a URL, most recent first
func GetChecksByURLID(ctx context.Context, db *sql.DB, urlID int64) ([]CheckRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, url_id, status_code, h1, title, description, created_at
		FROM url_checks
		WHERE url_id = ?
		ORDER BY id DESC
	`, urlID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checks: %w", err)
	}
	defer rows.Close()

	var checks []CheckRecord
	for rows.Next() {
		var c CheckRecord
		if err := rows.Scan(&c.ID, &c.URLID, &c.StatusCode, &c.H1, &c.Title, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan check: %w", err)
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

// InsertCheck stores a check and sets its ID. The URL existence check and the
// insert run in one transaction.
func InsertCheck(ctx context.Context, db *sql.DB, check *CheckRecord) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM urls WHERE id = ?`, check.URLID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrURLNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up url: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO url_checks (url_id, status_code, h1, title, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`, check.URLID, check.StatusCode, check.H1, check.Title, check.Description, check.CreatedAt).Scan(&check.ID)
	if err != nil {
		return fmt.Errorf("failed to insert check: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
