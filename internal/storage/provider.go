package storage

import (
	"context"
	"time"

	"github.com/shaibs3/pageanalyzer/internal/db"
)

// Provider is the persistence gateway for URLs and their checks.
// Lookups return a nil record and a nil error when nothing matches.
type Provider interface {
	// CreateURL stores a new URL and returns its ID, or ErrDuplicateURL
	CreateURL(ctx context.Context, name string, createdAt time.Time) (int64, error)
	FindURLByName(ctx context.Context, name string) (*db.URLRecord, error)
	FindURLByID(ctx context.Context, id int64) (*db.URLRecord, error)
	// ListURLs returns all URLs, newest first, each with its latest check
	ListURLs(ctx context.Context) ([]db.URLSummary, error)
	// ListChecks returns the checks of a URL, most recent first
	ListChecks(ctx context.Context, urlID int64) ([]db.CheckRecord, error)
	// CreateCheck stores a check and fills in its ID, or returns ErrURLNotFound
	CreateCheck(ctx context.Context, check *db.CheckRecord) error
	Close() error
}
