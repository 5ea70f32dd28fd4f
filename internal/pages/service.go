package pages

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shaibs3/pageanalyzer/internal/analyzer"
	"github.com/shaibs3/pageanalyzer/internal/db"
	"github.com/shaibs3/pageanalyzer/internal/storage"
	"github.com/shaibs3/pageanalyzer/internal/urlutil"
	"go.uber.org/zap"
)

// PageAnalyzer fetches a page and extracts its SEO fields
type PageAnalyzer interface {
	Analyze(ctx context.Context, pageURL string) (*analyzer.PageInfo, error)
}

// Service ties URL submission and page checks to the storage provider
type Service struct {
	store    storage.Provider
	analyzer PageAnalyzer
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store storage.Provider, pageAnalyzer PageAnalyzer, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		analyzer: pageAnalyzer,
		logger:   logger.Named("pages"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddURL validates and normalizes raw and stores it unless a URL with the
// same normalized name exists. It returns the URL's ID and whether it was
// created by this call. Surrounding whitespace is ignored. Invalid input yields a *urlutil.ValidationError.
func (s *Service) AddURL(ctx context.Context, raw string) (int64, bool, error) {
	raw = strings.TrimSpace(raw)
	if err := urlutil.Validate(raw); err != nil {
		return 0, false, err
	}
	name := urlutil.Normalize(raw)

	existing, err := s.store.FindURLByName(ctx, name)
	if err != nil {
		return 0, false, &PersistenceError{Op: "find url", Err: err}
	}
	if existing != nil {
		return existing.ID, false, nil
	}

	id, err := s.store.CreateURL(ctx, name, s.now())
	if errors.Is(err, storage.ErrDuplicateURL) {
		// lost a race with a concurrent submission of the same URL
		existing, err = s.store.FindURLByName(ctx, name)
		if err != nil {
			return 0, false, &PersistenceError{Op: "find url", Err: err}
		}
		if existing == nil {
			return 0, false, &PersistenceError{Op: "create url", Err: storage.ErrDuplicateURL}
		}
		return existing.ID, false, nil
	}
	if err != nil {
		return 0, false, &PersistenceError{Op: "create url", Err: err}
	}

	s.logger.Info("url added", zap.Int64("url_id", id), zap.String("name", name))
	return id, true, nil
}

// GetURL returns a stored URL and its checks, most recent first
func (s *Service) GetURL(ctx context.Context, id int64) (*db.URLRecord, []db.CheckRecord, error) {
	rec, err := s.findURL(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	checks, err := s.store.ListChecks(ctx, id)
	if err != nil {
		return nil, nil, &PersistenceError{Op: "list checks", Err: err}
	}
	return rec, checks, nil
}

// ListURLs returns all stored URLs, newest first, with their latest check
func (s *Service) ListURLs(ctx context.Context) ([]db.URLSummary, error) {
	summaries, err := s.store.ListURLs(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list urls", Err: err}
	}
	return summaries, nil
}

// CheckURL fetches the stored URL and records the result as a new check.
// A failed fetch is returned as *analyzer.FetchError and records nothing.
func (s *Service) CheckURL(ctx context.Context, id int64) (*db.CheckRecord, error) {
	rec, err := s.findURL(ctx, id)
	if err != nil {
		return nil, err
	}

	info, err := s.analyzer.Analyze(ctx, rec.Name)
	if err != nil {
		s.logger.Warn("page check failed", zap.Int64("url_id", id), zap.String("name", rec.Name), zap.Error(err))
		return nil, err
	}

	check := &db.CheckRecord{
		URLID:       id,
		StatusCode:  info.StatusCode,
		H1:          info.H1,
		Title:       info.Title,
		Description: info.Description,
		CreatedAt:   s.now(),
	}
	if err := s.store.CreateCheck(ctx, check); err != nil {
		if errors.Is(err, storage.ErrURLNotFound) {
			return nil, ErrURLNotFound
		}
		return nil, &PersistenceError{Op: "create check", Err: err}
	}

	s.logger.Info("page checked",
		zap.Int64("url_id", id),
		zap.Int64("check_id", check.ID),
		zap.Int("status_code", check.StatusCode),
	)
	return check, nil
}

func (s *Service) findURL(ctx context.Context, id int64) (*db.URLRecord, error) {
	rec, err := s.store.FindURLByID(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "find url", Err: err}
	}
	if rec == nil {
		return nil, ErrURLNotFound
	}
	return rec, nil
}
