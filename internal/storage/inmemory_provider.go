package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shaibs3/pageanalyzer/internal/db"
)

type InMemoryProvider struct {
	mu          sync.RWMutex
	urls        map[int64]db.URLRecord
	names       map[string]int64
	checks      map[int64][]db.CheckRecord
	nextURLID   int64
	nextCheckID int64
}

func NewInMemoryProvider() *InMemoryProvider {
	return &InMemoryProvider{
		urls:        make(map[int64]db.URLRecord),
		names:       make(map[string]int64),
		checks:      make(map[int64][]db.CheckRecord),
		nextURLID:   1,
		nextCheckID: 1,
	}
}

func (m *InMemoryProvider) CreateURL(ctx context.Context, name string, createdAt time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.names[name]; ok {
		return 0, ErrDuplicateURL
	}
	id := m.nextURLID
	m.nextURLID++
	m.urls[id] = db.URLRecord{ID: id, Name: name, CreatedAt: createdAt}
	m.names[name] = id
	return id, nil
}

func (m *InMemoryProvider) FindURLByName(ctx context.Context, name string) (*db.URLRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.names[name]
	if !ok {
		return nil, nil
	}
	rec := m.urls[id]
	return &rec, nil
}

func (m *InMemoryProvider) FindURLByID(ctx context.Context, id int64) (*db.URLRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.urls[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *InMemoryProvider) ListURLs(ctx context.Context) ([]db.URLSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	summaries := make([]db.URLSummary, 0, len(m.urls))
	for id, rec := range m.urls {
		s := db.URLSummary{URLRecord: rec}
		if checks := m.checks[id]; len(checks) > 0 {
			latest := checks[len(checks)-1]
			createdAt, status := latest.CreatedAt, latest.StatusCode
			s.LastCheckAt = &createdAt
			s.LastStatusCode = &status
		}
		summaries = append(summaries, s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID > summaries[j].ID
	})
	return summaries, nil
}

func (m *InMemoryProvider) ListChecks(ctx context.Context, urlID int64) ([]db.CheckRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored := m.checks[urlID]
	checks := make([]db.CheckRecord, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		checks = append(checks, stored[i])
	}
	return checks, nil
}

func (m *InMemoryProvider) CreateCheck(ctx context.Context, check *db.CheckRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.urls[check.URLID]; !ok {
		return ErrURLNotFound
	}
	check.ID = m.nextCheckID
	m.nextCheckID++
	m.checks[check.URLID] = append(m.checks[check.URLID], *check)
	return nil
}

func (m *InMemoryProvider) Close() error {
	return nil
}
