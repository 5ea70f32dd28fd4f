package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/shaibs3/pageanalyzer/internal/db"
	"github.com/shaibs3/pageanalyzer/internal/storage/postgres"
	"github.com/shaibs3/pageanalyzer/internal/storage/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func providers(t *testing.T) map[string]Provider {
	t.Helper()
	sqliteProvider, err := sqlite.NewSQLiteProvider(DbProviderConfig{
		DbType:       DbTypeSQLite,
		ExtraDetails: map[string]interface{}{"path": filepath.Join(t.TempDir(), "pages.db")},
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteProvider.Close() })

	all := map[string]Provider{
		"memory": NewInMemoryProvider(),
		"sqlite": sqliteProvider,
	}

	// Postgres joins the contract run when a disposable database is provided
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		pgProvider, err := postgres.NewPostgresProvider(DbProviderConfig{
			DbType:       DbTypePostgres,
			ExtraDetails: map[string]interface{}{"conn_str": dsn},
		}, zap.NewNop(), nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = pgProvider.Close() })
		truncatePostgres(t, dsn)
		all["postgres"] = pgProvider
	}
	return all
}

func truncatePostgres(t *testing.T, dsn string) {
	t.Helper()
	conn, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Exec("TRUNCATE url_checks, urls RESTART IDENTITY CASCADE")
	require.NoError(t, err)
}

func TestProvider_URLs(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now().UTC().Truncate(time.Second)

			id, err := p.CreateURL(ctx, "https://example.com", now)
			require.NoError(t, err)
			require.Positive(t, id)

			_, err = p.CreateURL(ctx, "https://example.com", now)
			require.ErrorIs(t, err, ErrDuplicateURL)

			rec, err := p.FindURLByName(ctx, "https://example.com")
			require.NoError(t, err)
			require.NotNil(t, rec)
			require.Equal(t, id, rec.ID)
			require.True(t, now.Equal(rec.CreatedAt), "created_at round trip: %v != %v", now, rec.CreatedAt)

			rec, err = p.FindURLByID(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, rec)
			require.Equal(t, "https://example.com", rec.Name)

			rec, err = p.FindURLByName(ctx, "https://missing.example")
			require.NoError(t, err)
			require.Nil(t, rec)

			rec, err = p.FindURLByID(ctx, id+100)
			require.NoError(t, err)
			require.Nil(t, rec)
		})
	}
}

func TestProvider_Checks(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Now().UTC().Truncate(time.Second)

			firstID, err := p.CreateURL(ctx, "https://first.example", now)
			require.NoError(t, err)
			secondID, err := p.CreateURL(ctx, "https://second.example", now)
			require.NoError(t, err)

			checks, err := p.ListChecks(ctx, firstID)
			require.NoError(t, err)
			require.Empty(t, checks)

			for i, status := range []int{200, 301} {
				check := &db.CheckRecord{
					URLID:       firstID,
					StatusCode:  status,
					H1:          "Heading",
					Title:       "Title",
					Description: "Description",
					CreatedAt:   now.Add(time.Duration(i) * time.Minute),
				}
				require.NoError(t, p.CreateCheck(ctx, check))
				require.Positive(t, check.ID)
			}

			checks, err = p.ListChecks(ctx, firstID)
			require.NoError(t, err)
			require.Len(t, checks, 2)
			require.Equal(t, 301, checks[0].StatusCode, "most recent check first")
			require.Equal(t, 200, checks[1].StatusCode)
			require.Equal(t, "Heading", checks[0].H1)
			require.Equal(t, firstID, checks[0].URLID)

			err = p.CreateCheck(ctx, &db.CheckRecord{URLID: secondID + 100, CreatedAt: now})
			require.ErrorIs(t, err, ErrURLNotFound)

			summaries, err := p.ListURLs(ctx)
			require.NoError(t, err)
			require.Len(t, summaries, 2)
			require.Equal(t, secondID, summaries[0].ID, "newest url first")
			require.Nil(t, summaries[0].LastStatusCode)
			require.Nil(t, summaries[0].LastCheckAt)
			require.Equal(t, firstID, summaries[1].ID)
			require.NotNil(t, summaries[1].LastStatusCode)
			require.Equal(t, 301, *summaries[1].LastStatusCode)
			require.NotNil(t, summaries[1].LastCheckAt)
			require.True(t, now.Add(time.Minute).Equal(*summaries[1].LastCheckAt))
		})
	}
}

func TestInMemoryProvider_ConcurrentCreate(t *testing.T) {
	p := NewInMemoryProvider()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.CreateURL(ctx, "https://example.com", time.Now()); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, created)
}
