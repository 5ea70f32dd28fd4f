package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shaibs3/pageanalyzer/internal/db"
	"github.com/shaibs3/pageanalyzer/internal/storage/shared"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestProvider connects to TEST_DATABASE_URL and empties both tables.
// Tests are skipped when it is not set.
func newTestProvider(t *testing.T) *PostgresProvider {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	p, err := NewPostgresProvider(shared.DbProviderConfig{
		DbType:       shared.DbTypePostgres,
		ExtraDetails: map[string]interface{}{"conn_str": dsn},
	}, zap.NewNop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	_, err = p.sqlDB.Exec("TRUNCATE url_checks, urls RESTART IDENTITY CASCADE")
	require.NoError(t, err)
	return p
}

func TestIsExpectedOutcome(t *testing.T) {
	require.True(t, isExpectedOutcome(nil))
	require.True(t, isExpectedOutcome(db.ErrDuplicateURL))
	require.True(t, isExpectedOutcome(fmt.Errorf("create: %w", db.ErrURLNotFound)))
	require.False(t, isExpectedOutcome(sql.ErrConnDone))
	require.False(t, isExpectedOutcome(errors.New("connection reset")))
}

func TestNewPostgresProvider_RequiresConnStr(t *testing.T) {
	_, err := NewPostgresProvider(shared.DbProviderConfig{DbType: shared.DbTypePostgres}, zap.NewNop(), nil)
	require.EqualError(t, err, "conn_str is required for Postgres provider")
}

func TestPostgresProvider_DuplicateMapsToSentinel(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	id, err := p.CreateURL(ctx, "https://example.com", now)
	require.NoError(t, err)
	require.Positive(t, id)

	// Repeated clashes are answers, the breaker must stay closed
	for i := 0; i < 10; i++ {
		_, err = p.CreateURL(ctx, "https://example.com", now)
		require.ErrorIs(t, err, db.ErrDuplicateURL)
	}
	require.Equal(t, gobreaker.StateClosed, p.cb.State())

	for i := 0; i < 10; i++ {
		err = p.CreateCheck(ctx, &db.CheckRecord{URLID: id + 100, StatusCode: 200, CreatedAt: now})
		require.ErrorIs(t, err, db.ErrURLNotFound)
	}
	require.Equal(t, gobreaker.StateClosed, p.cb.State())

	checks, err := p.ListChecks(ctx, id+100)
	require.NoError(t, err)
	require.Empty(t, checks)
}

func TestPostgresProvider_FailuresOpenBreaker(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.sqlDB.Close())

	for i := 0; i < 4; i++ {
		_, err := p.FindURLByID(ctx, 1)
		require.Error(t, err)
		require.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
	require.Equal(t, gobreaker.StateOpen, p.cb.State())

	_, err := p.FindURLByID(ctx, 1)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
}
