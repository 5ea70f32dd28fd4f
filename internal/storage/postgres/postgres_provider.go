package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/shaibs3/pageanalyzer/internal/db"
	"github.com/shaibs3/pageanalyzer/internal/storage/shared"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type PostgresProvider struct {
	sqlDB      *sql.DB
	gormDB     *gorm.DB
	logger     *zap.Logger
	cb         *gobreaker.CircuitBreaker
	errCounter metric.Int64Counter
}

func NewPostgresProvider(config shared.DbProviderConfig, logger *zap.Logger, meter metric.Meter) (*PostgresProvider, error) {
	pgLogger := logger.Named("postgres")

	connStr, ok := config.StringDetail("conn_str")
	if !ok {
		return nil, fmt.Errorf("conn_str is required for Postgres provider")
	}
	pgLogger.Info("initializing Postgres provider")

	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		pgLogger.Error("failed to open Postgres connection", zap.Error(err))
		return nil, fmt.Errorf("failed to open Postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		pgLogger.Error("failed to ping Postgres", zap.Error(err))
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	if _, err := sqlDB.ExecContext(ctx, db.Schema); err != nil {
		_ = sqlDB.Close()
		pgLogger.Error("failed to create initial tables", zap.Error(err))
		return nil, fmt.Errorf("failed to create initial tables: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to open GORM connection: %w", err)
	}

	var errCounter metric.Int64Counter
	if meter != nil {
		errCounter, err = meter.Int64Counter("storage_errors_total",
			metric.WithDescription("Failed storage operations"))
		if err != nil {
			pgLogger.Warn("failed to create storage error counter", zap.Error(err))
		}
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "PostgresDB",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		IsSuccessful: isExpectedOutcome,
		OnStateChange: func(name string, from, to gobreaker.State) {
			pgLogger.Warn("circuit breaker state changed",
				zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	pgLogger.Info("Postgres provider initialized successfully")
	return &PostgresProvider{
		sqlDB:      sqlDB,
		gormDB:     gormDB,
		logger:     pgLogger,
		cb:         cb,
		errCounter: errCounter,
	}, nil
}

// isExpectedOutcome reports whether err leaves the database healthy. The
// duplicate and missing-url sentinels are answers, not failures, and must not
// count toward tripping the breaker.
func isExpectedOutcome(err error) bool {
	return err == nil || errors.Is(err, db.ErrDuplicateURL) || errors.Is(err, db.ErrURLNotFound)
}

// execute runs fn through the circuit breaker. Failures are never retried.
func execute[T any](ctx context.Context, p *PostgresProvider, op string, fn func() (T, error)) (T, error) {
	res, err := p.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if !isExpectedOutcome(err) {
			p.logger.Error("postgres operation failed", zap.String("op", op), zap.Error(err))
			if p.errCounter != nil {
				p.errCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
			}
		}
		var zero T
		return zero, err
	}
	return res.(T), nil
}

func (p *PostgresProvider) CreateURL(ctx context.Context, name string, createdAt time.Time) (int64, error) {
	return execute(ctx, p, "create_url", func() (int64, error) {
		u := GormURL{Name: name, CreatedAt: createdAt.UTC()}
		res := p.gormDB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&u)
		if res.Error != nil {
			return 0, fmt.Errorf("failed to insert url: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return 0, db.ErrDuplicateURL
		}
		return u.ID, nil
	})
}

func (p *PostgresProvider) FindURLByName(ctx context.Context, name string) (*db.URLRecord, error) {
	return execute(ctx, p, "find_url_by_name", func() (*db.URLRecord, error) {
		return p.findURL(ctx, "name = ?", name)
	})
}

func (p *PostgresProvider) FindURLByID(ctx context.Context, id int64) (*db.URLRecord, error) {
	return execute(ctx, p, "find_url_by_id", func() (*db.URLRecord, error) {
		return p.findURL(ctx, "id = ?", id)
	})
}

func (p *PostgresProvider) findURL(ctx context.Context, query string, arg interface{}) (*db.URLRecord, error) {
	var u GormURL
	err := p.gormDB.WithContext(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find url: %w", err)
	}
	rec := u.toRecord()
	return &rec, nil
}

func (p *PostgresProvider) ListURLs(ctx context.Context) ([]db.URLSummary, error) {
	return execute(ctx, p, "list_urls", func() ([]db.URLSummary, error) {
		var rows []urlSummaryRow
		if err := p.gormDB.WithContext(ctx).Raw(db.ListURLsQuery).Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to list urls: %w", err)
		}
		summaries := make([]db.URLSummary, len(rows))
		for i, r := range rows {
			summaries[i] = db.URLSummary{
				URLRecord:      db.URLRecord{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt},
				LastCheckAt:    r.LastCheckAt,
				LastStatusCode: r.LastStatusCode,
			}
		}
		return summaries, nil
	})
}

func (p *PostgresProvider) ListChecks(ctx context.Context, urlID int64) ([]db.CheckRecord, error) {
	return execute(ctx, p, "list_checks", func() ([]db.CheckRecord, error) {
		var rows []GormCheck
		if err := p.gormDB.WithContext(ctx).Where("url_id = ?", urlID).Order("id DESC").Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to list checks: %w", err)
		}
		checks := make([]db.CheckRecord, len(rows))
		for i, r := range rows {
			checks[i] = r.toRecord()
		}
		return checks, nil
	})
}

func (p *PostgresProvider) CreateCheck(ctx context.Context, check *db.CheckRecord) error {
	_, err := execute(ctx, p, "create_check", func() (struct{}, error) {
		return struct{}{}, p.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&GormURL{}).Where("id = ?", check.URLID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to look up url: %w", err)
			}
			if count == 0 {
				return db.ErrURLNotFound
			}
			row := GormCheck{
				URLID:       check.URLID,
				StatusCode:  check.StatusCode,
				H1:          check.H1,
				Title:       check.Title,
				Description: check.Description,
				CreatedAt:   check.CreatedAt.UTC(),
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to insert check: %w", err)
			}
			check.ID = row.ID
			return nil
		})
	})
	return err
}

func (p *PostgresProvider) Close() error {
	p.logger.Info("closing Postgres provider")
	return p.sqlDB.Close()
}
