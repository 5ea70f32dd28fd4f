package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/shaibs3/pageanalyzer/internal/db"
	"github.com/shaibs3/pageanalyzer/internal/storage/shared"
	"go.uber.org/zap"
)

// dsnParams enables foreign keys on every connection and stores timestamps
// in a layout the driver parses back into time.Time.
const dsnParams = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

// SQLiteProvider stores URLs and checks in a single SQLite file
type SQLiteProvider struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLiteProvider(config shared.DbProviderConfig, logger *zap.Logger) (*SQLiteProvider, error) {
	sqliteLogger := logger.Named("sqlite")

	path, ok := config.StringDetail("path")
	if !ok {
		return nil, fmt.Errorf("path is required for SQLite provider")
	}
	sqliteLogger.Info("initializing SQLite provider", zap.String("path", path))

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite has a single writer
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if _, err := conn.ExecContext(context.Background(), db.SQLiteSchema); err != nil {
		_ = conn.Close()
		sqliteLogger.Error("failed to create tables", zap.Error(err))
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	sqliteLogger.Info("SQLite provider initialized successfully")
	return &SQLiteProvider{db: conn, logger: sqliteLogger}, nil
}

func (p *SQLiteProvider) CreateURL(ctx context.Context, name string, createdAt time.Time) (int64, error) {
	return db.InsertURL(ctx, p.db, name, createdAt.UTC())
}

func (p *SQLiteProvider) FindURLByName(ctx context.Context, name string) (*db.URLRecord, error) {
	return db.GetURLByName(ctx, p.db, name)
}

func (p *SQLiteProvider) FindURLByID(ctx context.Context, id int64) (*db.URLRecord, error) {
	return db.GetURLByID(ctx, p.db, id)
}

func (p *SQLiteProvider) ListURLs(ctx context.Context) ([]db.URLSummary, error) {
	return db.ListURLs(ctx, p.db)
}

func (p *SQLiteProvider) ListChecks(ctx context.Context, urlID int64) ([]db.CheckRecord, error) {
	return db.GetChecksByURLID(ctx, p.db, urlID)
}

func (p *SQLiteProvider) CreateCheck(ctx context.Context, check *db.CheckRecord) error {
	check.CreatedAt = check.CreatedAt.UTC()
	return db.InsertCheck(ctx, p.db, check)
}

func (p *SQLiteProvider) Close() error {
	p.logger.Info("closing SQLite provider")
	return p.db.Close()
}
