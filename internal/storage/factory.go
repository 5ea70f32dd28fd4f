package storage

import (
	"encoding/json"
	"fmt"

	"github.com/shaibs3/pageanalyzer/internal/storage/postgres"
	"github.com/shaibs3/pageanalyzer/internal/storage/shared"
	"github.com/shaibs3/pageanalyzer/internal/storage/sqlite"

	"github.com/shaibs3/pageanalyzer/internal/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ProviderFactory defines the interface for creating storage providers
type ProviderFactory interface {
	CreateProvider(configJSON string) (Provider, error)
}

var _ ProviderFactory = (*DbProviderFactory)(nil)

// DbProviderFactory builds a Provider from a JSON DbProviderConfig
type DbProviderFactory struct {
	logger    *zap.Logger
	telemetry *telemetry.Telemetry
}

func NewDbProviderFactory(logger *zap.Logger, tel *telemetry.Telemetry) *DbProviderFactory {
	return &DbProviderFactory{
		logger:    logger.Named("factory"),
		telemetry: tel,
	}
}

// CreateProvider parses configJSON and opens the matching provider.
// An empty configJSON selects the in-memory provider.
func (f *DbProviderFactory) CreateProvider(configJSON string) (Provider, error) {
	if configJSON == "" {
		f.logger.Info("no database configuration, using InMemoryProvider")
		return NewInMemoryProvider(), nil
	}

	var config shared.DbProviderConfig
	if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
		return nil, fmt.Errorf("failed to parse database configuration JSON: %w", err)
	}

	f.logger.Info("creating database provider", zap.String("db_type", config.DbType.String()))

	if !config.DbType.IsValid() {
		return nil, fmt.Errorf("unsupported database type: %s", config.DbType)
	}

	var telemetryMeter metric.Meter
	if f.telemetry != nil {
		telemetryMeter = f.telemetry.Meter
	}

	switch config.DbType {
	case shared.DbTypePostgres:
		provider, err := postgres.NewPostgresProvider(config, f.logger, telemetryMeter)
		if err != nil {
			return nil, err
		}
		return provider, nil
	case shared.DbTypeSQLite:
		provider, err := sqlite.NewSQLiteProvider(config, f.logger)
		if err != nil {
			return nil, err
		}
		return provider, nil
	case shared.DbTypeMemory:
		f.logger.Info("Using InMemoryProvider for DB")
		return NewInMemoryProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.DbType)
	}
}
