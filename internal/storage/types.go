package storage

import (
	"github.com/shaibs3/pageanalyzer/internal/db"
	"github.com/shaibs3/pageanalyzer/internal/storage/shared"
)

// Re-export shared types for convenience
type DbType = shared.DbType
type DbProviderConfig = shared.DbProviderConfig

const (
	DbTypeMemory   = shared.DbTypeMemory
	DbTypeSQLite   = shared.DbTypeSQLite
	DbTypePostgres = shared.DbTypePostgres
)

var (
	ErrDuplicateURL = db.ErrDuplicateURL
	ErrURLNotFound  = db.ErrURLNotFound
)
