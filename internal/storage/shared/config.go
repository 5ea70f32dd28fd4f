package shared

// DbType names a storage backend
type DbType string

const (
	DbTypeMemory   DbType = "memory"
	DbTypeSQLite   DbType = "sqlite"
	DbTypePostgres DbType = "postgres"
)

func (t DbType) String() string {
	return string(t)
}

// IsValid reports whether t is a supported backend
func (t DbType) IsValid() bool {
	switch t {
	case DbTypeMemory, DbTypeSQLite, DbTypePostgres:
		return true
	}
	return false
}

// DbProviderConfig is the JSON shape of the DB_CONFIG setting
type DbProviderConfig struct {
	DbType       DbType                 `json:"db_type"`
	ExtraDetails map[string]interface{} `json:"extra_details"`
}

// StringDetail returns a string entry of ExtraDetails
func (c DbProviderConfig) StringDetail(key string) (string, bool) {
	v, ok := c.ExtraDetails[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
