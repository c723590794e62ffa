package storage

import (
	"fmt"

	"course-matcher/internal/common/errors"
	"course-matcher/internal/config"
)

// GenericConfig carries connection settings to a registered factory, which
// converts it to its own Config type.
type GenericConfig map[string]string

func (g GenericConfig) Validate() error {
	return nil
}

func (g GenericConfig) GetType() string {
	return g["type"]
}

func (g GenericConfig) GetConnectionString() string {
	return g["dsn"]
}

// NewStore creates the match record store selected by cfg. It returns nil and
// no error when persistence is disabled.
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.DatabaseType {
	case "none":
		return nil, nil
	case "sqlite":
		return Create("sqlite", GenericConfig{"type": "sqlite", "dsn": cfg.DatabasePath})
	case "postgres", "postgresql":
		return Create("postgres", GenericConfig{"type": "postgres", "dsn": cfg.DatabaseURL})
	default:
		return nil, errors.ConfigError(fmt.Sprintf("unsupported database type: %s", cfg.DatabaseType))
	}
}

// ScanMatch reads the columns selected by MatchColumns
func ScanMatch(row Scanner) (*MatchRecord, error) {
	var (
		record MatchRecord
		score  *int64
	)
	if err := row.Scan(&record.ID, &record.University1, &record.University2,
		&record.MatchResult, &score, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return nil, err
	}
	if score != nil {
		value := int(*score)
		record.Score = &value
	}
	return &record, nil
}

// MatchColumns is the column list understood by ScanMatch
const MatchColumns = "id, university_1, university_2, match_result, score, created_at, updated_at"
