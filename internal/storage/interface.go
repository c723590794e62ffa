package storage

import (
	"context"
	"time"
)

// MatchRecord is a persisted comparison between two universities' courses
type MatchRecord struct {
	ID          int64     `json:"id"`
	University1 string    `json:"university_1"`
	University2 string    `json:"university_2"`
	MatchResult string    `json:"match_result"`
	Score       *int      `json:"score,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MatchFilter narrows ListMatches. Empty fields match everything.
type MatchFilter struct {
	University1 string
	University2 string
	Limit       int
	Offset      int
}

// DefaultListLimit applies when MatchFilter.Limit is not positive
const DefaultListLimit = 50

// MaxListLimit caps MatchFilter.Limit
const MaxListLimit = 500

// Store persists match records. Lookups of a missing id return an error of
// type errors.ErrTypeNotFound.
type Store interface {
	CreateMatch(ctx context.Context, record *MatchRecord) error
	GetMatch(ctx context.Context, id int64) (*MatchRecord, error)
	ListMatches(ctx context.Context, filter MatchFilter) ([]*MatchRecord, error)
	UpdateMatchResult(ctx context.Context, id int64, result string, score *int) (*MatchRecord, error)
	DeleteMatch(ctx context.Context, id int64) error

	Health(ctx context.Context) error
	Close() error
}

// Config is the adapter specific connection configuration
type Config interface {
	Validate() error
	GetType() string
	GetConnectionString() string
}

// Factory creates a Store from its Config
type Factory interface {
	Create(config Config) (Store, error)
	GetType() string
}

// Scanner is satisfied by *sql.Row and *sql.Rows
type Scanner interface {
	Scan(dest ...interface{}) error
}

// NormalizeLimit applies the default and maximum list sizes
func (f MatchFilter) NormalizeLimit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		return MaxListLimit
	}
	return f.Limit
}
