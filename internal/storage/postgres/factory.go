package postgres

import (
	"fmt"

	"course-matcher/internal/storage"
)

type Factory struct{}

func (f *Factory) Create(config storage.Config) (storage.Store, error) {
	switch c := config.(type) {
	case *Config:
		return NewAdapter(c)
	case storage.GenericConfig:
		pgConfig, err := NewConfigFromURL(c.GetConnectionString())
		if err != nil {
			return nil, err
		}
		return NewAdapter(pgConfig)
	default:
		return nil, fmt.Errorf("invalid config type for PostgreSQL storage")
	}
}

func (f *Factory) GetType() string {
	return "postgres"
}

func init() {
	storage.Register("postgres", &Factory{})
}
