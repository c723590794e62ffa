package sqlite

import (
	"fmt"
)

type Config struct {
	DatabasePath string
}

func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	return nil
}

func (c *Config) GetType() string {
	return "sqlite"
}

// GetConnectionString enables foreign keys and a busy timeout so concurrent
// writers wait instead of failing with SQLITE_BUSY.
func (c *Config) GetConnectionString() string {
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", c.DatabasePath)
}

func DefaultConfig() *Config {
	return &Config{
		DatabasePath: "./course_matches.db",
	}
}
