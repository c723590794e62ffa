// Package cli implements the course-matcher command line
package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"course-matcher/internal/app"
	"course-matcher/internal/common/logging"
	"course-matcher/internal/config"
)

// NewRootCommand builds the command tree. appOpts are passed to every
// app.New call.
func NewRootCommand(appOpts ...app.Option) *cobra.Command {
	root := &cobra.Command{
		Use:   "course-matcher",
		Short: "Compare university course pages",
		Long: `course-matcher renders course description pages of two universities in a
headless browser, caches them in Redis and asks a language model whether the
course contents match.

Without a subcommand it starts the HTTP API.`,
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, appOpts)
		},
	}

	root.AddCommand(
		newServeCommand(appOpts),
		newCompareCommand(appOpts),
		newInvalidateCommand(appOpts),
	)

	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

// bootstrap loads .env and the environment, validates the configuration and
// installs the rotating file logger. The returned function flushes the log.
func bootstrap() (*config.Config, func(), error) {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, func() {}, fmt.Errorf("invalid configuration: %w", err)
	}

	closeLog, err := logging.InitGlobalLogger(logging.FileConfig{
		Level:      cfg.LogLevel,
		Path:       cfg.LogFile,
		MaxBytes:   cfg.LogMaxBytes,
		MaxBackups: cfg.LogBackupCount,
	})
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to initialize logging: %w", err)
	}

	return cfg, closeLog, nil
}
