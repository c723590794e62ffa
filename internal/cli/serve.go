package cli

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"course-matcher/internal/app"
	"course-matcher/internal/common/logging"
)

func newServeCommand(appOpts []app.Option) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, appOpts)
		},
	}
}

func runServe(cmd *cobra.Command, appOpts []app.Option) error {
	cfg, closeLog, err := bootstrap()
	if err != nil {
		return err
	}
	defer closeLog()

	logging.Info("Starting course matcher",
		logging.Field{"cpus", runtime.NumCPU()},
		logging.Field{"version", app.Version},
	)

	application, err := app.New(cfg, appOpts...)
	if err != nil {
		logging.Error("Failed to initialize application", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return application.Serve(ctx)
}
