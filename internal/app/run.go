package app

import (
	"context"
	"time"

	"course-matcher/internal/common/logging"
	"course-matcher/internal/server"
)

// ShutdownTimeout bounds the graceful HTTP shutdown
const ShutdownTimeout = 30 * time.Second

// Serve runs the HTTP server until ctx is canceled or the server fails, then
// shuts it down and releases every resource.
func (app *App) Serve(ctx context.Context) error {
	defer app.Cleanup()

	srv := server.New(app.Handler(), app.Config.Port)
	if err := srv.Start(); err != nil {
		app.Logger.Error("Server failed to start", err)
		return err
	}

	app.Logger.Info("Course matcher started",
		logging.Field{"port", app.Config.Port},
		logging.Field{"version", Version},
	)

	var serveErr error
	select {
	case <-ctx.Done():
		app.Logger.Info("Shutting down server...")
	case err := <-srv.Errors():
		serveErr = err
		app.Logger.Error("Server stopped unexpectedly", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("Server forced to shutdown", err)
		if serveErr == nil {
			serveErr = err
		}
	}

	app.Logger.Info("Server exited")
	return serveErr
}
