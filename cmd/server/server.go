package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// shutdownTimeout bounds the graceful drain of in-flight requests.
const shutdownTimeout = 10 * time.Second

// startHTTPServer serves router until ctx is canceled, a SIGINT or SIGTERM
// arrives, or the listener fails. It then shuts the server down, disconnects
// the websockets the server no longer tracks and runs the application cleanup.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	listenErr := make(chan error, 1)
	go func() {
		app.logger.Info("Starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
		close(listenErr)
	}()

	var serveErr error
	select {
	case err := <-listenErr:
		serveErr = err
		app.logger.Error("Server failed", "error", err)
	case <-serverCtx.Done():
		app.logger.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("Server shutdown failed", "error", err)
		serveErr = errors.Join(serveErr, fmt.Errorf("server shutdown failed: %w", err))
	}

	app.closeRealtime(context.Background())
	app.cleanup()
	return serveErr
}

// closeRealtime disconnects every websocket. Presence and lock broadcasts go
// out here, so it must finish before the bus and worker pool are closed.
func (app *application) closeRealtime(ctx context.Context) {
	n := app.registry.DisconnectAll(ctx)
	app.logger.Info("Closed realtime connections", "count", n)
}
