package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"goflare.io/broker/internal/http/api"
)

const shutdownTimeout = 15 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the read API over HTTP",
		Action: func(cliCtx *cli.Context) error {
			ctx, stop := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := setup(ctx, true)
			if err != nil {
				return err
			}

			handler := api.NewHandler(rt.broker, map[string]api.Checker{
				"redis":   rt.broker.Ping,
				"content": rt.content.Ping,
			}, rt.env.HTTP.AllowedOrigins, rt.logger)

			server := &http.Server{
				Addr:              rt.env.HTTP.Address,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			return serveHTTP(ctx, server, rt)
		},
	}
}

// serveHTTP runs server until ctx is done or the listener fails, then shuts
// the server and the runtime down. A listener failure is returned.
func serveHTTP(ctx context.Context, server *http.Server, rt *runtime) error {
	errs := make(chan error, 1)
	go func() {
		rt.logger.Info("Starting server", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errs:
		if serveErr != nil {
			rt.logger.Error("Server stopped", zap.Error(serveErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	rt.logger.Info("Shutting down server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		rt.logger.Error("Failed to shut down server", zap.Error(err))
	}
	rt.close(shutdownCtx)

	if serveErr != nil {
		return fmt.Errorf("server stopped: %w", serveErr)
	}
	return nil
}
