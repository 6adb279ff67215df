package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/desertthunder/airwaves/internal/server"
	"github.com/desertthunder/airwaves/internal/shared"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the record API until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	records, err := r.store()
	if err != nil {
		return err
	}

	host := r.config.Server.Host
	if h := cmd.String("host"); h != "" {
		host = h
	}
	port := r.config.Server.Port
	if p := int(cmd.Int("port")); p != 0 {
		port = p
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("%w: port %d", shared.ErrInvalidFlag, port)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := shared.WithLogger(r.logger, "component", "http")
	srv := server.NewHTTPServer(net.JoinHostPort(host, strconv.Itoa(port)), server.NewAPI(records, logger))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "pending_updates", records.Pending())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := records.Flush(shutdownCtx); err != nil {
		logger.Warn("queued updates not flushed", "pending_updates", records.Pending(), "error", err)
	}
	return nil
}
