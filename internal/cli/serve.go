package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"occucalc/internal/adapters/exports"
	"occucalc/internal/adapters/httpapi"
	"occucalc/internal/rooms"
)

const shutdownTimeout = 10 * time.Second

func serveCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = a.loader.BindFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	ws, err := a.workspace(ctx)
	if err != nil {
		return err
	}
	blobs, err := a.blobStore(ctx)
	if err != nil {
		return err
	}
	metrics, err := exports.NewMetrics(a.registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	worker := exports.NewWorker(blobs, a.log, metrics)
	worker.Start()

	srv := httpapi.New(httpapi.Options{
		Workspace: ws,
		Exports:   worker,
		Rooms:     rooms.NewService(ctx, a.store, a.log),
		Logger:    a.log,
		Gatherer:  a.registry,
	})
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(a.cfg.Server.Addr) }()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			serveErr = fmt.Errorf("shutdown http api: %w", err)
		}
		if err := <-errCh; err != nil {
			serveErr = errors.Join(serveErr, err)
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := worker.Stop(stopCtx); err != nil {
		serveErr = errors.Join(serveErr, fmt.Errorf("stop export worker: %w", err))
	}
	return serveErr
}
