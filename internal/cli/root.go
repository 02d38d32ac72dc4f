// Package cli wires configuration, storage and the engine behind the
// occucalc command tree.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"occucalc/internal/blob"
	"occucalc/internal/config"
	"occucalc/internal/core"
	"occucalc/internal/infra/persistence"
	"occucalc/internal/platform/logger"
	"occucalc/pkg/domain"
)

// app holds what a command run opens. Everything past the config is opened
// on first use and closed when the command returns.
type app struct {
	configFile string
	loader     *config.Loader

	cfg      config.Config
	log      *logger.Logger
	registry *prometheus.Registry

	blobs blob.Store
	store domain.StateStore
	ws    *core.Workspace
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{loader: config.NewLoader()}
	root := &cobra.Command{
		Use:           "occucalc",
		Short:         "Occupant load calculator",
		Long:          "Derive occupant loads for rooms from building-code floor-area factors.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close()
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./occucalc.yaml or $HOME/.config/occucalc/occucalc.yaml)")
	flags.String("storage-driver", "", "state store: memory, sqlite, postgres or blob")
	// Lookup cannot fail for a flag defined above.
	_ = a.loader.BindFlag("storage.driver", flags.Lookup("storage-driver"))

	root.AddCommand(
		codesCommand(a),
		useCommand(a),
		modeCommand(a),
		filterCommand(a),
		totalsCommand(a),
		factorsCommand(a),
		rowsCommand(a),
		importCommand(a),
		exportCommand(a),
		serveCommand(a),
		roomsCommand(a),
	)
	return root
}

// Execute runs the command tree with ctx, cancelled on interrupt by the
// caller.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (a *app) setup() error {
	cfg, err := a.loader.Load(a.configFile)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	a.registry = prometheus.NewRegistry()
	if f := a.loader.File(); f != "" {
		a.log.Debug("config loaded", "file", f)
	}
	return nil
}

func (a *app) blobStore(ctx context.Context) (blob.Store, error) {
	if a.blobs != nil {
		return a.blobs, nil
	}
	s3 := a.cfg.Blob.S3
	store, err := blob.Open(ctx, blob.Config{
		Driver: blob.Driver(a.cfg.Blob.Driver),
		FSRoot: a.cfg.Blob.FS.Root,
		S3: blob.S3Config{
			Region:          s3.Region,
			Bucket:          s3.Bucket,
			Endpoint:        s3.Endpoint,
			AccessKeyID:     s3.AccessKeyID,
			SecretAccessKey: s3.SecretAccessKey,
			PathStyle:       s3.PathStyle,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	a.blobs = store
	return store, nil
}

func (a *app) stateStore(ctx context.Context) (domain.StateStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	opts := persistence.Options{
		Driver:      persistence.Driver(a.cfg.Storage.Driver),
		SQLitePath:  a.cfg.Storage.SQLite.Path,
		PostgresDSN: a.cfg.Storage.Postgres.DSN,
	}
	if opts.Driver == persistence.DriverBlob {
		blobs, err := a.blobStore(ctx)
		if err != nil {
			return nil, err
		}
		opts.Blob = blobs
	}
	store, err := persistence.Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

func (a *app) workspace(ctx context.Context) (*core.Workspace, error) {
	if a.ws != nil {
		return a.ws, nil
	}
	store, err := a.stateStore(ctx)
	if err != nil {
		return nil, err
	}
	metrics, err := core.NewMetrics(a.registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	a.ws = core.Open(ctx, core.Options{Store: store, Logger: a.log, Metrics: metrics})
	return a.ws, nil
}

func (a *app) close() error {
	var errs []error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close state store: %w", err))
		}
		a.store = nil
	}
	a.ws = nil
	a.blobs = nil
	if a.log != nil {
		a.log.Sync()
	}
	return errors.Join(errs...)
}

// withWorkspace adapts a RunE body that needs the workspace.
func (a *app) withWorkspace(fn func(cmd *cobra.Command, ws *core.Workspace, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ws, err := a.workspace(cmd.Context())
		if err != nil {
			return err
		}
		return fn(cmd, ws, args)
	}
}
