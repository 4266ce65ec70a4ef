package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/haukened/oid/internal/app"
	"github.com/haukened/oid/internal/config"
	"github.com/haukened/oid/internal/domain"
	"github.com/haukened/oid/internal/httpx"
	"github.com/haukened/oid/internal/janitor"
	"github.com/haukened/oid/internal/metrics"
	"github.com/haukened/oid/internal/store/sqlite"
)

const shutdownTimeout = 10 * time.Second

// realClock implements app.Clock using time.Now.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

func serveCmd() *cobra.Command {
	var addr, dataDir, hostname, logLevel string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the id HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(map[string]any{
				"addr":      addr,
				"data_dir":  dataDir,
				"hostname":  hostname,
				"log_level": logLevel,
			})
			if err != nil {
				return fmt.Errorf("configuration: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (env OID_ADDR)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory holding oid.db (env OID_DATA_DIR)")
	cmd.Flags().StringVar(&hostname, "hostname", "", "Host name hashed into ids (env OID_HOSTNAME)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (env OID_LOG_LEVEL)")
	return cmd
}

func ensureDataDir(dir string) error {
	st, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("stat data directory: %w", err)
	case !st.IsDir():
		return fmt.Errorf("data path %s is not a directory", dir)
	}
	return nil
}

func openDatabase(cfg *config.Config) (*sql.DB, *sqlite.Ledger, error) {
	db, err := sql.Open("sqlite3", cfg.SQLiteDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite driver: %w", err)
	}
	ledger, err := sqlite.New(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("init ledger schema: %w", err)
	}
	return db, ledger, nil
}

func buildHandler(cfg *config.Config, svc *app.Service, db *sql.DB, mgr *metrics.Manager) http.Handler {
	h := httpx.New(svc, cfg.MaxBatch, db.PingContext)
	h.Metrics = metrics.Handler(mgr, cfg.MetricsToken)
	return h.Router()
}

func newServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// run wires every component from cfg and serves until ctx is canceled.
func run(ctx context.Context, cfg *config.Config) error {
	slog.SetLogLoggerLevel(cfg.LogLevel)
	if err := ensureDataDir(cfg.DataDir); err != nil {
		return err
	}
	db, ledger, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	factory, err := domain.NewProcessFactory(cfg.Hostname, nil)
	if err != nil {
		return err
	}

	mgr := metrics.New(db, metrics.Config{
		FlushInterval: cfg.MetricsFlushInterval,
		Logger:        slog.Default().With("domain", "metrics"),
	})
	if err := mgr.InitSchema(ctx); err != nil {
		return fmt.Errorf("init metrics schema: %w", err)
	}
	mgr.Start(ctx)
	defer mgr.Stop(context.Background())

	jan := janitor.New(ledger, mgr, janitor.Config{
		Interval:  cfg.JanitorInterval,
		Retention: cfg.LedgerRetention,
		Logger:    slog.Default().With("domain", "janitor"),
	})
	jan.Start(ctx)
	defer jan.Stop()

	svc := &app.Service{
		IDs:      factory,
		Ledger:   ledger,
		Metrics:  mgr,
		Clock:    realClock{},
		MaxBatch: cfg.MaxBatch,
	}
	srv := newServer(cfg, buildHandler(cfg, svc, db, mgr))

	entries, err := ledger.Count(ctx)
	if err != nil {
		return fmt.Errorf("count ledger: %w", err)
	}
	machine := factory.MachineHash()
	slog.Info("starting server", "addr", cfg.Addr, "pid", os.Getpid(),
		"machine", fmt.Sprintf("%x", machine[:]), "ledger_entries", entries)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
