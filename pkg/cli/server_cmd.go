package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/albinkc/databend/internal/api"
	"github.com/albinkc/databend/internal/config"
	"github.com/albinkc/databend/internal/engine"
	"github.com/albinkc/databend/internal/meta"
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Serve SQL queries over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
			for _, w := range cfg.Warnings {
				logger.Warn(w)
			}

			return runServer(cmd.Context(), cfg, logger)
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := meta.OpenSQLite(cfg.MetaDBPath)
	if err != nil {
		return fmt.Errorf("opening metastore: %w", err)
	}
	defer db.Close()
	if err := meta.RunMigrations(db); err != nil {
		return fmt.Errorf("migrating metastore: %w", err)
	}

	catalog := meta.NewCatalog(meta.NewSQLiteKV(db), cfg.Tenant)
	session, err := engine.NewSession(ctx, catalog, engine.NewStore())
	if err != nil {
		return err
	}

	handler := api.NewHandler(session, logger)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.Router(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr, "meta", cfg.MetaDBPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
