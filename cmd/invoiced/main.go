// Command invoiced runs the invoicing engine as a standalone HTTP backend.
//
// Configuration comes from the environment (a .env file is honored when
// present):
//
//	INVOICED_ADDR          listen address (default ":8080")
//	INVOICED_STORE         memory | sqlite | postgres | mongo (default "memory")
//	INVOICED_DSN           sqlite path, postgres DSN, or mongodb URI
//	INVOICED_DB            mongo database name (default "invoicing")
//	INVOICED_POLICY        permissive | strict (default "permissive")
//	INVOICED_LOG_LEVEL     debug | info | warn | error (default "info")
//
// Identity is read from the X-User header, which is expected to be set by an
// authenticating proxy in front of this process.
package main

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

	"github.com/joho/godotenv"

	"github.com/xraph/invoicing"
	"github.com/xraph/invoicing/invoice"
	"github.com/xraph/invoicing/rest"
	"github.com/xraph/invoicing/store"
	"github.com/xraph/invoicing/store/memory"
	mongostore "github.com/xraph/invoicing/store/mongo"
	"github.com/xraph/invoicing/store/sqlstore"
)

type config struct {
	Addr     string
	Store    string
	DSN      string
	Database string
	Policy   string
	LogLevel string
}

func loadConfig() config {
	return config{
		Addr:     envOr("INVOICED_ADDR", ":8080"),
		Store:    envOr("INVOICED_STORE", "memory"),
		DSN:      os.Getenv("INVOICED_DSN"),
		Database: envOr("INVOICED_DB", "invoicing"),
		Policy:   envOr("INVOICED_POLICY", "permissive"),
		LogLevel: envOr("INVOICED_LOG_LEVEL", "info"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func openStore(ctx context.Context, cfg config) (store.Store, error) {
	switch cfg.Store {
	case "memory":
		return memory.New(), nil
	case "sqlite":
		if cfg.DSN == "" {
			return nil, errors.New("INVOICED_DSN is required for the sqlite store")
		}
		return sqlstore.OpenSQLite(cfg.DSN)
	case "postgres":
		if cfg.DSN == "" {
			return nil, errors.New("INVOICED_DSN is required for the postgres store")
		}
		return sqlstore.OpenPostgres(cfg.DSN)
	case "mongo":
		if cfg.DSN == "" {
			return nil, errors.New("INVOICED_DSN is required for the mongo store")
		}
		return mongostore.Open(ctx, cfg.DSN, cfg.Database)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load() //nolint:errcheck // optional file

	cfg := loadConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	if err := run(cfg, logger); err != nil {
		logger.Error("invoiced exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	ctx := context.Background()

	s, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	eng := invoicing.New(s,
		invoicing.WithLogger(logger),
		invoicing.WithTransitionPolicy(invoice.TransitionPolicy(cfg.Policy)),
	)

	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	auth := rest.AuthenticatorFunc(func(r *http.Request) (string, error) {
		user := r.Header.Get("X-User")
		if user == "" {
			return "", errors.New("missing X-User header")
		}
		return user, nil
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           rest.NewHandler(eng, auth, rest.WithLogger(logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("invoiced listening",
			"addr", cfg.Addr,
			"store", cfg.Store,
			"transition_policy", cfg.Policy,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	select {
	case err := <-errCh:
		_ = eng.Stop() //nolint:errcheck // already failing
		return err
	case <-sc:
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	return eng.Stop()
}
