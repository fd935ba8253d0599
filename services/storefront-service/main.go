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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/suran0330/kicholgy-sub001/internal/auth"
	"github.com/suran0330/kicholgy-sub001/internal/catalog"
	"github.com/suran0330/kicholgy-sub001/internal/config"
	"github.com/suran0330/kicholgy-sub001/internal/logging"
	"github.com/suran0330/kicholgy-sub001/internal/shopify"
	"github.com/suran0330/kicholgy-sub001/internal/store"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Skincare storefront: local catalog, Shopify products, carts and accounts",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.Development)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storefront HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "storefront.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd, catalogCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	st, mode, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	svc, err := newServer(cfg, log, st, mode, newShopifyClient(cfg, log))
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           svc.routes(),
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("storefront-service listening", zap.String("addr", srv.Addr), zap.String("mode", mode))
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func newServer(cfg *config.Config, log *zap.Logger, st store.Store, mode string, remote remoteCatalog) (*server, error) {
	dir := auth.NewDirectory(cfg.Auth.BcryptCost)
	if err := auth.SeedDemo(dir, cfg.Auth.SentinelPassword); err != nil {
		return nil, fmt.Errorf("seed demo users: %w", err)
	}
	var verifier auth.Verifier = auth.SentinelVerifier{Password: cfg.Auth.SentinelPassword}
	if cfg.Auth.Verifier == config.VerifierHash {
		verifier = auth.HashVerifier{}
	}
	opts := auth.Options{LoginDelay: cfg.Auth.LoginDelay}

	return &server{
		cfg:      cfg,
		log:      log,
		mode:     mode,
		local:    catalog.DefaultLocal(),
		remote:   remote,
		sessions: newSessionRegistry(st, dir, verifier, opts, cfg.Sessions, log),
		cache:    newRemoteCache(cfg.Catalog.CacheTTL),
	}, nil
}

func newShopifyClient(cfg *config.Config, log *zap.Logger) *shopify.Client {
	return shopify.New(shopify.Config{
		StoreDomain:     cfg.Shopify.StoreDomain,
		StorefrontToken: cfg.Shopify.StorefrontToken,
		APIVersion:      cfg.Shopify.APIVersion,
		Timeout:         cfg.Shopify.Timeout,
	}, nil, log.Named("shopify"))
}

// openStore picks the session store. Any backend that cannot be opened
// falls back to memory mode with a warning, so the storefront still serves.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Store, string, func()) {
	noop := func() {}
	backend := cfg.Store.Backend
	dsn, hasDSN := cfg.PostgresDSN()
	if backend == "" {
		backend = config.BackendMemory
		if hasDSN {
			backend = config.BackendPostgres
		}
	}

	switch backend {
	case config.BackendPostgres:
		if !hasDSN {
			log.Warn("database unavailable, running storefront in memory mode", zap.String("reason", "missing DATABASE_URL or DB_HOST"))
			break
		}
		pg := cfg.Store.Postgres
		db, err := store.OpenPostgres(ctx, store.PostgresOptions{
			DSN:             dsn,
			MaxOpenConns:    pg.MaxOpenConns,
			MaxIdleConns:    pg.MaxIdleConns,
			ConnMaxIdleTime: pg.ConnMaxIdleTime,
			ConnMaxLifetime: pg.ConnMaxLifetime,
		})
		if err != nil {
			log.Warn("database unavailable, running storefront in memory mode", zap.Error(err))
			break
		}
		return db, config.BackendPostgres, func() { _ = db.Close() }
	case config.BackendSQLite:
		db, err := store.OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			log.Warn("sqlite unavailable, running storefront in memory mode", zap.Error(err))
			break
		}
		return db, config.BackendSQLite, func() { _ = db.Close() }
	}
	return store.NewMemory(), config.BackendMemory, noop
}
