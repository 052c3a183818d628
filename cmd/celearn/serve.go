package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/celearn/internal/config"
	"github.com/kailas-cloud/celearn/internal/db"
	dbRedis "github.com/kailas-cloud/celearn/internal/db/redis"
	"github.com/kailas-cloud/celearn/internal/kb"
	logpkg "github.com/kailas-cloud/celearn/internal/logger"
	"github.com/kailas-cloud/celearn/internal/metrics"
	"github.com/kailas-cloud/celearn/internal/repository/partialdef"
	"github.com/kailas-cloud/celearn/internal/repository/runresult"
	chiTransport "github.com/kailas-cloud/celearn/internal/transport/chi"
	healthuc "github.com/kailas-cloud/celearn/internal/usecase/health"
	runuc "github.com/kailas-cloud/celearn/internal/usecase/run"
	"github.com/kailas-cloud/celearn/internal/version"
)

func newServeCmd(logLevel *string) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env := config.GetEnv()
			var (
				cfg config.Config
				err error
			)
			if configPath != "" {
				cfg, err = config.LoadFile(configPath)
			} else {
				cfg, err = config.Load(env)
			}
			if err != nil {
				return err
			}
			if *logLevel != "" {
				cfg.Logging.Level = *logLevel
			}
			return serve(cmd.Context(), env, cfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default config/$ENV.yaml)")
	return cmd
}

func serve(ctx context.Context, env string, cfg config.Config) error {
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting celearn API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("kb_path", cfg.KB.Path),
	)

	k, err := kb.LoadFile(cfg.KB.Path)
	if err != nil {
		return fmt.Errorf("load knowledge base: %w", err)
	}
	st := k.Stats()
	logger.Info("Knowledge base loaded",
		zap.Int("classes", st.Classes),
		zap.Int("roles", st.Roles),
		zap.Int("individuals", st.Individuals),
	)

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		logger.Info("Connected to database", zap.Strings("db_addrs", cfg.Database.Addrs))
	}

	metrics.RegisterLearnerMetrics()
	metrics.RegisterHTTPMetrics()

	runOpts := []runuc.Option{runuc.WithLogger(logger)}
	var pinger healthuc.DBPinger
	if store != nil {
		ttl := cfg.Database.ResultTTL()
		runOpts = append(runOpts,
			runuc.WithSummaryRepository(runresult.New(store, ttl)),
			runuc.WithDefinitionRepository(partialdef.New(store, ttl)),
		)
		pinger = store
	}
	runs, err := runuc.New(k, runuc.Config{
		Learner:            cfg.Learner.Engine(),
		Heuristic:          cfg.Learner.Heuristic,
		MaxRoleDepth:       cfg.Learner.MaxRoleDepth,
		Workers:            cfg.Partition.Workers,
		UncoveredAllowance: cfg.Partition.UncoveredAllowance,
	}, runOpts...)
	if err != nil {
		return err
	}

	server := chiTransport.NewServer(runs, healthuc.New(pinger, k), logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(chiTransport.RouterConfig{APIKeys: cfg.Auth.APIKeys}),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during HTTP shutdown", zap.Error(err))
	}
	if err := runs.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error stopping runs", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// openStore connects to the configured database; nil means results stay in memory.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverNone:
		return nil, nil
	case config.DriverRedis, config.DriverValkey:
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	return store, nil
}
