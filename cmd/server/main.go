package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studynotes/internal/bootstrap"
	"studynotes/internal/config"
	"studynotes/internal/pkg/logger"
	"studynotes/internal/platform/database"
	httptransport "studynotes/internal/transport/http"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "studynotes",
		Short:        "study notes backend server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default: $CONFIG_FILE or configs/config.toml)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(configPath)
		},
	}
	rootCmd.AddCommand(serveCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, zl.With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env)), nil
}

func serve(configPath string) error {
	cfg, zl, err := loadConfig(configPath)
	if err != nil {
		log.Printf("startup failed: %v", err)
		return err
	}
	defer func() { _ = zl.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, cfg, zl)
	if err != nil {
		zl.Error("bootstrap failed", zap.Error(err))
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			zl.Warn("close resources failed", zap.Error(err))
		}
	}()

	router := httptransport.NewRouter(app)
	server := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		zl.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	return waitForShutdown(server, serverErr, zl)
}

func waitForShutdown(server *http.Server, serverErr <-chan error, zl *zap.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		zl.Error("server failed", zap.Error(err))
		return err
	case sig := <-quit:
		zl.Info("server stopping", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

func migrate(configPath string) error {
	cfg, zl, err := loadConfig(configPath)
	if err != nil {
		log.Printf("migrate failed: %v", err)
		return err
	}
	defer func() { _ = zl.Sync() }()

	if cfg.Store.Driver == "memory" {
		zl.Info("memory store has no schema, nothing to migrate")
		return nil
	}
	db, err := database.New(context.Background(), cfg, zl)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}
	if err := database.Migrate(db); err != nil {
		zl.Error("migrate failed", zap.Error(err))
		return err
	}
	zl.Info("schema migrated", zap.String("driver", cfg.Store.Driver))
	return nil
}
