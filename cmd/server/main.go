package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Skufu/symptom-checker/internal/config"
	"github.com/Skufu/symptom-checker/internal/llm"
	"github.com/Skufu/symptom-checker/internal/logger"
	"github.com/Skufu/symptom-checker/internal/server"
	"github.com/Skufu/symptom-checker/internal/service"
	"github.com/Skufu/symptom-checker/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "symptom-checker",
		Short:        "Educational symptom checker backed by an LLM",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the symptom_queries table if it does not exist",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(cmd.Context())
			},
		},
	)

	return root
}

func runMigrate(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config")
	}
	log := logger.New(logger.Options{Production: cfg.IsProduction(), FilePath: cfg.LogFilePath})
	defer log.Sync() //nolint:errcheck

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "database connection failed")
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	log.Info("schema ready")
	return nil
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config")
	}
	gin.SetMode(cfg.GinMode)

	log := logger.New(logger.Options{Production: cfg.IsProduction(), FilePath: cfg.LogFilePath})
	defer log.Sync() //nolint:errcheck

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "database connection failed")
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	gateway, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return errors.Wrap(err, "llm gateway")
	}
	if cfg.LLM.Timeout == 0 {
		log.Info("llm calls run without a timeout; set LLM_TIMEOUT to bound them")
	}

	staticRoot := cfg.StaticDir
	if staticRoot == "" {
		staticRoot = server.DetectStaticRoot()
	}

	router := server.NewRouter(server.Deps{
		Symptoms:   service.NewSymptomService(gateway, db, log),
		DB:         db,
		Log:        log,
		StaticRoot: staticRoot,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info("server listening",
		zap.String("addr", srv.Addr),
		zap.String("llm", gateway.Name()),
		zap.String("static_root", staticRoot),
	)
	if staticRoot == "" {
		log.Warn("no web/index.html found; static pages are disabled")
	}
	return waitForShutdown(srv, errCh, log)
}

func waitForShutdown(srv *http.Server, errCh <-chan error, log *zap.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server error")
	case <-stop:
	}

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
