package main

import (
	"alcyxob/sports-academy/internal/api"
	"alcyxob/sports-academy/internal/assistant"
	"alcyxob/sports-academy/internal/service"
	"alcyxob/sports-academy/internal/storage"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var releaseMode bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with background sync",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&releaseMode, "release", true, "Run gin in release mode")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if cfg.Sync.PullOnBoot && a.cloud != nil {
		if _, err := a.sync.Pull(ctx); err != nil {
			logger.Warn("boot pull incomplete", zap.Error(err))
		}
	}

	// --- Initialize Storage ---
	var fileStorage storage.FileStorage = storage.Disabled{}
	if cfg.S3.Enabled() {
		fileStorage, err = storage.NewS3Storage(ctx, cfg.S3, logger)
		if err != nil {
			return err
		}
	} else {
		logger.Info("media storage not configured, uploads are disabled")
	}

	var responder assistant.Responder = assistant.Offline{}
	if cfg.Assistant.APIKey != "" {
		responder, err = assistant.NewGemini(ctx, cfg.Assistant.APIKey, cfg.Assistant.Model, cfg.Assistant.Timeout, logger)
		if err != nil {
			return err
		}
	}

	// --- Initialize Services ---
	authService := service.NewAuthService(cfg.Admin, a.store, cfg.JWT.Secret, cfg.JWT.Expiration)

	// --- Sync worker ---
	syncCtx, stopSync := context.WithCancel(context.Background())
	syncDone := make(chan struct{})
	go func() {
		defer close(syncDone)
		_ = a.sync.Run(syncCtx)
	}()
	// Catch anything hydrated or pulled at boot that the cloud has not seen yet.
	a.sync.Trigger()

	// --- Initialize Gin Engine ---
	if releaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger.Named("http")))
	api.SetupRoutes(router, api.Dependencies{
		JWTSecret: cfg.JWT.Secret,
		Store:     a.store,
		Sync:      a.sync,
		Gatherer:  a.registry,
		Auth:      authService,
		Roster:    service.NewRosterService(a.store),
		Media:     service.NewMediaService(a.store, fileStorage, logger),
		Notes:     service.NewNoteService(a.store),
		Finance:   service.NewFinanceService(a.store),
		Assistant: service.NewAssistantService(a.store, responder, logger),
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second, // sync flush and assistant calls run inline
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server")
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("server forced to shutdown", zap.Error(shutdownErr))
	}

	// Stop the debounce loop, then write whatever is still pending.
	stopSync()
	<-syncDone
	flushCtx, cancelFlush := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelFlush()
	if ferr := flushOnce(flushCtx, a); ferr != nil {
		logger.Warn("final sync pass incomplete", zap.Error(ferr))
	}

	logger.Info("server exiting")
	return err
}
