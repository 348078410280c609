package main

import (
	"alcyxob/sports-academy/internal/config"
	"alcyxob/sports-academy/internal/repository"
	"alcyxob/sports-academy/internal/repository/memory"
	"alcyxob/sports-academy/internal/repository/mongo"
	"alcyxob/sports-academy/internal/repository/sqlite"
	"alcyxob/sports-academy/internal/state"
	"alcyxob/sports-academy/internal/syncer"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// app is the persistence core shared by every command.
type app struct {
	local    *sqlite.KVStore
	cloud    repository.CloudStore
	store    *state.Store
	sync     *syncer.Coordinator
	registry *prometheus.Registry

	closers []func() error
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	local, err := sqlite.Open(cfg.Local.Path, cfg.Local.KeyPrefix, logger)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	a.local = local
	a.closers = append(a.closers, local.Close)
	logger.Info("local store opened", zap.String("path", local.Path()))

	switch cfg.Sync.CloudDriver {
	case config.CloudMongo:
		client, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("connect to MongoDB: %w", err)
		}
		a.closers = append(a.closers, func() error { return mongo.DisconnectDB(client) })
		db := client.Database(cfg.Database.Name)

		idxCtx, cancel := context.WithTimeout(ctx, time.Minute)
		mongo.EnsureIndexes(idxCtx, db, logger)
		cancel()

		a.cloud = mongo.NewDocumentStore(db, logger)
		logger.Info("cloud store connected", zap.String("database", cfg.Database.Name))
	case config.CloudMemory:
		a.cloud = memory.NewDocumentStore()
		logger.Warn("using in-memory cloud store; nothing leaves this process")
	case config.CloudNone, "":
		logger.Info("cloud sync disabled, writing the local store only")
	default:
		_ = a.Close()
		return nil, fmt.Errorf("unknown sync.cloud_driver %q", cfg.Sync.CloudDriver)
	}

	a.store = state.New(ctx, local, logger)
	a.sync = syncer.New(a.store, local, a.cloud, syncer.Options{
		Debounce:      cfg.Sync.Debounce,
		MaxWait:       cfg.Sync.MaxWait,
		DegradedAfter: cfg.Sync.DegradedAfter,
		CloudWorkers:  cfg.Sync.CloudWorkers,
		Metrics:       syncer.NewMetrics(a.registry),
	}, logger)
	return a, nil
}

// Close releases the stores in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
