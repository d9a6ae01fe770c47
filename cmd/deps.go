package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
	"github.com/droidnext/bookmark-geni-mcp/internal/enrich"
	"github.com/droidnext/bookmark-geni-mcp/internal/ledger"
	"github.com/droidnext/bookmark-geni-mcp/internal/progress"
	"github.com/droidnext/bookmark-geni-mcp/internal/sink"
	"github.com/droidnext/bookmark-geni-mcp/internal/store/badgerstore"
	"github.com/droidnext/bookmark-geni-mcp/internal/store/memory"
	"github.com/droidnext/bookmark-geni-mcp/internal/store/postgresstore"
)

// services bundles the pipeline with everything that needs closing at
// shutdown.
type services struct {
	pipeline  *enrich.Pipeline
	store     bookmark.DocumentStore
	recordLog *sink.RecordLog
	errorLog  *sink.ErrorLog
	hub       *progress.Hub
	logger    *zap.Logger
}

// buildServices assembles the store, ledger, sinks, and pipeline from
// the loaded configuration.
func buildServices(ctx context.Context, v *viper.Viper, sinks []progress.Sink, logger *zap.Logger) (*services, error) {
	cfg, err := enrich.LoadConfig(v)
	if err != nil {
		return nil, fmt.Errorf("load enrich config: %w", err)
	}

	store, err := openStore(ctx, v, logger)
	if err != nil {
		return nil, err
	}

	led, err := ledger.OpenFile(v.GetString("ledger.path"), logger)
	if err != nil {
		store.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	recordLog, err := sink.OpenRecordLog(v.GetString("logs.records_path"))
	if err != nil {
		store.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("open record log: %w", err)
	}
	errorLog, err := sink.OpenErrorLog(v.GetString("logs.errors_path"))
	if err != nil {
		recordLog.Close() //nolint:errcheck // already failing
		store.Close()     //nolint:errcheck // already failing
		return nil, fmt.Errorf("open error log: %w", err)
	}

	hub := progress.NewHub(progress.Config{Logger: logger.Named("progress")}, sinks...)

	pipeline, err := enrich.New(cfg, enrich.Deps{
		Store:     store,
		Ledger:    led,
		RecordLog: recordLog,
		ErrorLog:  errorLog,
		Emitter:   hub,
		Logger:    logger.Named("enrich"),
	})
	if err != nil {
		errorLog.Close()  //nolint:errcheck // already failing
		recordLog.Close() //nolint:errcheck // already failing
		store.Close()     //nolint:errcheck // already failing
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	return &services{
		pipeline:  pipeline,
		store:     store,
		recordLog: recordLog,
		errorLog:  errorLog,
		hub:       hub,
		logger:    logger,
	}, nil
}

func openStore(ctx context.Context, v *viper.Viper, logger *zap.Logger) (bookmark.DocumentStore, error) {
	driver := v.GetString("store.driver")
	switch driver {
	case "badger":
		return badgerstore.Open(v.GetString("store.path"), logger.Named("store"))
	case "postgres":
		return postgresstore.New(ctx, postgresstore.Config{
			DSN:   v.GetString("store.dsn"),
			Table: v.GetString("store.table"),
		}, logger.Named("store"))
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store.driver %q", driver)
	}
}

// close shuts everything down, draining buffered progress events
// first so late sink writes still have somewhere to go.
func (s *services) close() {
	drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.hub.Close(drainCtx); err != nil {
		s.logger.Warn("progress hub close failed", zap.Error(err))
	}
	if err := s.errorLog.Close(); err != nil {
		s.logger.Warn("error log close failed", zap.Error(err))
	}
	if err := s.recordLog.Close(); err != nil {
		s.logger.Warn("record log close failed", zap.Error(err))
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn("store close failed", zap.Error(err))
	}
}
