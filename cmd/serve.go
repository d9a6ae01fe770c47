package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/droidnext/bookmark-geni-mcp/internal/progress"
	"github.com/droidnext/bookmark-geni-mcp/internal/progress/sinks"
	"github.com/droidnext/bookmark-geni-mcp/internal/server"
)

// newServeCmd creates the 'serve' subcommand, the long-running HTTP
// enrichment service.
func newServeCmd(logger *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bookmark enrichment HTTP service",
		Long: `Starts an HTTP server that accepts bookmark batches on
POST /v1/enrich and serves stored records, health probes, and
Prometheus metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), logger)
		},
	}
	return cmd
}

func runServe(ctx context.Context, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promSink, err := sinks.NewPrometheusSink(reg)
	if err != nil {
		return fmt.Errorf("init prometheus sink: %w", err)
	}

	svc, err := buildServices(ctx, viper.GetViper(), []progress.Sink{
		sinks.NewLogSink(logger.Named("events")),
		promSink,
	}, logger)
	if err != nil {
		return err
	}
	defer svc.close()

	apiServer := server.NewServer(svc.pipeline, svc.store, reg, logger.Named("http"))
	srv := &http.Server{
		Addr:              viper.GetString("server.addr"),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
