package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
	"github.com/droidnext/bookmark-geni-mcp/internal/progress"
	"github.com/droidnext/bookmark-geni-mcp/internal/progress/sinks"
	"github.com/droidnext/bookmark-geni-mcp/internal/source"
)

// newEnrichCmd creates the 'enrich' subcommand, a one-shot run over a
// browser bookmark export.
func newEnrichCmd(logger *zap.Logger) *cobra.Command {
	var (
		inputPath  string
		format     string
		sourceName string
	)

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich bookmarks from a browser export",
		Long: `Reads bookmarks from a Chromium JSON export, a Firefox
places.sqlite database, or a JSON candidate list, enriches each one,
and prints a run report as JSON.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEnrich(cmd.Context(), inputPath, format, sourceName, logger)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the bookmark export (required)")
	cmd.Flags().StringVarP(&format, "format", "f", "chromium", "export format: chromium, firefox, or json")
	cmd.Flags().StringVarP(&sourceName, "source", "s", "", "source label attached to every bookmark (required)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func runEnrich(ctx context.Context, inputPath, format, sourceName string, logger *zap.Logger) error {
	candidates, err := readCandidates(inputPath, format, sourceName)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		logger.Info("no bookmarks found in export", zap.String("input", inputPath))
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := buildServices(ctx, viper.GetViper(), []progress.Sink{sinks.NewLogSink(logger.Named("events"))}, logger)
	if err != nil {
		return err
	}
	defer svc.close()

	result, runErr := svc.pipeline.EnrichBatch(ctx, candidates)

	report, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(report))

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("enrichment run: %w", runErr)
	}
	return nil
}

func readCandidates(inputPath, format, sourceName string) ([]bookmark.Candidate, error) {
	switch format {
	case "chromium":
		return source.ReadChromium(inputPath, sourceName)
	case "firefox":
		return source.ReadFirefox(inputPath, sourceName)
	case "json":
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		var candidates []bookmark.Candidate
		if err := json.Unmarshal(data, &candidates); err != nil {
			return nil, fmt.Errorf("parse candidate list: %w", err)
		}
		for i := range candidates {
			if candidates[i].Source == "" {
				candidates[i].Source = sourceName
			}
		}
		return candidates, nil
	default:
		return nil, fmt.Errorf("unknown format %q (expected chromium, firefox, or json)", format)
	}
}
