// Package cmd defines and implements the CLI commands for the
// bookmarkd executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/droidnext/bookmark-geni-mcp/internal/logging"
	"github.com/droidnext/bookmark-geni-mcp/pkg/config"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd(logger *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmarkd",
		Short: "Concurrent bookmark enrichment service",
		Long: `bookmarkd enriches browser bookmarks with page summaries and body
text. It fetches each bookmarked page, extracts a summary using page
metadata with readable-text fallbacks, and persists the result in a
document store keyed by a stable URL digest.`,
	}

	cobra.OnInitialize(func() {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		}
		config.InitConfig(logger)
	})

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(newEnrichCmd(logger))
	cmd.AddCommand(newServeCmd(logger))

	return cmd
}

// Execute is the main entry point.
func Execute() {
	development := os.Getenv("BOOKMARKD_LOG_DEVELOPMENT") == "true"
	logger, err := logging.New(development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	zap.ReplaceGlobals(logger)

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Fatal("command execution failed", zap.Error(err))
	}
}
