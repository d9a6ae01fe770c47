// Package config initializes the application's configuration. It uses
// the Viper library to read settings from a config file, environment
// variables, and command-line flags, providing a unified configuration
// system.
package config

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// defaultUserAgent matches what mainstream browsers send so bookmark
// hosts serve the same HTML a user would see.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// InitConfig initializes the application's configuration using Viper.
// It sets defaults, defines config search paths, and enables reading
// from environment variables. Call once at startup.
func InitConfig(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/bookmarkd/")
	viper.AddConfigPath("$HOME/.bookmarkd")

	viper.SetDefault("enrich.concurrency", 10)
	viper.SetDefault("enrich.include_content", true)
	viper.SetDefault("enrich.fetch_timeout", "10s")
	viper.SetDefault("enrich.fetch_attempts", 3)
	viper.SetDefault("enrich.enrich_attempts", 2)
	viper.SetDefault("enrich.retry_delay", "1s")
	viper.SetDefault("enrich.url_limit", 0)
	viper.SetDefault("enrich.user_agent", defaultUserAgent)
	viper.SetDefault("enrich.summary_max_chars", 500)
	viper.SetDefault("enrich.body_max_chars", 5000)

	viper.SetDefault("store.driver", "badger")
	viper.SetDefault("store.path", "data/bookmarks")
	viper.SetDefault("store.dsn", "")
	viper.SetDefault("store.table", "bookmarks")

	viper.SetDefault("ledger.path", "data/processed_urls.json")
	viper.SetDefault("logs.records_path", "data/bookmark_records.jsonl")
	viper.SetDefault("logs.errors_path", "data/bookmark_errors.jsonl")

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("log.development", false)

	// e.g. BOOKMARKD_ENRICH_CONCURRENCY=20
	viper.SetEnvPrefix("BOOKMARKD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.Debug("config file not found; using defaults and environment variables")
		} else {
			logger.Error("error reading config file", zap.Error(err))
		}
	} else {
		logger.Info("using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}
