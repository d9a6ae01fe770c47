package enrich

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config captures every knob that influences an enrichment run. All
// values originate from Viper so the pipeline can be configured via
// files, env vars, or CLI flags.
type Config struct {
	Concurrency     int
	IncludeContent  bool
	FetchTimeout    time.Duration
	FetchAttempts   int
	EnrichAttempts  int
	RetryDelay      time.Duration
	URLLimit        int
	UserAgent       string
	SummaryMaxChars int
	BodyMaxChars    int
}

// LoadConfig constructs a Config by reading from Viper.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Concurrency:     v.GetInt("enrich.concurrency"),
		IncludeContent:  v.GetBool("enrich.include_content"),
		FetchTimeout:    v.GetDuration("enrich.fetch_timeout"),
		FetchAttempts:   v.GetInt("enrich.fetch_attempts"),
		EnrichAttempts:  v.GetInt("enrich.enrich_attempts"),
		RetryDelay:      v.GetDuration("enrich.retry_delay"),
		URLLimit:        v.GetInt("enrich.url_limit"),
		UserAgent:       v.GetString("enrich.user_agent"),
		SummaryMaxChars: v.GetInt("enrich.summary_max_chars"),
		BodyMaxChars:    v.GetInt("enrich.body_max_chars"),
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations. A
// URLLimit of zero or below means unlimited and is always accepted.
func (c Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("enrich.concurrency must be > 0")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("enrich.fetch_timeout must be > 0")
	}
	if c.FetchAttempts <= 0 {
		return fmt.Errorf("enrich.fetch_attempts must be > 0")
	}
	if c.EnrichAttempts <= 0 {
		return fmt.Errorf("enrich.enrich_attempts must be > 0")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("enrich.retry_delay must be >= 0")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("enrich.user_agent must be set")
	}
	if c.SummaryMaxChars <= 0 {
		return fmt.Errorf("enrich.summary_max_chars must be > 0")
	}
	if c.BodyMaxChars <= 0 {
		return fmt.Errorf("enrich.body_max_chars must be > 0")
	}
	return nil
}
