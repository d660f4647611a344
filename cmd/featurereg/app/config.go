package app

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/featurereg/internal/server"
	"github.com/agentstation/featurereg/internal/store"
	"github.com/agentstation/featurereg/internal/transport"
	"github.com/agentstation/featurereg/pkg/actions"
	"github.com/agentstation/featurereg/pkg/analysis"
	"github.com/agentstation/featurereg/pkg/constants"
	"github.com/agentstation/featurereg/pkg/errors"
)

// EnvPrefix prefixes every environment variable read into Config.
const EnvPrefix = "FEATUREREG"

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose  bool   `mapstructure:"verbose"`
	Quiet    bool   `mapstructure:"quiet"`
	NoColor  bool   `mapstructure:"no_color"`
	Format   string `mapstructure:"format"`
	LogLevel string `mapstructure:"log_level"`

	// ConfigFile is the file the settings were read from, if any.
	ConfigFile string `mapstructure:"-"`

	// Logging configuration
	LogFormat string `mapstructure:"log_format"`
	LogOutput string `mapstructure:"log_output"`

	// Reconciliation inputs
	Store        store.Config `mapstructure:"store"`
	RegistryPath string       `mapstructure:"registry_path"`

	// Remote registry; takes the place of RegistryPath when set
	RegistryURL   string `mapstructure:"registry_url"`
	RegistryToken string `mapstructure:"registry_token"`
	RegistryAuth  string `mapstructure:"registry_auth"`

	Analysis analysis.Config `mapstructure:"analysis"`
	Actions  actions.Config  `mapstructure:"actions"`

	// Periodic re-analysis while serving
	AutoRefresh     bool          `mapstructure:"auto_refresh"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`

	Server server.Config `mapstructure:"server"`
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied later by cobra)
//  2. FEATUREREG_* environment variables
//  3. .env and .env.local files
//  4. Config file (path, ~/.featurereg/config.yaml, or .featurereg.yaml
//     in $HOME or the working dir)
//  5. Defaults
func LoadConfig(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path == "" {
		if p := expandHome(constants.DefaultConfigPath); fileExists(p) {
			path = p
		}
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".featurereg")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !stderrors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "reading config file", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.NewConfigError("config", "decoding settings", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	// Unprefixed log variables are shared with the logging package.
	cfg.LogLevel = firstNonEmpty(cfg.LogLevel, os.Getenv("LOG_LEVEL"))
	cfg.LogFormat = firstNonEmpty(cfg.LogFormat, os.Getenv("LOG_FORMAT"), "auto")
	cfg.LogOutput = firstNonEmpty(cfg.LogOutput, os.Getenv("LOG_OUTPUT"), "stderr")

	if cfg.Store.Driver == store.DriverSQLite {
		cfg.Store.DSN = expandHome(cfg.Store.DSN)
	}
	return cfg, cfg.Validate()
}

// Validate checks every nested section.
func (c *Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return errors.NewConfigError("store", "invalid store settings", err)
	}
	if err := c.Analysis.Validate(); err != nil {
		return errors.NewConfigError("analysis", "invalid analysis settings", err)
	}
	if err := c.Actions.Validate(); err != nil {
		return errors.NewConfigError("actions", "invalid action settings", err)
	}
	if c.RegistryPath != "" && c.RegistryURL != "" {
		return errors.NewConfigError("registry", "set registry_path or registry_url, not both", nil)
	}
	if _, err := transport.ParseAuth(c.RegistryAuth); err != nil {
		return errors.NewConfigError("registry", "invalid registry auth", err)
	}
	if c.RefreshInterval < 0 {
		return errors.NewConfigError("refresh_interval", "must not be negative", nil)
	}
	return nil
}

// UpdateFromFlags applies parsed global flags, which take precedence over
// config file and env values.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("no_color", false)
	v.SetDefault("format", "")
	v.SetDefault("log_level", "")
	v.SetDefault("log_format", "")
	v.SetDefault("log_output", "")

	v.SetDefault("store.driver", store.DriverSQLite)
	v.SetDefault("store.dsn", constants.DefaultDatabasePath)
	v.SetDefault("registry_path", "")
	v.SetDefault("registry_url", "")
	v.SetDefault("registry_token", "")
	v.SetDefault("registry_auth", "bearer")

	a := analysis.DefaultConfig()
	v.SetDefault("analysis.normalize_codes", a.NormalizeCodes)
	v.SetDefault("analysis.prefixes", a.Prefixes)
	v.SetDefault("analysis.canonical_prefixes", a.CanonicalPrefixes)
	v.SetDefault("analysis.batch_threshold", a.BatchThreshold)
	v.SetDefault("analysis.batch_granularity", a.BatchGranularity)
	v.SetDefault("analysis.rule_order", a.RuleOrder)

	ac := actions.DefaultConfig()
	v.SetDefault("actions.concurrency", ac.Concurrency)
	v.SetDefault("actions.confirm_threshold", ac.ConfirmThreshold)
	v.SetDefault("actions.default_reviewer", ac.DefaultReviewer)

	v.SetDefault("auto_refresh", false)
	v.SetDefault("refresh_interval", constants.DefaultRefreshInterval)

	s := server.DefaultConfig()
	v.SetDefault("server.host", s.Host)
	v.SetDefault("server.port", s.Port)
	v.SetDefault("server.path_prefix", s.PathPrefix)
	v.SetDefault("server.cors_enabled", s.CORSEnabled)
	v.SetDefault("server.cors_origins", s.CORSOrigins)
	v.SetDefault("server.auth_enabled", s.AuthEnabled)
	v.SetDefault("server.auth_header", s.AuthHeader)
	v.SetDefault("server.api_key", s.APIKey)
	v.SetDefault("server.reviewer_header", s.ReviewerHeader)
	v.SetDefault("server.rate_limit", s.RateLimit)
	v.SetDefault("server.cache.backend", s.Cache.Backend)
	v.SetDefault("server.cache.ttl", s.Cache.TTL)
	v.SetDefault("server.cache.redis_url", s.Cache.RedisURL)
	v.SetDefault("server.cache.prefix", s.Cache.Prefix)
	v.SetDefault("server.read_timeout", s.ReadTimeout)
	v.SetDefault("server.write_timeout", s.WriteTimeout)
	v.SetDefault("server.idle_timeout", s.IdleTimeout)
	v.SetDefault("server.metrics_enabled", s.MetricsEnabled)
	v.SetDefault("server.event_buffer", s.EventBuffer)
}

// loadEnvFiles loads .env then .env.local. Existing variables win.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

func expandHome(p string) string {
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return p
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
