package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Jina        JinaConfig        `yaml:"jina" mapstructure:"jina"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Workspace   WorkspaceConfig   `yaml:"workspace" mapstructure:"workspace"`
	Bulk        BulkConfig        `yaml:"bulk" mapstructure:"bulk"`
	Maintenance MaintenanceConfig `yaml:"maintenance" mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// JinaConfig holds Jina AI Reader settings.
type JinaConfig struct {
	Key               string `yaml:"key" mapstructure:"key"`
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs       int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CacheTTLHours     int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	MaxAttempts       int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	LocalFallback     bool   `yaml:"local_fallback" mapstructure:"local_fallback"`
	RequestsPerMinute int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"` // 0 disables throttling
}

// Timeout returns the per-call acquisition deadline.
func (c JinaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// CacheTTL returns how long reader output is reused.
func (c JinaConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// LLMConfig selects the completion backend. An empty Key means heuristic mode.
type LLMConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"`
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the per-call completion deadline.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// WorkspaceConfig configures workspace defaults.
type WorkspaceConfig struct {
	DefaultThesis    string `yaml:"default_thesis" mapstructure:"default_thesis"`
	PurgeDemoOnStart bool   `yaml:"purge_demo_on_start" mapstructure:"purge_demo_on_start"`
}

// BulkConfig configures bulk enrichment pacing.
type BulkConfig struct {
	IntervalMS int `yaml:"interval_ms" mapstructure:"interval_ms"`
}

// Interval returns the gap between pipeline calls in a bulk run.
func (c BulkConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// MaintenanceConfig configures background housekeeping.
type MaintenanceConfig struct {
	Schedule string `yaml:"schedule" mapstructure:"schedule"`
}

const minBulkIntervalMS = 500

// Validate checks the settings a command mode needs. Every problem is
// reported, not just the first. Mode "serve" additionally checks the port.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("unknown store.driver %q", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	switch c.LLM.Provider {
	case "groq", "anthropic", "gemini":
	default:
		errs = append(errs, fmt.Sprintf("unknown llm.provider %q", c.LLM.Provider))
	}
	if c.Bulk.IntervalMS < minBulkIntervalMS {
		errs = append(errs, fmt.Sprintf("bulk.interval_ms must be at least %d", minBulkIntervalMS))
	}
	if c.Jina.TimeoutSecs <= 0 {
		errs = append(errs, "jina.timeout_secs must be positive")
	}
	if c.LLM.TimeoutSecs <= 0 {
		errs = append(errs, "llm.timeout_secs must be positive")
	}
	if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VCI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "vc-intel.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("jina.key", "")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.timeout_secs", 15)
	v.SetDefault("jina.cache_ttl_hours", 24)
	v.SetDefault("jina.max_attempts", 2)
	v.SetDefault("jina.local_fallback", false)
	v.SetDefault("jina.requests_per_minute", 0)
	v.SetDefault("llm.provider", "groq")
	v.SetDefault("llm.key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout_secs", 30)
	v.SetDefault("workspace.default_thesis", "")
	v.SetDefault("workspace.purge_demo_on_start", true)
	v.SetDefault("bulk.interval_ms", minBulkIntervalMS)
	v.SetDefault("maintenance.schedule", "@every 1h")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	applyGroqEnv(&cfg.LLM)

	return &cfg, nil
}

// applyGroqEnv fills an unset key and model from GROQ_API_KEY and GROQ_MODEL.
// The aliases apply to the groq provider only.
func applyGroqEnv(c *LLMConfig) {
	if c.Provider != "groq" {
		return
	}
	if c.Key == "" {
		c.Key = os.Getenv("GROQ_API_KEY")
	}
	if c.Model == "" {
		c.Model = os.Getenv("GROQ_MODEL")
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
