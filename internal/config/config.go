package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Contracts ContractsConfig `yaml:"contracts" mapstructure:"contracts"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Drift     DriftConfig     `yaml:"drift" mapstructure:"drift"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the artifact store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	RootDir     string `yaml:"root_dir" mapstructure:"root_dir"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ContractsConfig configures contract compilation and caching.
type ContractsConfig struct {
	SchemaDir    string `yaml:"schema_dir" mapstructure:"schema_dir"`
	SignalsDir   string `yaml:"signals_dir" mapstructure:"signals_dir"`
	MirrorPrefix string `yaml:"mirror_prefix" mapstructure:"mirror_prefix"`
	CacheTTLSecs int    `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
}

// ExportConfig configures bulk exports and the relational loader tool.
type ExportConfig struct {
	OutputDir             string `yaml:"output_dir" mapstructure:"output_dir"`
	RelationalTool        string `yaml:"relational_tool" mapstructure:"relational_tool"`
	RelationalTimeoutSecs int    `yaml:"relational_timeout_secs" mapstructure:"relational_timeout_secs"`
}

// DriftConfig configures drift scanning and reconciliation.
type DriftConfig struct {
	Enqueue          bool    `yaml:"enqueue" mapstructure:"enqueue"`
	AutoRepublish    bool    `yaml:"auto_republish" mapstructure:"auto_republish"`
	ScanLimit        int     `yaml:"scan_limit" mapstructure:"scan_limit"`
	EnqueuePerSecond float64 `yaml:"enqueue_per_second" mapstructure:"enqueue_per_second"`
}

// NotionConfig holds the review-database credentials for override sync.
type NotionConfig struct {
	Token    string `yaml:"token" mapstructure:"token"`
	ReviewDB string `yaml:"review_db" mapstructure:"review_db"`
}

// ServerConfig configures the read-only HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SPECFACTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "fs")
	v.SetDefault("store.root_dir", "data/artifacts")
	v.SetDefault("store.sqlite_path", "data/artifacts.db")
	v.SetDefault("contracts.schema_dir", "schemas")
	v.SetDefault("contracts.signals_dir", "signals")
	v.SetDefault("contracts.cache_ttl_secs", 300)
	v.SetDefault("store.database_url", "")
	v.SetDefault("contracts.mirror_prefix", "")
	v.SetDefault("export.output_dir", "data/exports")
	v.SetDefault("export.relational_tool", "")
	v.SetDefault("export.relational_timeout_secs", 120)
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.review_db", "")
	v.SetDefault("drift.enqueue", true)
	v.SetDefault("drift.auto_republish", false)
	v.SetDefault("drift.scan_limit", 500)
	v.SetDefault("drift.enqueue_per_second", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

	return &cfg, nil
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
