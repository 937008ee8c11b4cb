// Package config provides configuration management for heaptrace.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/heaptrace/pkg/telemetry"
)

// EnvPrefix is the prefix for environment overrides, e.g. HEAPTRACE_OUTPUT_DIR.
const EnvPrefix = "HEAPTRACE"

// Config holds all configuration for the application.
type Config struct {
	Output    OutputConfig    `mapstructure:"output"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

// OutputConfig controls where and how parsed events are written.
type OutputConfig struct {
	Dir         string `mapstructure:"dir"`
	Format      string `mapstructure:"format"`      // json or jsonl
	Compression string `mapstructure:"compression"` // none, gzip or zstd
	Pretty      bool   `mapstructure:"pretty"`      // indent summary.json
	TopN        int    `mapstructure:"top_n"`
}

// StorageConfig holds trace source configuration.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`     // e.g., "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`     // e.g., "https" or "http"
	LocalPath string `mapstructure:"local_path"` // for local storage
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Type     string `mapstructure:"type"` // sqlite, mysql or postgres
	Path     string `mapstructure:"path"` // sqlite file
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// TelemetryConfig holds OpenTelemetry settings. Standard OTEL_* environment
// variables still take precedence.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	Endpoint    string `mapstructure:"endpoint"`
	Protocol    string `mapstructure:"protocol"` // grpc or http/protobuf
	Insecure    bool   `mapstructure:"insecure"`
	Sampler     string `mapstructure:"sampler"`
	SamplerArg  string `mapstructure:"sampler_arg"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"` // empty means stdout
}

// Load reads configuration from the specified file path. An empty path
// searches the standard locations; a missing file falls back to defaults.
func Load(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("heaptrace")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/heaptrace")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromReader loads configuration from raw content (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := newViper()

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return decode(v)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// defaults always validate
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values. Every key needs a default
// so that AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("output.dir", "./output")
	v.SetDefault("output.format", "json")
	v.SetDefault("output.compression", "none")
	v.SetDefault("output.pretty", true)
	v.SetDefault("output.top_n", 10)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.secret_id", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.domain", "myqcloud.com")
	v.SetDefault("storage.scheme", "https")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "./heaptrace.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.database", "heaptrace")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "heaptrace")
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.protocol", "grpc")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("telemetry.sampler", "")
	v.SetDefault("telemetry.sampler_arg", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "json", "jsonl":
	default:
		return fmt.Errorf("unsupported output format: %s", c.Output.Format)
	}

	switch c.Output.Compression {
	case "none", "gzip", "zstd":
	default:
		return fmt.Errorf("unsupported output compression: %s", c.Output.Compression)
	}

	if c.Output.TopN < 0 {
		return fmt.Errorf("output top_n must not be negative")
	}

	switch c.Storage.Type {
	case "local":
	case "cos":
		if c.Storage.Bucket == "" || c.Storage.Region == "" {
			return fmt.Errorf("cos storage requires bucket and region")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	if c.Database.Enabled {
		switch c.Database.Type {
		case "sqlite":
			if c.Database.Path == "" {
				return fmt.Errorf("sqlite database requires a path")
			}
		case "mysql", "postgres":
			if c.Database.Host == "" {
				return fmt.Errorf("database host is required")
			}
		default:
			return fmt.Errorf("unsupported database type: %s", c.Database.Type)
		}
	}

	return nil
}

// TelemetrySettings converts the telemetry section into a telemetry.Config
// with OTEL_* environment variables applied on top.
func (c *Config) TelemetrySettings(version string) *telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.Enabled = c.Telemetry.Enabled
	if c.Telemetry.ServiceName != "" {
		tc.ServiceName = c.Telemetry.ServiceName
	}
	if version != "" {
		tc.ServiceVersion = version
	}
	tc.Endpoint = c.Telemetry.Endpoint
	if c.Telemetry.Protocol != "" {
		tc.Protocol = c.Telemetry.Protocol
	}
	tc.Insecure = c.Telemetry.Insecure
	tc.Sampler = c.Telemetry.Sampler
	tc.SamplerArg = c.Telemetry.SamplerArg

	tc.ApplyEnv()
	return tc
}
