package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Services ServicesConfig `koanf:"services"`
	S3       S3Config       `koanf:"s3"`
	Sheets   SheetsConfig   `koanf:"sheets"`
	Video    VideoConfig    `koanf:"video"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

type DatabaseConfig struct {
	URL            string `koanf:"url"`
	MaxConnections int    `koanf:"max_connections"`
}

type ServicesConfig struct {
	AILogicURL     string `koanf:"ailogic_url"`
	VideoEngineURL string `koanf:"videoengine_url"`
	ScriptTimeout  string `koanf:"script_timeout"`
	VideoTimeout   string `koanf:"video_timeout"`
	HealthTimeout  string `koanf:"health_timeout"`
}

type S3Config struct {
	Region       string `koanf:"region"`
	Endpoint     string `koanf:"endpoint"`
	AccessKey    string `koanf:"access_key"`
	SecretKey    string `koanf:"secret_key"`
	InputBucket  string `koanf:"input_bucket"`
	OutputBucket string `koanf:"output_bucket"`
	AssetsBucket string `koanf:"assets_bucket"`
}

type SheetsConfig struct {
	FormURL string `koanf:"form_url"`
	EntryID string `koanf:"entry_id"`
}

type VideoConfig struct {
	TargetDuration int      `koanf:"target_duration"`
	Platforms      []string `koanf:"platforms"`
	Style          string   `koanf:"style"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Load reads config from TOML file (if provided) then overlays env vars.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := loadDefaults(k); err != nil {
		return nil, err
	}

	// 2. Load TOML config file if provided
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, err
		}
	}

	// 3. Load env vars: SF_SERVER_PORT -> server.port
	// Only set env vars that have non-empty values to avoid overriding TOML config.
	if err := k.Load(env.ProviderWithValue("SF_", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		mapped := strings.Replace(
			strings.ToLower(strings.TrimPrefix(key, "SF_")),
			"_", ".", 1,
		)
		return mapped, value
	}), nil); err != nil {
		return nil, err
	}

	// 4. Handle top-level convenience env vars
	if v := os.Getenv("SF_DATABASE_URL"); v != "" {
		k.Set("database.url", v)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ScriptTimeoutDuration returns the parsed script-generation call timeout.
func (c *ServicesConfig) ScriptTimeoutDuration() time.Duration {
	return parseDuration(c.ScriptTimeout, 60*time.Second)
}

// VideoTimeoutDuration returns the parsed video-rendering call timeout.
func (c *ServicesConfig) VideoTimeoutDuration() time.Duration {
	return parseDuration(c.VideoTimeout, 300*time.Second)
}

// HealthTimeoutDuration returns the parsed health-probe timeout.
func (c *ServicesConfig) HealthTimeoutDuration() time.Duration {
	return parseDuration(c.HealthTimeout, 5*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
