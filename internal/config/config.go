// Package config loads configuration of the chat commands from YAML files,
// environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "STNET"

// Config is the root configuration shared by chatserver and chatclient.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Client  ClientConfig  `mapstructure:"client"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// HTML is a path to the page served for "/" and "*/index.html".
	HTML string        `mapstructure:"html"`
	Tick time.Duration `mapstructure:"tick"`
	// WriteTimeout disconnects peers that stop reading; 0 disables it.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type ClientConfig struct {
	Address string        `mapstructure:"address"`
	Port    string        `mapstructure:"port"`
	Tick    time.Duration `mapstructure:"tick"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: text or json
	Format string `mapstructure:"format"`
	// File is an optional log file; empty means stderr.
	File     string         `mapstructure:"file"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig controls log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

type MetricsConfig struct {
	// Addr enables the Prometheus endpoint when non-empty, e.g. ":9100".
	Addr string `mapstructure:"addr"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 4002,
			HTML:         "./webchat.html",
			Tick:         time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Client: ClientConfig{
			Address: "localhost",
			Port:    "4002",
			Tick:    50 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Rotation: RotationConfig{
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
	}
}

// New returns a viper instance seeded with defaults and environment
// overrides. Commands bind their flags into it before calling Load.
// Example: STNET_SERVER_PORT=4010
func New() *viper.Viper {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.html", cfg.Server.HTML)
	v.SetDefault("server.tick", cfg.Server.Tick)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("client.address", cfg.Client.Address)
	v.SetDefault("client.port", cfg.Client.Port)
	v.SetDefault("client.tick", cfg.Client.Tick)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("metrics.addr", cfg.Metrics.Addr)

	return v
}

// Load reads the config file at path (if non-empty, otherwise ./stnet.yaml
// when present) into v and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("stnet")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "console":
		c.Log.Format = "text"
	case "json":
	default:
		return fmt.Errorf("invalid log.format: %q", c.Log.Format)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}

	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("invalid server.write_timeout: %v", c.Server.WriteTimeout)
	}

	if c.Server.Tick <= 0 {
		c.Server.Tick = time.Second
	}

	if c.Client.Tick <= 0 {
		c.Client.Tick = 50 * time.Millisecond
	}

	return nil
}
