// Package config loads settings from defaults, an optional YAML file and the
// environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no explicit config path is given and it exists.
const DefaultFile = "vehicle-catalog.yaml"

type Config struct {
	// CatalogFile is the pipe-delimited vehicle file.
	CatalogFile string `yaml:"catalog_file"`
	Environment string `yaml:"environment"`
	// SaveOnExit writes the catalog back when the shell or server stops.
	SaveOnExit bool `yaml:"save_on_exit"`

	Log       LogConfig       `yaml:"log"`
	Shell     ShellConfig     `yaml:"shell"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// File receives JSON logs. Empty means stderr.
	File string `yaml:"file"`
}

type ShellConfig struct {
	ClearScreen bool `yaml:"clear_screen"`
	Pause       bool `yaml:"pause"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
}

func Default() *Config {
	return &Config{
		CatalogFile: "vehicles.csv",
		Environment: "development",
		SaveOnExit:  true,
		Log: LogConfig{
			Level: "warn",
		},
		Shell: ShellConfig{
			ClearScreen: true,
			Pause:       true,
		},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "vehicle-catalog",
			Endpoint:    "http://localhost:4318",
		},
	}
}

// Load builds the configuration. An explicit path must exist; otherwise
// DefaultFile is used when present.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config.load %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("config.load %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.CatalogFile = getEnv("VEHICLE_CATALOG_FILE", cfg.CatalogFile)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.SaveOnExit = getEnvBool("VEHICLE_CATALOG_SAVE_ON_EXIT", cfg.SaveOnExit)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Telemetry.Enabled = getEnvBool("OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.ServiceName = getEnv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
	cfg.Telemetry.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.Endpoint)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
