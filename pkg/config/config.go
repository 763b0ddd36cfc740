// Package config loads YAML service configuration, expanding environment
// variables before unmarshalling.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig represents the listener configuration shared by all three
// framed services (DB, Developer, Lobby).
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
}

// Addr returns the host:port pair net.Listen expects.
func (s ServerConfig) Addr() string {
	host := s.Host
	if host == "" {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d", host, s.Port)
}

// LoggingConfig represents logging configuration, mirroring pkg/logging.Config
// so service configs can be unmarshalled directly into it.
type LoggingConfig struct {
	Level  string   `yaml:"level"`
	Format string   `yaml:"format"`
	Output string   `yaml:"output"`
	File   *FileConfig `yaml:"file,omitempty"`
}

// FileConfig represents rotating file logging configuration.
type FileConfig struct {
	Directory string `yaml:"directory"`
	Filename  string `yaml:"filename"`
	MaxSize   string `yaml:"max_size"`
	MaxFiles  int    `yaml:"max_files"`
	MaxAge    string `yaml:"max_age"`
	Compress  bool   `yaml:"compress"`
}

// MonitoringConfig represents the Prometheus /metrics endpoint configuration.
type MonitoringConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML file at configPath, expanding ${VAR} environment
// references before parsing, and unmarshals it into out.
func Load(configPath string, out interface{}) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), out); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	return nil
}

// ParseDuration parses durationStr, returning fallback if it is empty or
// malformed.
func ParseDuration(durationStr string, fallback time.Duration) time.Duration {
	if duration, err := time.ParseDuration(durationStr); err == nil {
		return duration
	}
	return fallback
}
