package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config represents slog-compatible logging configuration.
type Config struct {
	Level  string   `yaml:"level"`  // debug, info, warn, error
	Format string   `yaml:"format"` // json, text
	Output string   `yaml:"output"` // stdout, stderr, file
	File   *LogFile `yaml:"file,omitempty"`
}

// LogFile represents rotating file logging configuration.
type LogFile struct {
	Directory string `yaml:"directory"`
	Filename  string `yaml:"filename"`
	MaxSize   string `yaml:"max_size"`
	MaxFiles  int    `yaml:"max_files"`
	MaxAge    string `yaml:"max_age"`
	Compress  bool   `yaml:"compress"`
}

// NewLogger creates a configured slog.Logger tagged with serviceName.
func NewLogger(serviceName string, config Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(config.Level)}

	writer := createWriter(config)

	var handler slog.Handler
	if strings.ToLower(config.Format) == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	return slog.New(handler).With("service", serviceName)
}

// NewServiceLogger creates a logger tagged with both a service name (e.g.
// "db-service") and a component within it (e.g. "dbstore", "dbserver"), the
// two fields every log line in this platform's three services carries.
func NewServiceLogger(serviceName, componentName string, config Config) *slog.Logger {
	return NewLogger(serviceName, config).With("component", componentName)
}

// parseLogLevel converts a level string to slog.Level, defaulting to Info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARNING", "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// createWriter creates the appropriate writer based on configuration,
// falling back to stdout (with a warning) on misconfiguration.
func createWriter(config Config) io.Writer {
	switch strings.ToLower(config.Output) {
	case "stdout", "":
		return os.Stdout
	case "stderr":
		return os.Stderr
	case "file":
		if config.File == nil {
			fmt.Fprintf(os.Stderr, "Warning: file configuration missing, falling back to stdout\n")
			return os.Stdout
		}
		writer, err := createFileWriter(config.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to create file writer (%v), falling back to stdout\n", err)
			return os.Stdout
		}
		return writer
	default:
		fmt.Fprintf(os.Stderr, "Warning: unknown log output %q, falling back to stdout\n", config.Output)
		return os.Stdout
	}
}

// createFileWriter creates a rotating file writer.
func createFileWriter(config *LogFile) (io.Writer, error) {
	if err := os.MkdirAll(config.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	maxSize, err := parseSize(config.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("invalid max_size: %w", err)
	}
	maxAge, err := parseAge(config.MaxAge)
	if err != nil {
		return nil, fmt.Errorf("invalid max_age: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   filepath.Join(config.Directory, config.Filename),
		MaxSize:    maxSize,
		MaxBackups: config.MaxFiles,
		MaxAge:     maxAge,
		Compress:   config.Compress,
	}, nil
}

// parseSize converts a "<N>MB"/"<N>GB" size string to megabytes.
func parseSize(sizeStr string) (int, error) {
	sizeStr = strings.ToUpper(strings.TrimSpace(sizeStr))

	if strings.HasSuffix(sizeStr, "GB") {
		var size int
		_, err := fmt.Sscanf(strings.TrimSuffix(sizeStr, "GB"), "%d", &size)
		return size * 1024, err
	}

	sizeStr = strings.TrimSuffix(sizeStr, "MB")
	var size int
	_, err := fmt.Sscanf(sizeStr, "%d", &size)
	return size, err
}

// parseAge converts a "<N>d"/"<N>days" age string to days.
func parseAge(ageStr string) (int, error) {
	ageStr = strings.ToLower(strings.TrimSpace(ageStr))
	ageStr = strings.TrimSuffix(strings.TrimSuffix(ageStr, "days"), "d")

	var age int
	_, err := fmt.Sscanf(ageStr, "%d", &age)
	return age, err
}
