package log

import (
	"fmt"
	"io"
	"strings"
)

// Config defines logging configuration.
type Config struct {
	// Level sets the minimum log level
	Level string `json:"level" yaml:"level"`

	// Format sets the output format (json, text)
	Format string `json:"format" yaml:"format"`

	// DisableColors turns off ANSI colors in text output
	DisableColors bool `json:"disable_colors" yaml:"disable_colors"`

	// RedactedFields lists fields whose values are never printed
	RedactedFields []string `json:"redacted_fields" yaml:"redacted_fields"`

	// Writer overrides stdout; ErrorWriter overrides stderr.
	Writer      io.Writer `json:"-" yaml:"-"`
	ErrorWriter io.Writer `json:"-" yaml:"-"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:          "info",
		Format:         "text",
		RedactedFields: []string{"password"},
	}
}

// ApplyConfig creates a logger from a configuration.
func ApplyConfig(config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	level, err := ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	options := []LoggerOption{WithLevel(level)}

	switch strings.ToLower(config.Format) {
	case "json":
		options = append(options, WithFormatter(&JSONFormatter{}))
	case "text", "":
		options = append(options, WithFormatter(&TextFormatter{
			TimestampFormat: DefaultTimestampFormat,
			DisableColors:   config.DisableColors,
		}))
	default:
		return nil, fmt.Errorf("invalid log format: %s", config.Format)
	}

	consoleOptions := []ConsoleOutputOption{WithErrorToStderr()}
	if config.Writer != nil {
		consoleOptions = append(consoleOptions, WithCustomWriter(config.Writer))
	}
	if config.ErrorWriter != nil {
		consoleOptions = append(consoleOptions, WithCustomErrorWriter(config.ErrorWriter))
	}
	options = append(options, WithOutput(NewConsoleOutput(consoleOptions...)))

	if len(config.RedactedFields) > 0 {
		options = append(options, WithHook(NewRedactionHook(config.RedactedFields)))
	}

	return NewLogger(options...), nil
}

// ParseLevel parses a level string into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}
