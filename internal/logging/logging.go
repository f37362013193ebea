// internal/logging/logging.go
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// EnvLogLevel overrides the configured level. Only cmd/* reads it.
const EnvLogLevel = "UHF_LOG_LEVEL"

// Config selects level and output format.
type Config struct {
	Level string `yaml:"level" toml:"level"`
	// Format is "console", "json" or empty for console on a terminal.
	Format  string `yaml:"format" toml:"format"`
	NoColor bool   `yaml:"no_color" toml:"no_color"`
}

// New builds the process logger writing to w.
func New(cfg Config, w io.Writer) zerolog.Logger {
	level, ok := ParseLevel(cfg.Level)
	if !ok {
		level = zerolog.InfoLevel
	}

	out := w
	if console(cfg.Format, w) {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.NoColor,
		}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func console(format string, w io.Writer) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console", "text":
		return true
	case "json":
		return false
	}
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// ParseLevel accepts zerolog level names plus a few aliases.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	}
	return zerolog.InfoLevel, false
}

// ApplyEnv returns cfg with the level taken from EnvLogLevel when set.
func ApplyEnv(cfg Config) Config {
	if v := os.Getenv(EnvLogLevel); v != "" {
		if _, ok := ParseLevel(v); ok {
			cfg.Level = v
		}
	}
	return cfg
}
