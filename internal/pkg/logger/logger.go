// Package logger holds the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is the textual log level accepted from configuration
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// Config represents logger configuration
type Config struct {
	Level LogLevel
	// Pretty selects the console writer instead of JSON lines
	Pretty bool
	// Output defaults to os.Stderr so that command output on stdout stays clean
	Output io.Writer
}

var root zerolog.Logger

// ParseLevel accepts anything zerolog understands plus "warning". Unknown
// or empty values mean info.
func ParseLevel(s string) LogLevel {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return WarnLevel
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return InfoLevel
	}
	return LogLevel(lvl.String())
}

// Configure replaces the package logger and zerolog's global logger.
func Configure(config Config) {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	if config.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	lvl, err := zerolog.ParseLevel(string(config.Level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(lvl)

	root = zerolog.New(out).With().Timestamp().Logger()
	log.Logger = root
}

// Get returns the configured logger
func Get() zerolog.Logger {
	return root
}

// Component returns a child logger tagged with the subsystem name.
func Component(name string) zerolog.Logger {
	return root.With().Str("component", name).Logger()
}

func Debug() *zerolog.Event { return root.Debug() }

func Info() *zerolog.Event { return root.Info() }

func Warn() *zerolog.Event { return root.Warn() }

func Error() *zerolog.Event { return root.Error() }

func init() {
	Configure(Config{Level: InfoLevel, Pretty: true})
}
