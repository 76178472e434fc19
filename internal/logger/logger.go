// Package logger configures the global zerolog logger from command line
// options.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a go-flags option group.
type Logger struct {
	Level  string `long:"log-level"  env:"LOG_LEVEL"  description:"Log level" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
	Format string `long:"log-format" env:"LOG_FORMAT" description:"Log format" choice:"console" choice:"json" default:"console"`
	File   string `long:"log-file"   env:"LOG_FILE"   description:"Write logs to this file instead of stderr"`

	closer io.Closer
}

// Setup installs the global logger. A log file that cannot be opened falls
// back to stderr.
func (l *Logger) Setup() {
	level, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil || l.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stderr
	var fileErr error
	if l.File != "" {
		f, err := os.OpenFile(l.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fileErr = err
		} else {
			out = f
			l.closer = f
		}
	}

	if l.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05", NoColor: l.File != ""}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	if fileErr != nil {
		log.Warn().Err(fileErr).Str("path", l.File).Msg("Cannot open log file, using stderr")
	}
}

func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
