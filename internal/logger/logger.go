package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// L is the process logger. It writes to stderr until Init is called.
var L = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}).With().Timestamp().Logger()

var file *os.File

// Init configures L. An empty path logs to stdout only; otherwise lines go to
// both stdout and the file, the file without colors.
func Init(level, path string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}

	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		file = f
		w = zerolog.MultiLevelWriter(w, zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: time.DateTime})
	}
	L = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return nil
}

// ParseLevel accepts zerolog level names; empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}

// Close flushes and closes the log file, if any.
func Close() error {
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return L.With().Str("component", name).Logger()
}

func Debugf(f string, v ...any) { L.Debug().Msgf(f, v...) }
func Infof(f string, v ...any)  { L.Info().Msgf(f, v...) }
func Warnf(f string, v ...any)  { L.Warn().Msgf(f, v...) }
func Errorf(f string, v ...any) { L.Error().Msgf(f, v...) }
