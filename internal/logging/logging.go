package logging

import (
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	EnvLogLevel     = "NOWLINK_LOG_LEVEL"
	EnvLogTimestamp = "NOWLINK_LOG_TIMESTAMP"
	EnvLogNoColor   = "NOWLINK_LOG_NOCOLOR"
	EnvLogJSON      = "NOWLINK_LOG_JSON"
	EnvLogFile      = "NOWLINK_LOG_FILE"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Options describes where and how much a process logs.
type Options struct {
	Level      string `toml:"level"`
	Timestamp  bool   `toml:"timestamp"`
	NoColor    bool   `toml:"no_color"`
	JSON       bool   `toml:"json"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

func DefaultOptions(profile Profile) Options {
	opts := Options{
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
	}
	switch profile {
	case ProfileTest:
		opts.Level = "debug"
		opts.Timestamp = false
		opts.NoColor = true
	default:
		opts.Level = "info"
		opts.Timestamp = true
	}
	return opts
}

// Configure applies environment overrides to opts, builds the logger, and
// installs it as the global zerolog logger. The returned closer flushes the
// log file, if any.
func Configure(opts Options) (zerolog.Logger, io.Closer, error) {
	ApplyEnvOverrides(&opts)
	logger, closer, err := New(opts, os.Stderr)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	log.Logger = logger
	return logger, closer, nil
}

// New builds a logger writing to console and, when opts.File is set, to a
// size-rotated file as JSON lines.
func New(opts Options, console io.Writer) (zerolog.Logger, io.Closer, error) {
	level, ok := ParseLevel(opts.Level)
	if !ok {
		return zerolog.Nop(), nil, errors.New("logging: unknown level " + strconv.Quote(opts.Level))
	}

	var out io.Writer = console
	if !opts.JSON {
		cw := zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: time.RFC3339,
			NoColor:    opts.NoColor,
		}
		if !opts.Timestamp {
			cw.PartsExclude = []string{zerolog.TimestampFieldName}
		}
		out = cw
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		out = zerolog.MultiLevelWriter(out, file)
		closer = file
	}

	ctx := zerolog.New(out).Level(level).With()
	if opts.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger(), closer, nil
}

// ApplyEnvOverrides lets NOWLINK_LOG_* variables win over file settings.
func ApplyEnvOverrides(opts *Options) {
	if raw := os.Getenv(EnvLogLevel); raw != "" {
		if _, ok := ParseLevel(raw); ok {
			opts.Level = raw
		}
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		opts.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		opts.NoColor = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogJSON)); ok {
		opts.JSON = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		opts.File = v
	}
}

func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "", "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
