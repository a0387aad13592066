package main

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog for the run's persisted record. The entry point owns
// the output; core components only receive a *Logger.
type Logger struct {
	zl zerolog.Logger
}

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	Level  zerolog.Level
	Output io.Writer
	Pretty bool // console writer instead of JSON lines
}

// NewLogger creates a logger writing timestamped records to cfg.Output.
func NewLogger(cfg LoggerConfig) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339

	zl := zerolog.New(out).
		With().
		Timestamp().
		Logger().
		Level(cfg.Level)

	return &Logger{zl: zl}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// OpenLogFile opens path for appending, creating it if needed.
func OpenLogFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// WithTarget returns a child logger tagged with the target URL.
func (l *Logger) WithTarget(target string) *Logger {
	return &Logger{zl: l.zl.With().Str("target", target).Logger()}
}

// WithAttempt returns a child logger tagged with the attempt's identity.
// Passwords are never written to the log unless the attempt succeeded.
func (l *Logger) WithAttempt(a Attempt) *Logger {
	return &Logger{zl: l.zl.With().
		Str("username", a.Username).
		Str("encoding", a.Encoding.String()).
		Logger()}
}

// WithWorker returns a child logger tagged with a worker ID.
func (l *Logger) WithWorker(id int) *Logger {
	return &Logger{zl: l.zl.With().Int("worker_id", id).Logger()}
}

func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
