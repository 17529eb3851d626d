// Package logger holds the process-wide slog loggers: the application logger
// returned by L and Named, and a separate audit stream for quotes served and
// payloads built.
package logger

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
)

var (
	mu      sync.RWMutex
	appLog  *slog.Logger
	auditLg *slog.Logger
	sinks   []io.Closer
	started bool
)

// Init builds the loggers from cfg. Only the first successful call has an
// effect; a failed call leaves L on slog.Default and may be retried.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()
	if started {
		return nil
	}

	level := cfg.level()
	out, closers, err := openOutputs(cfg.OutputPaths)
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}
	app := slog.New(newHandler(cfg.Format, out, opts))

	audit := app
	if cfg.Audit.Enabled {
		w, err := cfg.Audit.writer()
		if err != nil {
			closeAll(closers)
			return err
		}
		closers = append(closers, w)
		audit = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})).
			With(slog.String("stream", "audit"))
	}

	appLog, auditLg, sinks = app, audit, closers
	started = true
	return nil
}

func newHandler(format string, w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// L returns the application logger. Before Init succeeds it is slog.Default.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if appLog == nil {
		return slog.Default()
	}
	return appLog
}

// Audit returns the audit logger, which is the application logger unless a
// dedicated audit file was configured.
func Audit() *slog.Logger {
	mu.RLock()
	l := auditLg
	mu.RUnlock()
	if l == nil {
		return L()
	}
	return l
}

// Named returns a child logger tagged with the provided component name.
func Named(name string) *slog.Logger {
	return L().With(slog.String("component", name))
}

// Sync closes file outputs opened by Init.
func Sync() error {
	mu.Lock()
	closers := sinks
	sinks = nil
	mu.Unlock()
	return closeAll(closers)
}

func closeAll(closers []io.Closer) error {
	var err error
	for _, c := range closers {
		err = errors.Join(err, c.Close())
	}
	return err
}
