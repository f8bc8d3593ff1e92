package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger returns a text logger writing to w,
// and additionally to a rotating file at logPath if it is set.
// The returned closer must be closed before exiting.
func newLogger(w io.Writer, level, logPath string) (*slog.Logger, io.Closer, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var closer io.Closer = nopCloser{}
	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		lj := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    1, // Megabytes.
			MaxBackups: 10,
			MaxAge:     14, // Days.
			Compress:   true,
		}
		w = io.MultiWriter(w, lj)
		closer = lj
	}

	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
