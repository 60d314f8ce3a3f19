package slogutil

import (
	"io"
	"log/slog"

	"ecomapi/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// FromConfig builds the process logger: console output to w, plus a rotating
// log file when cfg.File is set. levelOverride, when non-empty, replaces
// cfg.Level (the --log-level flag). The returned closer releases the file.
func FromConfig(cfg config.LoggingConfig, w io.Writer, levelOverride string) (*slog.Logger, io.Closer, error) {
	levelName := cfg.Level
	if levelOverride != "" {
		levelName = levelOverride
	}
	level := LevelFromString(levelName)

	console := NewHandler(w, level, cfg.Format)
	if cfg.File == "" {
		return slog.New(console), nopCloser{}, nil
	}

	rf, err := OpenRotatingFile(cfg.File, ParseSize(cfg.MaxSize), cfg.MaxBackups)
	if err != nil {
		return nil, nil, err
	}
	// The file always gets JSON so it can be shipped or grepped by key.
	file := NewHandler(rf, level, FormatJSON)
	return slog.New(NewTeeHandler(console, file)), rf, nil
}
