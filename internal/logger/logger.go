package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init installs the default slog JSON handler. When file is non-empty, log
// records are teed to it in addition to stderr.
func Init(file string) error {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stderr
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		out = io.MultiWriter(os.Stderr, f)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: level,
	})))
	return nil
}
