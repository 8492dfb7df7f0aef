package logger

import (
	"io"
	"log/slog"
	"os"

	"gamo-keyword-api/internal/config"
)

var Logger *slog.Logger

// InitLogger initializes structured logging based on configuration
func InitLogger(cfg *config.Config) {
	Logger = New(os.Stdout, cfg.Debug)
	slog.SetDefault(Logger)

	Logger.Debug("Structured logging initialized", "store", cfg.StoreDriver, "extraction_mode", cfg.ExtractionMode)
}

// New builds the JSON logger; debug adds source locations and lowers the level.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}

	return slog.New(slog.NewJSONHandler(w, opts))
}

// L never returns nil, so packages can log before InitLogger ran (tests, tools).
func L() *slog.Logger {
	if Logger != nil {
		return Logger
	}
	return slog.Default()
}

// Helper functions for common log operations
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}
