package command

import (
	"io"
	"log/slog"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
)

// NewLogger returns a human-readable logger writing to w.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:       level,
		TimeFormat:  time.DateTime,
		ReplaceAttr: rewriteLogLevel,
		NoColor:     color.NoColor,
	}))
}

func rewriteLogLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) != 0 {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}

	var levelText string
	switch level {
	case slog.LevelDebug:
		levelText = "DEBUG"
	case slog.LevelInfo:
		levelText = color.GreenString("INFO")
	case slog.LevelWarn:
		levelText = color.YellowString("WARN")
	case slog.LevelError:
		levelText = color.RedString("ERROR")
	default:
		levelText = level.String()
	}
	a.Value = slog.StringValue(levelText)
	return a
}
