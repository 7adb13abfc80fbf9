package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var level = new(slog.LevelVar)

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values fall back to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Configure installs a text handler on stdout as the default logger.
func Configure(logLevel string) {
	ConfigureWriter(os.Stdout, logLevel)
}

// ConfigureWriter is Configure with an explicit destination.
func ConfigureWriter(w io.Writer, logLevel string) {
	level.Set(ParseLevel(logLevel))
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// SetLevel changes the level of the logger installed by Configure.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// Enabled reports whether messages at l are currently emitted.
func Enabled(l slog.Level) bool {
	return l >= level.Level()
}
