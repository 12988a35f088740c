package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/galaxy-morphology/galfitkit/internal/constants"
)

// NewHandler returns the log handler for a verbose flag count.
// Text records carry no timestamp; JSON records keep it.
func NewHandler(w io.Writer, verbosity int, jsonLogs bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: Level(verbosity)}
	if jsonLogs {
		return slog.NewJSONHandler(w, opts)
	}

	opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) == 0 && a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}
	return slog.NewTextHandler(w, opts)
}

// SetSlog installs the default logger on stderr, leaving stdout to command output.
func SetSlog(verbosity int, jsonLogs bool) {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, verbosity, jsonLogs)))
}

// Level maps a verbose flag count to a log level.
func Level(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return constants.DefaultLogLevel
	case verbosity == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
