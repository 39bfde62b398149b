package surfaces

import (
	"io"
	"log/slog"
)

// logger discards output by default; tracing is hot-path code and logging
// is opt-in.
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// SetLogger routes package logging to l. Passing nil keeps the current
// logger.
func SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	logger = l
}
