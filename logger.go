package filterchain

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/filterchain/internal/logging"
)

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(logging.Nop())
}

// SetLogger configures the package-wide logger. By default filterchain
// produces no log output.
//
// Pipelines created without WithLogger log through the package-wide logger,
// including pipelines created before the call.
//
// Pass nil to disable logging again.
//
// Log levels used by filterchain:
//   - [slog.LevelDebug]: per-frame events, cache hits and misses
//   - [slog.LevelInfo]: device selection
//   - [slog.LevelWarn]: frames dropped on chain failure, release errors
//
// Example:
//
//	filterchain.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = logging.Nop()
	}
	loggerPtr.Store(l)
}

// Logger returns the current package-wide logger.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// globalHandler forwards records to whatever logger SetLogger installed
// last. Derived handlers (WithAttrs, WithGroup) bind to the logger current
// at derivation time.
type globalHandler struct{}

func (globalHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return Logger().Handler().Enabled(ctx, level)
}

func (globalHandler) Handle(ctx context.Context, r slog.Record) error {
	return Logger().Handler().Handle(ctx, r)
}

func (globalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Logger().Handler().WithAttrs(attrs)
}

func (globalHandler) WithGroup(name string) slog.Handler {
	return Logger().Handler().WithGroup(name)
}

// globalLogger is handed to components when no logger was configured.
var globalLogger = slog.New(globalHandler{})
