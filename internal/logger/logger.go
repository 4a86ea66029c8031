// Package logger provides structured logging for cityguide.
// It uses Go's slog package with configurable levels and formats, and mirrors
// every record into an in-memory Buffer served by the debug log endpoint.
package logger

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	slogmulti "github.com/samber/slog-multi"
)

// RequestIDHeader carries the request id assigned by Middleware.
const RequestIDHeader = "X-Request-ID"

// ParseLevel maps a configuration level name to a slog level, defaulting to info.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a new slog Logger with the specified level and format.
// If jsonOutput is true, stdout logs are formatted as JSON, otherwise as text.
// When buf is not nil, records are also fanned out into it.
func NewLogger(levelStr string, jsonOutput bool, buf *Buffer) *slog.Logger {
	return newLogger(os.Stdout, levelStr, jsonOutput, buf)
}

func newLogger(w io.Writer, levelStr string, jsonOutput bool, buf *Buffer) *slog.Logger {
	level := ParseLevel(levelStr)
	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	if buf != nil {
		handler = slogmulti.Fanout(handler, buf.Handler(level))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Middleware creates an HTTP access logging middleware. Each request gets an
// id (echoed in the X-Request-ID header) and is logged on start and finish.
func Middleware(log *slog.Logger) func(http.Handler) http.Handler {
	log = log.With(SourceKey, "request")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			logEntry := log.With(
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			logEntry.DebugContext(r.Context(), "Processing request")

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []any{"status", status, "bytes", ww.BytesWritten(), "duration", time.Since(startTime)}
			switch {
			case status >= http.StatusInternalServerError:
				logEntry.ErrorContext(r.Context(), "Finished request", attrs...)
			case status >= http.StatusBadRequest:
				logEntry.WarnContext(r.Context(), "Finished request", attrs...)
			default:
				logEntry.DebugContext(r.Context(), "Finished request", attrs...)
			}
		})
	}
}

// Truncate shortens s to maxLen bytes, marking the cut with "...".
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
