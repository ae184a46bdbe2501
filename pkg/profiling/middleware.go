package profiling

import (
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Middleware logs every request handled by the API.
type Middleware struct {
	logger *zap.Logger
	// detailed adds heap and goroutine deltas to the log line.
	detailed bool
}

// NewMiddleware creates a request logging middleware.
func NewMiddleware(logger *zap.Logger, detailed bool) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{logger: logger, detailed: detailed}
}

// Handler wraps handler and logs method, path, status and duration under name.
func (m *Middleware) Handler(name string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		var startMem runtime.MemStats
		startGoroutines := 0
		if m.detailed {
			runtime.ReadMemStats(&startMem)
			startGoroutines = runtime.NumGoroutine()
		}

		w.Header().Set("X-Handler-Name", name)
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler.ServeHTTP(wrapped, r)

		fields := []zap.Field{
			zap.String("handler", name),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.statusCode),
			zap.Int("bytes", wrapped.bytes),
			zap.Duration("duration", time.Since(start)),
		}
		if m.detailed {
			var endMem runtime.MemStats
			runtime.ReadMemStats(&endMem)
			fields = append(fields,
				zap.Int64("memory_delta_bytes", int64(endMem.Alloc)-int64(startMem.Alloc)),
				zap.Int("goroutine_delta", runtime.NumGoroutine()-startGoroutines))
		}

		switch {
		case wrapped.statusCode >= 500:
			m.logger.Error("request", fields...)
		case wrapped.statusCode >= 400:
			m.logger.Warn("request", fields...)
		default:
			m.logger.Info("request", fields...)
		}
	})
}

// HandlerFunc wraps a handler function.
func (m *Middleware) HandlerFunc(name string, fn http.HandlerFunc) http.Handler {
	return m.Handler(name, fn)
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}
