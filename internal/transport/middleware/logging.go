package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/complaint-management/pkg/logger"
)

// sensitiveFields are matched as substrings of lower-cased JSON keys.
var sensitiveFields = []string{
	"password",
	"token",
	"authorization",
	"secret",
	"key",
	"session",
	"credential",
	"auth",
	"p256dh",
}

// quietPaths are served without access logging.
var quietPaths = []string{"/metrics", "/swagger/", "/openapi.", "/api/v1/ping", "/api/v1/health"}

// maxLoggedBody caps how much of a request or error response is kept for the log line.
const maxLoggedBody = 4 << 10

// LoggingMiddleware writes one access line per request. Request bodies of
// writes and bodies of failed responses are included after redaction.
func LoggingMiddleware(base *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range quietPaths {
				if strings.HasPrefix(r.URL.Path, p) {
					next.ServeHTTP(w, r)
					return
				}
			}

			start := time.Now()
			reqBody := peekBody(r)

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			lg := base
			if ctxLogger, ok := logger.Lookup(r.Context()); ok {
				lg = ctxLogger
			}

			level := slog.LevelInfo
			switch {
			case ww.statusCode >= 500:
				level = slog.LevelError
			case ww.statusCode >= 400:
				level = slog.LevelWarn
			}

			attrs := []any{
				"method", r.Method,
				"route", routeOf(r),
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes", ww.size,
				"remote_addr", r.RemoteAddr,
			}
			if len(reqBody) > 0 {
				attrs = append(attrs, "request", filterSensitiveBody(reqBody))
			}
			if ww.statusCode >= 400 && ww.errBody.Len() > 0 {
				attrs = append(attrs, "response", filterSensitiveBody(ww.errBody.Bytes()))
			}

			lg.Log(r.Context(), level, "request completed", attrs...)
		})
	}
}

// peekBody returns up to maxLoggedBody bytes of a write request and leaves
// the full body readable for the handler.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
		return nil
	}
	full, err := io.ReadAll(r.Body)
	if err != nil {
		return nil
	}
	r.Body = io.NopCloser(bytes.NewReader(full))
	if len(full) > maxLoggedBody {
		return full[:maxLoggedBody]
	}
	return full
}

func routeOf(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// responseWriter records the status and size, and keeps the start of the body
// once the status says the request failed.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
	errBody    bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.statusCode >= 400 && rw.errBody.Len() < maxLoggedBody {
		rw.errBody.Write(b[:min(len(b), maxLoggedBody-rw.errBody.Len())])
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func isSensitive(key string) bool {
	key = strings.ToLower(key)
	for _, f := range sensitiveFields {
		if strings.Contains(key, f) {
			return true
		}
	}
	return false
}

// filterSensitiveBody masks sensitive keys of a JSON body. Non-JSON bodies
// are replaced entirely when they mention a sensitive word.
func filterSensitiveBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		if isSensitive(string(body)) {
			return "[FILTERED]"
		}
		return string(body)
	}

	out, err := json.Marshal(redact(data))
	if err != nil {
		return "[FILTERED]"
	}
	return string(out)
}

func redact(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if isSensitive(key) {
				out[key] = "[FILTERED]"
				continue
			}
			out[key] = redact(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = redact(item)
		}
		return out
	default:
		return v
	}
}
