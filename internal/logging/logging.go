// Package logging builds the service's zerolog loggers and the HTTP access log.
package logging

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the root logger. Production writes JSON to stdout, everything
// else gets the human readable console writer.
func New(env, level string) zerolog.Logger {
	return NewWithWriter(env, level, os.Stdout)
}

func NewWithWriter(env, level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := w
	if env != "production" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: w != os.Stdout}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "planit-api").Logger()
}

// Component tags a child logger with the component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// AccessLog logs one line per request and attaches log to the request
// context for zerolog.Ctx.
func AccessLog(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(log.WithContext(r.Context())))

		evt := log.Info()
		switch {
		case rec.status >= 500:
			evt = log.Error()
		case rec.status >= 400:
			evt = log.Warn()
		}
		evt.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("latency", time.Since(start)).
			Msg("request")
	})
}
