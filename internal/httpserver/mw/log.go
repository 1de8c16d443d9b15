package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stellarlink/stellar/internal/logger"
)

// responseMeta records what the handler actually sent.
type responseMeta struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *responseMeta) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseMeta) Write(b []byte) (int, error) {
	// Handlers may write a body without an explicit WriteHeader.
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Log emits one structured line per request. Session cookies and
// query strings are deliberately left out of the line.
func Log(loggerClient logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			meta := &responseMeta{ResponseWriter: w}

			next.ServeHTTP(meta, r)

			loggerClient.Info("http_request",
				logger.String("request_id", middleware.GetReqID(r.Context())),
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", meta.status),
				logger.Int("bytes", meta.bytes),
				logger.Duration("duration", time.Since(start)),
				logger.String("remote_ip", r.RemoteAddr),
				logger.String("user_agent", r.UserAgent()),
			)
		})
	}
}
