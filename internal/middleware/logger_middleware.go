package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"socialnet/internal/logging"
)

// responseRecorder captures the status code and body size of a response.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// Logger attaches a request-scoped logger to the context and logs every
// completed request.
func Logger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := log.WithFields(logrus.Fields{
				"http.req.path":   r.URL.Path,
				"http.req.method": r.Method,
				"http.req.id":     uuid.NewString(),
				"http.req.remote": r.RemoteAddr,
			})

			rr := &responseRecorder{ResponseWriter: w}
			next.ServeHTTP(rr, r.WithContext(logging.WithLogger(r.Context(), reqLog)))

			reqLog.WithFields(logrus.Fields{
				"http.resp.took_ms": time.Since(start).Milliseconds(),
				"http.resp.status":  rr.statusCode(),
				"http.resp.bytes":   rr.bytes,
			}).Info("request complete")
		})
	}
}
