package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"socialnet/internal/metrics"
)

// Metrics records request counts and latency labelled by route template.
// It must be installed with Router.Use so the matched route is known.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rr := &responseRecorder{ResponseWriter: w}
		next.ServeHTTP(rr, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		metrics.RecordHTTPRequest(r.Method, path, rr.statusCode(), time.Since(start))
	})
}
