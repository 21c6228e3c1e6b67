package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pliu/estate/internal/metrics"
)

// Metrics records request counts and latency labelled by route template,
// so /api/posts/1 and /api/posts/2 share a series.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		done := metrics.RequestStarted()
		rec := wrap(w)
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		done(r.Method, route, rec.Status())
	})
}
