package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopql/shopql/internal/observability"
)

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := wrap(w)
		next.ServeHTTP(rw, r)
		observability.ObserveHTTPRequest(r.Method, routePattern(r), strconv.Itoa(rw.status), time.Since(start))
	})
}
