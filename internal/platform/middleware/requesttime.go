package middleware

import (
	"net/http"
	"time"

	"hirelog/pkg/requestcontext"
)

// RequestTime pins a single observation of the clock to the request context
// so every component sees the same "now" for this request.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
