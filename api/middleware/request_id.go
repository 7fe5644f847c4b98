package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/quickshop/storefront-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID assigns every request an id, echoes it back in the response
// header, and stamps it onto the context logger so a cart mutation and the
// checkout it leads to can be tied together in logs. Client-supplied ids are
// kept so storefront frontends can correlate retries.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
