package middleware

import (
	"net/http"

	"github.com/dangerclosesec/partnerhub/internal/audit"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// AuthzAuditMiddleware attaches the request id, client address and user
// agent to the context so authorization audit entries can record them.
// Mount it after chimw.RequestID and chimw.RealIP.
func AuthzAuditMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithRequestInfo(r.Context(), audit.RequestInfo{
			RequestID: chimw.GetReqID(r.Context()),
			ClientIP:  r.RemoteAddr,
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
