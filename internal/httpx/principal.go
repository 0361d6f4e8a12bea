package httpx

import (
	"context"
	"net/http"
)

type ctxKey int

const principalKey ctxKey = 0

// Principal is the authenticated user id, verified upstream and passed in
// the X-User-Id header. Token issuance and verification are not this
// service's concern.
func Principal(r *http.Request) string {
	if v, ok := r.Context().Value(principalKey).(string); ok {
		return v
	}
	return ""
}

// RequirePrincipal rejects requests without a verified user id.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.Header.Get("X-User-Id")
		if uid == "" {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "missing principal"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, uid)))
	})
}
