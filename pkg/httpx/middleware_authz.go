package httpx

import (
	"net/http"
	"strings"
)

// RequireAnyRole the caller must hold one of the listed roles. Role
// strings compare case-insensitively; an unrecognized or missing role is
// rejected, never passed through.
func RequireAnyRole(allowed ...string) Middleware {
	want := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		want[strings.ToLower(r)] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			have := strings.ToLower(strings.TrimSpace(roleFromCtx(r.Context())))
			if _, ok := want[have]; ok {
				next.ServeHTTP(w, r)
				return
			}

			writeBearerRoleError(w, allowed...)
		})
	}
}

// RFC 6750-style error response for insufficient role.
func writeBearerRoleError(w http.ResponseWriter, allowed ...string) {
	w.Header().
		Set("WWW-Authenticate", `Bearer error="insufficient_role", role="`+strings.Join(allowed, " ")+`"`)
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte("insufficient_role"))
}
