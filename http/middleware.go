package http

import (
	"log/slog"
	"net/http"

	"github.com/shareustc/shareustc"
)

// AuthMiddleware authenticates every request with auth. Rejected requests get a
// 401 and never reach next; accepted ones carry their identity, if any, in the
// request context.
func AuthMiddleware(auth *shareustc.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := auth.Authenticate(r.URL.Path, r.Method, r.Header.Get("Authorization"))
			if d.Rejected() {
				HandleError(w, r, d.Err)
				return
			}

			if d.Identity != nil {
				r = r.WithContext(shareustc.WithIdentity(r.Context(), *d.Identity))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole allows only identities holding one of roles. It must run after
// AuthMiddleware.
func RequireRole(roles ...shareustc.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := shareustc.IdentityFromContext(r.Context())
			if !ok {
				HandleError(w, r, &shareustc.AuthError{Code: shareustc.AuthMissingCredentials})
				return
			}

			if !id.HasRole(roles...) {
				slog.WarnContext(r.Context(), "role check failed",
					"path", r.URL.Path,
					"user_id", id.ID,
					"role", id.Role,
				)
				HandleError(w, r, shareustc.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
