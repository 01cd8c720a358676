package middleware

import (
	"context"
	"net/http"

	"pathlight-web/internal/session"
	"pathlight-web/pkg/errors"
	"pathlight-web/pkg/logger"
	"pathlight-web/pkg/tokenstore"
)

// TokenStore binds a cookie-backed token store to every request
func TokenStore(opts tokenstore.CookieOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store := tokenstore.NewCookieStore(w, r, opts)
			ctx := context.WithValue(r.Context(), StoreContextKey, tokenstore.Store(store))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StoreFromContext returns the request's token store. Requests that did not
// pass through TokenStore get an empty in-memory store.
func StoreFromContext(ctx context.Context) tokenstore.Store {
	if s, ok := ctx.Value(StoreContextKey).(tokenstore.Store); ok {
		return s
	}
	return tokenstore.NewMemoryStore()
}

// RequireSession guards pages. Visitors without a usable token are sent to
// sign-in with the original path carried in the redirect parameter.
func RequireSession(guard *session.Guard, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := guard.Check(StoreFromContext(r.Context()))
			if d.State != session.StateAuthenticated {
				log.WithFields(map[string]interface{}{
					"path":         r.URL.Path,
					"token_status": d.TokenStatus.String(),
				}).Debug("Redirecting to sign-in")
				http.Redirect(w, r, session.SignInRedirect(r.URL.RequestURI()), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSessionAPI guards JSON routes, answering 401 instead of redirecting
func RequireSessionAPI(guard *session.Guard, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := guard.Check(StoreFromContext(r.Context()))
			if d.State != session.StateAuthenticated {
				WriteError(w, r, errors.NewAuthenticationError("Phiên đăng nhập đã hết hạn, vui lòng đăng nhập lại"), log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
