package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/twominute/twominute/pkg/cerr"
	"github.com/twominute/twominute/pkg/clog"
)

// SessionCookie is read when no Authorization header is present, which is
// how EventSource clients authenticate.
const SessionCookie = "twominute_session"

type userIDKey struct{}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// CurrentUserID returns the authenticated user for the request context.
func CurrentUserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// Middleware attaches the user ID of a valid session token to the request
// context. Requests without a valid token pass through anonymously.
func Middleware(issuer *Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := issuer.Parse(token)
			if err != nil {
				clog.AddAttribute(r.Context(), "auth_error", err.Error())
				next.ServeHTTP(w, r)
				return
			}
			clog.AddAttribute(r.Context(), "user_id", userID)
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

// RequireUser rejects anonymous requests. It must run inside the cerr
// middleware.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUserID(r.Context()); !ok {
			cerr.SetNewJSONError(r.Context(), cerr.Unauthenticated, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
