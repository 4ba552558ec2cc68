package handlers

import (
	"context"
	"net/http"
	"strings"

	"watchtrack/models"
)

type sessionValidator interface {
	Validate(ctx context.Context, token string) (models.User, error)
}

type userContextKey struct{}

// UserFromContext returns the authenticated user placed by RequireAuth.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(models.User)
	return user, ok
}

// BearerToken extracts the token from the Authorization header, falling back
// to the access_token query parameter for EventSource clients that cannot
// set headers.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, found := strings.CutPrefix(h, "Bearer "); found {
			return token
		}
	}
	return r.URL.Query().Get("access_token")
}

// RequireAuth rejects requests without a valid session token and stores the
// resolved user in the request context.
func RequireAuth(v sessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			user, err := v.Validate(r.Context(), token)
			if err != nil {
				http.Error(w, "invalid session", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), userContextKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
