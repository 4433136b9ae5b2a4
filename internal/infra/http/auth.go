package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/sevafinance/notifier/internal/domain/users"
)

type ctxKey int

const userKey ctxKey = 0

// UserFrom returns the authenticated user placed by RequireAuth.
func UserFrom(ctx context.Context) (*users.User, bool) {
	u, ok := ctx.Value(userKey).(*users.User)
	return u, ok
}

// TokenLookup resolves a bearer token to a user; (nil, nil) means unknown.
type TokenLookup interface {
	GetByAPIToken(ctx context.Context, token string) (*users.User, error)
}

// RequireAuth rejects requests without a resolvable bearer token and stores
// the user on the request context.
func RequireAuth(lookup TokenLookup, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			Error(w, CodeUnauthenticated, "missing bearer token")
			return
		}
		u, err := lookup.GetByAPIToken(r.Context(), token)
		if err != nil {
			Error(w, CodeInternal, "auth lookup failed")
			return
		}
		if u == nil {
			Error(w, CodeUnauthenticated, "unknown token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	}
}
