package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/invigil/invigil/internal/domain/user"
)

type userKey struct{}

// UserResolver resolves an operator account from a bearer token.
type UserResolver interface {
	ResolveToken(ctx context.Context, token string) (*user.User, error)
}

// UserFromContext returns the authenticated user from context, if present.
func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(userKey{}).(*user.User)
	return u, ok
}

// AuthMiddleware enforces bearer token authentication.
func AuthMiddleware(resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				writeError(w, http.StatusUnauthorized, &APIError{Code: "UNAUTHORIZED", Message: "missing bearer token"})
				return
			}

			u, err := resolver.ResolveToken(r.Context(), token)
			if err != nil || u == nil {
				writeError(w, http.StatusUnauthorized, &APIError{Code: "UNAUTHORIZED", Message: "invalid bearer token"})
				return
			}

			ctx := context.WithValue(r.Context(), userKey{}, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose user lacks one of the given roles.
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	allowed := make(map[user.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok || !allowed[u.Role] {
				writeError(w, http.StatusForbidden, &APIError{Code: "FORBIDDEN", Message: "insufficient role"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
