package auth

import (
	"context"
	"net/http"
	"strings"

	"ShopSmart/pkg/kit"
)

type ctxKey string

const userKey ctxKey = "user"

// Identity is the authenticated caller as seen by downstream handlers.
type Identity struct {
	ID       string
	Username string
	Role     string
}

func UserFromContext(ctx context.Context) (Identity, bool) {
	u, ok := ctx.Value(userKey).(Identity)
	return u, ok
}

func ContextWithUser(ctx context.Context, u Identity) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// RequireAuth rejects requests without a valid bearer token and puts
// the caller identity on the context.
func RequireAuth(jwt *TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}

			claims, err := jwt.Parse(strings.TrimPrefix(authz, "Bearer "))
			if err != nil || claims.UserID == "" {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}

			ctx := ContextWithUser(r.Context(), Identity{
				ID:       claims.UserID,
				Username: claims.Username,
				Role:     claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a subtree to one role; mount inside RequireAuth.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
				return
			}
			if u.Role != role {
				kit.WriteError(w, r, http.StatusForbidden, "access denied", map[string]any{"required_role": role})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
