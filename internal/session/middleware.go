package session

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const CookieName = "shop_sid"

type ctxKey string

const sidKey ctxKey = "sid"

func SIDFromContext(ctx context.Context) (string, bool) {
	sid, ok := ctx.Value(sidKey).(string)
	return sid, ok && sid != ""
}

// Middleware reads the session cookie, issuing a fresh id when the
// request carries none, and makes the id available on the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
			sid = c.Value
		}

		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sidKey, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
