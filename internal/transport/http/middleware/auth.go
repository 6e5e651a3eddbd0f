package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/hearthchat/chat-service/internal/domain"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

const HeaderSecretKey = "X-Secret-Key"

// Authenticator resolves the opaque credential carried by every request.
type Authenticator interface {
	Authenticate(ctx context.Context, secretKey string) (*domain.User, error)
}

// AuthMiddleware requires a valid X-Secret-Key header and stores the
// resolved user in the request context.
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secret := strings.TrimSpace(r.Header.Get(HeaderSecretKey))
			if secret == "" {
				unauthorized(w)
				return
			}

			user, err := auth.Authenticate(r.Context(), secret)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}

// UserFromCtx returns the authenticated user, nil when absent.
func UserFromCtx(ctx context.Context) *domain.User {
	if v := ctx.Value(ctxKeyUser); v != nil {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
