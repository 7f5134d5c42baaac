package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/lojinha/apiserver/internal/auth"
	"github.com/lojinha/apiserver/internal/services"
	"github.com/lojinha/apiserver/internal/store"
)

// RequireAuth enforces a Bearer token, resolves the full user record, and
// attaches it to the request context. Every failure branch writes exactly
// one response and returns; nothing falls through to the next handler.
func RequireAuth(tokens *auth.TokenService, users *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "not authorized, no token supplied")
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "not authorized, token failed")
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				writeError(w, http.StatusUnauthorized, "not authorized, token failed")
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeError(w, http.StatusUnauthorized, "not authorized, token failed")
					return
				}
				writeErrorDetail(w, http.StatusInternalServerError, "failed to load user", err)
				return
			}

			ctx := context.WithValue(r.Context(), contextUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin allows only admin users past. It expects RequireAuth to have
// run; a request with no resolved user is treated as anonymous.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authorized, no token supplied")
			return
		}
		if !user.IsAdmin {
			writeError(w, http.StatusForbidden, "not authorized, admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
