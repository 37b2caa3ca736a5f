package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taskhub/apiserver/internal/auth"
	"github.com/taskhub/apiserver/types"
)

// TokenResolver turns a presented bearer token into a principal.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (auth.Principal, error)
}

// Authenticate attaches the principal of a valid bearer token to the
// request context. Requests without a usable token continue anonymously;
// only a failing credential store aborts the request.
func Authenticate(resolver TokenResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				if auth.IsTokenError(err) {
					log.Debug("bearer token rejected", "reason", err, "path", r.URL.Path)
					next.ServeHTTP(w, r)
					return
				}
				log.Error("resolve principal failed", "error", err)
				writeError(w, http.StatusInternalServerError, "authentication unavailable")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.PrincipalFromContext(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects anonymous requests with 401 and principals lacking
// role with 403.
func RequireRole(role types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := auth.RequireRole(auth.PrincipalFromContext(r.Context()), role)
			switch {
			case errors.Is(err, auth.ErrUnauthenticated):
				writeError(w, http.StatusUnauthorized, "unauthorized")
			case errors.Is(err, auth.ErrForbidden):
				writeError(w, http.StatusForbidden, "forbidden")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
