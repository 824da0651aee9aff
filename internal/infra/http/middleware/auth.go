package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/incidenthq/api/pkg/apierror"
	"github.com/incidenthq/api/pkg/domain/shared"
	"github.com/incidenthq/api/pkg/jwt"
	"github.com/incidenthq/api/pkg/logger"
)

// UserIDKey is the context key carrying the authenticated user ID.
// It reuses the logger package key so request logs include it.
const UserIDKey = logger.ContextKeyUserID

// Authenticator validates bearer tokens and places the authenticated
// user ID in the request context. Role resolution happens in the
// application layer per request; the token carries identity only.
type Authenticator struct {
	tokens *jwt.Generator
	logger *logger.Logger
}

// NewAuthenticator creates an Authenticator backed by the given token
// generator.
func NewAuthenticator(tokens *jwt.Generator, log *logger.Logger) *Authenticator {
	return &Authenticator{
		tokens: tokens,
		logger: log.With("middleware", "auth"),
	}
}

// RequireAuth rejects requests without a valid access token.
func (a *Authenticator) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := a.authenticate(r)
			if err != nil {
				apierror.SafeUnauthorized(err).WriteJSON(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the user ID when a valid token is present but
// lets anonymous requests through. Used for report submission, where
// reporters may be unauthenticated.
func (a *Authenticator) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := a.authenticate(r)
			if err != nil {
				// A token was presented but is invalid; reject rather
				// than silently downgrading to anonymous.
				apierror.SafeUnauthorized(err).WriteJSON(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *Authenticator) authenticate(r *http.Request) (shared.ID, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return shared.ID{}, shared.ErrUnauthorized
	}

	claims, err := a.tokens.ValidateAccessToken(token)
	if err != nil {
		a.logger.WithContext(r.Context()).Debug("access token rejected", "error", err)
		return shared.ID{}, shared.ErrUnauthorized
	}

	userID, err := shared.IDFromString(claims.UserID)
	if err != nil {
		return shared.ID{}, shared.ErrUnauthorized
	}

	return userID, nil
}

// GetUserID extracts the authenticated user ID from context. The
// second return is false for anonymous requests.
func GetUserID(ctx context.Context) (shared.ID, bool) {
	raw, ok := ctx.Value(UserIDKey).(string)
	if !ok || raw == "" {
		return shared.ID{}, false
	}

	id, err := shared.IDFromString(raw)
	if err != nil {
		return shared.ID{}, false
	}
	return id, true
}
