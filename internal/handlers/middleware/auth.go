// internal/handlers/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/pkg/auth"
	"github.com/kkzakaria/boom-informatique-sub001/internal/pkg/logger"
)

type contextKey string

const (
	userContextKey    contextKey = "auth_user"
	sessionContextKey contextKey = "session_id"
)

const sessionHeader = "X-Session-ID"

// Authenticate validates the Bearer token and stores the authenticated
// user in the request context. Requests without a token are rejected.
func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := parseBearer(r, jwtSecret)
			if !ok {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			ctx = context.WithValue(ctx, logger.ContextKeyUserID, user.ID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the user when a valid token is present but lets
// anonymous requests through. Cart and comparison endpoints serve
// unauthenticated visitors keyed by session.
func OptionalAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, ok := parseBearer(r, jwtSecret); ok {
				ctx := context.WithValue(r.Context(), userContextKey, user)
				ctx = context.WithValue(ctx, logger.ContextKeyUserID, user.ID)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Session resolves the client session id from the X-Session-ID header,
// minting a fresh one when absent, and stores it in the context. For an
// authenticated user the session is pinned to the account so client
// state follows the account across devices.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(r.Header.Get(sessionHeader))
		if user, ok := UserFromContext(r.Context()); ok {
			sessionID = "user-" + user.ID
		} else if sessionID == "" {
			sessionID = uuid.New().String()
		}

		w.Header().Set(sessionHeader, sessionID)

		ctx := context.WithValue(r.Context(), sessionContextKey, sessionID)
		ctx = context.WithValue(ctx, logger.ContextKeySessionID, sessionID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the authenticated user, if any
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	return user, ok
}

// SessionFromContext returns the resolved session id
func SessionFromContext(ctx context.Context) string {
	sessionID, _ := ctx.Value(sessionContextKey).(string)
	return sessionID
}

// WithUser returns a context carrying the given user. Test helper.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// WithSession returns a context carrying the given session id. Test helper.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionContextKey, sessionID)
}

func parseBearer(r *http.Request, secret string) (*domain.User, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}
	user, err := auth.Parse(secret, strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, false
	}
	return user, true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"Authentication required"}`))
}
