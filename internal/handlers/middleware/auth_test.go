// internal/handlers/middleware/auth_test.go
package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
	"github.com/kkzakaria/boom-informatique-sub001/internal/handlers/middleware"
	"github.com/kkzakaria/boom-informatique-sub001/internal/pkg/auth"
)

const testSecret = "test-secret"

func signToken(t *testing.T, user *domain.User) string {
	t.Helper()
	token, err := auth.Generate(testSecret, "boom-informatique", user, time.Hour)
	require.NoError(t, err)
	return token
}

func TestAuthenticate(t *testing.T) {
	user := &domain.User{ID: "u-1", Role: "pro", IsValidated: true}

	handler := middleware.Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := middleware.UserFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, user.ID, got.ID)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid_token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, user))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing_token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage_token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSession(t *testing.T) {
	echo := func(captured *string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*captured = middleware.SessionFromContext(r.Context())
		})
	}

	t.Run("existing_header_carries_through", func(t *testing.T) {
		var sessionID string
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Session-ID", "visitor-42")
		rec := httptest.NewRecorder()

		middleware.Session(echo(&sessionID)).ServeHTTP(rec, req)

		assert.Equal(t, "visitor-42", sessionID)
		assert.Equal(t, "visitor-42", rec.Header().Get("X-Session-ID"))
	})

	t.Run("mints_session_when_absent", func(t *testing.T) {
		var sessionID string
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		middleware.Session(echo(&sessionID)).ServeHTTP(rec, req)

		require.NotEmpty(t, sessionID)
		_, err := uuid.Parse(sessionID)
		assert.NoError(t, err)
		assert.Equal(t, sessionID, rec.Header().Get("X-Session-ID"))
	})

	t.Run("authenticated_user_pins_session_to_account", func(t *testing.T) {
		var sessionID string
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		// The anonymous session header loses to the account pin.
		req.Header.Set("X-Session-ID", "visitor-42")
		req = req.WithContext(middleware.WithUser(req.Context(), &domain.User{ID: "u-7"}))
		rec := httptest.NewRecorder()

		middleware.Session(echo(&sessionID)).ServeHTTP(rec, req)

		assert.Equal(t, "user-u-7", sessionID)
	})
}

func TestOptionalAuth(t *testing.T) {
	t.Run("anonymous_passes_without_user", func(t *testing.T) {
		var hasUser bool
		handler := middleware.OptionalAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hasUser = middleware.UserFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, hasUser)
	})

	t.Run("valid_token_attaches_user", func(t *testing.T) {
		var got *domain.User
		handler := middleware.OptionalAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = middleware.UserFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, &domain.User{ID: "u-9", Role: "customer"}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.NotNil(t, got)
		assert.Equal(t, "u-9", got.ID)
	})
}
