package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	token *fbauth.Token
	err   error
}

func (v *stubVerifier) VerifyIDToken(_ context.Context, _ string) (*fbauth.Token, error) {
	return v.token, v.err
}

func resolveScope(t *testing.T, verifier TokenVerifier, header string) Scope {
	t.Helper()
	var got Scope
	h := Middleware(verifier)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = ScopeFromContext(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/recipes", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	h.ServeHTTP(httptest.NewRecorder(), r)
	return got
}

func TestMiddleware(t *testing.T) {
	t.Run("no header is public", func(t *testing.T) {
		scope := resolveScope(t, &stubVerifier{err: errors.New("should not be called")}, "")
		assert.False(t, scope.Authenticated)
	})

	t.Run("valid token is authenticated", func(t *testing.T) {
		scope := resolveScope(t, &stubVerifier{token: &fbauth.Token{UID: "user-1"}}, "Bearer good-token")
		assert.True(t, scope.Authenticated)
		assert.Equal(t, "user-1", scope.UID)
	})

	t.Run("invalid token falls back to public", func(t *testing.T) {
		scope := resolveScope(t, &stubVerifier{err: errors.New("expired")}, "Bearer bad-token")
		assert.False(t, scope.Authenticated)
		assert.Empty(t, scope.UID)
	})
}

func TestScopeFromContextDefaultsToPublic(t *testing.T) {
	assert.Equal(t, Public(), ScopeFromContext(context.Background()))
}

func TestRequire(t *testing.T) {
	t.Run("authenticated passes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/recipes", nil)
		r = r.WithContext(WithScope(r.Context(), Authenticated("user-1")))
		w := httptest.NewRecorder()
		assert.True(t, Require(w, r))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/recipes", nil)
		w := httptest.NewRecorder()
		require.False(t, Require(w, r))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Missing Authorization Header")
	})

	t.Run("invalid credential", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/recipes", nil)
		r.Header.Set("Authorization", "Bearer bad-token")
		w := httptest.NewRecorder()
		require.False(t, Require(w, r))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Error Authorizing User")
	})
}
