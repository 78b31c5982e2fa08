package deleterecipe

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServeHTTPUnauthorized(t *testing.T) {
	h := NewHandler(nil)

	r := httptest.NewRequest(http.MethodDelete, "/recipes/abc", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Missing Authorization Header")

	r = httptest.NewRequest(http.MethodDelete, "/recipes/abc", nil)
	r.Header.Set("Authorization", "Bearer bad-token")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
