package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/curioswitch/go-usegcp/middleware/firebaseauth"
)

// Scope is the effective visibility level of a request: public, or
// authenticated with a user identity. It is computed once per request by
// Middleware and read from the context afterwards.
type Scope struct {
	// UID is the verified user ID. Empty in public scope.
	UID string

	// Authenticated reports whether the request carried a valid credential.
	Authenticated bool
}

// Public is the scope of a request with no valid credential.
func Public() Scope {
	return Scope{}
}

// Authenticated is the scope of a request verified for the given user.
func Authenticated(uid string) Scope {
	return Scope{UID: uid, Authenticated: true}
}

type scopeKey struct{}

func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFromContext returns the scope resolved for the request. Requests
// that never went through Middleware are public.
func ScopeFromContext(ctx context.Context) Scope {
	if scope, ok := ctx.Value(scopeKey{}).(Scope); ok {
		return scope
	}
	return Public()
}

// TokenVerifier verifies a Firebase ID token. *fbauth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// Middleware resolves the request scope from its Authorization header. An
// invalid or absent credential leaves the request in public scope rather
// than failing it; handlers that require authentication reject public
// scope themselves.
func Middleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scope := Public()
			if tok := firebaseauth.TokenFromContext(ctx); tok != nil {
				// Already verified by the strict middleware on this route.
				scope = Authenticated(tok.UID)
			} else if header := r.Header.Get("Authorization"); header != "" {
				idToken := strings.TrimPrefix(header, "Bearer ")
				if tok, err := verifier.VerifyIDToken(ctx, idToken); err == nil {
					scope = Authenticated(tok.UID)
				} else {
					slog.DebugContext(ctx, "auth: invalid credential, falling back to public scope", "error", err)
				}
			}
			next.ServeHTTP(w, r.WithContext(WithScope(ctx, scope)))
		})
	}
}

// Require writes a 401 response and returns false unless the request scope
// is authenticated. Mutating handlers call this before reading the payload.
func Require(w http.ResponseWriter, r *http.Request) bool {
	if ScopeFromContext(r.Context()).Authenticated {
		return true
	}
	if r.Header.Get("Authorization") == "" {
		http.Error(w, "Missing Authorization Header", http.StatusUnauthorized)
	} else {
		http.Error(w, "Error Authorizing User", http.StatusUnauthorized)
	}
	return false
}
