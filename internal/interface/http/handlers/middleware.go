package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/schoolhub/school-hub/internal/application/authz"
	"github.com/schoolhub/school-hub/internal/domain/user"
	"github.com/schoolhub/school-hub/internal/infrastructure/auth"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// ErrMissingToken is passed to the unauthorized callback when no bearer token is sent.
var ErrMissingToken = errors.New("missing bearer token")

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// ErrorWriter writes an error response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// BearerAuth authenticates requests with an HS256 bearer token and stores
// the caller's principal in the request context.
type BearerAuth struct {
	tokens         TokenVerifier
	onUnauthorized ErrorWriter
}

// NewBearerAuth creates a new bearer authenticator.
func NewBearerAuth(tokens TokenVerifier, onUnauthorized ErrorWriter) *BearerAuth {
	return &BearerAuth{tokens: tokens, onUnauthorized: onUnauthorized}
}

// Middleware rejects requests without a valid token.
func (a *BearerAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := BearerToken(r)
		if !ok {
			a.onUnauthorized(w, r, ErrMissingToken)
			return
		}

		claims, err := a.tokens.Verify(token)
		if err != nil {
			a.onUnauthorized(w, r, err)
			return
		}

		principal := authz.Principal{UserID: claims.Subject, Role: user.Role(claims.Role)}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	fields := strings.Fields(r.Header.Get("Authorization"))
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", false
	}
	return fields[1], true
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT
// ══════════════════════════════════════════════════════════════════════════════

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p authz.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller stored by BearerAuth.
func PrincipalFromContext(ctx context.Context) (authz.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(authz.Principal)
	return p, ok
}

// ══════════════════════════════════════════════════════════════════════════════
// GENERIC MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// apiSecurityHeaders suit a JSON-only API: nothing is framed, sniffed or cached.
var apiSecurityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Cache-Control", "no-store"},
}

func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, h := range apiSecurityHeaders {
			w.Header().Set(h[0], h[1])
		}
		next.ServeHTTP(w, r)
	})
}

// RequestSizeLimitMiddleware makes body reads past maxBytes fail, which the
// JSON decoder surfaces as a 400.
func RequestSizeLimitMiddleware(maxBytes int64) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

type MiddlewareFunc func(http.Handler) http.Handler

// Chain composes mws so that mws[0] is the outermost wrapper.
func Chain(mws ...MiddlewareFunc) MiddlewareFunc {
	return func(h http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}
