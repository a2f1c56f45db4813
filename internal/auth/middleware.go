package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// StaticTokenSubject is the subject recorded for callers using the shared API token.
const StaticTokenSubject = "api-token"

// Middleware authenticates bearer credentials and enforces RBAC.
// A bearer equal to the shared API token is granted StaticTokenRole;
// any other bearer is validated as an HS256 JWT when a secret is configured.
type Middleware struct {
	APIToken        []byte
	Secret          []byte
	StaticTokenRole Role
	Policy          Policy
}

// MiddlewareOption customizes the middleware.
type MiddlewareOption func(*Middleware)

// WithJWTSecret enables JWT bearer tokens signed with secret.
func WithJWTSecret(secret []byte) MiddlewareOption {
	return func(m *Middleware) {
		m.Secret = secret
	}
}

// WithStaticTokenRole overrides the role granted to the shared API token.
func WithStaticTokenRole(role Role) MiddlewareOption {
	return func(m *Middleware) {
		if normalized, ok := NormalizeRole(string(role)); ok {
			m.StaticTokenRole = normalized
		}
	}
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(apiToken string, policy Policy, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		APIToken:        []byte(apiToken),
		StaticTokenRole: RoleOperator,
		Policy:          policy,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Wrap applies auth and RBAC to the handler.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}

		required, ok := m.Policy.RequiredRole(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		role, subject, err := m.authenticate(extractBearer(r))
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if !RoleAtLeast(role, required) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), role, subject)))
	})
}

func (m *Middleware) authenticate(token string) (Role, string, error) {
	if token == "" {
		return "", "", ErrUnauthorized
	}
	if len(m.APIToken) > 0 && subtle.ConstantTimeCompare([]byte(token), m.APIToken) == 1 {
		return m.StaticTokenRole, StaticTokenSubject, nil
	}
	if len(m.Secret) == 0 {
		return "", "", ErrUnauthorized
	}
	claims, err := ParseJWT(token, m.Secret)
	if err != nil {
		return "", "", err
	}
	role, _ := NormalizeRole(claims.Role)
	return role, claims.Subject, nil
}

func extractBearer(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
