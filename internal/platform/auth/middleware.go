package auth

import (
	"context"
	"net/http"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/httpx"
)

// Role constants used when checking authorisation boundaries.
const (
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

type identityContextKey struct{}

// Identity captures the authenticated principal extracted from a Firebase ID token.
type Identity struct {
	UID   string
	Email string
	Roles []string
}

// HasRole reports whether the identity includes the requested role (case-insensitive).
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	role = strings.TrimSpace(role)
	for _, r := range i.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// IdentityFromContext retrieves the identity stored by the middleware.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*Identity)
	return identity, ok && identity != nil
}

// WithIdentity stores the identity on the context, primarily for tests.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// TokenVerifier validates a Firebase ID token and returns its decoded form.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// Authenticator guards HTTP routes with Firebase ID token verification.
type Authenticator struct {
	verifier  TokenVerifier
	roleClaim string
}

// Option customises Authenticator construction.
type Option func(*Authenticator)

// WithRoleClaim overrides the custom claim holding the caller's roles.
func WithRoleClaim(claim string) Option {
	return func(a *Authenticator) {
		if strings.TrimSpace(claim) != "" {
			a.roleClaim = claim
		}
	}
}

// NewAuthenticator constructs an Authenticator on top of the provided verifier.
func NewAuthenticator(verifier TokenVerifier, opts ...Option) *Authenticator {
	a := &Authenticator{
		verifier:  verifier,
		roleClaim: "roles",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// RequireFirebaseAuth returns middleware enforcing a valid bearer token, and
// optionally one of the allowed roles.
func (a *Authenticator) RequireFirebaseAuth(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if a == nil || a.verifier == nil {
				httpx.WriteError(ctx, w, httpx.NewError("auth_unavailable", "authentication unavailable", http.StatusServiceUnavailable))
				return
			}

			token := bearerToken(r)
			if token == "" {
				httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "missing bearer token", http.StatusUnauthorized))
				return
			}

			decoded, err := a.verifier.VerifyIDToken(ctx, token)
			if err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "invalid bearer token", http.StatusUnauthorized))
				return
			}

			identity := a.identityFromToken(decoded)
			if len(allowedRoles) > 0 && !hasAllowedRole(identity, allowedRoles) {
				httpx.WriteError(ctx, w, httpx.NewError("forbidden", "insufficient role", http.StatusForbidden))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
		})
	}
}

func (a *Authenticator) identityFromToken(token *firebaseauth.Token) *Identity {
	identity := &Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = email
	}
	switch claim := token.Claims[a.roleClaim].(type) {
	case []any:
		for _, role := range claim {
			if s, ok := role.(string); ok && strings.TrimSpace(s) != "" {
				identity.Roles = append(identity.Roles, s)
			}
		}
	case string:
		if strings.TrimSpace(claim) != "" {
			identity.Roles = append(identity.Roles, claim)
		}
	}
	return identity
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func hasAllowedRole(identity *Identity, allowed []string) bool {
	for _, role := range allowed {
		if identity.HasRole(role) {
			return true
		}
	}
	return false
}
