package auth

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Roles in descending order of privilege
const (
	RoleAdmin   = "admin"
	RoleAnalyst = "analyst"
	RoleViewer  = "viewer"
)

type Claims struct {
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Role   string   `json:"role"`
	Groups []string `json:"groups"`
	jwt.RegisteredClaims
}

type contextKey string

const UserContextKey contextKey = "user"

// Options configures token validation
type Options struct {
	// SkipAuth injects a development admin user on every request
	SkipAuth bool
	// OIDCIssuer is the Keycloak realm URL the JWKS is fetched from
	OIDCIssuer string
	// VerifySignature enables JWKS signature checks. Without it tokens are
	// only decoded and checked for expiry.
	VerifySignature bool
}

// JWKSManager handles JWKS fetching and caching
type JWKSManager struct {
	jwks       keyfunc.Keyfunc
	issuerURL  string
	mu         sync.RWMutex
	lastUpdate time.Time
}

// NewJWKSManager fetches the JWKS of an OIDC issuer
func NewJWKSManager(issuerURL string) (*JWKSManager, error) {
	m := &JWKSManager{issuerURL: issuerURL}
	if err := m.refresh(); err != nil {
		return nil, err
	}
	return m, nil
}

// refresh fetches the JWKS from the OIDC provider
func (m *JWKSManager) refresh() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Keycloak layout
	jwksURL := strings.TrimSuffix(m.issuerURL, "/") + "/protocol/openid-connect/certs"

	k, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return fmt.Errorf("failed to create keyfunc: %w", err)
	}

	m.jwks = k
	m.lastUpdate = time.Now()
	return nil
}

func (m *JWKSManager) getKeyfunc() jwt.Keyfunc {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.jwks == nil {
		return nil
	}
	return m.jwks.Keyfunc
}

// Authenticator validates bearer tokens issued by the OIDC provider
type Authenticator struct {
	opts   Options
	jwks   *JWKSManager
	logger zerolog.Logger
	now    func() time.Time
}

// New creates an authenticator. With signature verification on, the JWKS is
// fetched immediately.
func New(opts Options, logger zerolog.Logger) (*Authenticator, error) {
	a := &Authenticator{opts: opts, logger: logger, now: time.Now}
	if opts.VerifySignature && !opts.SkipAuth {
		if opts.OIDCIssuer == "" {
			return nil, fmt.Errorf("OIDC_ISSUER not configured for JWT verification")
		}
		jwks, err := NewJWKSManager(opts.OIDCIssuer)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize JWKS: %w", err)
		}
		a.jwks = jwks
		logger.Info().Str("issuer", opts.OIDCIssuer).Msg("JWKS loaded")
	}
	return a, nil
}

// Middleware validates JWT tokens and stores the claims in the request context
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.opts.SkipAuth {
			ctx := context.WithValue(r.Context(), UserContextKey, &Claims{
				Email:  "dev@beyondcx.local",
				Name:   "Dev User",
				Role:   RoleAdmin,
				Groups: []string{"developers"},
			})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		tokenString := extractToken(r)
		if tokenString == "" {
			a.logger.Debug().Str("path", r.URL.Path).Msg("missing authorization token")
			http.Error(w, "Unauthorized: Missing token", http.StatusUnauthorized)
			return
		}

		claims, err := a.validateToken(tokenString)
		if err != nil {
			a.logger.Warn().Err(err).Msg("token validation failed")
			http.Error(w, fmt.Sprintf("Unauthorized: %v", err), http.StatusUnauthorized)
			return
		}

		a.logger.Debug().Str("email", claims.Email).Str("role", claims.Role).Msg("user authenticated")

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects users below the given role
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserFromContext(r.Context())
			if !ok || rank(claims.Role) < rank(role) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rank(role string) int {
	switch role {
	case RoleAdmin:
		return 3
	case RoleAnalyst:
		return 2
	case RoleViewer:
		return 1
	}
	return 0
}

// extractToken gets the token from Authorization header or query parameter
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString != authHeader {
			return tokenString
		}
	}

	// WebSocket connections cannot set headers
	return r.URL.Query().Get("token")
}

func (a *Authenticator) validateToken(raw string) (*Claims, error) {
	mc := jwt.MapClaims{}
	if a.jwks != nil {
		keyfunc := a.jwks.getKeyfunc()
		if keyfunc == nil {
			return nil, fmt.Errorf("JWKS not available")
		}
		token, err := jwt.ParseWithClaims(raw, mc, keyfunc, jwt.WithValidMethods(signingMethods))
		if err != nil {
			return nil, fmt.Errorf("token verification failed: %w", err)
		}
		if !token.Valid {
			return nil, fmt.Errorf("invalid token")
		}
	} else if _, _, err := jwt.NewParser().ParseUnverified(raw, mc); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims := &Claims{
		Email:  stringClaim(mc, "email"),
		Name:   stringClaim(mc, "name", "preferred_username"),
		Groups: append(listClaim(mc, "groups"), listClaim(mc, "cognito:groups")...),
	}
	claims.Subject = stringClaim(mc, "sub")
	claims.Role = roleOf(mc)

	// Unverified tokens still must not be expired
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp
		if a.jwks == nil && exp.Before(a.now()) {
			return nil, fmt.Errorf("token expired")
		}
	}
	return claims, nil
}

var signingMethods = []string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}

// roleOf picks the most privileged role from Keycloak realm roles, or from
// Cognito groups whose name contains a role. Everyone else is a viewer.
func roleOf(mc jwt.MapClaims) string {
	var realmRoles []string
	if access, ok := mc["realm_access"].(map[string]any); ok {
		realmRoles = listClaim(access, "roles")
	}
	groups := listClaim(mc, "cognito:groups")

	for _, role := range []string{RoleAdmin, RoleAnalyst, RoleViewer} {
		if slices.Contains(realmRoles, role) {
			return role
		}
		if slices.ContainsFunc(groups, func(g string) bool { return strings.Contains(g, role) }) {
			return role
		}
	}
	return RoleViewer
}

// stringClaim returns the first non-empty string among keys
func stringClaim(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func listClaim(m map[string]any, key string) []string {
	raw, _ := m[key].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// GetUserFromContext retrieves user claims from request context
func GetUserFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	return claims, ok
}

// InGroup checks if user is in specific group
func InGroup(claims *Claims, group string) bool {
	return slices.Contains(claims.Groups, group)
}
