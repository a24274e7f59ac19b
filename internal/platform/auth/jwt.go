package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/example/findme-platform/internal/platform/api"
)

type ctxKeyIdentity struct{}

// Identity is the verified caller. Admin is resolved once by the AdminPolicy
// when the request is authenticated.
type Identity struct {
	UID        string
	Email      string
	Role       string
	AdminClaim bool
	Admin      bool
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(ctxKeyIdentity{}).(Identity)
	return v, ok && v.UID != ""
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity{}, id)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.UID, ok
}

// WithUserID injects a non-admin identity into context. Useful for testing.
func WithUserID(ctx context.Context, uid string) context.Context {
	return WithIdentity(ctx, Identity{UID: uid})
}

func RoleFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok || id.Role == "" {
		return "", false
	}
	return id.Role, true
}

type Claims struct {
	jwt.RegisteredClaims
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	Admin bool   `json:"admin,omitempty"`
}

// TokenVerifier turns an opaque bearer token into a verified Identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

type JWTVerifier struct {
	Secret []byte
}

func (v JWTVerifier) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return v.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (v JWTVerifier) Verify(_ context.Context, token string) (Identity, error) {
	claims, err := v.Parse(token)
	if err != nil {
		return Identity{}, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, errors.New("token has no subject")
	}
	return Identity{
		UID:        claims.Subject,
		Email:      strings.TrimSpace(claims.Email),
		Role:       strings.TrimSpace(claims.Role),
		AdminClaim: claims.Admin,
	}, nil
}

func bearerToken(r *http.Request) (string, bool) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if authz == "" {
		return "", false
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}

// RequireUser middleware validates the Bearer token and injects the Identity into context.
func RequireUser(verifier TokenVerifier, policy AdminPolicy) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := bearerToken(r)
			if !ok {
				api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
				return
			}
			id, err := verifier.Verify(r.Context(), tok)
			if err != nil {
				api.Unauthorized(w, "UNAUTHORIZED", "invalid token", "")
				return
			}
			id.Admin = policy.IsAdmin(id)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// OptionalUser injects the Identity when a valid token is present and
// passes anonymous requests through untouched.
func OptionalUser(verifier TokenVerifier, policy AdminPolicy) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok, ok := bearerToken(r); ok {
				if id, err := verifier.Verify(r.Context(), tok); err == nil {
					id.Admin = policy.IsAdmin(id)
					r = r.WithContext(WithIdentity(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
