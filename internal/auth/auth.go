// Package auth issues and validates access tokens and carries the resulting
// claims through the request context.
package auth

import (
	"context"
	"net/http"

	"attendance/workforce/foundation/web"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

// These are the expected values for Claims.Role.
const (
	RoleAdmin      = "ADMIN"
	RoleEmployee   = "EMPLOYEE"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// ctxKey represents the type of value for the context key.
type ctxKey int

// Key is used to store/retrieve a Claims value from a context.Context.
const Key ctxKey = 1

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	UserId   int    `json:"user_id"`
	TenantId int    `json:"tenant_id"`
	Role     string `json:"role"`
}

// Authorized returns true if the claims has at least one of the provided roles.
func (c Claims) Authorized(roles ...string) bool {
	for _, has := range roles {
		if c.Role == has {
			return true
		}
	}
	return false
}

// Auth is used to validate tokens signed with the shared HMAC key.
type Auth struct {
	key    []byte
	parser *jwt.Parser
}

// New creates an *Auth for the given signing key.
func New(key string) (*Auth, error) {
	if key == "" {
		return nil, errors.New("jwt key is empty")
	}

	return &Auth{
		key:    []byte(key),
		parser: &jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Name}},
	}, nil
}

// GenerateToken signs claims.
func (a *Auth) GenerateToken(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	str, err := token.SignedString(a.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return str, nil
}

// ValidateToken recreates the Claims that were used to generate a token and
// verifies the signature.
func (a *Auth) ValidateToken(tokenStr string) (Claims, error) {
	var claims Claims
	token, err := a.parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.key, nil
	})
	if err != nil {
		return Claims{}, errors.Wrap(err, "parsing token")
	}

	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}

	return claims, nil
}

// GetClaims returns the claims stored by the Authenticate middleware.
func GetClaims(ctx context.Context) (Claims, error) {
	claims, ok := ctx.Value(Key).(Claims)
	if !ok {
		return Claims{}, web.NewRequestError(errors.New("claims missing from context"), http.StatusUnauthorized)
	}
	return claims, nil
}
