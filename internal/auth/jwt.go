// Package auth verifies bearer tokens issued by the external identity provider.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// Claims are the identity provider's token claims. The subject is the user ID.
type Claims struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *Claims) UserID() string {
	return c.Subject
}

// Verifier checks HMAC-signed tokens against a shared secret.
type Verifier struct {
	secretKey []byte
	issuer    string
}

// NewVerifier creates a verifier. When issuer is not empty, tokens must carry
// a matching iss claim.
func NewVerifier(secretKey, issuer string) *Verifier {
	return &Verifier{
		secretKey: []byte(secretKey),
		issuer:    issuer,
	}
}

// Verify parses and validates a token, returning its claims if valid.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			return v.secretKey, nil
		},
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return claims, nil
}

// Issue signs a token for user. Production tokens come from the identity
// provider; this is for tests and local development.
func (v *Verifier) Issue(user *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:   user.Email,
		Name:    user.Name,
		Picture: user.ImageURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    v.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(v.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}
