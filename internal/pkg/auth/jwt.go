// internal/pkg/auth/jwt.go
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/domain"
)

// Claims carries the identity attributes the commercial core needs on
// top of the registered JWT claims. Tokens are issued by the account
// service; this package only signs for tests and tooling, and verifies.
type Claims struct {
	jwt.RegisteredClaims
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	IsValidated bool   `json:"is_validated"`
}

// Generate signs a token for the given user. Used by the seeder and
// tests; production tokens come from the account service.
func Generate(secret, issuer string, user *domain.User, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: empty secret")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:       user.Email,
		Role:        user.Role,
		IsValidated: user.IsValidated,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse validates the token signature and expiry and returns the
// authenticated user.
func Parse(secret, tokenString string) (*domain.User, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: empty secret")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	return &domain.User{
		ID:          claims.Subject,
		Email:       claims.Email,
		Role:        claims.Role,
		IsValidated: claims.IsValidated,
	}, nil
}
