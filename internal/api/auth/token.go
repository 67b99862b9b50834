package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin     = "admin"
	RoleTeamOwner = "team_owner"

	tokenTTL = 8 * time.Hour
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the bearer-token payload issued at login.
type Claims struct {
	Email  string `json:"email"`
	Role   string `json:"role"`
	TeamID int64  `json:"team_id,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs a bearer token for the given identity.
func IssueToken(secret, email, role string, teamID int64) (string, error) {
	if secret == "" {
		return "", errors.New("signing secret is required")
	}
	now := time.Now()
	claims := Claims{
		Email:  email,
		Role:   role,
		TeamID: teamID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a bearer token.
func VerifyToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
