// internal/utils/jwt.go
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// CredentialClaims is the claim set carried by the platform's bearer
// credential. AdminType may arrive as a real JSON null, the string "null",
// or not at all; Roles is the legacy multi-role form.
type CredentialClaims struct {
	UserID    string   `json:"id"`
	Role      string   `json:"role"`
	AdminType string   `json:"adminType,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	Email     string   `json:"email,omitempty"`
	Name      string   `json:"name,omitempty"`
	jwt.RegisteredClaims
}

var ErrInvalidCredential = errors.New("invalid credential")

func GenerateCredential(claims CredentialClaims, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	if claims.Subject == "" {
		claims.Subject = claims.UserID
	}
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if claims.Issuer == "" {
		claims.Issuer = "audio-copyright"
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// DecodeCredential verifies an HS256 credential when secret is set. With an
// empty secret the token is only decoded, which mirrors what the browser does.
func DecodeCredential(tokenString, secret string) (*CredentialClaims, error) {
	claims := &CredentialClaims{}

	if secret == "" {
		parser := jwt.NewParser()
		if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
			return nil, err
		}
		if err := claims.Valid(); err != nil {
			return nil, err
		}
	} else {
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil {
			return nil, err
		}
		if !token.Valid {
			return nil, ErrInvalidCredential
		}
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, ErrInvalidCredential
	}

	return claims, nil
}
