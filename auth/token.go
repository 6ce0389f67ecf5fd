// Package auth resolves inbound requests to an identity. The core trusts
// this identity completely: credential issuance lives in the user service,
// only token validation happens here.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"orai-chat/errors"
)

// CustomClaims defines the data stored inside the JWT.
type CustomClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Identity is the (userId, displayName) pair every authenticated request
// carries through the core.
type Identity struct {
	UserID string
	Name   string
}

// GenerateToken creates a signed JWT for a specific user. Used by tests and
// local tooling; production tokens come from the user service with the same
// shape.
func GenerateToken(userID, name string, secret []byte, lifetime time.Duration) (string, error) {
	claims := &CustomClaims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(lifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "orai-chat",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken parses and validates the signature and expiration of a JWT
// string, returning the identity it asserts.
func ValidateToken(tokenString string, secret []byte) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return Identity{}, errors.ErrInvalidToken
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return Identity{}, errors.ErrInvalidToken
	}
	return Identity{UserID: claims.UserID, Name: claims.Name}, nil
}
