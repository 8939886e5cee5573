package utils

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgrijalva/jwt-go"
)

var ErrMissingJwtSecret = errors.New("API_SECRET is not configured")

type JwtCustomClaim struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.StandardClaims
}

func getJwtSecret() ([]byte, error) {
	secret := os.Getenv("API_SECRET")
	if secret == "" {
		return nil, ErrMissingJwtSecret
	}
	return []byte(secret), nil
}

// JwtGenerate signs an access token bound to a session. tokenId is stored as
// the jti claim and must stay in the user's live token set for the token to
// be accepted.
func JwtGenerate(userID int, username string, role string, tokenId string, lifespan time.Duration) (string, error) {
	if lifespan <= 0 {
		return "", fmt.Errorf("token lifespan must be positive")
	}
	if tokenId == "" {
		return "", fmt.Errorf("token id is required")
	}
	secret, err := getJwtSecret()
	if err != nil {
		return "", err
	}
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		ID:       userID,
		Username: username,
		Role:     role,
		StandardClaims: jwt.StandardClaims{
			Id:        tokenId,
			ExpiresAt: now.Add(lifespan).Unix(),
			IssuedAt:  now.Unix(),
		},
	})
	return t.SignedString(secret)
}

func JwtValidate(token string) (*jwt.Token, error) {
	secret, err := getJwtSecret()
	if err != nil {
		return nil, err
	}
	return jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return secret, nil
	})
}
