// Package auth verifies the tokens presented when joining a board room.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const tokenTTL = 24 * time.Hour

// Service issues and validates HS256 tokens whose subject is the user id.
type Service struct {
	jwtSecret []byte
}

func NewService(jwtSecret string) *Service {
	return &Service{jwtSecret: []byte(jwtSecret)}
}

// Identity is the user a token was issued to.
type Identity struct {
	UserID string
	Name   string
}

// Verify checks a token and returns the identity it carries. Name falls
// back to the user id.
func (s *Service) Verify(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("parse token: %w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return Identity{}, fmt.Errorf("missing subject: %w", ErrInvalidToken)
	}
	name, _ := claims["name"].(string)
	if name == "" {
		name = userID
	}

	return Identity{UserID: userID, Name: name}, nil
}

// ValidateToken returns the user id carried by a valid token.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	id, err := s.Verify(tokenString)
	if err != nil {
		return "", err
	}
	return id.UserID, nil
}

// IssueToken signs a token for userID. name, when set, is carried as the
// display name shown to other participants.
func (s *Service) IssueToken(userID, name string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	}
	if name != "" {
		claims["name"] = name
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}
