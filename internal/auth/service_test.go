package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify(t *testing.T) {
	s := NewService("secret")

	token, err := s.IssueToken("user_1", "Ada")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	id, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.UserID != "user_1" || id.Name != "Ada" {
		t.Errorf("identity = %+v", id)
	}

	anon, _ := s.IssueToken("user_2", "")
	if userID, err := s.ValidateToken(anon); err != nil || userID != "user_2" {
		t.Errorf("ValidateToken = %q, %v", userID, err)
	}
	if id, _ := s.Verify(anon); id.Name != "user_2" {
		t.Errorf("name fallback = %q", id.Name)
	}
}

func TestVerifyRejects(t *testing.T) {
	s := NewService("secret")
	sign := func(method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
		tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatal(err)
		}
		return tok
	}
	now := time.Now()

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", sign(jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "u1"})},
		{"expired", sign(jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"sub": "u1", "exp": now.Add(-time.Hour).Unix()})},
		{"no subject", sign(jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})},
		{"unsigned", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"sub": "u1"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify err = %v, want ErrInvalidToken", err)
			}
		})
	}
}
