// Package auth holds the authentication core of the server: password
// hashing, access token issue/validation, bearer header parsing and the
// ownership rule for stored files.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and validates HS256 access tokens. The secret is
// fixed at construction.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(secret []byte, opts ...TokenOption) *TokenService {
	s := &TokenService{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Issue signs a token for userID that expires ttl from now. Claims carry
// whole seconds, so the window starts at now truncated to the second.
func (s *TokenService) Issue(userID int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	return token.SignedString(s.secret)
}

// Validate checks the signature, then the expiry, and returns the subject.
// A token is valid only while now is strictly before its expiry. Every
// failure is reported as common.ErrorInvalidToken.
func (s *TokenService) Validate(tokenString string) (int64, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return 0, common.ErrorInvalidToken
	}

	// the library accepts now == exp
	if !s.now().Before(claims.ExpiresAt.Time) {
		return 0, common.ErrorInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, common.ErrorInvalidToken
	}

	return userID, nil
}
