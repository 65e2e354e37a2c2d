package auth

import (
	"strings"

	"github.com/dmitrijs2005/filevault/internal/common"
)

// TokenValidator resolves an access token to a user id.
type TokenValidator interface {
	Validate(token string) (int64, error)
}

// Guard turns an Authorization header value into an authenticated user id.
type Guard struct {
	tokens TokenValidator
}

func NewGuard(tokens TokenValidator) *Guard {
	return &Guard{tokens: tokens}
}

// Authenticate returns the user id carried by a "Bearer <token>" header.
// Any failure, whether the header is missing, uses another scheme or holds a
// bad token, is common.ErrorUnauthorized.
func (g *Guard) Authenticate(header string) (int64, error) {
	token, ok := BearerToken(header)
	if !ok {
		return 0, common.ErrorUnauthorized
	}

	userID, err := g.tokens.Validate(token)
	if err != nil {
		return 0, common.ErrorUnauthorized
	}

	return userID, nil
}

// BearerToken extracts the token from a bearer header value. The scheme is
// matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
