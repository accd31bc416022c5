// Package auth implements the stateless access credential: a short-lived
// HS256-signed JWT carrying the subject user id. Verification is pure — a
// signature and clock check, never a database round trip — which is what
// lets most requests skip the store entirely.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kw-00/gossip/internal/common"
)

// Claims is the claim set carried by an access token: the registered
// sub/iat/exp claims plus nothing else. The signing secret comes in as an
// explicit parameter, not process-global state.
type Claims struct {
	jwt.RegisteredClaims
}

// IssueToken mints a signed access token for userID, valid from now for
// validity.
func IssueToken(userID string, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
	})

	return token.SignedString(secretKey)
}

// UserIDFromToken verifies the token signature and expiry and returns the
// subject user id. It returns common.ErrTokenExpired for an expired token
// and common.ErrInvalidToken for anything malformed or forged; it never
// panics on bad input.
func UserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
