// pkg/authhook/jwt.go
// Reference implementation of the external auth hook AuthMiddleware calls
// to resolve scope["user"]. Built around a Signer/Verifier pair, trimmed to
// the verify-only path a gateway process needs: issuing tokens is an
// external concern this package does not take on.
//
// External dependency: github.com/golang-jwt/jwt/v5 (MIT).
package authhook

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken   = errors.New("authhook: invalid token")
	ErrExpiredToken   = errors.New("authhook: token expired")
	ErrIssuerMismatch = errors.New("authhook: issuer mismatch")
)

// User is what a successful verification resolves into scope["user"].
type User struct {
	Subject string
	Claims  jwt.MapClaims
}

// Verifier validates HMAC-SHA256 bearer tokens extracted from
// scope["session"] by AuthMiddleware.
type Verifier struct {
	secret []byte
	issuer string
	clock  func() time.Time
}

// NewVerifier constructs a Verifier; issuer == "" accepts any issuer claim.
func NewVerifier(secret []byte, issuer string) *Verifier {
	return &Verifier{secret: secret, issuer: issuer, clock: time.Now}
}

// Verify resolves the bearer token carried in the session into a User or an
// error; AuthMiddleware reaches it through VerifyAny. It runs
// synchronously and may block (e.g. a future implementation backed by a
// database), so AuthMiddleware always calls it on a worker goroutine rather
// than the group-pump/socket-pump goroutines.
func (v *Verifier) Verify(tokenStr string) (*User, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if v.issuer != "" && claims["iss"] != v.issuer {
		return nil, ErrIssuerMismatch
	}
	sub, _ := claims["sub"].(string)
	return &User{Subject: sub, Claims: claims}, nil
}

// VerifyAny adapts Verify to middleware.AuthHook's any-returning signature,
// since Go interface satisfaction requires an exact result type match and
// AuthMiddleware is written against multiple possible auth hook shapes.
func (v *Verifier) VerifyAny(tokenStr string) (any, error) {
	return v.Verify(tokenStr)
}
