package goGate

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// bearerVerifier validates HS256 bearer tokens for API routes that cannot
// carry a browser session. The token subject is the user id; no other
// claims are trusted.
type bearerVerifier struct {
	cfg BearerConfig
}

func newBearerVerifier(cfg BearerConfig) *bearerVerifier {
	if !cfg.Enabled {
		return nil
	}
	return &bearerVerifier{cfg: cfg}
}

// Verify describes the verify operation and its observable behavior.
//
// Verify may return an error when input validation, dependency calls, or security checks fail.
// Verify does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (v *bearerVerifier) Verify(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithLeeway(v.cfg.Leeway),
		jwt.WithExpirationRequired(),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.cfg.HMACSecret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBearerInvalid, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrBearerInvalid
	}

	return claims.Subject, nil
}
