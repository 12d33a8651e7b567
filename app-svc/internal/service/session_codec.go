package service

import (
	"errors"
	"fmt"
	"time"

	"foodcourt/app-svc/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSession = errors.New("invalid persisted session")

type sessionClaims struct {
	Identity domain.Identity `json:"identity"`
	jwt.RegisteredClaims
}

// SessionCodec serializes the identity as an HS256-signed token so a
// tampered device store is rejected instead of trusted.
type SessionCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionCodec(secret string, ttl time.Duration) *SessionCodec {
	return &SessionCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (c *SessionCodec) Encode(identity domain.Identity) (string, error) {
	now := c.now()
	claims := &sessionClaims{
		Identity: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  identity.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

func (c *SessionCodec) Decode(serialized string) (*domain.Identity, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(serialized, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Identity.ID == "" {
		return nil, fmt.Errorf("%w: missing identity", ErrInvalidSession)
	}
	return &claims.Identity, nil
}
