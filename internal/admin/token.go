package admin

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer  = "titanstore-admin"
	tokenSubject = "admin"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenMaker issues the short-lived bearer tokens handed out after a
// granted verify.
type TokenMaker struct {
	secret []byte
	now    func() time.Time
}

// NewTokenMaker signs with secret, or with a random per-process key when
// secret is empty (tokens then die with the process).
func NewTokenMaker(secret string) (*TokenMaker, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
	}
	return &TokenMaker{secret: key, now: time.Now}, nil
}

func (t *TokenMaker) New(ttl time.Duration) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(ttl)

	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   tokenSubject,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (t *TokenMaker) Parse(tokenStr string) (jwt.RegisteredClaims, error) {
	var c jwt.RegisteredClaims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithSubject(tokenSubject),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || token == nil || !token.Valid {
		return jwt.RegisteredClaims{}, ErrInvalidToken
	}
	return c, nil
}
