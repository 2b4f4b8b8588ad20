package accounts

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("accounts: invalid token")

// TokenIssuer signs and verifies patient access tokens (HS256, subject = account id).
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Enabled reports whether a signing secret is configured.
func (t *TokenIssuer) Enabled() bool {
	return t != nil && len(t.secret) > 0
}

// Issue signs a token for the account.
func (t *TokenIssuer) Issue(a *Account) (string, error) {
	if !t.Enabled() {
		return "", errors.New("accounts: token signing disabled")
	}
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   a.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("accounts: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the account id it names.
func (t *TokenIssuer) Parse(token string) (uuid.UUID, error) {
	if !t.Enabled() {
		return uuid.Nil, ErrInvalidToken
	}
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !parsed.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
