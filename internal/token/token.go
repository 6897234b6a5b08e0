// Package token issues and verifies the signed bearer credential carried by
// every protected request. A token embeds only the user id; expiry is the
// sole invalidation mechanism.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("invalid token")
)

const DefaultTTL = 24 * time.Hour

type Manager struct {
	Secret []byte
	TTL    time.Duration
}

func NewManager(secret []byte) *Manager {
	return &Manager{Secret: secret, TTL: DefaultTTL}
}

func (m *Manager) Issue(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(m.TTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.Secret)
}

// Verify returns the embedded user id, ErrExpired past the validity window
// and ErrInvalid for anything malformed or signed with another secret.
func (m *Manager) Verify(raw string) (uint, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpired
		}
		return 0, ErrInvalid
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok || !t.Valid {
		return 0, ErrInvalid
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, ErrInvalid
	}
	return uint(sub), nil
}
