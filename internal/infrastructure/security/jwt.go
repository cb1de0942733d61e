package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"learnplatform/internal/domain"
)

// Identity is what a verified token says about its bearer.
type Identity struct {
	UserID uuid.UUID
	Role   domain.Role
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (m *TokenManager) Generate(userID uuid.UUID, role domain.Role) (string, error) {
	now := m.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(m.ttl).Unix(),
	})
	return t.SignedString(m.secret)
}

// Validate checks signature, signing method and expiry. Every failure is domain.ErrInvalidToken.
func (m *TokenManager) Validate(tokenStr string) (Identity, error) {
	if tokenStr == "" {
		return Identity{}, domain.ErrInvalidToken
	}
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, domain.ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return Identity{}, domain.ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	if !domain.Role(role).Valid() {
		return Identity{}, domain.ErrInvalidToken
	}
	return Identity{UserID: id, Role: domain.Role(role)}, nil
}
