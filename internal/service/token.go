package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Payphone-Digital/account-service/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the payload of an issued session token. Expiration is in
// unix milliseconds and always equals the registered exp claim.
type SessionClaims struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	UserID     uint     `json:"id"`
	Roles      []string `json:"roles"`
	Expiration int64    `json:"expiration"`
	jwt.RegisteredClaims
}

// ExpiresAt returns the millisecond expiration as a time.
func (c *SessionClaims) ExpiresAt() time.Time {
	return time.UnixMilli(c.Expiration).UTC()
}

type TokenService struct {
	secretKey []byte
	now       func() time.Time
}

func NewTokenService(secretKey string) *TokenService {
	return &TokenService{
		secretKey: []byte(secretKey),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Issue signs a token for user valid until expiration.
func (s *TokenService) Issue(user *model.User, roles []string, expiration time.Time) (string, error) {
	claims := SessionClaims{
		Name:       user.Name,
		Email:      user.Email,
		UserID:     user.ID,
		Roles:      roles,
		Expiration: expiration.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(s.now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and the exp claim and returns the claims.
func (s *TokenService) Parse(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
