// Package auth implements anonymous authentication. A sign-in mints a fresh
// user identity and a signed token carrying it; the server keeps no account
// state, so a lost token means a new identity and an empty collection.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/promptdeck/promptdeck/internal/common/config"
	apperrors "github.com/promptdeck/promptdeck/internal/common/errors"
	"github.com/promptdeck/promptdeck/internal/common/logger"
)

// Identity is the result of an anonymous sign-in.
type Identity struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Claims are the JWT claims carried by an anonymous session token.
type Claims struct {
	jwt.RegisteredClaims
	Anonymous bool `json:"anon"`
}

// Service mints and validates anonymous session tokens.
type Service struct {
	secret        []byte
	tokenDuration time.Duration
	logger        *logger.Logger
}

// NewService creates an auth service from the auth configuration.
func NewService(cfg config.AuthConfig, log *logger.Logger) *Service {
	return &Service{
		secret:        []byte(cfg.JWTSecret),
		tokenDuration: time.Duration(cfg.TokenDuration) * time.Second,
		logger:        log,
	}
}

// SignInAnonymously creates a new anonymous identity and a signed token for it.
// Every call yields a distinct user ID.
func (s *Service) SignInAnonymously() (*Identity, error) {
	userID := uuid.New().String()
	now := time.Now().UTC()
	expiresAt := now.Add(s.tokenDuration)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "promptdeck",
		},
		Anonymous: true,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to sign session token")
	}

	s.logger.Info("anonymous sign-in", zap.String("user_id", userID))

	return &Identity{
		UserID:    userID,
		Token:     signed,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken parses and verifies a session token, returning the user ID it
// carries.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", apperrors.Unauthorized("invalid session token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", apperrors.Unauthorized("invalid session token")
	}

	return claims.Subject, nil
}
