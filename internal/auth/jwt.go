package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"carteira/internal/config"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenService signs and verifies the session tokens handed out by the
// session endpoint. HS256 with a shared secret.
type TokenService struct {
	secretKey []byte
	expiresIn time.Duration
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secretKey: []byte(cfg.JWTSecret),
		expiresIn: cfg.JWTExpiresIn,
	}
}

func (s *TokenService) GenerateToken(userID int64) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(s.expiresIn).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ParseToken verifies the signature and expiry and returns the user id the
// token was issued for.
func (s *TokenService) ParseToken(tokenStr string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secretKey, nil
	})
	if err != nil {
		return 0, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		if userIDFloat, ok := claims["user_id"].(float64); ok {
			userID := int64(userIDFloat)
			if userID <= 0 {
				return 0, ErrInvalidToken
			}
			return userID, nil
		}
	}
	return 0, ErrInvalidToken
}
