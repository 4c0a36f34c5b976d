package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"

	"github.com/cardledger/backend/internal/models"
)

// BlacklistPrefix keys revoked tokens in redis.
const BlacklistPrefix = "token_blacklist:"

// AuthService issues and refreshes JWT pairs and revokes tokens through the
// redis blacklist. When redis is unavailable logout becomes a no-op, the
// same degradation the rest of the service applies.
type AuthService struct {
	users *UserService
	redis *redis.Client
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func NewAuthService(users *UserService, redisClient *redis.Client) *AuthService {
	return &AuthService{
		users: users,
		redis: redisClient,
	}
}

// Login verifies credentials and returns a fresh token pair. Disabled and
// locked accounts fail the same way as a wrong password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(password, user.Password) || !user.AccountEnabled || user.AccountLocked {
		log.Printf("[AUTH] Failed login for %s", username)
		return nil, models.ErrInvalidCredentials
	}

	return s.issuePair(user.ID, user.Role)
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := ParseToken(refreshToken)
	if err != nil {
		return nil, models.ErrInvalidCredentials
	}
	if claims["token_type"] != "refresh" {
		return nil, models.ErrInvalidCredentials
	}

	if s.redis != nil {
		if n, err := s.redis.Exists(ctx, BlacklistPrefix+refreshToken).Result(); err == nil && n > 0 {
			return nil, models.ErrInvalidCredentials
		}
	}

	userID := int64(claims["user_id"].(float64))
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, models.ErrInvalidCredentials
	}

	return s.issuePair(user.ID, user.Role)
}

// Logout blacklists the token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s.redis == nil {
		return nil
	}

	claims, err := ParseToken(token)
	if err != nil {
		return nil
	}

	ttl := time.Hour
	if exp, ok := claims["exp"].(float64); ok {
		if until := time.Until(time.Unix(int64(exp), 0)); until > 0 {
			ttl = until
		}
	}

	return s.redis.Set(ctx, BlacklistPrefix+token, "1", ttl).Err()
}

func (s *AuthService) issuePair(userID int64, role models.UserRole) (*TokenPair, error) {
	access, err := generateToken(userID, role, "access",
		time.Duration(viper.GetInt("jwt.access_expiry_minutes"))*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := generateToken(userID, role, "refresh",
		time.Duration(viper.GetInt("jwt.refresh_expiry_hours"))*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func generateToken(userID int64, role models.UserRole, tokenType string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    userID,
		"role":       string(role),
		"token_type": tokenType,
		"iat":        time.Now().Unix(),
		"exp":        time.Now().Add(ttl).Unix(),
	})
	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}

// ParseToken validates the signature and expiry and returns the claims.
func ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(viper.GetString("jwt.secret_key")), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
