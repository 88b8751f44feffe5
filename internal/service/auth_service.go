package service

import (
	"context"
	"errors"
	"time"

	"stocksync/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// AuthService authenticates the operator account for the ops API. There is
// one operator, configured by environment, not a user table: the engine is
// an internal batch tool, not a user-facing product.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
}

type authService struct {
	cfg config.Config
}

func NewAuthService(cfg config.Config) AuthService {
	return &authService{cfg: cfg}
}

func (s *authService) Login(_ context.Context, req LoginRequest) (*TokenResponse, error) {
	if s.cfg.OperatorEmail == "" || s.cfg.OperatorPassword == "" {
		return nil, errors.New("operator account is not configured")
	}
	if req.Email != s.cfg.OperatorEmail {
		return nil, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.OperatorPassword), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	claims := jwt.MapClaims{
		"sub":  req.Email,
		"role": "operator",
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, errors.New("failed to sign token")
	}
	return &TokenResponse{Token: signed}, nil
}
