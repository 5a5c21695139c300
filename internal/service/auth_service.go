package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// --- DTOs ---

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// --- Interface ---

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*CadetResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
}

type authService struct {
	cadets       repository.CadetRepository
	cadetService CadetService
}

func NewAuthService(cadets repository.CadetRepository, cadetService CadetService) AuthService {
	return &authService{cadets: cadets, cadetService: cadetService}
}

// JWTSecret returns the signing key, with a development-only fallback.
func JWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// Register provisions a self-service account with the default cadet
// role. The Gitea account is created alongside, see CreateCadet.
func (s *authService) Register(ctx context.Context, req RegisterRequest) (*CadetResponse, error) {
	return s.cadetService.CreateCadet(ctx, Principal{}, CreateCadetRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	cadet, err := s.cadets.GetByUsernameWithRoles(ctx, req.Username)
	if err != nil {
		return nil, apperr.Unauthorized("invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cadet.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthorized("invalid username or password")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      cadet.ID.String(),
		"username": cadet.Username,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString(JWTSecret())
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &TokenResponse{Token: tokenString}, nil
}
