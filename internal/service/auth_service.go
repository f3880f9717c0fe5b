package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"archivePortal/internal/apperr"
	"archivePortal/internal/config"
	"archivePortal/internal/models"
	"archivePortal/internal/repository"
	"archivePortal/internal/session"
)

var ErrAccountSuspended = fmt.Errorf("account is suspended: %w", apperr.ErrForbidden)

type RegisterRequest struct {
	DisplayName string `json:"displayName" validate:"required,max=120"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Country     string `json:"country" validate:"max=100"`
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	ParseToken(tokenString string) (*session.Identity, error)
	Me(ctx context.Context, userID string) (*models.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	cfg      *config.Config
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) AuthService {
	return &authService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperr.NewValidation("email", "is already registered")
	}
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}

	user := &models.User{
		DisplayName:        strings.TrimSpace(req.DisplayName),
		Email:              email,
		Role:               models.RoleContributor,
		VerificationStatus: models.VerificationNotSubmitted,
		Country:            strings.TrimSpace(req.Country),
		JoinedAt:           now(),
	}

	if err := s.userRepo.CreateUser(ctx, user, req.Password); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.VerifyPassword(ctx, strings.ToLower(strings.TrimSpace(email)), password)
	if err != nil {
		return nil, "", err
	}
	if user.Suspended {
		return nil, "", ErrAccountSuspended
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, accessToken, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	issued := now()
	claims := jwt.MapClaims{
		"userId": user.UserID,
		"email":  user.Email,
		"role":   string(user.Role),
		"exp":    issued.Add(s.cfg.AccessTokenDuration).Unix(),
		"iat":    issued.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecretKey))
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}

	return tokenString, nil
}

func (s *authService) ParseToken(tokenString string) (*session.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecretKey), nil
	}, jwt.WithTimeFunc(func() time.Time { return now() }))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", errors.Join(err, apperr.ErrUnauthorized))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims: %w", apperr.ErrUnauthorized)
	}

	userID, _ := claims["userId"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || !models.Role(role).Valid() {
		return nil, fmt.Errorf("invalid token claims: %w", apperr.ErrUnauthorized)
	}

	return &session.Identity{
		UserID: userID,
		Email:  email,
		Role:   models.Role(role),
	}, nil
}
