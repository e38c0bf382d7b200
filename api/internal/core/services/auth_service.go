package services

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"pixelfort/api/internal/core/domain"
)

type AuthService struct {
	repo   domain.UserRepository
	tokens *TokenService
}

func NewAuthService(repo domain.UserRepository, tokens *TokenService) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

// Login verifies credentials and returns an access/refresh token pair.
// Every failure collapses into the same message so the endpoint leaks
// nothing about which half was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, string, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", "", errors.New("invalid credentials")
	}

	// Constant-time check
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", errors.New("invalid credentials")
	}

	if !user.IsActive {
		return "", "", errors.New("account suspended")
	}

	return s.tokens.GenerateTokenPair(user)
}

// Refresh rotates the token pair. The database hit is mandatory: a user
// suspended five minutes ago must not mint a fresh access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	userID, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", "", errors.New("session expired")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil || !user.IsActive {
		return "", "", errors.New("account suspended or not found")
	}

	return s.tokens.GenerateTokenPair(user)
}

// Register creates a tenant account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Rank:         "user",
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
