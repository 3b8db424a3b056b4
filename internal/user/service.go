package user

import (
	"context"
	"fmt"

	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/auth"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=user
type Repository interface {
	// CreateUser fails with ErrUsernameTaken if the handle is in use.
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, username string) (*User, error)
}

type Service struct {
	repo   Repository
	tokens *auth.JWTManager
}

func NewService(repo Repository, tokens *auth.JWTManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	if username == "" {
		return nil, fmt.Errorf("username required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{Username: username, PasswordHash: hash}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Login verifies the credentials and returns a session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.repo.GetUser(ctx, username)
	if err != nil {
		return "", err
	}

	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return "", err
	}

	token, err := s.tokens.Generate(u.Username)
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	return token, nil
}
