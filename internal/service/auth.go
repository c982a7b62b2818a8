package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"playlist-service/internal/auth"
	"playlist-service/internal/domain"

	log "github.com/sirupsen/logrus"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type AuthService struct {
	users   UserRepository
	tokens  *auth.TokenIssuer
	actions *ActionLogger
	hash    func(password string) (string, error)
}

func NewAuthService(users UserRepository, tokens *auth.TokenIssuer, actions *ActionLogger) *AuthService {
	return &AuthService{users: users, tokens: tokens, actions: actions, hash: auth.HashPassword}
}

// Session is a signed-in user together with the token that identifies them.
type Session struct {
	User  *domain.User
	Token string
}

func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*Session, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := domain.ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	role, err := domain.NormalizeRole(req.Role)
	if err != nil {
		return nil, err
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.actions.Record(ctx, user.IDPtr(), domain.ActionCreate, domain.EntityUser, user.ID, "Registered")
	return s.session(user)
}

func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*Session, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		log.WithField("user_id", user.ID).Warn("Login with wrong password")
		return nil, domain.ErrInvalidCredentials
	}

	s.actions.Record(ctx, user.IDPtr(), domain.ActionRead, domain.EntityUser, user.ID, "Logged in")
	return s.session(user)
}

// Authenticate resolves a session token to its user. Tokens of users that no
// longer exist are rejected like invalid ones.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) session(user *domain.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{User: user, Token: token}, nil
}
