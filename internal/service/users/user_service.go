package users

import (
	"context"
	"time"

	"github.com/ameyrk91/fitbooking/internal/auth"
	"github.com/ameyrk91/fitbooking/internal/domain"
	"github.com/ameyrk91/fitbooking/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Denylist revokes individual refresh tokens until they expire on their own.
type Denylist interface {
	DenyRefreshToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRefreshTokenDenied(ctx context.Context, jti string) (bool, error)
}

type RegisterInput struct {
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type UserService struct {
	users    repository.UserRepository
	tokens   *auth.TokenManager
	denylist Denylist
	log      *zap.Logger
}

func NewUserService(users repository.UserRepository, tokens *auth.TokenManager, denylist Denylist, log *zap.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, denylist: denylist, log: log}
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if input.Password != input.Password2 {
		return nil, domain.ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.Int64("user_id", user.ID))
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.log.Warn("login failed", zap.Int64("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}

	access, err := s.tokens.IssueAccess(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", zap.Int64("user_id", user.ID))
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return "", err
	}

	denied, err := s.denylist.IsRefreshTokenDenied(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if denied {
		return "", auth.ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return "", auth.ErrInvalidToken
	}
	return s.tokens.IssueAccess(userID, claims.Email)
}

// Logout denylists the refresh token's jti for its remaining lifetime.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return err
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.denylist.DenyRefreshToken(ctx, claims.ID, ttl); err != nil {
		return err
	}

	s.log.Info("user logged out", zap.String("jti", claims.ID))
	return nil
}

var _ UserUseCase = (*UserService)(nil)
