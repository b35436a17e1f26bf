package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/truthline/truthline/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmailTaken is returned when registering an email that exists
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned for unknown email or bad password
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken is returned for unknown or revoked refresh tokens
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// Session is the credential bundle handed to a freshly authenticated user
type Session struct {
	User         *storage.User `json:"user"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
}

// Service implements account registration and session issuance
type Service struct {
	store  *storage.Store
	tokens *TokenManager
	logger *zap.Logger
}

// NewService creates a new auth service
func NewService(store *storage.Store, tokens *TokenManager, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates an account and issues a session
func (s *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, name, email, string(hash))
	if err != nil {
		return nil, err
	}

	return s.issueSession(ctx, user)
}

// Login verifies credentials and issues a session
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.store.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Error("Failed to stamp last login", zap.Error(err))
	}
	s.store.RecordActivity(ctx, user.ID, "login", map[string]any{"email": email})

	return s.issueSession(ctx, user)
}

// Refresh exchanges a live refresh token for a new session
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	userID, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	active := false
	for _, t := range user.RefreshTokens {
		if t == refreshToken {
			active = true
			break
		}
	}
	if !active {
		return nil, ErrInvalidRefreshToken
	}

	return s.issueSession(ctx, user)
}

// ForgotPassword records a password-reset request for the account. A
// missing account is not an error so responses do not reveal which
// emails are registered.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}

	s.store.RecordActivity(ctx, user.ID, "forgot_password_requested", map[string]any{"email": email})
	return nil
}

// Logout revokes one refresh token for the user
func (s *Service) Logout(ctx context.Context, userID, refreshToken string) error {
	return s.store.RemoveRefreshToken(ctx, userID, refreshToken)
}

// Authenticate resolves an access token to its user
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*storage.User, error) {
	userID, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	return s.store.GetUserByID(ctx, userID)
}

func (s *Service) issueSession(ctx context.Context, user *storage.User) (*Session, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.store.AddRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, err
	}

	return &Session{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
