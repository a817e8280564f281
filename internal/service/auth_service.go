package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/sales-assistant/internal/auth"
	"github.com/spec-kit/sales-assistant/internal/config"
	"github.com/spec-kit/sales-assistant/internal/domain"
	"github.com/spec-kit/sales-assistant/internal/events"
	"github.com/spec-kit/sales-assistant/internal/repository"
	apperrors "github.com/spec-kit/sales-assistant/pkg/util/errorutil"
)

// AuthService coordinates registration, login and admin bootstrap.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
	}
}

// Register creates a PENDING account. The caller cannot log in until an admin approves it.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewConflict("username already registered", map[string]any{"username": username})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Status:       domain.UserStatusPending,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("username already registered", map[string]any{"username": username})
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered, awaiting approval", zap.String("user_id", user.ID), zap.String("username", username))
	s.publishEvent(ctx, events.New(events.EventUserRegistered, user.ID, user.ID,
		events.UserRegisteredPayload{Username: username}))
	return user, nil
}

// Login authenticates an account and issues an access token. Unknown users and
// wrong passwords are indistinguishable to the caller; PENDING accounts are refused.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("incorrect username or password")
		}
		return nil, "", time.Time{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("incorrect username or password")
	}
	if !user.IsApproved() {
		return nil, "", time.Time{}, apperrors.NewAccountPending()
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// EnsureAdmin creates the bootstrap administrator if it does not exist yet.
// An empty username disables seeding.
func (s *AuthService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		s.logger.Warn("ADMIN_USERNAME not set; no administrator will be seeded")
		return nil
	}

	existing, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if !existing.IsAdmin() {
			return fmt.Errorf("configured admin %q exists without the admin role", username)
		}
		return nil
	case !errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := auth.HashPassword(cfg.Password, s.bcryptCost)
	if err != nil {
		return err
	}
	admin := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Status:       domain.UserStatusApproved,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("bootstrap admin created", zap.String("user_id", admin.ID), zap.String("username", username))
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

type credentials struct {
	Username string `validate:"min=3,max=64,username"`
	Password string `validate:"min=8,max=72"`
}

func validateCredentials(username, password string) error {
	return validateStruct("invalid registration", credentials{Username: username, Password: password})
}
