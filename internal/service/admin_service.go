package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/sales-assistant/internal/domain"
	"github.com/spec-kit/sales-assistant/internal/events"
	"github.com/spec-kit/sales-assistant/internal/repository"
	apperrors "github.com/spec-kit/sales-assistant/pkg/util/errorutil"
)

// AdminService implements the approval gate.
type AdminService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAdminService constructs the service.
func NewAdminService(users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{users: users, dispatcher: dispatcher, logger: logger}
}

// Approve transitions username from PENDING to APPROVED. The transition is one-way;
// approving an already approved account returns it unchanged.
func (s *AdminService) Approve(ctx context.Context, admin *domain.User, username string) (*domain.User, error) {
	if !admin.IsAdmin() || !admin.IsApproved() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.NewValidationError("username is required", nil)
	}

	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"username": username})
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if target.IsApproved() {
		return target, nil
	}

	approved, err := s.users.Approve(ctx, username, admin.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"username": username})
		}
		return nil, fmt.Errorf("approve user: %w", err)
	}

	s.logger.Info("user approved",
		zap.String("user_id", approved.ID),
		zap.String("username", approved.Username),
		zap.String("approved_by", admin.ID))
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.New(events.EventUserApproved, admin.ID, approved.ID,
			events.UserApprovedPayload{Username: approved.Username, ApprovedBy: admin.Username}))
	}
	return approved, nil
}

// ListUsers returns accounts in the given status, oldest first.
func (s *AdminService) ListUsers(ctx context.Context, status domain.UserStatus, limit int) ([]domain.User, error) {
	if status != domain.UserStatusPending && status != domain.UserStatusApproved {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}
	return s.users.ListByStatus(ctx, status, limit)
}
