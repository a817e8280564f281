package handlers

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sales-assistant/internal/api/dto"
	"github.com/spec-kit/sales-assistant/internal/auth"
	"github.com/spec-kit/sales-assistant/internal/domain"
	"github.com/spec-kit/sales-assistant/internal/observability"
	"github.com/spec-kit/sales-assistant/internal/service"
	apperrors "github.com/spec-kit/sales-assistant/pkg/util/errorutil"
)

// AdminHandler serves the approval gate and operator views.
type AdminHandler struct {
	admin   *service.AdminService
	metrics *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(adminService *service.AdminService, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{admin: adminService, metrics: metrics}
}

// Approve handles POST /api/admin/approve/:username.
func (h *AdminHandler) Approve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("admin credential required")
	}
	raw := c.Params("username")
	username, err := url.PathUnescape(raw)
	if err != nil {
		return apperrors.NewValidationError("invalid username", map[string]any{"username": raw})
	}
	user, err := h.admin.Approve(c.UserContext(), principal.User, username)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "user approved",
		"data":    dto.NewUserResponse(user),
	})
}

// ListUsers handles GET /api/admin/users?status=PENDING.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	status := domain.UserStatus(strings.ToUpper(c.Query("status", string(domain.UserStatusPending))))
	users, err := h.admin.ListUsers(c.UserContext(), status, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Metrics handles GET /api/admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}
