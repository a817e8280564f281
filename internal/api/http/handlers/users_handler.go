package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sales-assistant/internal/api/dto"
	"github.com/spec-kit/sales-assistant/internal/auth"
	"github.com/spec-kit/sales-assistant/internal/service"
	apperrors "github.com/spec-kit/sales-assistant/pkg/util/errorutil"
)

// UsersHandler exposes registration, login and the current account.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register handles POST /api/register. New accounts wait for admin approval.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if _, err := h.auth.Register(c.UserContext(), req.Username, req.Password); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.RegisterResponse{Status: "pending"})
}

// Login handles POST /api/login with a JSON or form encoded body.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	_, token, exp, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenResponse{AccessToken: token, TokenType: "bearer", ExpiresAt: exp})
}

// Me handles GET /api/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(principal.User)})
}
