package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sales-assistant/internal/api/dto"
	"github.com/spec-kit/sales-assistant/internal/auth"
	"github.com/spec-kit/sales-assistant/internal/domain"
	"github.com/spec-kit/sales-assistant/internal/service"
	apperrors "github.com/spec-kit/sales-assistant/pkg/util/errorutil"
	"github.com/spec-kit/sales-assistant/pkg/util/timeutil"
)

// CustomersHandler manages the caller's customer records.
type CustomersHandler struct {
	service *service.CustomerService
}

// NewCustomersHandler constructs handler.
func NewCustomersHandler(customerService *service.CustomerService) *CustomersHandler {
	return &CustomersHandler{service: customerService}
}

// Create POST /api/customers.
func (h *CustomersHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input, err := customerInput(req)
	if err != nil {
		return err
	}

	customer, err := h.service.Create(c.UserContext(), principal.User.ID, input, service.SourceAPI)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCustomerResponse(customer)})
}

// List GET /api/customers?status=&q=&limit=&offset=.
func (h *CustomersHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	query := service.CustomerQuery{
		Search: c.Query("q"),
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := domain.CustomerStatus(strings.ToLower(raw))
		query.Status = &status
	}
	if query.Offset < 0 {
		return apperrors.NewValidationError("offset must not be negative", nil)
	}

	customers, err := h.service.List(c.UserContext(), principal.User.ID, query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCustomerList(customers)})
}

// FollowUps GET /api/customers/follow-ups.
func (h *CustomersHandler) FollowUps(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	customers, err := h.service.DueForFollowUp(c.UserContext(), principal.User.ID, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCustomerList(customers)})
}

// Get GET /api/customers/:id.
func (h *CustomersHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	customer, err := h.service.Get(c.UserContext(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCustomerResponse(customer)})
}

// Update PUT /api/customers/:id.
func (h *CustomersHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input, err := customerInput(req)
	if err != nil {
		return err
	}
	customer, err := h.service.Update(c.UserContext(), principal.User.ID, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCustomerResponse(customer)})
}

// Delete DELETE /api/customers/:id.
func (h *CustomersHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.Delete(c.UserContext(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func customerInput(req dto.CustomerRequest) (service.CustomerInput, error) {
	lastInteraction, err := timeutil.ParseOptionalDate(req.LastInteraction)
	if err != nil {
		return service.CustomerInput{}, invalidDate("last_interaction")
	}
	nextFollowUp, err := timeutil.ParseOptionalDate(req.NextFollowUp)
	if err != nil {
		return service.CustomerInput{}, invalidDate("next_follow_up")
	}
	return service.CustomerInput{
		Name:            req.Name,
		Email:           req.Email,
		Company:         req.Company,
		Status:          domain.CustomerStatus(strings.ToLower(string(req.Status))),
		Notes:           req.Notes,
		Tags:            req.Tags,
		LastInteraction: lastInteraction,
		NextFollowUp:    nextFollowUp,
	}, nil
}

func invalidDate(field string) error {
	return apperrors.NewValidationError("invalid date", map[string]any{field: "must be YYYY-MM-DD or RFC 3339"})
}
