package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sales-assistant/internal/api/dto"
	"github.com/spec-kit/sales-assistant/internal/auth"
	"github.com/spec-kit/sales-assistant/internal/service"
	apperrors "github.com/spec-kit/sales-assistant/pkg/util/errorutil"
)

// KnowledgeHandler records and searches facts.
type KnowledgeHandler struct {
	service *service.KnowledgeService
}

func NewKnowledgeHandler(knowledgeService *service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{service: knowledgeService}
}

// Add POST /api/knowledge.
func (h *KnowledgeHandler) Add(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.KnowledgeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	fact, err := h.service.Add(c.UserContext(), principal.User.ID, service.KnowledgeInput{
		EntityName:     req.EntityName,
		Relation:       req.Relation,
		TargetEntity:   req.TargetEntity,
		AdditionalInfo: req.AdditionalInfo,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewKnowledgeResponse(fact)})
}

// Search GET /api/knowledge?q=.
func (h *KnowledgeHandler) Search(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	facts, err := h.service.Search(c.UserContext(), principal.User.ID, c.Query("q"), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	items := make([]dto.KnowledgeResponse, 0, len(facts))
	for i := range facts {
		items = append(items, dto.NewKnowledgeResponse(&facts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
