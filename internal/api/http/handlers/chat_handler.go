package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sales-assistant/internal/api/dto"
	"github.com/spec-kit/sales-assistant/internal/assistant"
	"github.com/spec-kit/sales-assistant/internal/auth"
	apperrors "github.com/spec-kit/sales-assistant/pkg/util/errorutil"
)

const maxChatTurns = 100

// ChatHandler runs one assistant exchange per request. The conversation is held by
// the client and sent in full each time.
type ChatHandler struct {
	orchestrator *assistant.Orchestrator
}

// NewChatHandler constructs handler.
func NewChatHandler(orchestrator *assistant.Orchestrator) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator}
}

// Chat POST /api/chat.
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	history := make([]assistant.Message, 0, len(req.Messages)+1)
	for _, turn := range req.Messages {
		history = append(history, assistant.Message{
			Role:    assistant.Role(strings.ToLower(strings.TrimSpace(turn.Role))),
			Content: turn.Content,
		})
	}
	if msg := strings.TrimSpace(req.Message); msg != "" {
		history = append(history, assistant.Message{Role: assistant.RoleUser, Content: msg})
	}
	if len(history) > maxChatTurns {
		return apperrors.NewValidationError("conversation too long", map[string]any{"max_turns": maxChatTurns})
	}

	caller := assistant.Caller{UserID: principal.User.ID, Username: principal.User.Username}
	reply, err := h.orchestrator.Run(c.UserContext(), caller, history)
	if err != nil {
		return err
	}
	return c.JSON(dto.ChatResponse{
		Message:   reply.Message,
		Completed: reply.Completed,
		ToolCalls: reply.ToolCalls,
	})
}
