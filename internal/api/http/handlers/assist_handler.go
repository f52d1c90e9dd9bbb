package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/lifecycle-service/internal/api/dto"
	"github.com/helpdesk-kit/lifecycle-service/internal/service"
	apperrors "github.com/helpdesk-kit/lifecycle-service/pkg/util/errorutil"
)

// AssistHandler forwards helpdesk questions to the LLM backend.
type AssistHandler struct {
	assist *service.AssistService
}

// NewAssistHandler constructs handler.
func NewAssistHandler(assistService *service.AssistService) *AssistHandler {
	return &AssistHandler{assist: assistService}
}

// Ask handles POST /assist/ask.
func (h *AssistHandler) Ask(c *fiber.Ctx) error {
	var req dto.AssistRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	answer, err := h.assist.Ask(c.UserContext(), req.Question, req.KnowledgeBase)
	if err != nil {
		return err
	}
	return c.JSON(dto.AssistResponse{Answer: answer})
}
