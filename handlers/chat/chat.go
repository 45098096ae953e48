package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/classdeck/classdeck/model"
	"github.com/classdeck/classdeck/services/ai"
	"github.com/classdeck/classdeck/utils/middleware"
	"github.com/classdeck/classdeck/utils/response"
	"github.com/classdeck/classdeck/utils/validation"
)

// ChatHandler proxies single-turn prompts to the upstream completion provider
// and records each exchange.
type ChatHandler struct {
	db        *gorm.DB
	client    *ai.Client
	validator *validation.Validator
}

// NewChatHandler creates a new chat handler
func NewChatHandler(db *gorm.DB, client *ai.Client) *ChatHandler {
	return &ChatHandler{
		db:        db,
		client:    client,
		validator: validation.NewValidator(),
	}
}

// AskRequest is the body for POST /chat/ask
type AskRequest struct {
	Prompt string    `json:"prompt" validate:"required,min=1,max=8000"`
	Params ai.Params `json:"params"`
}

// AskResponse carries the normalized answer text.
type AskResponse struct {
	Answer string `json:"answer"`
}

// Ask handles POST /chat/ask. One prompt in, one answer out; the call is
// bounded by the client's timeout and never retried. Failing to persist the
// log does not fail the request.
func (h *ChatHandler) Ask(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.BadRequest(c, validation.FormatValidationError(err))
	}

	ctx, cancel := context.WithTimeout(c.Context(), ai.DefaultTimeout)
	defer cancel()

	messages := []ai.Message{{Role: "user", Content: req.Prompt}}
	answer, err := h.client.Complete(ctx, messages, req.Params)
	if err != nil {
		if errors.Is(err, ai.ErrUpstreamUnavailable) {
			return response.BadGateway(c, "AI provider is unavailable")
		}
		return response.Internal(c, err)
	}

	h.logExchange(user.ID, req, answer)

	return response.Success(c, AskResponse{Answer: answer})
}

func (h *ChatHandler) logExchange(userID uint, req AskRequest, answer string) {
	entry := model.ChatLog{
		UserID: userID,
		Prompt: req.Prompt,
		Answer: answer,
	}
	if params, err := json.Marshal(req.Params); err == nil {
		entry.Params = datatypes.JSON(params)
	}
	if err := h.db.Create(&entry).Error; err != nil {
		log.Printf("failed to persist chat log for user %d: %v", userID, err)
	}
}
