package enrollment

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/classdeck/classdeck/handlers"
	"github.com/classdeck/classdeck/services"
	"github.com/classdeck/classdeck/utils/middleware"
	"github.com/classdeck/classdeck/utils/response"
	"github.com/classdeck/classdeck/utils/validation"
)

// CreateInvitationRequest is the body for POST /invitations
type CreateInvitationRequest struct {
	CourseID  uint `json:"course_id" validate:"required,min=1"`
	StudentID uint `json:"student_id" validate:"required,min=1"`
}

// CreateInvitation handles POST /invitations. Only the course's instructor
// may invite; the invitation email carries the single-use token.
func (h *EnrollmentHandler) CreateInvitation(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateInvitationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.BadRequest(c, validation.FormatValidationError(err))
	}

	inv, err := h.service.CreateInvitation(req.CourseID, req.StudentID, user.ID)
	if err != nil {
		return handlers.WriteServiceError(c, err)
	}
	return response.Created(c, inv)
}

// RespondInvitationRequest is the body for POST /invitations/respond
type RespondInvitationRequest struct {
	Token    string `json:"token" validate:"required"`
	Response string `json:"response" validate:"required"`
}

// RespondToInvitation handles POST /invitations/respond. The token is the
// sole credential, so an unknown token counts as a failed attempt toward the
// per-IP lockout.
func (h *EnrollmentHandler) RespondToInvitation(c *fiber.Ctx) error {
	var req RespondInvitationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.BadRequest(c, validation.FormatValidationError(err))
	}

	inv, err := h.service.RespondToInvitation(req.Token, req.Response)
	if err != nil {
		if h.bruteForce != nil && errors.Is(err, services.ErrInvitationNotFound) {
			h.bruteForce.RecordFailedAttempt(c, c.IP())
		}
		return handlers.WriteServiceError(c, err)
	}

	if h.bruteForce != nil {
		h.bruteForce.RecordSuccessfulAttempt(c, c.IP())
	}
	return response.Result(c, inv.Status)
}
