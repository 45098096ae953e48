package enrollment

import (
	"github.com/gofiber/fiber/v2"

	"github.com/classdeck/classdeck/handlers"
	"github.com/classdeck/classdeck/model"
	"github.com/classdeck/classdeck/services"
	"github.com/classdeck/classdeck/utils/middleware"
	"github.com/classdeck/classdeck/utils/response"
	"github.com/classdeck/classdeck/utils/validation"
)

// enrollmentWorkflow is the service surface this handler consumes.
type enrollmentWorkflow interface {
	CreateJoinRequest(studentID uint, courseCode string) (*model.JoinRequest, error)
	ListPendingJoinRequests(courseID, instructorID uint) ([]model.JoinRequest, error)
	RespondToJoinRequest(requestID uint, action string, instructorID uint) (string, error)
	CreateInvitation(courseID, studentID, instructorID uint) (*model.Invitation, error)
	RespondToInvitation(token, resp string) (*model.Invitation, error)
}

// EnrollmentHandler exposes the enrollment workflow over HTTP
type EnrollmentHandler struct {
	service    enrollmentWorkflow
	validator  *validation.Validator
	bruteForce *middleware.BruteForceProtection
}

// NewEnrollmentHandler creates a new enrollment handler. bruteForce may be nil
// when Redis is unavailable.
func NewEnrollmentHandler(service *services.EnrollmentService, bruteForce *middleware.BruteForceProtection) *EnrollmentHandler {
	return &EnrollmentHandler{
		service:    service,
		validator:  validation.NewValidator(),
		bruteForce: bruteForce,
	}
}

// CreateJoinRequestRequest is the body for POST /join-requests
type CreateJoinRequestRequest struct {
	CourseCode string `json:"course_code" validate:"required,min=3,max=20"`
}

// CreateJoinRequest handles POST /join-requests (students)
func (h *EnrollmentHandler) CreateJoinRequest(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateJoinRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.BadRequest(c, validation.FormatValidationError(err))
	}

	joinRequest, err := h.service.CreateJoinRequest(user.ID, req.CourseCode)
	if err != nil {
		return handlers.WriteServiceError(c, err)
	}
	return response.Created(c, joinRequest)
}

// ListPendingJoinRequests handles GET /courses/:id/join-requests (owner only)
func (h *EnrollmentHandler) ListPendingJoinRequests(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	requests, err := h.service.ListPendingJoinRequests(courseID, user.ID)
	if err != nil {
		return handlers.WriteServiceError(c, err)
	}
	return response.Success(c, requests)
}

// RespondJoinRequestRequest is the body for POST /join-requests/:id/respond
type RespondJoinRequestRequest struct {
	Action string `json:"action" validate:"required,oneof=accept reject"`
}

// RespondToJoinRequest handles POST /join-requests/:id/respond (owner only).
// The result is one of "accepted", "already_enrolled" or "rejected".
func (h *EnrollmentHandler) RespondToJoinRequest(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	requestID, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid join request id")
	}

	var req RespondJoinRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.BadRequest(c, validation.FormatValidationError(err))
	}

	result, err := h.service.RespondToJoinRequest(requestID, req.Action, user.ID)
	if err != nil {
		return handlers.WriteServiceError(c, err)
	}
	return response.Result(c, result)
}
