package assignment

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/classdeck/classdeck/handlers"
	"github.com/classdeck/classdeck/model"
	"github.com/classdeck/classdeck/services"
	"github.com/classdeck/classdeck/utils/middleware"
	"github.com/classdeck/classdeck/utils/response"
	"github.com/classdeck/classdeck/utils/validation"
)

// AssignmentHandler handles assignment-related requests
type AssignmentHandler struct {
	db         *gorm.DB
	enrollment *services.EnrollmentService
	validator  *validation.Validator
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(db *gorm.DB, enrollment *services.EnrollmentService) *AssignmentHandler {
	return &AssignmentHandler{
		db:         db,
		enrollment: enrollment,
		validator:  validation.NewValidator(),
	}
}

// CreateAssignmentRequest is the body for POST /courses/:id/assignments
type CreateAssignmentRequest struct {
	Title       string    `json:"title" validate:"required,min=1,max=255"`
	Description string    `json:"description" validate:"omitempty,max=5000"`
	DueDate     time.Time `json:"due_date" validate:"required"`
	Points      int       `json:"points" validate:"omitempty,min=0,max=1000"`
}

// UpdateAssignmentRequest is the body for PUT /assignments/:id
type UpdateAssignmentRequest struct {
	Title       string     `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description" validate:"omitempty"`
	DueDate     *time.Time `json:"due_date" validate:"omitempty"`
	Points      *int       `json:"points" validate:"omitempty,min=0,max=1000"`
}

// CreateAssignment handles POST /courses/:id/assignments (owner only)
func (h *AssignmentHandler) CreateAssignment(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	course, err := h.enrollment.CourseByID(courseID)
	if err != nil {
		return handlers.WriteServiceError(c, err)
	}
	if err := h.enrollment.AssertOwnsCourse(course, user.ID); err != nil {
		return handlers.WriteServiceError(c, err)
	}

	var req CreateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.BadRequest(c, validation.FormatValidationError(err))
	}

	points := req.Points
	if points == 0 {
		points = 100
	}

	assignment := model.Assignment{
		CourseID:    course.ID,
		Title:       validation.SanitizeString(req.Title),
		Description: validation.SanitizeString(req.Description),
		DueDate:     req.DueDate,
		Points:      points,
	}
	if err := h.db.Create(&assignment).Error; err != nil {
		return response.Internal(c, err)
	}
	return response.Created(c, assignment)
}

// ListAssignments handles GET /courses/:id/assignments (enrolled or owner)
func (h *AssignmentHandler) ListAssignments(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	courseID, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	course, err := h.enrollment.CourseByID(courseID)
	if err != nil {
		return handlers.WriteServiceError(c, err)
	}
	if err := h.enrollment.AssertEnrolledOrOwns(course, user.ID); err != nil {
		return handlers.WriteServiceError(c, err)
	}

	var assignments []model.Assignment
	if err := h.db.Where("course_id = ?", course.ID).Order("due_date ASC").Find(&assignments).Error; err != nil {
		return response.Internal(c, err)
	}
	return response.Success(c, assignments)
}

// UpdateAssignment handles PUT /assignments/:id (owner only)
func (h *AssignmentHandler) UpdateAssignment(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	assignment, err := h.loadAssignment(c)
	if err != nil {
		return handlers.WriteServiceError(c, err)
	}

	course, err := h.enrollment.CourseByID(assignment.CourseID)
	if err != nil {
		return handlers.WriteServiceError(c, err)
	}
	if err := h.enrollment.AssertOwnsCourse(course, user.ID); err != nil {
		return handlers.WriteServiceError(c, err)
	}

	var req UpdateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.BadRequest(c, validation.FormatValidationError(err))
	}

	if req.Title != "" {
		assignment.Title = validation.SanitizeString(req.Title)
	}
	if req.Description != nil {
		assignment.Description = validation.SanitizeString(*req.Description)
	}
	if req.DueDate != nil {
		assignment.DueDate = *req.DueDate
	}
	if req.Points != nil {
		assignment.Points = *req.Points
	}

	if err := h.db.Save(assignment).Error; err != nil {
		return response.Internal(c, err)
	}
	return response.Success(c, assignment)
}

// DeleteAssignment handles DELETE /assignments/:id (owner only). Submissions
// cascade away with the assignment.
func (h *AssignmentHandler) DeleteAssignment(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	assignment, err := h.loadAssignment(c)
	if err != nil {
		return handlers.WriteServiceError(c, err)
	}

	course, err := h.enrollment.CourseByID(assignment.CourseID)
	if err != nil {
		return handlers.WriteServiceError(c, err)
	}
	if err := h.enrollment.AssertOwnsCourse(course, user.ID); err != nil {
		return handlers.WriteServiceError(c, err)
	}

	if err := h.db.Delete(&model.Assignment{}, assignment.ID).Error; err != nil {
		return response.Internal(c, err)
	}
	return response.Result(c, "deleted")
}

func (h *AssignmentHandler) loadAssignment(c *fiber.Ctx) (*model.Assignment, error) {
	id, err := handlers.ParseID(c, "id")
	if err != nil {
		return nil, services.ErrAssignmentNotFound
	}
	var assignment model.Assignment
	if err := h.db.First(&assignment, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, services.ErrAssignmentNotFound
		}
		return nil, err
	}
	return &assignment, nil
}
