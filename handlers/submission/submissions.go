package submission

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

// SubmissionHandler handles submission and grading requests
type SubmissionHandler struct {
	db         *gorm.DB
	enrollment *services.EnrollmentService
	validator  *validation.Validator
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(db *gorm.DB, enrollment *services.EnrollmentService) *SubmissionHandler {
	return &SubmissionHandler{
		db:         db,
		enrollment: enrollment,
		validator:  validation.NewValidator(),
	}
}

// CreateSubmissionRequest is the body for POST /assignments/:id/submissions
type CreateSubmissionRequest struct {
	Content string `json:"content" validate:"required,min=1"`
}

// CreateSubmission handles POST /assignments/:id/submissions. Only students
// enrolled in the assignment's course may submit.
func (h *SubmissionHandler) CreateSubmission(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	assignmentID, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid assignment id")
	}

	var assignment model.Assignment
	if err := h.db.First(&assignment, assignmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return handlers.WriteServiceError(c, services.ErrAssignmentNotFound)
		}
		return response.Internal(c, err)
	}

	course, err := h.enrollment.CourseByID(assignment.CourseID)
	if err != nil {
		return handlers.WriteServiceError(c, err)
	}
	if course.InstructorID == user.ID {
		return response.Forbidden(c, "Instructors do not submit to their own assignments")
	}
	if err := h.enrollment.AssertEnrolledOrOwns(course, user.ID); err != nil {
		return handlers.WriteServiceError(c, err)
	}

	var req CreateSubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.BadRequest(c, validation.FormatValidationError(err))
	}

	submission := model.Submission{
		AssignmentID: assignment.ID,
		StudentID:    user.ID,
		Content:      req.Content,
		Status:       model.SubmissionSubmitted,
	}
	if err := h.db.Create(&submission).Error; err != nil {
		return response.Internal(c, err)
	}
	return response.Created(c, submission)
}

// ListSubmissions handles GET /assignments/:id/submissions. The owning
// instructor sees every submission; a student sees only their own.
func (h *SubmissionHandler) ListSubmissions(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	assignmentID, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid assignment id")
	}

	var assignment model.Assignment
	if err := h.db.First(&assignment, assignmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return handlers.WriteServiceError(c, services.ErrAssignmentNotFound)
		}
		return response.Internal(c, err)
	}

	course, err := h.enrollment.CourseByID(assignment.CourseID)
	if err != nil {
		return handlers.WriteServiceError(c, err)
	}
	if err := h.enrollment.AssertEnrolledOrOwns(course, user.ID); err != nil {
		return handlers.WriteServiceError(c, err)
	}

	query := h.db.Where("assignment_id = ?", assignment.ID).Preload("Student").Order("created_at ASC")
	if course.InstructorID != user.ID {
		query = query.Where("student_id = ?", user.ID)
	}

	var submissions []model.Submission
	if err := query.Find(&submissions).Error; err != nil {
		return response.Internal(c, err)
	}
	return response.Success(c, submissions)
}

// GradeSubmissionRequest is the body for POST /submissions/:id/grade
type GradeSubmissionRequest struct {
	Grade    *int   `json:"grade" validate:"required,min=0,max=1000"`
	Feedback string `json:"feedback" validate:"omitempty,max=5000"`
}

// GradeSubmission handles POST /submissions/:id/grade. Grading is reserved
// for the instructor who owns the submission's course; anyone else gets a 403
// and the row is left untouched.
func (h *SubmissionHandler) GradeSubmission(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	submissionID, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid submission id")
	}

	var submission model.Submission
	if err := h.db.Preload("Assignment").First(&submission, submissionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return handlers.WriteServiceError(c, services.ErrSubmissionNotFound)
		}
		return response.Internal(c, err)
	}

	course, err := h.enrollment.CourseByID(submission.Assignment.CourseID)
	if err != nil {
		return handlers.WriteServiceError(c, err)
	}
	if err := h.enrollment.AssertOwnsCourse(course, user.ID); err != nil {
		return handlers.WriteServiceError(c, err)
	}

	var req GradeSubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.BadRequest(c, validation.FormatValidationError(err))
	}

	now := time.Now()
	submission.Grade = req.Grade
	submission.Feedback = validation.SanitizeString(req.Feedback)
	submission.Status = model.SubmissionGraded
	submission.GradedAt = &now

	if err := h.db.Save(&submission).Error; err != nil {
		return response.Internal(c, err)
	}
	return response.Success(c, submission)
}
