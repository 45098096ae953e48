package course

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/classdeck/classdeck/database"
	"github.com/classdeck/classdeck/handlers"
	"github.com/classdeck/classdeck/model"
	"github.com/classdeck/classdeck/services"
	"github.com/classdeck/classdeck/utils/coursecode"
	"github.com/classdeck/classdeck/utils/middleware"
	"github.com/classdeck/classdeck/utils/response"
	"github.com/classdeck/classdeck/utils/validation"
)

// CourseHandler handles course-related requests
type CourseHandler struct {
	db         *gorm.DB
	enrollment *services.EnrollmentService
	validator  *validation.Validator
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(db *gorm.DB, enrollment *services.EnrollmentService) *CourseHandler {
	return &CourseHandler{
		db:         db,
		enrollment: enrollment,
		validator:  validation.NewValidator(),
	}
}

// CreateCourseRequest represents the request body for creating a course
type CreateCourseRequest struct {
	Name string `json:"name" validate:"required,min=3,max=255"`
}

// CreateCourse handles POST /courses. The join code is generated from the
// course name; a unique-constraint collision regenerates the code, bounded
// by coursecode.MaxAttempts.
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.BadRequest(c, validation.FormatValidationError(err))
	}

	req.Name = validation.SanitizeString(req.Name)

	var lastErr error
	for attempt := 0; attempt < coursecode.MaxAttempts; attempt++ {
		course := model.Course{
			Name:         req.Name,
			Code:         coursecode.New(req.Name),
			InstructorID: user.ID,
		}
		lastErr = h.db.Create(&course).Error
		if lastErr == nil {
			return response.Created(c, course)
		}
		if !database.IsUniqueViolation(lastErr) {
			return response.Internal(c, lastErr)
		}
	}

	return response.Internal(c, errors.New("exhausted course code generation attempts: "+lastErr.Error()))
}

// ListCourses handles GET /courses. Instructors see the courses they own;
// students see the courses they are enrolled in.
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var courses []model.Course
	if user.IsInstructor() {
		if err := h.db.Where("instructor_id = ?", user.ID).Order("created_at DESC").Find(&courses).Error; err != nil {
			return response.Internal(c, err)
		}
		return response.Success(c, courses)
	}

	// Enrollments may reference the course by internal id or by join code.
	err := h.db.
		Joins("JOIN enrollments ON enrollments.course_id = courses.id OR enrollments.course_code = courses.code").
		Where("enrollments.student_id = ?", user.ID).
		Order("courses.created_at DESC").
		Find(&courses).Error
	if err != nil {
		return response.Internal(c, err)
	}
	return response.Success(c, courses)
}

// GetCourse handles GET /courses/:id (enrolled students and the owner)
func (h *CourseHandler) GetCourse(c *fiber.Ctx) error {
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

	var full model.Course
	if err := h.db.Preload("Assignments").Preload("Resources").First(&full, course.ID).Error; err != nil {
		return response.Internal(c, err)
	}
	return response.Success(c, full)
}

// DeleteCourse handles DELETE /courses/:id. Deletion cascades to enrollments,
// assignments, submissions and resources through the foreign keys.
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
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

	if err := h.db.Delete(&model.Course{}, course.ID).Error; err != nil {
		return response.Internal(c, err)
	}
	return response.Result(c, "deleted")
}

// ListEnrolledStudents handles GET /courses/:id/students (owner only)
func (h *CourseHandler) ListEnrolledStudents(c *fiber.Ctx) error {
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

	var enrollments []model.Enrollment
	err = h.db.Where("course_id = ? OR course_code = ?", course.ID, course.Code).
		Preload("Student").
		Order("created_at ASC").
		Find(&enrollments).Error
	if err != nil {
		return response.Internal(c, err)
	}
	return response.Success(c, enrollments)
}
