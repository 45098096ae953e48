package resource

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/classdeck/classdeck/handlers"
	"github.com/classdeck/classdeck/model"
	"github.com/classdeck/classdeck/services"
	"github.com/classdeck/classdeck/utils/middleware"
	"github.com/classdeck/classdeck/utils/response"
	"github.com/classdeck/classdeck/utils/validation"
)

// ResourceHandler handles course resource requests
type ResourceHandler struct {
	db         *gorm.DB
	enrollment *services.EnrollmentService
	validator  *validation.Validator
}

// NewResourceHandler creates a new resource handler
func NewResourceHandler(db *gorm.DB, enrollment *services.EnrollmentService) *ResourceHandler {
	return &ResourceHandler{
		db:         db,
		enrollment: enrollment,
		validator:  validation.NewValidator(),
	}
}

// CreateResourceRequest is the body for POST /courses/:id/resources
type CreateResourceRequest struct {
	Type        string `json:"type" validate:"required,oneof=syllabus video"`
	Title       string `json:"title" validate:"required,min=1,max=255"`
	URL         string `json:"url" validate:"omitempty,url,max=2000"`
	Description string `json:"description" validate:"omitempty,max=5000"`
}

// UpdateResourceRequest is the body for PUT /resources/:id
type UpdateResourceRequest struct {
	Title       string `json:"title" validate:"omitempty,min=1,max=255"`
	URL         string `json:"url" validate:"omitempty,url,max=2000"`
	Description string `json:"description" validate:"omitempty,max=5000"`
}

// CreateResource handles POST /courses/:id/resources (owner only)
func (h *ResourceHandler) CreateResource(c *fiber.Ctx) error {
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

	var req CreateResourceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.BadRequest(c, validation.FormatValidationError(err))
	}

	resource := model.CourseResource{
		CourseID:    course.ID,
		Type:        req.Type,
		Title:       validation.SanitizeString(req.Title),
		URL:         req.URL,
		Description: validation.SanitizeString(req.Description),
	}
	if err := h.db.Create(&resource).Error; err != nil {
		return response.Internal(c, err)
	}
	return response.Created(c, resource)
}

// ListResources handles GET /courses/:id/resources (enrolled or owner)
func (h *ResourceHandler) ListResources(c *fiber.Ctx) error {
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

	var resources []model.CourseResource
	if err := h.db.Where("course_id = ?", course.ID).Order("created_at ASC").Find(&resources).Error; err != nil {
		return response.Internal(c, err)
	}
	return response.Success(c, resources)
}

// UpdateResource handles PUT /resources/:id (owner only)
func (h *ResourceHandler) UpdateResource(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	resourceID, err := handlers.ParseID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid resource id")
	}

	var resource model.CourseResource
	if err := h.db.First(&resource, resourceID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return handlers.WriteServiceError(c, services.ErrResourceNotFound)
		}
		return response.Internal(c, err)
	}

	course, err := h.enrollment.CourseByID(resource.CourseID)
	if err != nil {
		return handlers.WriteServiceError(c, err)
	}
	if err := h.enrollment.AssertOwnsCourse(course, user.ID); err != nil {
		return handlers.WriteServiceError(c, err)
	}

	var req UpdateResourceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.BadRequest(c, validation.FormatValidationError(err))
	}

	if req.Title != "" {
		resource.Title = validation.SanitizeString(req.Title)
	}
	if req.URL != "" {
		resource.URL = req.URL
	}
	if req.Description != "" {
		resource.Description = validation.SanitizeString(req.Description)
	}

	if err := h.db.Save(&resource).Error; err != nil {
		return response.Internal(c, err)
	}
	return response.Success(c, resource)
}
