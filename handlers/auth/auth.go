package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/classdeck/classdeck/model"
	"github.com/classdeck/classdeck/utils/auth"
	"github.com/classdeck/classdeck/utils/middleware"
	"github.com/classdeck/classdeck/utils/response"
	"github.com/classdeck/classdeck/utils/validation"
)

// AuthHandler handles registration, login and profile requests
type AuthHandler struct {
	db                   *gorm.DB
	jwtManager           *auth.JWTManager
	validator            *validation.Validator
	bruteForceProtection *middleware.BruteForceProtection
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtManager *auth.JWTManager, bruteForceProtection *middleware.BruteForceProtection) *AuthHandler {
	return &AuthHandler{
		db:                   db,
		jwtManager:           jwtManager,
		validator:            validation.NewValidator(),
		bruteForceProtection: bruteForceProtection,
	}
}

// UserResponse is the public view of a user row
type UserResponse struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	Major       string    `json:"major,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	College     string    `json:"college,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Username:    user.Username,
		Role:        user.Role,
		Major:       user.Major,
		PhoneNumber: user.PhoneNumber,
		College:     user.College,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=150"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=instructor student"`
	Major    string `json:"major" validate:"omitempty,max=150"`
	College  string `json:"college" validate:"omitempty,max=200"`
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.BadRequest(c, validation.FormatValidationError(err))
	}

	req.Username = validation.SanitizeString(req.Username)

	// Check for an existing account
	var existing model.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return response.Conflict(c, "An account with this email already exists")
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	user := model.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: passwordHash,
		Role:         req.Role,
		Major:        req.Major,
		College:      req.College,
	}
	if err := h.db.Create(&user).Error; err != nil {
		return response.Internal(c, err)
	}

	return response.Created(c, toUserResponse(&user))
}

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresIn   int          `json:"expires_in"` // in seconds
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	ip := c.IP()

	var user model.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		// Record failed attempt even if user not found
		if h.bruteForceProtection != nil {
			h.bruteForceProtection.RecordFailedAttempt(c, ip)
		}
		return response.Unauthorized(c, "Invalid email or password")
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		if h.bruteForceProtection != nil {
			h.bruteForceProtection.RecordFailedAttempt(c, ip)
		}
		return response.Unauthorized(c, "Invalid email or password")
	}

	if h.bruteForceProtection != nil {
		h.bruteForceProtection.RecordSuccessfulAttempt(c, ip)
	}

	accessToken, err := h.jwtManager.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return response.Internal(c, err)
	}

	return response.Success(c, LoginResponse{
		User:        toUserResponse(&user),
		AccessToken: accessToken,
		ExpiresIn:   24 * 60 * 60,
	})
}

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	Username    string `json:"username" validate:"omitempty,min=3,max=150"`
	Major       string `json:"major" validate:"omitempty,max=150"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=50"`
	College     string `json:"college" validate:"omitempty,max=200"`
}

// GetProfile handles GET /profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}
	return response.Success(c, toUserResponse(user))
}

// UpdateProfile handles PUT /profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.BadRequest(c, validation.FormatValidationError(err))
	}

	// Update fields if provided
	if req.Username != "" {
		user.Username = validation.SanitizeString(req.Username)
	}
	if req.Major != "" {
		user.Major = validation.SanitizeString(req.Major)
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = validation.SanitizeString(req.PhoneNumber)
	}
	if req.College != "" {
		user.College = validation.SanitizeString(req.College)
	}

	if err := h.db.Save(user).Error; err != nil {
		return response.Internal(c, err)
	}

	return response.Success(c, toUserResponse(user))
}
