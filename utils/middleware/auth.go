package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/classdeck/classdeck/model"
	"github.com/classdeck/classdeck/utils/auth"
	"github.com/classdeck/classdeck/utils/response"
)

// AuthMiddleware handles JWT authentication. It is the narrow surface through
// which handlers learn who the actor is; nothing else in the codebase touches
// tokens.
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	db         *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		db:         db,
	}
}

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get token from Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "Missing authorization token")
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Unauthorized(c, "Invalid authorization format")
		}

		claims, err := m.jwtManager.ValidateToken(parts[1])
		if err != nil {
			if err == auth.ErrExpiredToken {
				return response.Unauthorized(c, "Token has expired")
			}
			return response.Unauthorized(c, "Invalid token")
		}

		// Load user from database
		var user model.User
		if err := m.db.First(&user, claims.UserID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return response.Unauthorized(c, "User not found")
			}
			return response.Internal(c, err)
		}

		// Store user info and full user object in context
		c.Locals("user_id", claims.UserID)
		c.Locals("user_email", claims.Email)
		c.Locals("user_role", user.Role)
		c.Locals("user", &user)

		return c.Next()
	}
}

// RequireInstructor requires an authenticated user with the instructor role.
// Must be chained after Required().
func (m *AuthMiddleware) RequireInstructor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetUser(c)
		if !ok {
			return response.Unauthorized(c, "Not authenticated")
		}
		if !user.IsInstructor() {
			return response.Forbidden(c, "Instructor role required")
		}
		return c.Next()
	}
}

// RequireStudent requires an authenticated user with the student role.
// Must be chained after Required().
func (m *AuthMiddleware) RequireStudent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetUser(c)
		if !ok {
			return response.Unauthorized(c, "Not authenticated")
		}
		if user.Role != model.RoleStudent {
			return response.Forbidden(c, "Student role required")
		}
		return c.Next()
	}
}

// GetUserID retrieves the authenticated user's id from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("user_id").(uint)
	return id, ok
}

// GetUser retrieves the authenticated user from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user, ok := c.Locals("user").(*model.User)
	return user, ok
}
