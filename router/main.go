package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/classdeck/classdeck/config"
	"github.com/classdeck/classdeck/database"
	"github.com/classdeck/classdeck/handlers"
	authhandler "github.com/classdeck/classdeck/handlers/auth"
	"github.com/classdeck/classdeck/handlers/assignment"
	"github.com/classdeck/classdeck/handlers/chat"
	"github.com/classdeck/classdeck/handlers/course"
	"github.com/classdeck/classdeck/handlers/dashboard"
	"github.com/classdeck/classdeck/handlers/enrollment"
	"github.com/classdeck/classdeck/handlers/resource"
	"github.com/classdeck/classdeck/handlers/submission"
	"github.com/classdeck/classdeck/services"
	"github.com/classdeck/classdeck/services/ai"
	"github.com/classdeck/classdeck/utils/auth"
	"github.com/classdeck/classdeck/utils/cache"
	"github.com/classdeck/classdeck/utils/middleware"
)

// SetupRoutes wires every handler onto the app. Redis is optional: when it is
// unreachable the brute-force guard degrades to a no-op rather than taking the
// server down.
func SetupRoutes(app *fiber.App, store database.Storage) {
	env, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get database connection for routes")
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: env.JWT_SECRET,
		Expiry: 24 * time.Hour,
		Issuer: env.JWT_ISSUER,
	})

	var bruteForce *middleware.BruteForceProtection
	if env.REDIS_URL != "" {
		redisCache, err := cache.NewRedisCache(env.REDIS_URL)
		if err != nil {
			log.Printf("Warning: Redis unavailable, brute force protection disabled: %v", err)
		} else {
			bruteForce = middleware.NewBruteForceProtection(redisCache)
		}
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = env.APP_URL
	}
	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Services
	mailer := services.NewEmailService(env)
	enrollmentService := services.NewEnrollmentService(db, mailer)
	aiClient := ai.NewClient(ai.Config{
		APIKey:  env.AI_API_KEY,
		BaseURL: env.AI_API_URL,
		Model:   env.AI_MODEL,
	})

	// Handlers
	authHandler := authhandler.NewAuthHandler(db, jwtManager, bruteForce)
	courseHandler := course.NewCourseHandler(db, enrollmentService)
	enrollmentHandler := enrollment.NewEnrollmentHandler(enrollmentService, bruteForce)
	assignmentHandler := assignment.NewAssignmentHandler(db, enrollmentService)
	submissionHandler := submission.NewSubmissionHandler(db, enrollmentService)
	resourceHandler := resource.NewResourceHandler(db, enrollmentService)
	dashboardHandler := dashboard.NewDashboardHandler(db)
	chatHandler := chat.NewChatHandler(db, aiClient)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	guarded := func() fiber.Handler {
		if bruteForce != nil {
			return bruteForce.CheckAttempt()
		}
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	// Health checks
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
	app.Get("/health", handlers.HandleCheckHealth(store))

	v1 := app.Group("/api/v1")

	// Public auth routes
	authGroup := v1.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", guarded(), authHandler.Login)

	// Profile
	v1.Get("/profile", authMiddleware.Required(), authHandler.GetProfile)
	v1.Put("/profile", authMiddleware.Required(), authHandler.UpdateProfile)

	// Courses
	courses := v1.Group("/courses", authMiddleware.Required())
	courses.Post("/", authMiddleware.RequireInstructor(), courseHandler.CreateCourse)
	courses.Get("/", courseHandler.ListCourses)
	courses.Get("/:id", courseHandler.GetCourse)
	courses.Delete("/:id", authMiddleware.RequireInstructor(), courseHandler.DeleteCourse)
	courses.Get("/:id/students", authMiddleware.RequireInstructor(), courseHandler.ListEnrolledStudents)

	// Join requests
	courses.Get("/:id/join-requests", authMiddleware.RequireInstructor(), enrollmentHandler.ListPendingJoinRequests)
	joinRequests := v1.Group("/join-requests", authMiddleware.Required())
	joinRequests.Post("/", authMiddleware.RequireStudent(), enrollmentHandler.CreateJoinRequest)
	joinRequests.Post("/:id/respond", authMiddleware.RequireInstructor(), enrollmentHandler.RespondToJoinRequest)

	// Invitations. Responding is token-authenticated, not session-authenticated,
	// so it sits behind the brute-force guard instead of the JWT middleware.
	invitations := v1.Group("/invitations")
	invitations.Post("/", authMiddleware.Required(), authMiddleware.RequireInstructor(), enrollmentHandler.CreateInvitation)
	invitations.Post("/respond", guarded(), enrollmentHandler.RespondToInvitation)

	// Assignments
	courses.Post("/:id/assignments", authMiddleware.RequireInstructor(), assignmentHandler.CreateAssignment)
	courses.Get("/:id/assignments", assignmentHandler.ListAssignments)
	assignments := v1.Group("/assignments", authMiddleware.Required())
	assignments.Put("/:id", authMiddleware.RequireInstructor(), assignmentHandler.UpdateAssignment)
	assignments.Delete("/:id", authMiddleware.RequireInstructor(), assignmentHandler.DeleteAssignment)

	// Submissions and grading
	assignments.Post("/:id/submissions", authMiddleware.RequireStudent(), submissionHandler.CreateSubmission)
	assignments.Get("/:id/submissions", submissionHandler.ListSubmissions)
	submissions := v1.Group("/submissions", authMiddleware.Required())
	submissions.Post("/:id/grade", authMiddleware.RequireInstructor(), submissionHandler.GradeSubmission)

	// Course resources
	courses.Post("/:id/resources", authMiddleware.RequireInstructor(), resourceHandler.CreateResource)
	courses.Get("/:id/resources", resourceHandler.ListResources)
	resources := v1.Group("/resources", authMiddleware.Required())
	resources.Put("/:id", authMiddleware.RequireInstructor(), resourceHandler.UpdateResource)

	// Dashboard
	v1.Get("/dashboard", authMiddleware.Required(), dashboardHandler.GetDashboard)

	// AI chat
	chatGroup := v1.Group("/chat", authMiddleware.Required())
	chatGroup.Post("/ask", chatHandler.Ask)
}
