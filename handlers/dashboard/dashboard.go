package dashboard

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/classdeck/classdeck/model"
	"github.com/classdeck/classdeck/utils/middleware"
	"github.com/classdeck/classdeck/utils/response"
)

// DashboardHandler assembles the per-role landing views.
type DashboardHandler struct {
	db *gorm.DB
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

// StudentDashboard is the student landing view.
type StudentDashboard struct {
	Courses             []model.Course     `json:"courses"`
	UpcomingAssignments []model.Assignment `json:"upcoming_assignments"`
	RecentGrades        []model.Submission `json:"recent_grades"`
}

// InstructorCourseSummary is one course row in the instructor view, annotated
// with the counts the instructor acts on.
type InstructorCourseSummary struct {
	model.Course
	EnrolledCount       int64 `json:"enrolled_count"`
	PendingRequestCount int64 `json:"pending_request_count"`
}

// GetDashboard handles GET /dashboard. The payload depends on the caller's
// role: students get their enrolled courses with upcoming work and recent
// grades, instructors get their courses with enrollment and pending counts.
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	if user.IsInstructor() {
		return h.instructorDashboard(c, user)
	}
	return h.studentDashboard(c, user)
}

func (h *DashboardHandler) studentDashboard(c *fiber.Ctx, user *model.User) error {
	var courses []model.Course
	if err := h.db.
		Joins("JOIN enrollments ON enrollments.course_id = courses.id OR enrollments.course_code = courses.code").
		Where("enrollments.student_id = ?", user.ID).
		Find(&courses).Error; err != nil {
		return response.Internal(c, err)
	}

	courseIDs := make([]uint, 0, len(courses))
	for _, course := range courses {
		courseIDs = append(courseIDs, course.ID)
	}

	dash := StudentDashboard{
		Courses:             courses,
		UpcomingAssignments: []model.Assignment{},
		RecentGrades:        []model.Submission{},
	}
	if len(courseIDs) == 0 {
		return response.Success(c, dash)
	}

	if err := h.db.
		Where("course_id IN ? AND due_date > ?", courseIDs, time.Now()).
		Order("due_date ASC").
		Limit(10).
		Find(&dash.UpcomingAssignments).Error; err != nil {
		return response.Internal(c, err)
	}

	// Grades whose assignment or course has been removed are of no use on the
	// dashboard, so join through the live rows only.
	if err := h.db.
		Joins("JOIN assignments ON assignments.id = submissions.assignment_id AND assignments.deleted_at IS NULL").
		Joins("JOIN courses ON courses.id = assignments.course_id AND courses.deleted_at IS NULL").
		Where("submissions.student_id = ? AND submissions.status = ?", user.ID, model.SubmissionGraded).
		Preload("Assignment").
		Order("submissions.graded_at DESC").
		Limit(10).
		Find(&dash.RecentGrades).Error; err != nil {
		return response.Internal(c, err)
	}

	return response.Success(c, dash)
}

func (h *DashboardHandler) instructorDashboard(c *fiber.Ctx, user *model.User) error {
	var courses []model.Course
	if err := h.db.Where("instructor_id = ?", user.ID).Order("created_at DESC").Find(&courses).Error; err != nil {
		return response.Internal(c, err)
	}

	summaries := make([]InstructorCourseSummary, 0, len(courses))
	for _, course := range courses {
		var enrolled, pending int64
		if err := h.db.Model(&model.Enrollment{}).
			Where("course_id = ? OR course_code = ?", course.ID, course.Code).
			Count(&enrolled).Error; err != nil {
			return response.Internal(c, err)
		}
		if err := h.db.Model(&model.JoinRequest{}).
			Where("course_id = ? AND status = ?", course.ID, model.JoinRequestPending).
			Count(&pending).Error; err != nil {
			return response.Internal(c, err)
		}
		summaries = append(summaries, InstructorCourseSummary{
			Course:              course,
			EnrolledCount:       enrolled,
			PendingRequestCount: pending,
		})
	}

	return response.Success(c, fiber.Map{"courses": summaries})
}
