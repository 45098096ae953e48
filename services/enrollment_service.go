package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/classdeck/classdeck/database"
	"github.com/classdeck/classdeck/model"
	"gorm.io/gorm"
)

// Errors returned by the enrollment workflow. Handlers map these onto HTTP
// statuses at the boundary.
var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrRequestNotFound      = errors.New("join request not found")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrStudentNotFound      = errors.New("student not found")
	ErrAssignmentNotFound   = errors.New("assignment not found")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrResourceNotFound     = errors.New("resource not found")
	ErrNotCourseOwner       = errors.New("only the course instructor may perform this action")
	ErrNotEnrolled          = errors.New("not enrolled in this course")
	ErrAlreadyEnrolled      = errors.New("student is already enrolled in this course")
	ErrPendingRequestExists = errors.New("a pending join request already exists for this course")
	ErrInvitationResolved   = errors.New("invitation has already been responded to")
	ErrInvalidResponse      = errors.New("response must be 'accepted' or 'declined'")
	ErrInvalidAction        = errors.New("action must be 'accept' or 'reject'")
	ErrEmailDelivery        = errors.New("failed to deliver invitation email")
)

// Join request actions and their results.
const (
	ActionAccept = "accept"
	ActionReject = "reject"

	ResultAccepted        = "accepted"
	ResultAlreadyEnrolled = "already_enrolled"
	ResultRejected        = "rejected"
)

// EnrollmentStore is the persistence surface the workflow needs. The GORM
// implementation lives in enrollment_store.go; tests substitute an in-memory
// fake.
type EnrollmentStore interface {
	CourseByID(id uint) (*model.Course, error)
	CourseByCode(code string) (*model.Course, error)
	StudentByID(id uint) (*model.User, error)

	EnrollmentExists(courseID uint, courseCode string, studentID uint) (bool, error)
	CreateEnrollment(e *model.Enrollment) error

	CreateJoinRequest(r *model.JoinRequest) error
	JoinRequestByID(id uint) (*model.JoinRequest, error)
	PendingJoinRequestExists(courseID, studentID uint) (bool, error)
	PendingJoinRequests(courseID uint) ([]model.JoinRequest, error)
	UpdateJoinRequestStatus(id uint, status string) error

	CreateInvitation(inv *model.Invitation) error
	InvitationByToken(token string) (*model.Invitation, error)
	UpdateInvitation(inv *model.Invitation) error
}

// Mailer sends enrollment-related notifications.
type Mailer interface {
	SendInvitationEmail(to, studentName, courseName, token string) error
}

// EnrollmentService drives a student from "not associated with a course" to
// "enrolled": direct join requests by course code, and instructor-initiated
// invitations. It also owns the ownership/enrollment authorization checks
// shared by every course-scoped handler.
type EnrollmentService struct {
	store  EnrollmentStore
	mailer Mailer
}

// NewEnrollmentService creates an enrollment service backed by GORM.
func NewEnrollmentService(db *gorm.DB, mailer Mailer) *EnrollmentService {
	return &EnrollmentService{
		store:  &gormEnrollmentStore{db: db},
		mailer: mailer,
	}
}

// newEnrollmentServiceWithStore is used by tests.
func newEnrollmentServiceWithStore(store EnrollmentStore, mailer Mailer) *EnrollmentService {
	return &EnrollmentService{store: store, mailer: mailer}
}

// AssertOwnsCourse fails unless actorID is the course's instructor.
func (s *EnrollmentService) AssertOwnsCourse(course *model.Course, actorID uint) error {
	if course.InstructorID != actorID {
		return ErrNotCourseOwner
	}
	return nil
}

// AssertEnrolledOrOwns succeeds if the actor owns the course or is enrolled
// in it.
func (s *EnrollmentService) AssertEnrolledOrOwns(course *model.Course, actorID uint) error {
	if course.InstructorID == actorID {
		return nil
	}
	enrolled, err := s.store.EnrollmentExists(course.ID, course.Code, actorID)
	if err != nil {
		return err
	}
	if !enrolled {
		return ErrNotEnrolled
	}
	return nil
}

// CourseByID looks up a course for handlers that share the authorization
// primitives above.
func (s *EnrollmentService) CourseByID(id uint) (*model.Course, error) {
	course, err := s.store.CourseByID(id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

// CreateJoinRequest files a pending join request for the course identified by
// its join code. It conflicts when the student is already enrolled or already
// has a pending request; a previously rejected request does not block.
func (s *EnrollmentService) CreateJoinRequest(studentID uint, courseCode string) (*model.JoinRequest, error) {
	course, err := s.store.CourseByCode(courseCode)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	enrolled, err := s.store.EnrollmentExists(course.ID, course.Code, studentID)
	if err != nil {
		return nil, err
	}
	if enrolled {
		return nil, ErrAlreadyEnrolled
	}

	pending, err := s.store.PendingJoinRequestExists(course.ID, studentID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrPendingRequestExists
	}

	req := &model.JoinRequest{
		CourseID:   course.ID,
		CourseCode: course.Code,
		StudentID:  studentID,
		Status:     model.JoinRequestPending,
	}
	if err := s.store.CreateJoinRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

// ListPendingJoinRequests returns a course's pending requests in creation
// order, each carrying the requesting student's username and email. Only the
// owning instructor may call it.
func (s *EnrollmentService) ListPendingJoinRequests(courseID, instructorID uint) ([]model.JoinRequest, error) {
	course, err := s.store.CourseByID(courseID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if err := s.AssertOwnsCourse(course, instructorID); err != nil {
		return nil, err
	}
	return s.store.PendingJoinRequests(course.ID)
}

// RespondToJoinRequest applies an instructor's accept/reject decision.
//
// Accept is two dependent writes: the enrollment insert, then the status
// update. If the status update fails after the insert succeeded, the request
// is left pending while the enrollment exists; re-invoking accept is safe
// because the enrollment check below makes the operation convergent (the
// retry moves status to accepted without duplicating the enrollment row).
//
// No pending-status guard is applied: instructors may re-resolve a request.
func (s *EnrollmentService) RespondToJoinRequest(requestID uint, action string, instructorID uint) (string, error) {
	if action != ActionAccept && action != ActionReject {
		return "", ErrInvalidAction
	}

	req, err := s.store.JoinRequestByID(requestID)
	if err != nil {
		if database.IsNotFound(err) {
			return "", ErrRequestNotFound
		}
		return "", err
	}

	course, err := s.store.CourseByID(req.CourseID)
	if err != nil {
		if database.IsNotFound(err) {
			return "", ErrCourseNotFound
		}
		return "", err
	}
	if err := s.AssertOwnsCourse(course, instructorID); err != nil {
		return "", err
	}

	if action == ActionReject {
		if err := s.store.UpdateJoinRequestStatus(req.ID, model.JoinRequestRejected); err != nil {
			return "", err
		}
		return ResultRejected, nil
	}

	enrolled, err := s.store.EnrollmentExists(course.ID, course.Code, req.StudentID)
	if err != nil {
		return "", err
	}
	if enrolled {
		if err := s.store.UpdateJoinRequestStatus(req.ID, model.JoinRequestAccepted); err != nil {
			return "", err
		}
		return ResultAlreadyEnrolled, nil
	}

	enrollment := &model.Enrollment{
		CourseID:   course.ID,
		CourseCode: course.Code,
		StudentID:  req.StudentID,
	}
	if err := s.store.CreateEnrollment(enrollment); err != nil {
		// A concurrent accept can win the insert; the unique index on
		// (course_id, student_id) turns that into a duplicate-key error
		// and the request still converges to accepted.
		if !database.IsUniqueViolation(err) {
			return "", err
		}
	}
	if err := s.store.UpdateJoinRequestStatus(req.ID, model.JoinRequestAccepted); err != nil {
		return "", err
	}
	return ResultAccepted, nil
}

// CreateInvitation persists a pending invitation with a fresh single-use
// token and emails the student a response link. Only the owning instructor
// may invite; a delivery failure is surfaced to the caller rather than
// swallowed.
func (s *EnrollmentService) CreateInvitation(courseID, studentID, instructorID uint) (*model.Invitation, error) {
	course, err := s.store.CourseByID(courseID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	if err := s.AssertOwnsCourse(course, instructorID); err != nil {
		return nil, err
	}

	student, err := s.store.StudentByID(studentID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	inv := &model.Invitation{
		CourseID:  course.ID,
		StudentID: student.ID,
		Token:     uuid.NewString(),
		Status:    model.InvitationPending,
		SentAt:    time.Now(),
	}
	if err := s.store.CreateInvitation(inv); err != nil {
		return nil, err
	}

	if err := s.mailer.SendInvitationEmail(student.Email, student.Username, course.Name, inv.Token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	return inv, nil
}

// RespondToInvitation records the student's answer for the invitation
// identified by its token. A response lands only while the invitation is
// still pending. Accepting does not enroll the student; enrollment still
// goes through the join-request flow.
func (s *EnrollmentService) RespondToInvitation(token, resp string) (*model.Invitation, error) {
	if resp != model.InvitationAccepted && resp != model.InvitationDeclined {
		return nil, ErrInvalidResponse
	}

	inv, err := s.store.InvitationByToken(token)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}

	if inv.Status != model.InvitationPending {
		return nil, ErrInvitationResolved
	}

	now := time.Now()
	inv.Status = resp
	inv.RespondedAt = &now
	if err := s.store.UpdateInvitation(inv); err != nil {
		return nil, err
	}
	return inv, nil
}
