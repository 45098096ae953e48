package services

import (
	"gorm.io/gorm"

	"github.com/classdeck/classdeck/model"
)

// gormEnrollmentStore implements EnrollmentStore on top of GORM/Postgres.
// Missing rows surface as gorm.ErrRecordNotFound.
type gormEnrollmentStore struct {
	db *gorm.DB
}

func (s *gormEnrollmentStore) CourseByID(id uint) (*model.Course, error) {
	var course model.Course
	if err := s.db.First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *gormEnrollmentStore) CourseByCode(code string) (*model.Course, error) {
	var course model.Course
	if err := s.db.Where("code = ?", code).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *gormEnrollmentStore) StudentByID(id uint) (*model.User, error) {
	var user model.User
	if err := s.db.Where("role = ?", model.RoleStudent).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EnrollmentExists matches on the internal id or the join-code snapshot:
// enrollments written by older call paths carry only the code.
func (s *gormEnrollmentStore) EnrollmentExists(courseID uint, courseCode string, studentID uint) (bool, error) {
	var count int64
	err := s.db.Model(&model.Enrollment{}).
		Where("student_id = ? AND (course_id = ? OR course_code = ?)", studentID, courseID, courseCode).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormEnrollmentStore) CreateEnrollment(e *model.Enrollment) error {
	return s.db.Create(e).Error
}

func (s *gormEnrollmentStore) CreateJoinRequest(r *model.JoinRequest) error {
	return s.db.Create(r).Error
}

func (s *gormEnrollmentStore) JoinRequestByID(id uint) (*model.JoinRequest, error) {
	var req model.JoinRequest
	if err := s.db.First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *gormEnrollmentStore) PendingJoinRequestExists(courseID, studentID uint) (bool, error) {
	var count int64
	err := s.db.Model(&model.JoinRequest{}).
		Where("course_id = ? AND student_id = ? AND status = ?", courseID, studentID, model.JoinRequestPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *gormEnrollmentStore) PendingJoinRequests(courseID uint) ([]model.JoinRequest, error) {
	var reqs []model.JoinRequest
	err := s.db.Where("course_id = ? AND status = ?", courseID, model.JoinRequestPending).
		Order("created_at ASC").
		Preload("Student").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (s *gormEnrollmentStore) UpdateJoinRequestStatus(id uint, status string) error {
	return s.db.Model(&model.JoinRequest{}).Where("id = ?", id).Update("status", status).Error
}

func (s *gormEnrollmentStore) CreateInvitation(inv *model.Invitation) error {
	return s.db.Create(inv).Error
}

func (s *gormEnrollmentStore) InvitationByToken(token string) (*model.Invitation, error) {
	var inv model.Invitation
	if err := s.db.Where("token = ?", token).Preload("Course").First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *gormEnrollmentStore) UpdateInvitation(inv *model.Invitation) error {
	return s.db.Save(inv).Error
}
