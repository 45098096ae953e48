package services

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/classdeck/classdeck/model"
)

// fakeEnrollmentStore is an in-memory EnrollmentStore. Missing rows surface as
// gorm.ErrRecordNotFound and duplicate enrollments as gorm.ErrDuplicatedKey,
// matching what the GORM-backed store reports.
type fakeEnrollmentStore struct {
	courses      map[uint]*model.Course
	students     map[uint]*model.User
	enrollments  []model.Enrollment
	joinRequests map[uint]*model.JoinRequest
	invitations  map[string]*model.Invitation

	nextEnrollmentID  uint
	nextJoinRequestID uint
	nextInvitationID  uint
}

func newFakeStore() *fakeEnrollmentStore {
	return &fakeEnrollmentStore{
		courses:      make(map[uint]*model.Course),
		students:     make(map[uint]*model.User),
		joinRequests: make(map[uint]*model.JoinRequest),
		invitations:  make(map[string]*model.Invitation),
	}
}

func (f *fakeEnrollmentStore) addCourse(id uint, name, code string, instructorID uint) *model.Course {
	c := &model.Course{ID: id, Name: name, Code: code, InstructorID: instructorID}
	f.courses[id] = c
	return c
}

func (f *fakeEnrollmentStore) addStudent(id uint, email, username string) *model.User {
	u := &model.User{ID: id, Email: email, Username: username, Role: model.RoleStudent}
	f.students[id] = u
	return u
}

func (f *fakeEnrollmentStore) CourseByID(id uint) (*model.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeEnrollmentStore) CourseByCode(code string) (*model.Course, error) {
	for _, c := range f.courses {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeEnrollmentStore) StudentByID(id uint) (*model.User, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (f *fakeEnrollmentStore) EnrollmentExists(courseID uint, courseCode string, studentID uint) (bool, error) {
	for _, e := range f.enrollments {
		if e.StudentID == studentID && (e.CourseID == courseID || e.CourseCode == courseCode) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEnrollmentStore) CreateEnrollment(e *model.Enrollment) error {
	for _, existing := range f.enrollments {
		if existing.CourseID == e.CourseID && existing.StudentID == e.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextEnrollmentID++
	e.ID = f.nextEnrollmentID
	f.enrollments = append(f.enrollments, *e)
	return nil
}

func (f *fakeEnrollmentStore) CreateJoinRequest(r *model.JoinRequest) error {
	f.nextJoinRequestID++
	r.ID = f.nextJoinRequestID
	clone := *r
	f.joinRequests[r.ID] = &clone
	return nil
}

func (f *fakeEnrollmentStore) JoinRequestByID(id uint) (*model.JoinRequest, error) {
	r, ok := f.joinRequests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *r
	return &clone, nil
}

func (f *fakeEnrollmentStore) PendingJoinRequestExists(courseID, studentID uint) (bool, error) {
	for _, r := range f.joinRequests {
		if r.CourseID == courseID && r.StudentID == studentID && r.Status == model.JoinRequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEnrollmentStore) PendingJoinRequests(courseID uint) ([]model.JoinRequest, error) {
	var out []model.JoinRequest
	for id := uint(1); id <= f.nextJoinRequestID; id++ {
		r, ok := f.joinRequests[id]
		if ok && r.CourseID == courseID && r.Status == model.JoinRequestPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeEnrollmentStore) UpdateJoinRequestStatus(id uint, status string) error {
	r, ok := f.joinRequests[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.Status = status
	return nil
}

func (f *fakeEnrollmentStore) CreateInvitation(inv *model.Invitation) error {
	f.nextInvitationID++
	inv.ID = f.nextInvitationID
	clone := *inv
	f.invitations[inv.Token] = &clone
	return nil
}

func (f *fakeEnrollmentStore) InvitationByToken(token string) (*model.Invitation, error) {
	inv, ok := f.invitations[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *inv
	return &clone, nil
}

func (f *fakeEnrollmentStore) UpdateInvitation(inv *model.Invitation) error {
	if _, ok := f.invitations[inv.Token]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *inv
	f.invitations[inv.Token] = &clone
	return nil
}

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) SendInvitationEmail(to, studentName, courseName, token string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

func newTestService() (*EnrollmentService, *fakeEnrollmentStore, *fakeMailer) {
	store := newFakeStore()
	mailer := &fakeMailer{}
	return newEnrollmentServiceWithStore(store, mailer), store, mailer
}

func TestCreateJoinRequest(t *testing.T) {
	svc, store, _ := newTestService()
	store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)
	store.addStudent(20, "ana@example.com", "ana")

	req, err := svc.CreateJoinRequest(20, "IBX-7F2AK3Q")
	if err != nil {
		t.Fatalf("CreateJoinRequest: %v", err)
	}
	if req.Status != model.JoinRequestPending {
		t.Errorf("status = %q, want %q", req.Status, model.JoinRequestPending)
	}
	if req.CourseID != 1 || req.CourseCode != "IBX-7F2AK3Q" {
		t.Errorf("request references course %d/%q, want 1/IBX-7F2AK3Q", req.CourseID, req.CourseCode)
	}
}

func TestCreateJoinRequestUnknownCode(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateJoinRequest(20, "ZZZ-0000000")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("err = %v, want ErrCourseNotFound", err)
	}
}

func TestCreateJoinRequestDuplicatePending(t *testing.T) {
	svc, store, _ := newTestService()
	store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)

	if _, err := svc.CreateJoinRequest(20, "IBX-7F2AK3Q"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	_, err := svc.CreateJoinRequest(20, "IBX-7F2AK3Q")
	if !errors.Is(err, ErrPendingRequestExists) {
		t.Fatalf("err = %v, want ErrPendingRequestExists", err)
	}
}

func TestCreateJoinRequestAfterRejection(t *testing.T) {
	svc, store, _ := newTestService()
	store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)

	first, err := svc.CreateJoinRequest(20, "IBX-7F2AK3Q")
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := svc.RespondToJoinRequest(first.ID, ActionReject, 10); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// A rejected request does not block a new one.
	if _, err := svc.CreateJoinRequest(20, "IBX-7F2AK3Q"); err != nil {
		t.Fatalf("request after rejection: %v", err)
	}
}

func TestCreateJoinRequestAlreadyEnrolled(t *testing.T) {
	svc, store, _ := newTestService()
	store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)
	store.enrollments = append(store.enrollments, model.Enrollment{
		CourseID: 1, CourseCode: "IBX-7F2AK3Q", StudentID: 20,
	})

	_, err := svc.CreateJoinRequest(20, "IBX-7F2AK3Q")
	if !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("err = %v, want ErrAlreadyEnrolled", err)
	}
}

func TestCreateJoinRequestEnrolledByCodeOnly(t *testing.T) {
	svc, store, _ := newTestService()
	store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)
	// An enrollment written by an older call path references the course only
	// by its join code.
	store.enrollments = append(store.enrollments, model.Enrollment{
		CourseCode: "IBX-7F2AK3Q", StudentID: 20,
	})

	_, err := svc.CreateJoinRequest(20, "IBX-7F2AK3Q")
	if !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("err = %v, want ErrAlreadyEnrolled", err)
	}
}

func TestRespondToJoinRequestAccept(t *testing.T) {
	svc, store, _ := newTestService()
	store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)

	req, err := svc.CreateJoinRequest(20, "IBX-7F2AK3Q")
	if err != nil {
		t.Fatalf("CreateJoinRequest: %v", err)
	}

	result, err := svc.RespondToJoinRequest(req.ID, ActionAccept, 10)
	if err != nil {
		t.Fatalf("RespondToJoinRequest: %v", err)
	}
	if result != ResultAccepted {
		t.Errorf("result = %q, want %q", result, ResultAccepted)
	}
	if len(store.enrollments) != 1 {
		t.Fatalf("enrollments = %d, want 1", len(store.enrollments))
	}
	if store.joinRequests[req.ID].Status != model.JoinRequestAccepted {
		t.Errorf("request status = %q, want accepted", store.joinRequests[req.ID].Status)
	}
}

func TestRespondToJoinRequestAcceptIdempotent(t *testing.T) {
	svc, store, _ := newTestService()
	store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)

	req, err := svc.CreateJoinRequest(20, "IBX-7F2AK3Q")
	if err != nil {
		t.Fatalf("CreateJoinRequest: %v", err)
	}

	if _, err := svc.RespondToJoinRequest(req.ID, ActionAccept, 10); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	result, err := svc.RespondToJoinRequest(req.ID, ActionAccept, 10)
	if err != nil {
		t.Fatalf("second accept: %v", err)
	}
	if result != ResultAlreadyEnrolled {
		t.Errorf("second accept result = %q, want %q", result, ResultAlreadyEnrolled)
	}
	if len(store.enrollments) != 1 {
		t.Errorf("enrollments = %d, want exactly 1", len(store.enrollments))
	}
}

func TestRespondToJoinRequestReject(t *testing.T) {
	svc, store, _ := newTestService()
	store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)

	req, err := svc.CreateJoinRequest(20, "IBX-7F2AK3Q")
	if err != nil {
		t.Fatalf("CreateJoinRequest: %v", err)
	}

	result, err := svc.RespondToJoinRequest(req.ID, ActionReject, 10)
	if err != nil {
		t.Fatalf("RespondToJoinRequest: %v", err)
	}
	if result != ResultRejected {
		t.Errorf("result = %q, want %q", result, ResultRejected)
	}
	if len(store.enrollments) != 0 {
		t.Errorf("enrollments = %d, want 0", len(store.enrollments))
	}
}

func TestRespondToJoinRequestNotOwner(t *testing.T) {
	svc, store, _ := newTestService()
	store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)

	req, err := svc.CreateJoinRequest(20, "IBX-7F2AK3Q")
	if err != nil {
		t.Fatalf("CreateJoinRequest: %v", err)
	}

	_, err = svc.RespondToJoinRequest(req.ID, ActionAccept, 99)
	if !errors.Is(err, ErrNotCourseOwner) {
		t.Fatalf("err = %v, want ErrNotCourseOwner", err)
	}
	if store.joinRequests[req.ID].Status != model.JoinRequestPending {
		t.Errorf("request status changed by unauthorized respond")
	}
}

func TestRespondToJoinRequestInvalidAction(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.RespondToJoinRequest(1, "approve", 10)
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("err = %v, want ErrInvalidAction", err)
	}
}

func TestRespondToJoinRequestMissing(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.RespondToJoinRequest(42, ActionAccept, 10)
	if !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("err = %v, want ErrRequestNotFound", err)
	}
}

func TestListPendingJoinRequestsNotOwner(t *testing.T) {
	svc, store, _ := newTestService()
	store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)

	_, err := svc.ListPendingJoinRequests(1, 99)
	if !errors.Is(err, ErrNotCourseOwner) {
		t.Fatalf("err = %v, want ErrNotCourseOwner", err)
	}
}

func TestListPendingJoinRequestsOrder(t *testing.T) {
	svc, store, _ := newTestService()
	store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)

	for _, studentID := range []uint{20, 21, 22} {
		if _, err := svc.CreateJoinRequest(studentID, "IBX-7F2AK3Q"); err != nil {
			t.Fatalf("CreateJoinRequest(%d): %v", studentID, err)
		}
	}

	reqs, err := svc.ListPendingJoinRequests(1, 10)
	if err != nil {
		t.Fatalf("ListPendingJoinRequests: %v", err)
	}
	if len(reqs) != 3 {
		t.Fatalf("len = %d, want 3", len(reqs))
	}
	for i, want := range []uint{20, 21, 22} {
		if reqs[i].StudentID != want {
			t.Errorf("reqs[%d].StudentID = %d, want %d", i, reqs[i].StudentID, want)
		}
	}
}

func TestCreateInvitation(t *testing.T) {
	svc, store, mailer := newTestService()
	store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)
	store.addStudent(20, "ana@example.com", "ana")

	inv, err := svc.CreateInvitation(1, 20, 10)
	if err != nil {
		t.Fatalf("CreateInvitation: %v", err)
	}
	if inv.Token == "" {
		t.Error("invitation token is empty")
	}
	if inv.Status != model.InvitationPending {
		t.Errorf("status = %q, want pending", inv.Status)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "ana@example.com" {
		t.Errorf("mailer.sent = %v, want [ana@example.com]", mailer.sent)
	}
}

func TestCreateInvitationUnknownStudent(t *testing.T) {
	svc, store, _ := newTestService()
	store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)

	_, err := svc.CreateInvitation(1, 999, 10)
	if !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("err = %v, want ErrStudentNotFound", err)
	}
}

func TestCreateInvitationNotOwner(t *testing.T) {
	svc, store, mailer := newTestService()
	store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)
	store.addStudent(20, "ana@example.com", "ana")

	_, err := svc.CreateInvitation(1, 20, 99)
	if !errors.Is(err, ErrNotCourseOwner) {
		t.Fatalf("err = %v, want ErrNotCourseOwner", err)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("mail sent by unauthorized invite: %v", mailer.sent)
	}
}

func TestCreateInvitationDeliveryFailure(t *testing.T) {
	svc, store, mailer := newTestService()
	store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)
	store.addStudent(20, "ana@example.com", "ana")
	mailer.err = errors.New("smtp: connection refused")

	_, err := svc.CreateInvitation(1, 20, 10)
	if !errors.Is(err, ErrEmailDelivery) {
		t.Fatalf("err = %v, want ErrEmailDelivery", err)
	}
}

func TestRespondToInvitation(t *testing.T) {
	svc, store, _ := newTestService()
	store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)
	store.addStudent(20, "ana@example.com", "ana")

	inv, err := svc.CreateInvitation(1, 20, 10)
	if err != nil {
		t.Fatalf("CreateInvitation: %v", err)
	}

	updated, err := svc.RespondToInvitation(inv.Token, model.InvitationAccepted)
	if err != nil {
		t.Fatalf("RespondToInvitation: %v", err)
	}
	if updated.Status != model.InvitationAccepted {
		t.Errorf("status = %q, want accepted", updated.Status)
	}
	if updated.RespondedAt == nil {
		t.Error("RespondedAt not set")
	}

	// Accepting an invitation does not enroll the student; that still goes
	// through the join-request flow.
	if len(store.enrollments) != 0 {
		t.Errorf("enrollments = %d, want 0", len(store.enrollments))
	}
}

func TestRespondToInvitationTwice(t *testing.T) {
	svc, store, _ := newTestService()
	store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)
	store.addStudent(20, "ana@example.com", "ana")

	inv, err := svc.CreateInvitation(1, 20, 10)
	if err != nil {
		t.Fatalf("CreateInvitation: %v", err)
	}

	if _, err := svc.RespondToInvitation(inv.Token, model.InvitationDeclined); err != nil {
		t.Fatalf("first respond: %v", err)
	}
	_, err = svc.RespondToInvitation(inv.Token, model.InvitationAccepted)
	if !errors.Is(err, ErrInvitationResolved) {
		t.Fatalf("err = %v, want ErrInvitationResolved", err)
	}
	if store.invitations[inv.Token].Status != model.InvitationDeclined {
		t.Errorf("second respond overwrote the recorded answer")
	}
}

func TestRespondToInvitationInvalidResponse(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.RespondToInvitation("some-token", "maybe")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("err = %v, want ErrInvalidResponse", err)
	}
}

func TestRespondToInvitationUnknownToken(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.RespondToInvitation("missing", model.InvitationAccepted)
	if !errors.Is(err, ErrInvitationNotFound) {
		t.Fatalf("err = %v, want ErrInvitationNotFound", err)
	}
}

func TestAssertOwnsCourse(t *testing.T) {
	svc, store, _ := newTestService()
	course := store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)

	if err := svc.AssertOwnsCourse(course, 10); err != nil {
		t.Errorf("owner rejected: %v", err)
	}
	if err := svc.AssertOwnsCourse(course, 20); !errors.Is(err, ErrNotCourseOwner) {
		t.Errorf("err = %v, want ErrNotCourseOwner", err)
	}
}

func TestAssertEnrolledOrOwns(t *testing.T) {
	svc, store, _ := newTestService()
	course := store.addCourse(1, "Intro Biology", "IBX-7F2AK3Q", 10)
	store.enrollments = append(store.enrollments, model.Enrollment{
		CourseID: 1, CourseCode: "IBX-7F2AK3Q", StudentID: 20,
	})

	if err := svc.AssertEnrolledOrOwns(course, 10); err != nil {
		t.Errorf("owner rejected: %v", err)
	}
	if err := svc.AssertEnrolledOrOwns(course, 20); err != nil {
		t.Errorf("enrolled student rejected: %v", err)
	}
	if err := svc.AssertEnrolledOrOwns(course, 99); !errors.Is(err, ErrNotEnrolled) {
		t.Errorf("err = %v, want ErrNotEnrolled", err)
	}
}
