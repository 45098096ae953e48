package enrollment

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/classdeck/classdeck/model"
	"github.com/classdeck/classdeck/services"
	"github.com/classdeck/classdeck/utils/middleware"
	"github.com/classdeck/classdeck/utils/validation"
)

// fakeWorkflow returns canned answers; only the invitation methods matter here.
type fakeWorkflow struct {
	inv *model.Invitation
	err error
}

func (f *fakeWorkflow) CreateJoinRequest(studentID uint, courseCode string) (*model.JoinRequest, error) {
	return nil, nil
}

func (f *fakeWorkflow) ListPendingJoinRequests(courseID, instructorID uint) ([]model.JoinRequest, error) {
	return nil, nil
}

func (f *fakeWorkflow) RespondToJoinRequest(requestID uint, action string, instructorID uint) (string, error) {
	return "", nil
}

func (f *fakeWorkflow) CreateInvitation(courseID, studentID, instructorID uint) (*model.Invitation, error) {
	return f.inv, f.err
}

func (f *fakeWorkflow) RespondToInvitation(token, resp string) (*model.Invitation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.inv, nil
}

// memAttemptStore is an in-memory middleware.AttemptStore; TTLs are recorded
// but never enforced, which is fine for single-shot tests.
type memAttemptStore struct {
	values map[string]string
	counts map[string]int64
}

func newMemAttemptStore() *memAttemptStore {
	return &memAttemptStore{
		values: make(map[string]string),
		counts: make(map[string]int64),
	}
}

func (m *memAttemptStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.values[key]
	return ok, nil
}

func (m *memAttemptStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return time.Minute, nil
}

func (m *memAttemptStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.values[key] = "1"
	return nil
}

func (m *memAttemptStore) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
		delete(m.counts, key)
	}
	return nil
}

func (m *memAttemptStore) Increment(ctx context.Context, key string) (int64, error) {
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memAttemptStore) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}

func newRespondApp(workflow *fakeWorkflow, store *memAttemptStore) *fiber.App {
	guard := middleware.NewBruteForceProtection(store)
	handler := &EnrollmentHandler{
		service:    workflow,
		validator:  validation.NewValidator(),
		bruteForce: guard,
	}

	app := fiber.New()
	app.Post("/invitations/respond", guard.CheckAttempt(), handler.RespondToInvitation)
	return app
}

func postRespond(t *testing.T, app *fiber.App, token string) int {
	t.Helper()
	body := `{"token": "` + token + `", "response": "accepted"}`
	req := httptest.NewRequest("POST", "/invitations/respond", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestRespondToInvitationLockoutAfterBadTokens(t *testing.T) {
	workflow := &fakeWorkflow{err: services.ErrInvitationNotFound}
	store := newMemAttemptStore()
	app := newRespondApp(workflow, store)

	for i := 0; i < 5; i++ {
		if status := postRespond(t, app, "guess"); status != fiber.StatusNotFound {
			t.Fatalf("attempt %d: status = %d, want 404", i+1, status)
		}
	}

	// The fifth failure triggers the lockout; the next attempt never reaches
	// the handler.
	if status := postRespond(t, app, "guess"); status != fiber.StatusTooManyRequests {
		t.Fatalf("locked-out attempt: status = %d, want 429", status)
	}
}

func TestRespondToInvitationSuccessClearsFailures(t *testing.T) {
	workflow := &fakeWorkflow{err: services.ErrInvitationNotFound}
	store := newMemAttemptStore()
	app := newRespondApp(workflow, store)

	for i := 0; i < 3; i++ {
		if status := postRespond(t, app, "guess"); status != fiber.StatusNotFound {
			t.Fatalf("attempt %d: status = %d, want 404", i+1, status)
		}
	}

	workflow.err = nil
	workflow.inv = &model.Invitation{Status: model.InvitationAccepted}
	if status := postRespond(t, app, "real-token"); status != fiber.StatusOK {
		t.Fatalf("valid respond: status = %d, want 200", status)
	}

	if len(store.counts) != 0 {
		t.Errorf("failure counter not cleared after success: %v", store.counts)
	}
}

func TestRespondToInvitationResolvedDoesNotCountAsFailure(t *testing.T) {
	workflow := &fakeWorkflow{err: services.ErrInvitationResolved}
	store := newMemAttemptStore()
	app := newRespondApp(workflow, store)

	// A valid token whose invitation is already resolved proves nothing about
	// guessing, so it must not feed the lockout.
	for i := 0; i < 6; i++ {
		if status := postRespond(t, app, "resolved-token"); status != fiber.StatusConflict {
			t.Fatalf("attempt %d: status = %d, want 409", i+1, status)
		}
	}
	if len(store.counts) != 0 {
		t.Errorf("resolved responses counted as failures: %v", store.counts)
	}
}
