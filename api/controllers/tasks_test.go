package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jordanmarch/upkeep-backend/api/middleware"
	"github.com/jordanmarch/upkeep-backend/internal/tasks"
	"github.com/jordanmarch/upkeep-backend/pkg/enums"
	pkgerrors "github.com/jordanmarch/upkeep-backend/pkg/errors"
	"github.com/jordanmarch/upkeep-backend/pkg/types"
)

type stubTaskService struct {
	completed *tasks.TaskDTO
	successor *tasks.TaskDTO
	created   *tasks.TaskDTO
	err       error

	gotUser  uuid.UUID
	gotTask  uuid.UUID
	gotDays  int
	gotInput tasks.CreateTaskInput
}

func (s *stubTaskService) ResolvePermissions(context.Context, uuid.UUID, uuid.UUID) (tasks.Permissions, error) {
	return tasks.NoPermissions(), nil
}

func (s *stubTaskService) Create(_ context.Context, userID uuid.UUID, input tasks.CreateTaskInput) (*tasks.TaskDTO, error) {
	s.gotUser = userID
	s.gotInput = input
	return s.created, s.err
}

func (s *stubTaskService) GetByID(_ context.Context, userID, taskID uuid.UUID) (*tasks.TaskDTO, error) {
	s.gotUser = userID
	s.gotTask = taskID
	return s.completed, s.err
}

func (s *stubTaskService) Complete(_ context.Context, userID, taskID uuid.UUID) (*tasks.TaskDTO, error) {
	s.gotUser = userID
	s.gotTask = taskID
	return s.completed, s.err
}

func (s *stubTaskService) CompleteAndAdvance(_ context.Context, userID, taskID uuid.UUID) (*tasks.TaskDTO, *tasks.TaskDTO, error) {
	s.gotUser = userID
	s.gotTask = taskID
	return s.completed, s.successor, s.err
}

func (s *stubTaskService) Skip(_ context.Context, userID, taskID uuid.UUID) (*tasks.TaskDTO, error) {
	s.gotUser = userID
	s.gotTask = taskID
	return s.completed, s.err
}

func (s *stubTaskService) Reopen(_ context.Context, userID, taskID uuid.UUID) (*tasks.TaskDTO, error) {
	s.gotUser = userID
	s.gotTask = taskID
	return s.completed, s.err
}

func (s *stubTaskService) Delete(_ context.Context, userID, taskID uuid.UUID) error {
	s.gotUser = userID
	s.gotTask = taskID
	return s.err
}

func (s *stubTaskService) ListByProperty(context.Context, uuid.UUID, uuid.UUID) ([]tasks.TaskDTO, error) {
	return nil, s.err
}

func (s *stubTaskService) ListByUser(context.Context, uuid.UUID) ([]tasks.TaskDTO, error) {
	return nil, s.err
}

func (s *stubTaskService) OverdueFor(context.Context, uuid.UUID) ([]tasks.TaskDTO, error) {
	return nil, s.err
}

func (s *stubTaskService) UpcomingFor(_ context.Context, userID uuid.UUID, days int) ([]tasks.TaskDTO, error) {
	s.gotUser = userID
	s.gotDays = days
	return nil, s.err
}

func (s *stubTaskService) SeasonalFor(context.Context, uuid.UUID) ([]tasks.TaskDTO, error) {
	return nil, s.err
}

func (s *stubTaskService) ReconcileSuccessors(context.Context, int) (int, error) {
	return 0, s.err
}

func (s *stubTaskService) OverdueCounts(context.Context) (map[uuid.UUID]int64, error) {
	return nil, s.err
}

func authedRequest(method, target string, body []byte, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, http.NoBody)
	}
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

func TestTaskCompleteReturnsSuccessor(t *testing.T) {
	userID := uuid.New()
	taskID := uuid.New()
	svc := &stubTaskService{
		completed: &tasks.TaskDTO{ID: taskID, Status: enums.TaskStatusCompleted},
		successor: &tasks.TaskDTO{ID: uuid.New(), Status: enums.TaskStatusPending},
	}

	router := chi.NewRouter()
	router.Post("/tasks/{taskId}/complete", TaskComplete(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(http.MethodPost, "/tasks/"+taskID.String()+"/complete", nil, userID))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotUser != userID || svc.gotTask != taskID {
		t.Fatal("expected actor and task forwarded to the service")
	}

	var envelope struct {
		Data taskCompleteResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Completed == nil || envelope.Data.Completed.Status != enums.TaskStatusCompleted {
		t.Fatalf("expected completed task in payload, got %+v", envelope.Data.Completed)
	}
	if envelope.Data.Successor == nil || envelope.Data.Successor.Status != enums.TaskStatusPending {
		t.Fatalf("expected pending successor in payload, got %+v", envelope.Data.Successor)
	}
}

func TestTaskCompleteRequiresAuthContext(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/tasks/{taskId}/complete", TaskComplete(&stubTaskService{}, nil))

	req := httptest.NewRequest(http.MethodPost, "/tasks/"+uuid.NewString()+"/complete", http.NoBody)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestTaskCreateParsesRecurrence(t *testing.T) {
	userID := uuid.New()
	propertyID := uuid.New()
	svc := &stubTaskService{created: &tasks.TaskDTO{ID: uuid.New()}}

	body, _ := json.Marshal(map[string]any{
		"property_id": propertyID.String(),
		"title":       "Service furnace",
		"due_date":    time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		"recurrence":  map[string]any{"freq": "monthly", "interval": 2},
	})

	router := chi.NewRouter()
	router.Post("/tasks", TaskCreate(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(http.MethodPost, "/tasks", body, userID))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.gotInput.PropertyID != propertyID {
		t.Fatalf("expected property %s got %s", propertyID, svc.gotInput.PropertyID)
	}
	if svc.gotInput.Recurrence == nil || svc.gotInput.Recurrence.Freq != enums.RecurrenceFreqMonthly || svc.gotInput.Recurrence.Interval != 2 {
		t.Fatalf("expected monthly/2 recurrence, got %+v", svc.gotInput.Recurrence)
	}
}

func TestTaskCreateRejectsUnknownFields(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/tasks", TaskCreate(&stubTaskService{}, nil))

	body := []byte(`{"property_id":"` + uuid.NewString() + `","title":"x","due_date":"2026-09-01T00:00:00Z","bogus":true}`)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(http.MethodPost, "/tasks", body, uuid.New()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestTaskCompleteSurfacesSpawnFailure(t *testing.T) {
	svc := &stubTaskService{
		err: pkgerrors.New(pkgerrors.CodeDependency, "write successor").
			WithDetails(map[string]any{"step": "spawn_successor"}),
	}
	router := chi.NewRouter()
	router.Post("/tasks/{taskId}/complete", TaskComplete(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(http.MethodPost, "/tasks/"+uuid.NewString()+"/complete", nil, uuid.New()))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}

	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	details, ok := envelope.Error.Details.(map[string]any)
	if !ok || details["step"] != "spawn_successor" {
		t.Fatalf("expected spawn step detail, got %v", envelope.Error.Details)
	}
}

func TestTasksUpcomingValidatesDays(t *testing.T) {
	svc := &stubTaskService{}
	router := chi.NewRouter()
	router.Get("/tasks/upcoming", TasksUpcoming(svc, nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(http.MethodGet, "/tasks/upcoming?days=0", nil, uuid.New()))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range days, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authedRequest(http.MethodGet, "/tasks/upcoming", nil, uuid.New()))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotDays != defaultUpcomingDays {
		t.Fatalf("expected default window %d, got %d", defaultUpcomingDays, svc.gotDays)
	}
}
