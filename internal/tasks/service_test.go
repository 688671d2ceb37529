package tasks

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jordanmarch/upkeep-backend/internal/properties"
	"github.com/jordanmarch/upkeep-backend/pkg/db/models"
	"github.com/jordanmarch/upkeep-backend/pkg/enums"
	pkgerrors "github.com/jordanmarch/upkeep-backend/pkg/errors"
	"github.com/jordanmarch/upkeep-backend/pkg/logger"
)

type stubTaskRepo struct {
	tasks     map[uuid.UUID]*models.Task
	createErr error
	updateErr error
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{tasks: map[uuid.UUID]*models.Task{}}
}

func (r *stubTaskRepo) Create(_ context.Context, task *models.Task) error {
	if r.createErr != nil {
		return r.createErr
	}
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *task
	return &copied, nil
}

func (r *stubTaskRepo) Update(_ context.Context, task *models.Task) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *stubTaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.tasks, id)
	return nil
}

func (r *stubTaskRepo) FindByProperty(_ context.Context, propertyID uuid.UUID) ([]models.Task, error) {
	var out []models.Task
	for _, task := range r.tasks {
		if task.PropertyID == propertyID {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (r *stubTaskRepo) FindByProperties(_ context.Context, propertyIDs []uuid.UUID) ([]models.Task, error) {
	allowed := map[uuid.UUID]struct{}{}
	for _, id := range propertyIDs {
		allowed[id] = struct{}{}
	}
	var out []models.Task
	for _, task := range r.tasks {
		if _, ok := allowed[task.PropertyID]; ok {
			out = append(out, *task)
		}
	}
	return out, nil
}

func (r *stubTaskRepo) FindCompletedRecurring(_ context.Context, limit int) ([]models.Task, error) {
	var out []models.Task
	for _, task := range r.tasks {
		if task.Status == enums.TaskStatusCompleted && task.Recurring() {
			out = append(out, *task)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *stubTaskRepo) HasSuccessor(_ context.Context, task *models.Task) (bool, error) {
	for _, candidate := range r.tasks {
		if candidate.PredecessorID != nil && *candidate.PredecessorID == task.ID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubTaskRepo) CountPendingOverdue(_ context.Context, cutoff time.Time) (map[uuid.UUID]int64, error) {
	out := map[uuid.UUID]int64{}
	for _, task := range r.tasks {
		if task.Status == enums.TaskStatusPending && task.DueDate.Before(cutoff) {
			out[task.PropertyID]++
		}
	}
	return out, nil
}

// stubResolver maps user ids to a fixed property permission role.
type stubResolver struct {
	roles    map[uuid.UUID]enums.PermissionRole
	viewable []uuid.UUID
	err      error
}

func (s stubResolver) ResolvePermissions(_ context.Context, userID, _ uuid.UUID) (properties.Permissions, error) {
	if s.err != nil {
		return properties.NoPermissions(), s.err
	}
	switch s.roles[userID] {
	case enums.PermissionRoleOwner:
		return properties.Permissions{CanView: true, CanEdit: true, CanDelete: true, CanShare: true, Role: enums.PermissionRoleOwner}, nil
	case enums.PermissionRoleCollaborator:
		return properties.Permissions{CanView: true, CanEdit: true, Role: enums.PermissionRoleCollaborator}, nil
	case enums.PermissionRoleViewer:
		return properties.Permissions{CanView: true, Role: enums.PermissionRoleViewer}, nil
	default:
		return properties.NoPermissions(), nil
	}
}

func (s stubResolver) ViewableIDs(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return s.viewable, s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestService(t *testing.T, repo *stubTaskRepo, resolver stubResolver, now time.Time) Service {
	t.Helper()
	svc, err := NewService(repo, resolver, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.(*service).now = func() time.Time { return now }
	return svc
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func monthly(interval int) *RecurrenceDTO {
	return &RecurrenceDTO{Freq: enums.RecurrenceFreqMonthly, Interval: interval}
}

func TestResolvePermissionsViewerIsReadOnly(t *testing.T) {
	viewerID := uuid.New()
	svc := newTestService(t, newStubTaskRepo(), stubResolver{
		roles: map[uuid.UUID]enums.PermissionRole{viewerID: enums.PermissionRoleViewer},
	}, time.Now())

	perms, err := svc.ResolvePermissions(context.Background(), viewerID, uuid.New())
	if err != nil {
		t.Fatalf("resolve permissions: %v", err)
	}
	if !perms.CanView {
		t.Fatal("viewer must view")
	}
	if perms.CanCreate || perms.CanEdit || perms.CanDelete {
		t.Fatalf("viewer must be read-only, got %+v", perms)
	}
}

func TestResolvePermissionsCollaboratorGetsEverything(t *testing.T) {
	collaboratorID := uuid.New()
	svc := newTestService(t, newStubTaskRepo(), stubResolver{
		roles: map[uuid.UUID]enums.PermissionRole{collaboratorID: enums.PermissionRoleCollaborator},
	}, time.Now())

	perms, err := svc.ResolvePermissions(context.Background(), collaboratorID, uuid.New())
	if err != nil {
		t.Fatalf("resolve permissions: %v", err)
	}
	if !perms.CanView || !perms.CanCreate || !perms.CanEdit || !perms.CanDelete {
		t.Fatalf("collaborator must hold every task capability, got %+v", perms)
	}
}

func TestCreateDefaults(t *testing.T) {
	ownerID := uuid.New()
	propertyID := uuid.New()
	repo := newStubTaskRepo()
	svc := newTestService(t, repo, stubResolver{
		roles: map[uuid.UUID]enums.PermissionRole{ownerID: enums.PermissionRoleOwner},
	}, time.Now())

	dto, err := svc.Create(context.Background(), ownerID, CreateTaskInput{
		PropertyID: propertyID,
		Title:      "  Clean gutters  ",
		DueDate:    date(2024, time.March, 1),
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if dto.Title != "Clean gutters" {
		t.Fatalf("expected trimmed title, got %q", dto.Title)
	}
	if dto.Status != enums.TaskStatusPending {
		t.Fatalf("expected pending default, got %s", dto.Status)
	}
	if dto.CompletedBy != nil {
		t.Fatal("expected completed_by unset")
	}
	if dto.Seasonal || dto.Geolocated {
		t.Fatal("expected seasonal/geolocated false by default")
	}
	if dto.Source != enums.TaskSourceManual {
		t.Fatalf("expected manual source default, got %s", dto.Source)
	}
}

func TestCreateValidation(t *testing.T) {
	ownerID := uuid.New()
	svc := newTestService(t, newStubTaskRepo(), stubResolver{
		roles: map[uuid.UUID]enums.PermissionRole{ownerID: enums.PermissionRoleOwner},
	}, time.Now())

	cases := map[string]CreateTaskInput{
		"missing property": {Title: "x", DueDate: date(2024, time.March, 1)},
		"empty title":      {PropertyID: uuid.New(), Title: "   ", DueDate: date(2024, time.March, 1)},
		"missing due date": {PropertyID: uuid.New(), Title: "x"},
		"bad interval":     {PropertyID: uuid.New(), Title: "x", DueDate: date(2024, time.March, 1), Recurrence: monthly(0)},
	}
	for name, input := range cases {
		_, err := svc.Create(context.Background(), ownerID, input)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		expectCode(t, err, pkgerrors.CodeValidation)
	}
}

func TestCreateViewerForbidden(t *testing.T) {
	viewerID := uuid.New()
	svc := newTestService(t, newStubTaskRepo(), stubResolver{
		roles: map[uuid.UUID]enums.PermissionRole{viewerID: enums.PermissionRoleViewer},
	}, time.Now())

	_, err := svc.Create(context.Background(), viewerID, CreateTaskInput{
		PropertyID: uuid.New(),
		Title:      "Replace filter",
		DueDate:    date(2024, time.March, 1),
	})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestCompleteSetsStatusAndActor(t *testing.T) {
	ownerID := uuid.New()
	propertyID := uuid.New()
	repo := newStubTaskRepo()
	task := &models.Task{PropertyID: propertyID, Title: "Mow lawn", DueDate: date(2024, time.March, 1), Status: enums.TaskStatusPending}
	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	svc := newTestService(t, repo, stubResolver{
		roles: map[uuid.UUID]enums.PermissionRole{ownerID: enums.PermissionRoleOwner},
	}, time.Now())

	dto, err := svc.Complete(context.Background(), ownerID, task.ID)
	if err != nil {
		t.Fatalf("complete task: %v", err)
	}
	if dto.Status != enums.TaskStatusCompleted {
		t.Fatalf("expected completed, got %s", dto.Status)
	}
	if dto.CompletedBy == nil || *dto.CompletedBy != ownerID {
		t.Fatalf("expected completed_by %s, got %v", ownerID, dto.CompletedBy)
	}
}

func TestCompleteViewerForbidden(t *testing.T) {
	viewerID := uuid.New()
	repo := newStubTaskRepo()
	task := &models.Task{PropertyID: uuid.New(), Title: "Mow lawn", DueDate: date(2024, time.March, 1), Status: enums.TaskStatusPending}
	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	svc := newTestService(t, repo, stubResolver{
		roles: map[uuid.UUID]enums.PermissionRole{viewerID: enums.PermissionRoleViewer},
	}, time.Now())

	_, err := svc.Complete(context.Background(), viewerID, task.ID)
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestCompleteMissingTaskHidesExistence(t *testing.T) {
	ownerID := uuid.New()
	svc := newTestService(t, newStubTaskRepo(), stubResolver{
		roles: map[uuid.UUID]enums.PermissionRole{ownerID: enums.PermissionRoleOwner},
	}, time.Now())

	_, err := svc.Complete(context.Background(), ownerID, uuid.New())
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestCompleteAndAdvanceSpawnsSuccessor(t *testing.T) {
	ownerID := uuid.New()
	propertyID := uuid.New()
	repo := newStubTaskRepo()
	task := &models.Task{
		PropertyID: propertyID,
		Title:      "Service furnace",
		DueDate:    date(2024, time.January, 15),
		Status:     enums.TaskStatusPending,
	}
	freq := enums.RecurrenceFreqMonthly
	interval := 1
	task.RecurrenceFreq = &freq
	task.RecurrenceInterval = &interval
	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	svc := newTestService(t, repo, stubResolver{
		roles: map[uuid.UUID]enums.PermissionRole{ownerID: enums.PermissionRoleOwner},
	}, time.Now())

	completed, successor, err := svc.CompleteAndAdvance(context.Background(), ownerID, task.ID)
	if err != nil {
		t.Fatalf("complete and advance: %v", err)
	}
	if completed.Status != enums.TaskStatusCompleted {
		t.Fatalf("expected original completed, got %s", completed.Status)
	}
	if completed.CompletedBy == nil || *completed.CompletedBy != ownerID {
		t.Fatalf("expected completed_by %s, got %v", ownerID, completed.CompletedBy)
	}
	if successor == nil {
		t.Fatal("expected a successor")
	}
	if want := date(2024, time.February, 15); !successor.DueDate.Equal(want) {
		t.Fatalf("expected successor due %s, got %s", want, successor.DueDate)
	}
	if successor.Status != enums.TaskStatusPending {
		t.Fatalf("expected pending successor, got %s", successor.Status)
	}
	if successor.PropertyID != propertyID || successor.Title != task.Title {
		t.Fatalf("expected successor to carry property and title, got %+v", successor)
	}
	if successor.Recurrence == nil || successor.Recurrence.Freq != enums.RecurrenceFreqMonthly {
		t.Fatalf("expected recurrence carried over, got %+v", successor.Recurrence)
	}
	if successor.Predecessor == nil || *successor.Predecessor != task.ID {
		t.Fatalf("expected successor linked to %s, got %v", task.ID, successor.Predecessor)
	}
	if len(repo.tasks) != 2 {
		t.Fatalf("expected exactly two tasks, got %d", len(repo.tasks))
	}
}

func TestCompleteAndAdvanceWithoutRecurrence(t *testing.T) {
	ownerID := uuid.New()
	repo := newStubTaskRepo()
	task := &models.Task{PropertyID: uuid.New(), Title: "One-off", DueDate: date(2024, time.March, 1), Status: enums.TaskStatusPending}
	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	svc := newTestService(t, repo, stubResolver{
		roles: map[uuid.UUID]enums.PermissionRole{ownerID: enums.PermissionRoleOwner},
	}, time.Now())

	completed, successor, err := svc.CompleteAndAdvance(context.Background(), ownerID, task.ID)
	if err != nil {
		t.Fatalf("complete and advance: %v", err)
	}
	if completed.Status != enums.TaskStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
	if successor != nil {
		t.Fatalf("expected no successor, got %+v", successor)
	}
}

func TestCompleteAndAdvanceSpawnFailureKeepsCompletion(t *testing.T) {
	ownerID := uuid.New()
	repo := newStubTaskRepo()
	task := &models.Task{
		PropertyID: uuid.New(),
		Title:      "Service furnace",
		DueDate:    date(2024, time.January, 15),
		Status:     enums.TaskStatusPending,
	}
	freq := enums.RecurrenceFreqMonthly
	interval := 1
	task.RecurrenceFreq = &freq
	task.RecurrenceInterval = &interval
	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	svc := newTestService(t, repo, stubResolver{
		roles: map[uuid.UUID]enums.PermissionRole{ownerID: enums.PermissionRoleOwner},
	}, time.Now())

	repo.createErr = errors.New("store down")
	completed, successor, err := svc.CompleteAndAdvance(context.Background(), ownerID, task.ID)
	if err == nil {
		t.Fatal("expected spawn failure")
	}
	if completed == nil || completed.Status != enums.TaskStatusCompleted {
		t.Fatalf("expected original reported completed, got %+v", completed)
	}
	if successor != nil {
		t.Fatalf("expected no successor, got %+v", successor)
	}

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency code, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["step"] != "spawn_successor" {
		t.Fatalf("expected spawn_successor step detail, got %v", typed.Details())
	}

	stored, findErr := repo.FindByID(context.Background(), task.ID)
	if findErr != nil {
		t.Fatalf("reload original: %v", findErr)
	}
	if stored.Status != enums.TaskStatusCompleted {
		t.Fatalf("original must stay completed, got %s", stored.Status)
	}
}

func TestSkipAndReopen(t *testing.T) {
	ownerID := uuid.New()
	repo := newStubTaskRepo()
	task := &models.Task{PropertyID: uuid.New(), Title: "Mow lawn", DueDate: date(2024, time.March, 1), Status: enums.TaskStatusPending}
	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	svc := newTestService(t, repo, stubResolver{
		roles: map[uuid.UUID]enums.PermissionRole{ownerID: enums.PermissionRoleOwner},
	}, time.Now())

	skipped, err := svc.Skip(context.Background(), ownerID, task.ID)
	if err != nil {
		t.Fatalf("skip task: %v", err)
	}
	if skipped.Status != enums.TaskStatusSkipped {
		t.Fatalf("expected skipped, got %s", skipped.Status)
	}

	reopened, err := svc.Reopen(context.Background(), ownerID, task.ID)
	if err != nil {
		t.Fatalf("reopen task: %v", err)
	}
	if reopened.Status != enums.TaskStatusPending {
		t.Fatalf("expected pending, got %s", reopened.Status)
	}
	if reopened.CompletedBy != nil {
		t.Fatal("expected completed_by cleared")
	}
}

func TestReopenClearsCompletedBy(t *testing.T) {
	ownerID := uuid.New()
	repo := newStubTaskRepo()
	actor := uuid.New()
	task := &models.Task{
		PropertyID:  uuid.New(),
		Title:       "Mow lawn",
		DueDate:     date(2024, time.March, 1),
		Status:      enums.TaskStatusCompleted,
		CompletedBy: &actor,
	}
	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	svc := newTestService(t, repo, stubResolver{
		roles: map[uuid.UUID]enums.PermissionRole{ownerID: enums.PermissionRoleOwner},
	}, time.Now())

	reopened, err := svc.Reopen(context.Background(), ownerID, task.ID)
	if err != nil {
		t.Fatalf("reopen task: %v", err)
	}
	if reopened.Status != enums.TaskStatusPending || reopened.CompletedBy != nil {
		t.Fatalf("expected pending with cleared actor, got %+v", reopened)
	}

	// Reopening an already-pending task stays pending.
	again, err := svc.Reopen(context.Background(), ownerID, task.ID)
	if err != nil {
		t.Fatalf("reopen pending task: %v", err)
	}
	if again.Status != enums.TaskStatusPending || again.CompletedBy != nil {
		t.Fatalf("expected reopen to be idempotent, got %+v", again)
	}
}

func TestOverdueForFiltersAndSorts(t *testing.T) {
	userID := uuid.New()
	propertyID := uuid.New()
	now := date(2024, time.June, 1)
	repo := newStubTaskRepo()

	seed := []*models.Task{
		{PropertyID: propertyID, Title: "late-b", DueDate: date(2024, time.May, 20), Status: enums.TaskStatusPending},
		{PropertyID: propertyID, Title: "late-a", DueDate: date(2024, time.April, 1), Status: enums.TaskStatusPending},
		{PropertyID: propertyID, Title: "done", DueDate: date(2024, time.March, 1), Status: enums.TaskStatusCompleted},
		{PropertyID: propertyID, Title: "future", DueDate: date(2024, time.July, 1), Status: enums.TaskStatusPending},
		{PropertyID: propertyID, Title: "skipped", DueDate: date(2024, time.February, 1), Status: enums.TaskStatusSkipped},
	}
	for _, task := range seed {
		if err := repo.Create(context.Background(), task); err != nil {
			t.Fatalf("seed task: %v", err)
		}
	}
	svc := newTestService(t, repo, stubResolver{viewable: []uuid.UUID{propertyID}}, now)

	overdue, err := svc.OverdueFor(context.Background(), userID)
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(overdue) != 2 {
		t.Fatalf("expected 2 overdue tasks, got %d", len(overdue))
	}
	if overdue[0].Title != "late-a" || overdue[1].Title != "late-b" {
		t.Fatalf("expected ascending due-date order, got %s then %s", overdue[0].Title, overdue[1].Title)
	}
}

func TestUpcomingForWindow(t *testing.T) {
	userID := uuid.New()
	propertyID := uuid.New()
	now := date(2024, time.June, 1)
	repo := newStubTaskRepo()

	seed := []*models.Task{
		{PropertyID: propertyID, Title: "inside", DueDate: date(2024, time.June, 5), Status: enums.TaskStatusPending},
		{PropertyID: propertyID, Title: "edge", DueDate: date(2024, time.June, 8), Status: enums.TaskStatusPending},
		{PropertyID: propertyID, Title: "beyond", DueDate: date(2024, time.June, 20), Status: enums.TaskStatusPending},
		{PropertyID: propertyID, Title: "past", DueDate: date(2024, time.May, 20), Status: enums.TaskStatusPending},
	}
	for _, task := range seed {
		if err := repo.Create(context.Background(), task); err != nil {
			t.Fatalf("seed task: %v", err)
		}
	}
	svc := newTestService(t, repo, stubResolver{viewable: []uuid.UUID{propertyID}}, now)

	upcoming, err := svc.UpcomingFor(context.Background(), userID, 7)
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if len(upcoming) != 2 {
		t.Fatalf("expected 2 upcoming tasks, got %d", len(upcoming))
	}
	if upcoming[0].Title != "inside" || upcoming[1].Title != "edge" {
		t.Fatalf("unexpected window contents: %s, %s", upcoming[0].Title, upcoming[1].Title)
	}
}

func TestSeasonalFor(t *testing.T) {
	userID := uuid.New()
	propertyID := uuid.New()
	repo := newStubTaskRepo()

	seed := []*models.Task{
		{PropertyID: propertyID, Title: "winterize", DueDate: date(2024, time.October, 1), Status: enums.TaskStatusPending, Seasonal: true},
		{PropertyID: propertyID, Title: "mow", DueDate: date(2024, time.June, 1), Status: enums.TaskStatusPending},
	}
	for _, task := range seed {
		if err := repo.Create(context.Background(), task); err != nil {
			t.Fatalf("seed task: %v", err)
		}
	}
	svc := newTestService(t, repo, stubResolver{viewable: []uuid.UUID{propertyID}}, time.Now())

	seasonal, err := svc.SeasonalFor(context.Background(), userID)
	if err != nil {
		t.Fatalf("seasonal: %v", err)
	}
	if len(seasonal) != 1 || seasonal[0].Title != "winterize" {
		t.Fatalf("expected only the seasonal task, got %+v", seasonal)
	}
}

func TestReconcileSuccessorsSpawnsMissing(t *testing.T) {
	propertyID := uuid.New()
	repo := newStubTaskRepo()
	actor := uuid.New()
	freq := enums.RecurrenceFreqMonthly
	interval := 1

	orphan := &models.Task{
		PropertyID:         propertyID,
		Title:              "Service furnace",
		DueDate:            date(2024, time.January, 15),
		Status:             enums.TaskStatusCompleted,
		CompletedBy:        &actor,
		RecurrenceFreq:     &freq,
		RecurrenceInterval: &interval,
	}
	// Same title and a later due date, but not spawned from the orphan.
	// Its presence must not hide the missing successor.
	lookalike := &models.Task{
		PropertyID: propertyID,
		Title:      "Service furnace",
		DueDate:    date(2024, time.March, 1),
		Status:     enums.TaskStatusPending,
	}
	healthy := &models.Task{
		PropertyID:         propertyID,
		Title:              "Check smoke alarms",
		DueDate:            date(2024, time.January, 1),
		Status:             enums.TaskStatusCompleted,
		CompletedBy:        &actor,
		RecurrenceFreq:     &freq,
		RecurrenceInterval: &interval,
	}
	for _, task := range []*models.Task{orphan, lookalike, healthy} {
		if err := repo.Create(context.Background(), task); err != nil {
			t.Fatalf("seed task: %v", err)
		}
	}
	healthySuccessor := &models.Task{
		PropertyID:    propertyID,
		Title:         "Check smoke alarms",
		DueDate:       date(2024, time.February, 1),
		Status:        enums.TaskStatusPending,
		PredecessorID: &healthy.ID,
	}
	if err := repo.Create(context.Background(), healthySuccessor); err != nil {
		t.Fatalf("seed successor: %v", err)
	}
	svc := newTestService(t, repo, stubResolver{}, time.Now())

	spawned, err := svc.ReconcileSuccessors(context.Background(), 100)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if spawned != 1 {
		t.Fatalf("expected 1 spawned successor, got %d", spawned)
	}
	if len(repo.tasks) != 5 {
		t.Fatalf("expected 5 tasks after reconcile, got %d", len(repo.tasks))
	}

	var found bool
	for _, task := range repo.tasks {
		if task.PredecessorID != nil && *task.PredecessorID == orphan.ID {
			found = true
			if want := date(2024, time.February, 15); !task.DueDate.Equal(want) {
				t.Fatalf("expected successor due %s, got %s", want, task.DueDate)
			}
			if task.Status != enums.TaskStatusPending {
				t.Fatalf("expected pending successor, got %s", task.Status)
			}
		}
	}
	if !found {
		t.Fatal("expected orphan's successor to exist")
	}
}

func TestEndToEndOwnerAndViewer(t *testing.T) {
	ownerID := uuid.New()
	viewerID := uuid.New()
	propertyID := uuid.New()
	repo := newStubTaskRepo()
	svc := newTestService(t, repo, stubResolver{
		roles: map[uuid.UUID]enums.PermissionRole{
			ownerID:  enums.PermissionRoleOwner,
			viewerID: enums.PermissionRoleViewer,
		},
		viewable: []uuid.UUID{propertyID},
	}, time.Now())

	// Viewer can read tasks on the shared property but cannot create one.
	if _, err := svc.ListByProperty(context.Background(), viewerID, propertyID); err != nil {
		t.Fatalf("viewer list: %v", err)
	}
	_, err := svc.Create(context.Background(), viewerID, CreateTaskInput{
		PropertyID: propertyID, Title: "Paint fence", DueDate: date(2024, time.March, 1),
	})
	expectCode(t, err, pkgerrors.CodeForbidden)

	created, err := svc.Create(context.Background(), ownerID, CreateTaskInput{
		PropertyID: propertyID,
		Title:      "Inspect roof",
		DueDate:    date(2024, time.March, 1),
		Recurrence: monthly(1),
	})
	if err != nil {
		t.Fatalf("owner create: %v", err)
	}

	_, successor, err := svc.CompleteAndAdvance(context.Background(), ownerID, created.ID)
	if err != nil {
		t.Fatalf("owner advance: %v", err)
	}
	if successor == nil || !successor.DueDate.Equal(date(2024, time.April, 1)) {
		t.Fatalf("expected successor due 2024-04-01, got %+v", successor)
	}
	if successor.Status != enums.TaskStatusPending {
		t.Fatalf("expected pending successor, got %s", successor.Status)
	}

	// Viewer still cannot modify the successor.
	_, err = svc.Complete(context.Background(), viewerID, successor.ID)
	expectCode(t, err, pkgerrors.CodeForbidden)
}
