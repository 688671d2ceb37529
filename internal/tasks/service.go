package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jordanmarch/upkeep-backend/internal/properties"
	"github.com/jordanmarch/upkeep-backend/pkg/db/models"
	"github.com/jordanmarch/upkeep-backend/pkg/enums"
	pkgerrors "github.com/jordanmarch/upkeep-backend/pkg/errors"
	"github.com/jordanmarch/upkeep-backend/pkg/logger"
)

type taskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Task, error)
	FindByProperties(ctx context.Context, propertyIDs []uuid.UUID) ([]models.Task, error)
	FindCompletedRecurring(ctx context.Context, limit int) ([]models.Task, error)
	HasSuccessor(ctx context.Context, task *models.Task) (bool, error)
	CountPendingOverdue(ctx context.Context, cutoff time.Time) (map[uuid.UUID]int64, error)
}

type propertyResolver interface {
	ResolvePermissions(ctx context.Context, userID, propertyID uuid.UUID) (properties.Permissions, error)
	ViewableIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Service exposes the task ledger operations.
type Service interface {
	ResolvePermissions(ctx context.Context, userID, propertyID uuid.UUID) (Permissions, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*TaskDTO, error)
	GetByID(ctx context.Context, userID, taskID uuid.UUID) (*TaskDTO, error)
	Complete(ctx context.Context, userID, taskID uuid.UUID) (*TaskDTO, error)
	CompleteAndAdvance(ctx context.Context, userID, taskID uuid.UUID) (*TaskDTO, *TaskDTO, error)
	Skip(ctx context.Context, userID, taskID uuid.UUID) (*TaskDTO, error)
	Reopen(ctx context.Context, userID, taskID uuid.UUID) (*TaskDTO, error)
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
	ListByProperty(ctx context.Context, userID, propertyID uuid.UUID) ([]TaskDTO, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]TaskDTO, error)
	OverdueFor(ctx context.Context, userID uuid.UUID) ([]TaskDTO, error)
	UpcomingFor(ctx context.Context, userID uuid.UUID, days int) ([]TaskDTO, error)
	SeasonalFor(ctx context.Context, userID uuid.UUID) ([]TaskDTO, error)
	ReconcileSuccessors(ctx context.Context, limit int) (int, error)
	OverdueCounts(ctx context.Context) (map[uuid.UUID]int64, error)
}

type service struct {
	repo  taskRepository
	props propertyResolver
	now   func() time.Time
	logg  *logger.Logger
}

// NewService builds the task ledger service. Permission checks delegate to
// the property registry through the resolver.
func NewService(repo taskRepository, props propertyResolver, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("task repository required")
	}
	if props == nil {
		return nil, fmt.Errorf("property resolver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, props: props, now: time.Now, logg: logg}, nil
}

func (s *service) ResolvePermissions(ctx context.Context, userID, propertyID uuid.UUID) (Permissions, error) {
	perms, err := s.props.ResolvePermissions(ctx, userID, propertyID)
	if err != nil {
		return NoPermissions(), err
	}
	return fromPropertyPermissions(perms), nil
}

// loadGuarded fetches the task and resolves the user's capabilities on its
// parent property. A missing task yields Forbidden so existence does not
// leak.
func (s *service) loadGuarded(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, Permissions, error) {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NoPermissions(), pkgerrors.New(pkgerrors.CodeForbidden, "task not accessible")
		}
		return nil, NoPermissions(), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load task")
	}

	perms, err := s.ResolvePermissions(ctx, userID, task.PropertyID)
	if err != nil {
		return nil, NoPermissions(), err
	}
	return task, perms, nil
}

func validateCreateInput(input CreateTaskInput) error {
	if input.PropertyID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "property_id is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.DueDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "due_date is required")
	}
	if input.Recurrence != nil {
		if !input.Recurrence.Freq.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid recurrence freq %q", input.Recurrence.Freq))
		}
		if input.Recurrence.Interval < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "recurrence interval must be a positive integer")
		}
	}
	if input.Source != nil && !input.Source.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid task source %q", *input.Source))
	}
	return nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*TaskDTO, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	perms, err := s.ResolvePermissions(ctx, userID, input.PropertyID)
	if err != nil {
		return nil, err
	}
	if !perms.CanCreate {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot create tasks on this property")
	}

	task := &models.Task{
		PropertyID:  input.PropertyID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		DueDate:     input.DueDate,
		Status:      enums.TaskStatusPending,
		Source:      enums.TaskSourceManual,
	}
	if input.Recurrence != nil {
		freq := input.Recurrence.Freq
		interval := input.Recurrence.Interval
		task.RecurrenceFreq = &freq
		task.RecurrenceInterval = &interval
	}
	if input.Seasonal != nil {
		task.Seasonal = *input.Seasonal
	}
	if input.Geolocated != nil {
		task.Geolocated = *input.Geolocated
	}
	if input.Source != nil {
		task.Source = *input.Source
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create task")
	}

	ctx = s.logg.WithTaskID(ctx, task.ID.String())
	s.logg.Info(ctx, "task created")
	return FromModel(task), nil
}

func (s *service) GetByID(ctx context.Context, userID, taskID uuid.UUID) (*TaskDTO, error) {
	task, perms, err := s.loadGuarded(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if !perms.CanView {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "task not accessible")
	}
	return FromModel(task), nil
}

// complete applies the completion transition. Re-completing an
// already-completed task is allowed and overwrites completed_by.
func (s *service) complete(ctx context.Context, userID uuid.UUID, task *models.Task) error {
	task.Status = enums.TaskStatusCompleted
	task.CompletedBy = &userID
	task.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, task); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete task")
	}
	return nil
}

func (s *service) Complete(ctx context.Context, userID, taskID uuid.UUID) (*TaskDTO, error) {
	task, perms, err := s.loadGuarded(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if !perms.CanEdit {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "task not editable")
	}
	if err := s.complete(ctx, userID, task); err != nil {
		return nil, err
	}
	return FromModel(task), nil
}

// spawnSuccessor creates the next occurrence from a completed recurring
// task, carrying over title, description, recurrence, source and flags.
// The successor records its predecessor's id so the reconciliation job can
// tell it apart from unrelated tasks that happen to share a title.
func (s *service) spawnSuccessor(ctx context.Context, task *models.Task) (*models.Task, error) {
	next, err := NextDueDate(task.DueDate, *task.RecurrenceFreq, *task.RecurrenceInterval)
	if err != nil {
		return nil, err
	}

	freq := *task.RecurrenceFreq
	interval := *task.RecurrenceInterval
	predecessorID := task.ID
	successor := &models.Task{
		PropertyID:         task.PropertyID,
		Title:              task.Title,
		Description:        task.Description,
		DueDate:            next,
		Status:             enums.TaskStatusPending,
		RecurrenceFreq:     &freq,
		RecurrenceInterval: &interval,
		PredecessorID:      &predecessorID,
		Seasonal:           task.Seasonal,
		Geolocated:         task.Geolocated,
		Source:             task.Source,
	}
	if err := s.repo.Create(ctx, successor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create successor task")
	}
	return successor, nil
}

// CompleteAndAdvance completes the task and, when it carries a recurrence
// rule, creates the next occurrence. The two writes are sequential with no
// atomicity: a step-two failure leaves the original completed and is
// reported with a step detail so callers can retry only the spawn.
func (s *service) CompleteAndAdvance(ctx context.Context, userID, taskID uuid.UUID) (*TaskDTO, *TaskDTO, error) {
	task, perms, err := s.loadGuarded(ctx, userID, taskID)
	if err != nil {
		return nil, nil, err
	}
	if !perms.CanEdit {
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, "task not editable")
	}

	if err := s.complete(ctx, userID, task); err != nil {
		return nil, nil, err
	}
	completed := FromModel(task)

	task, err = s.repo.FindByID(ctx, taskID)
	if err != nil {
		return completed, nil, s.spawnFailure(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload completed task"))
	}
	if !task.Recurring() {
		return completed, nil, nil
	}

	successor, err := s.spawnSuccessor(ctx, task)
	if err != nil {
		return completed, nil, s.spawnFailure(err)
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"task_id":      taskID.String(),
		"successor_id": successor.ID.String(),
	})
	s.logg.Info(ctx, "recurring task advanced")
	return completed, FromModel(successor), nil
}

// spawnFailure tags a step-two error so callers can tell a failed spawn
// apart from a failed completion.
func (s *service) spawnFailure(err error) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "spawn successor")
	}

	details := map[string]any{"step": "spawn_successor"}
	if existing, ok := typed.Details().(map[string]any); ok {
		for k, v := range existing {
			details[k] = v
		}
	}
	return typed.WithDetails(details)
}

func (s *service) Skip(ctx context.Context, userID, taskID uuid.UUID) (*TaskDTO, error) {
	task, perms, err := s.loadGuarded(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if !perms.CanEdit {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "task not editable")
	}

	task.Status = enums.TaskStatusSkipped
	task.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "skip task")
	}
	return FromModel(task), nil
}

// Reopen returns a completed or skipped task to pending and clears
// completed_by. Reopening an already-pending task is a harmless no-op write.
func (s *service) Reopen(ctx context.Context, userID, taskID uuid.UUID) (*TaskDTO, error) {
	task, perms, err := s.loadGuarded(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if !perms.CanEdit {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "task not editable")
	}

	task.Status = enums.TaskStatusPending
	task.CompletedBy = nil
	task.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reopen task")
	}
	return FromModel(task), nil
}

func (s *service) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	task, perms, err := s.loadGuarded(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if !perms.CanDelete {
		return pkgerrors.New(pkgerrors.CodeForbidden, "task not deletable")
	}

	if err := s.repo.Delete(ctx, task.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete task")
	}
	return nil
}

func sortByDueDate(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].DueDate.Before(tasks[j].DueDate)
	})
}

func (s *service) ListByProperty(ctx context.Context, userID, propertyID uuid.UUID) ([]TaskDTO, error) {
	perms, err := s.ResolvePermissions(ctx, userID, propertyID)
	if err != nil {
		return nil, err
	}
	if !perms.CanView {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "property not accessible")
	}

	tasks, err := s.repo.FindByProperty(ctx, propertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tasks")
	}
	sortByDueDate(tasks)
	return FromModels(tasks), nil
}

// viewableTasks fetches every task across the user's viewable properties.
// The store query stays coarse; predicate filtering happens on the caller's
// side.
func (s *service) viewableTasks(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	propertyIDs, err := s.props.ViewableIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repo.FindByProperties(ctx, propertyIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tasks")
	}
	return tasks, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]TaskDTO, error) {
	tasks, err := s.viewableTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	sortByDueDate(tasks)
	return FromModels(tasks), nil
}

func (s *service) OverdueFor(ctx context.Context, userID uuid.UUID) ([]TaskDTO, error) {
	tasks, err := s.viewableTasks(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	filtered := tasks[:0]
	for _, task := range tasks {
		if task.Status == enums.TaskStatusPending && task.DueDate.Before(now) {
			filtered = append(filtered, task)
		}
	}
	sortByDueDate(filtered)
	return FromModels(filtered), nil
}

func (s *service) UpcomingFor(ctx context.Context, userID uuid.UUID, days int) ([]TaskDTO, error) {
	if days < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "days must not be negative")
	}

	tasks, err := s.viewableTasks(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	horizon := now.AddDate(0, 0, days)
	filtered := tasks[:0]
	for _, task := range tasks {
		if task.Status != enums.TaskStatusPending {
			continue
		}
		if task.DueDate.Before(now) || task.DueDate.After(horizon) {
			continue
		}
		filtered = append(filtered, task)
	}
	sortByDueDate(filtered)
	return FromModels(filtered), nil
}

func (s *service) SeasonalFor(ctx context.Context, userID uuid.UUID) ([]TaskDTO, error) {
	tasks, err := s.viewableTasks(ctx, userID)
	if err != nil {
		return nil, err
	}

	filtered := tasks[:0]
	for _, task := range tasks {
		if task.Seasonal {
			filtered = append(filtered, task)
		}
	}
	sortByDueDate(filtered)
	return FromModels(filtered), nil
}

// ReconcileSuccessors repairs the gap left by a crash between the two
// CompleteAndAdvance writes: completed recurring tasks with no later
// occurrence get their successor spawned. Returns the number spawned.
func (s *service) ReconcileSuccessors(ctx context.Context, limit int) (int, error) {
	candidates, err := s.repo.FindCompletedRecurring(ctx, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list completed recurring tasks")
	}

	spawned := 0
	for i := range candidates {
		task := &candidates[i]
		has, err := s.repo.HasSuccessor(ctx, task)
		if err != nil {
			return spawned, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "probe successor")
		}
		if has {
			continue
		}

		successor, err := s.spawnSuccessor(ctx, task)
		if err != nil {
			typed := pkgerrors.As(err)
			if typed != nil && (typed.Code() == pkgerrors.CodeUnsupportedRecurrence || typed.Code() == pkgerrors.CodeInvalidDate) {
				s.logg.Warn(s.logg.WithTaskID(ctx, task.ID.String()), "skipping unreconcilable recurring task")
				continue
			}
			return spawned, err
		}
		spawned++
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"task_id":      task.ID.String(),
			"successor_id": successor.ID.String(),
		}), "missing successor spawned")
	}
	return spawned, nil
}

// OverdueCounts returns the number of pending-overdue tasks per property.
func (s *service) OverdueCounts(ctx context.Context) (map[uuid.UUID]int64, error) {
	counts, err := s.repo.CountPendingOverdue(ctx, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count overdue tasks")
	}
	return counts, nil
}
