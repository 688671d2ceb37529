package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jordanmarch/upkeep-backend/api/responses"
	"github.com/jordanmarch/upkeep-backend/api/validators"
	"github.com/jordanmarch/upkeep-backend/internal/tasks"
	"github.com/jordanmarch/upkeep-backend/pkg/enums"
	pkgerrors "github.com/jordanmarch/upkeep-backend/pkg/errors"
	"github.com/jordanmarch/upkeep-backend/pkg/logger"
)

const (
	defaultUpcomingDays = 30
	maxUpcomingDays     = 365
)

type taskRecurrenceRequest struct {
	Freq     string `json:"freq" validate:"required"`
	Interval int    `json:"interval" validate:"required,gte=1"`
}

type taskCreateRequest struct {
	PropertyID  string                 `json:"property_id" validate:"required"`
	Title       string                 `json:"title" validate:"required,min=1"`
	Description *string                `json:"description,omitempty"`
	DueDate     time.Time              `json:"due_date" validate:"required"`
	Recurrence  *taskRecurrenceRequest `json:"recurrence,omitempty"`
	Seasonal    *bool                  `json:"seasonal,omitempty"`
	Geolocated  *bool                  `json:"geolocated,omitempty"`
	Source      *string                `json:"source,omitempty"`
}

func (r taskCreateRequest) toInput() (tasks.CreateTaskInput, error) {
	propertyID, err := uuid.Parse(strings.TrimSpace(r.PropertyID))
	if err != nil {
		return tasks.CreateTaskInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid property id")
	}

	input := tasks.CreateTaskInput{
		PropertyID:  propertyID,
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		DueDate:     r.DueDate,
		Seasonal:    r.Seasonal,
		Geolocated:  r.Geolocated,
	}

	if r.Recurrence != nil {
		freq, err := enums.ParseRecurrenceFreq(r.Recurrence.Freq)
		if err != nil {
			return tasks.CreateTaskInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid recurrence freq")
		}
		input.Recurrence = &tasks.RecurrenceDTO{Freq: freq, Interval: r.Recurrence.Interval}
	}

	if r.Source != nil {
		source, err := enums.ParseTaskSource(*r.Source)
		if err != nil {
			return tasks.CreateTaskInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid task source")
		}
		input.Source = &source
	}

	return input, nil
}

// TaskCreate adds a task to a property the user can edit.
func TaskCreate(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "task service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload taskCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		task, err := svc.Create(r.Context(), uid, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, task)
	}
}

// TaskDetail returns one task the user can view.
func TaskDetail(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "task service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		taskID, err := pathUUID(r, "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		task, err := svc.GetByID(r.Context(), uid, taskID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, task)
	}
}

type taskCompleteResponse struct {
	Completed *tasks.TaskDTO `json:"completed"`
	Successor *tasks.TaskDTO `json:"successor,omitempty"`
}

// TaskComplete marks the task done and, for recurring tasks, spawns the next
// occurrence. When the successor cannot be written the completion still
// stands and the error names the failed step.
func TaskComplete(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "task service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		taskID, err := pathUUID(r, "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		completed, successor, err := svc.CompleteAndAdvance(r.Context(), uid, taskID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, taskCompleteResponse{Completed: completed, Successor: successor})
	}
}

// TaskSkip marks the task skipped without spawning a successor.
func TaskSkip(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "task service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		taskID, err := pathUUID(r, "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		task, err := svc.Skip(r.Context(), uid, taskID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, task)
	}
}

// TaskReopen returns a completed or skipped task to pending.
func TaskReopen(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "task service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		taskID, err := pathUUID(r, "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		task, err := svc.Reopen(r.Context(), uid, taskID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, task)
	}
}

// TaskDelete removes the task.
func TaskDelete(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "task service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		taskID, err := pathUUID(r, "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), uid, taskID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// TasksByProperty lists a property's tasks, soonest due first.
func TasksByProperty(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "task service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		propertyID, err := pathUUID(r, "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByProperty(r.Context(), uid, propertyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// TasksForUser lists tasks across every property the user can view.
func TasksForUser(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "task service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByUser(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// TasksOverdue lists pending tasks past their due date.
func TasksOverdue(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "task service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.OverdueFor(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// TasksUpcoming lists pending tasks due within the requested window.
func TasksUpcoming(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "task service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		days, err := validators.ParseQueryInt(r, "days", defaultUpcomingDays, 1, maxUpcomingDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.UpcomingFor(r.Context(), uid, days)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// TasksSeasonal lists tasks flagged seasonal across viewable properties.
func TasksSeasonal(svc tasks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "task service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.SeasonalFor(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}
