package tasks

import (
	"time"

	"github.com/google/uuid"

	"github.com/jordanmarch/upkeep-backend/pkg/db/models"
	"github.com/jordanmarch/upkeep-backend/pkg/enums"
)

// RecurrenceDTO pairs a frequency with its interval. Present as a whole or
// not at all.
type RecurrenceDTO struct {
	Freq     enums.RecurrenceFreq `json:"freq"`
	Interval int                  `json:"interval"`
}

// TaskDTO is the transport shape for a maintenance task.
type TaskDTO struct {
	ID          uuid.UUID        `json:"id"`
	PropertyID  uuid.UUID        `json:"property_id"`
	Title       string           `json:"title"`
	Description *string          `json:"description,omitempty"`
	DueDate     time.Time        `json:"due_date"`
	Status      enums.TaskStatus `json:"status"`
	CompletedBy *uuid.UUID       `json:"completed_by,omitempty"`
	Recurrence  *RecurrenceDTO   `json:"recurrence,omitempty"`
	Predecessor *uuid.UUID       `json:"predecessor_id,omitempty"`
	Seasonal    bool             `json:"seasonal"`
	Geolocated  bool             `json:"geolocated"`
	Source      enums.TaskSource `json:"source"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CreateTaskInput captures the data needed to record a task.
type CreateTaskInput struct {
	PropertyID  uuid.UUID
	Title       string
	Description *string
	DueDate     time.Time
	Recurrence  *RecurrenceDTO
	Seasonal    *bool
	Geolocated  *bool
	Source      *enums.TaskSource
}

// FromModel converts a stored task into its DTO.
func FromModel(task *models.Task) *TaskDTO {
	if task == nil {
		return nil
	}

	var recurrence *RecurrenceDTO
	if task.Recurring() {
		recurrence = &RecurrenceDTO{Freq: *task.RecurrenceFreq, Interval: *task.RecurrenceInterval}
	}

	return &TaskDTO{
		ID:          task.ID,
		PropertyID:  task.PropertyID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Status:      task.Status,
		CompletedBy: task.CompletedBy,
		Recurrence:  recurrence,
		Predecessor: task.PredecessorID,
		Seasonal:    task.Seasonal,
		Geolocated:  task.Geolocated,
		Source:      task.Source,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// FromModels converts a task slice, preserving order.
func FromModels(tasks []models.Task) []TaskDTO {
	out := make([]TaskDTO, 0, len(tasks))
	for i := range tasks {
		out = append(out, *FromModel(&tasks[i]))
	}
	return out
}
