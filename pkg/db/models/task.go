package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jordanmarch/upkeep-backend/pkg/enums"
)

// Task is a maintenance task attached to a property. CompletedBy is non-nil
// exactly when Status is completed. RecurrenceFreq and RecurrenceInterval
// are set together or not at all. PredecessorID links a spawned occurrence
// back to the completed task it advanced from.
type Task struct {
	ID                 uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PropertyID         uuid.UUID             `gorm:"column:property_id;type:uuid;not null;index"`
	Title              string                `gorm:"column:title;not null"`
	Description        *string               `gorm:"column:description"`
	DueDate            time.Time             `gorm:"column:due_date;not null"`
	Status             enums.TaskStatus      `gorm:"column:status;type:task_status;not null;default:'pending'"`
	CompletedBy        *uuid.UUID            `gorm:"column:completed_by;type:uuid"`
	RecurrenceFreq     *enums.RecurrenceFreq `gorm:"column:recurrence_freq;type:recurrence_freq"`
	RecurrenceInterval *int                  `gorm:"column:recurrence_interval"`
	PredecessorID      *uuid.UUID            `gorm:"column:predecessor_id;type:uuid"`
	Seasonal           bool                  `gorm:"column:seasonal;not null;default:false"`
	Geolocated         bool                  `gorm:"column:geolocated;not null;default:false"`
	Source             enums.TaskSource      `gorm:"column:source;type:task_source;not null;default:'manual'"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// Recurring reports whether the task carries a recurrence rule.
func (t Task) Recurring() bool {
	return t.RecurrenceFreq != nil && t.RecurrenceInterval != nil
}
