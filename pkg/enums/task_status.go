package enums

import "fmt"

// TaskStatus is the lifecycle state of a maintenance task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusSkipped   TaskStatus = "skipped"
)

var validTaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusCompleted,
	TaskStatusSkipped,
}

// String implements fmt.Stringer.
func (t TaskStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TaskStatus.
func (t TaskStatus) IsValid() bool {
	for _, candidate := range validTaskStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTaskStatus converts raw input into a TaskStatus.
func ParseTaskStatus(value string) (TaskStatus, error) {
	for _, candidate := range validTaskStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid task status %q", value)
}
