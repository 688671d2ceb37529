package enums

import "fmt"

// TaskSource records where a task originated.
type TaskSource string

const (
	TaskSourceManual      TaskSource = "manual"
	TaskSourceTemplate    TaskSource = "template"
	TaskSourceAISuggested TaskSource = "ai_suggested"
)

var validTaskSources = []TaskSource{
	TaskSourceManual,
	TaskSourceTemplate,
	TaskSourceAISuggested,
}

// String implements fmt.Stringer.
func (t TaskSource) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TaskSource.
func (t TaskSource) IsValid() bool {
	for _, candidate := range validTaskSources {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTaskSource converts raw input into a TaskSource.
func ParseTaskSource(value string) (TaskSource, error) {
	for _, candidate := range validTaskSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid task source %q", value)
}
