package enums

import "fmt"

// RecurrenceFreq is the unit a recurring task's due date advances by.
type RecurrenceFreq string

const (
	RecurrenceFreqMonthly RecurrenceFreq = "monthly"
	RecurrenceFreqYearly  RecurrenceFreq = "yearly"
	RecurrenceFreqCustom  RecurrenceFreq = "custom"
)

var validRecurrenceFreqs = []RecurrenceFreq{
	RecurrenceFreqMonthly,
	RecurrenceFreqYearly,
	RecurrenceFreqCustom,
}

// String implements fmt.Stringer.
func (r RecurrenceFreq) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RecurrenceFreq.
func (r RecurrenceFreq) IsValid() bool {
	for _, candidate := range validRecurrenceFreqs {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRecurrenceFreq converts raw input into a RecurrenceFreq.
func ParseRecurrenceFreq(value string) (RecurrenceFreq, error) {
	for _, candidate := range validRecurrenceFreqs {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recurrence freq %q", value)
}
