package tasks

import (
	"fmt"
	"time"

	"github.com/jordanmarch/upkeep-backend/pkg/enums"
	pkgerrors "github.com/jordanmarch/upkeep-backend/pkg/errors"
)

// maxDueYear bounds successor due dates. Anything past this is treated as a
// computation gone wrong rather than a real schedule.
const maxDueYear = 9999

// NextDueDate computes the successor due date for a recurring task: monthly
// advances by interval calendar months, yearly by interval years, custom by
// interval days. Calendar overflow follows time.Time.AddDate normalization
// (Jan 31 + 1 month = Mar 2, or Mar 3 in a non-leap year), which is
// deterministic.
func NextDueDate(due time.Time, freq enums.RecurrenceFreq, interval int) (time.Time, error) {
	if interval < 1 {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "recurrence interval must be a positive integer")
	}

	var next time.Time
	switch freq {
	case enums.RecurrenceFreqMonthly:
		next = due.AddDate(0, interval, 0)
	case enums.RecurrenceFreqYearly:
		next = due.AddDate(interval, 0, 0)
	case enums.RecurrenceFreqCustom:
		next = due.AddDate(0, 0, interval)
	default:
		return time.Time{}, pkgerrors.
			New(pkgerrors.CodeUnsupportedRecurrence, fmt.Sprintf("unsupported recurrence frequency %q", freq)).
			WithDetails(map[string]any{"freq": string(freq)})
	}

	if !next.After(due) || next.Year() > maxDueYear {
		return time.Time{}, pkgerrors.
			New(pkgerrors.CodeInvalidDate, "computed due date is out of range").
			WithDetails(map[string]any{"computed": next.Format(time.RFC3339)})
	}
	return next, nil
}
