package schedule

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoActivePoll     = errors.New("no poll is currently open")
	ErrPollClosed       = errors.New("voting for this date is closed")
	ErrScheduleNotFound = errors.New("schedule not found")
)

// ValidationError is returned by CreatePoll when none of the given dates is valid.
type ValidationError struct {
	Invalid []string
}

func (e *ValidationError) Error() string {
	if len(e.Invalid) == 0 {
		return "no dates given, expected YYYY-MM-DD"
	}
	return fmt.Sprintf("invalid dates %s, expected YYYY-MM-DD", strings.Join(e.Invalid, ", "))
}
