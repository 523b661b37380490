package roster

import "errors"

var (
	ErrScheduleNotFound         = errors.New("schedule not found")
	ErrScheduleNotOpen          = errors.New("schedule is not open for sign-ups")
	ErrAlreadyFull              = errors.New("session is already full")
	ErrDuplicateSignUp          = errors.New("already signed up")
	ErrNotSignedUp              = errors.New("not signed up")
	ErrInsufficientParticipants = errors.New("not enough participants to split teams")
	ErrInvalidTeam              = errors.New("team must be 1 or 2")
	ErrTeamsNotAssigned         = errors.New("teams have not been assigned")
	ErrDuplicateResult          = errors.New("match result already recorded")
)
