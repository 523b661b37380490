package mvp

import "errors"

var (
	ErrScheduleNotFound    = errors.New("schedule not found")
	ErrNoMatchResult       = errors.New("no match result recorded yet")
	ErrBallotExists        = errors.New("mvp vote already started for this match")
	ErrBallotNotOpen       = errors.New("mvp vote is not open")
	ErrNotParticipant      = errors.New("only participants of the match can vote")
	ErrIneligibleCandidate = errors.New("candidate cannot receive your vote")
	ErrQuotaExceeded       = errors.New("all votes have been used")
	ErrInvalidQuota        = errors.New("vote quotas must not be negative")
	ErrNoBallotsToday      = errors.New("no mvp votes were cast today")
)
