package coordinator

import (
	"context"

	"github.com/edvart/inhouse-scheduler/internal/mvp"
	"github.com/edvart/inhouse-scheduler/internal/roster"
	"github.com/edvart/inhouse-scheduler/internal/schedule"
	"github.com/edvart/inhouse-scheduler/internal/store"
)

// Command is the interface for all commands sent to the coordinator.
type Command interface {
	command() // marker method
}

// Reply carries the outcome of a command back to the sender.
type Reply[T any] struct {
	Value T
	Err   error
}

// NewResponse makes a reply channel that the coordinator can always write to without blocking.
func NewResponse[T any]() chan Reply[T] {
	return make(chan Reply[T], 1)
}

// Await waits for a command reply or for ctx to end.
func Await[T any](ctx context.Context, resp <-chan Reply[T]) (T, error) {
	select {
	case r := <-resp:
		return r.Value, r.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// CreatePoll starts a date poll from a comma separated list.
type CreatePoll struct {
	Dates    string
	Response chan Reply[schedule.PollResult]
}

func (CreatePoll) command() {}

// ToggleVote adds or removes a user's vote for a candidate date.
type ToggleVote struct {
	ScheduleID int64
	User       roster.Member
	Response   chan Reply[schedule.VoteResult]
}

func (ToggleVote) command() {}

// CloseVote confirms the leading date and makes it the active schedule.
type CloseVote struct {
	Response chan Reply[schedule.CloseResult]
}

func (CloseVote) command() {}

// SignUp adds a user to the active schedule.
type SignUp struct {
	User     roster.Member
	Response chan Reply[store.Participant]
}

func (SignUp) command() {}

// CancelSignUp removes a user from the active schedule.
type CancelSignUp struct {
	UserID   string
	Response chan Reply[bool]
}

func (CancelSignUp) command() {}

// AssignTeams splits the participants of the active schedule.
type AssignTeams struct {
	Response chan Reply[roster.Teams]
}

func (AssignTeams) command() {}

// AssignAdHoc splits a group of members that has no schedule.
type AssignAdHoc struct {
	Members  []roster.Member
	Response chan Reply[roster.Teams]
}

func (AssignAdHoc) command() {}

// RecordResult stores the winner of the active schedule.
type RecordResult struct {
	WinningTeam int
	Response    chan Reply[roster.MatchResult]
}

func (RecordResult) command() {}

// OpenBallot starts the MVP vote of the active schedule. A nil Config uses the defaults.
type OpenBallot struct {
	Config   *mvp.Config
	Response chan Reply[mvp.Ballot]
}

func (OpenBallot) command() {}

// CastMvpVote records one MVP vote on the active schedule.
type CastMvpVote struct {
	VoterID     string
	CandidateID string
	Response    chan Reply[mvp.CastResult]
}

func (CastMvpVote) command() {}

// CloseBallot ends the MVP vote of the active schedule.
type CloseBallot struct {
	Response chan Reply[[]mvp.TallyEntry]
}

func (CloseBallot) command() {}

// AwardDailyMVP records today's MVP across all matches.
type AwardDailyMVP struct {
	Response chan Reply[mvp.Award]
}

func (AwardDailyMVP) command() {}

// SyncMembers creates stats rows for every member of the community.
type SyncMembers struct {
	Members  []roster.Member
	Response chan Reply[int]
}

func (SyncMembers) command() {}

// GetSession returns the active schedule and its participants.
type GetSession struct {
	Response chan Reply[Session]
}

func (GetSession) command() {}

// GetTally returns the current MVP tally of the active schedule.
type GetTally struct {
	Response chan Reply[[]mvp.TallyEntry]
}

func (GetTally) command() {}
