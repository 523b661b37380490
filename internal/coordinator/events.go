package coordinator

import (
	"github.com/edvart/inhouse-scheduler/internal/mvp"
	"github.com/edvart/inhouse-scheduler/internal/roster"
	"github.com/edvart/inhouse-scheduler/internal/store"
)

type Event interface {
	event() // marker method
}

type PollCreated struct {
	Schedules []store.Schedule
	Invalid   []string
}

func (PollCreated) event() {}

type VoteToggled struct {
	ScheduleID int64
	Count      int
}

func (VoteToggled) event() {}

type PollClosed struct {
	Winner store.Standing
	Losers []store.Standing
	Voters []store.Vote
}

func (PollClosed) event() {}

type ParticipantsUpdated struct {
	ScheduleID     int64
	Participants   []store.Participant
	TeamsDiscarded bool
}

func (ParticipantsUpdated) event() {}

type TeamsAssigned struct {
	Teams roster.Teams
	AdHoc bool
}

func (TeamsAssigned) event() {}

type MatchRecorded struct {
	ScheduleID  int64
	WinningTeam int
}

func (MatchRecorded) event() {}

type BallotOpened struct {
	Ballot mvp.Ballot
}

func (BallotOpened) event() {}

type BallotClosed struct {
	ScheduleID int64
	Tally      []mvp.TallyEntry
}

func (BallotClosed) event() {}

type DailyMVPAwarded struct {
	Award mvp.Award
}

func (DailyMVPAwarded) event() {}
