package coordinator

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/edvart/inhouse-scheduler/internal/mvp"
	"github.com/edvart/inhouse-scheduler/internal/roster"
	"github.com/edvart/inhouse-scheduler/internal/schedule"
	"github.com/edvart/inhouse-scheduler/internal/store"
)

// ErrNoActiveSchedule is returned by commands that act on the active schedule when none is set.
var ErrNoActiveSchedule = errors.New("no confirmed session")

// Engines bundles the domain engines the coordinator drives.
type Engines struct {
	Schedule *schedule.Engine
	Roster   *roster.Engine
	MVP      *mvp.Engine
}

// Coordinator owns the active schedule and processes commands sequentially.
type Coordinator struct {
	commands chan Command
	store    store.Store
	engines  Engines
	state    *State

	mu          sync.RWMutex
	subscribers []chan Event
}

// New creates a coordinator and restores the active schedule from the store.
func New(ctx context.Context, s store.Store, engines Engines) (*Coordinator, error) {
	state, err := LoadState(ctx, s)
	if err != nil {
		return nil, err
	}
	if state.HasActive {
		log.WithField("schedule", state.ActiveScheduleID).Info("Resuming active schedule")
	}
	return &Coordinator{
		commands: make(chan Command, 100),
		store:    s,
		engines:  engines,
		state:    state,
	}, nil
}

// Send submits a command to the coordinator.
func (c *Coordinator) Send(cmd Command) {
	c.commands <- cmd
}

// Subscribe creates a new event channel for a consumer.
// The returned channel will receive all events emitted by the coordinator.
func (c *Coordinator) Subscribe() <-chan Event {
	ch := make(chan Event, 100)
	c.mu.Lock()
	c.subscribers = append(c.subscribers, ch)
	c.mu.Unlock()
	return ch
}

// Run starts the coordinator loop. It blocks until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	log.Info("Coordinator started")
	for {
		select {
		case <-ctx.Done():
			log.Info("Coordinator shutting down")
			return
		case cmd := <-c.commands:
			c.handleCommand(ctx, cmd)
		}
	}
}

func (c *Coordinator) emit(e Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.subscribers {
		select {
		case ch <- e:
		default:
			log.Warnf("Subscriber event channel full, dropping %T", e)
		}
	}
}

func respond[T any](ch chan Reply[T], v T, err error) {
	if ch != nil {
		ch <- Reply[T]{Value: v, Err: err}
	}
}

func (c *Coordinator) handleCommand(ctx context.Context, cmd Command) {
	switch cmd := cmd.(type) {
	case CreatePoll:
		r, err := c.handleCreatePoll(ctx, cmd)
		respond(cmd.Response, r, err)
	case ToggleVote:
		r, err := c.handleToggleVote(ctx, cmd)
		respond(cmd.Response, r, err)
	case CloseVote:
		r, err := c.handleCloseVote(ctx)
		respond(cmd.Response, r, err)
	case SignUp:
		r, err := c.handleSignUp(ctx, cmd)
		respond(cmd.Response, r, err)
	case CancelSignUp:
		r, err := c.handleCancelSignUp(ctx, cmd)
		respond(cmd.Response, r, err)
	case AssignTeams:
		r, err := c.handleAssignTeams(ctx)
		respond(cmd.Response, r, err)
	case AssignAdHoc:
		r, err := c.handleAssignAdHoc(ctx, cmd)
		respond(cmd.Response, r, err)
	case RecordResult:
		r, err := c.handleRecordResult(ctx, cmd)
		respond(cmd.Response, r, err)
	case OpenBallot:
		r, err := c.handleOpenBallot(ctx, cmd)
		respond(cmd.Response, r, err)
	case CastMvpVote:
		r, err := c.handleCastMvpVote(ctx, cmd)
		respond(cmd.Response, r, err)
	case CloseBallot:
		r, err := c.handleCloseBallot(ctx)
		respond(cmd.Response, r, err)
	case AwardDailyMVP:
		r, err := c.handleAwardDailyMVP(ctx)
		respond(cmd.Response, r, err)
	case SyncMembers:
		r, err := c.engines.Roster.SyncMembers(ctx, cmd.Members)
		respond(cmd.Response, r, err)
	case GetSession:
		r, err := c.handleGetSession(ctx)
		respond(cmd.Response, r, err)
	case GetTally:
		r, err := c.handleGetTally(ctx)
		respond(cmd.Response, r, err)
	default:
		log.Warnf("Unknown command %T", cmd)
	}
}

func (c *Coordinator) handleCreatePoll(ctx context.Context, cmd CreatePoll) (schedule.PollResult, error) {
	result, err := c.engines.Schedule.CreatePoll(ctx, cmd.Dates)
	if err != nil {
		return result, err
	}
	c.emit(PollCreated{Schedules: result.Schedules, Invalid: result.Invalid})
	return result, nil
}

func (c *Coordinator) handleToggleVote(ctx context.Context, cmd ToggleVote) (schedule.VoteResult, error) {
	result, err := c.engines.Schedule.ToggleVote(ctx, cmd.ScheduleID, cmd.User.UserID, cmd.User.UserName)
	if err != nil {
		return result, err
	}
	c.emit(VoteToggled{ScheduleID: result.ScheduleID, Count: result.Count})
	return result, nil
}

func (c *Coordinator) handleCloseVote(ctx context.Context) (schedule.CloseResult, error) {
	result, err := c.engines.Schedule.CloseVote(ctx)
	if err != nil {
		return result, err
	}
	c.state.setActive(result.Winner.ID)
	c.emit(PollClosed{Winner: result.Winner, Losers: result.Losers, Voters: result.Voters})
	return result, nil
}

func (c *Coordinator) participantsChanged(ctx context.Context, scheduleID int64, discarded bool) {
	participants, err := c.engines.Roster.Participants(ctx, scheduleID)
	if err != nil {
		log.WithError(err).Warn("Failed to load participants for event")
		return
	}
	c.emit(ParticipantsUpdated{ScheduleID: scheduleID, Participants: participants, TeamsDiscarded: discarded})
}

func (c *Coordinator) handleSignUp(ctx context.Context, cmd SignUp) (store.Participant, error) {
	id, err := c.state.active()
	if err != nil {
		return store.Participant{}, err
	}
	p, err := c.engines.Roster.SignUp(ctx, id, cmd.User.UserID, cmd.User.UserName)
	if err != nil {
		return p, err
	}
	c.participantsChanged(ctx, id, false)
	return p, nil
}

func (c *Coordinator) handleCancelSignUp(ctx context.Context, cmd CancelSignUp) (bool, error) {
	id, err := c.state.active()
	if err != nil {
		return false, err
	}
	discarded, err := c.engines.Roster.CancelSignUp(ctx, id, cmd.UserID)
	if err != nil {
		return false, err
	}
	c.participantsChanged(ctx, id, discarded)
	return discarded, nil
}

func (c *Coordinator) handleAssignTeams(ctx context.Context) (roster.Teams, error) {
	id, err := c.state.active()
	if err != nil {
		return roster.Teams{}, err
	}
	teams, err := c.engines.Roster.AssignTeams(ctx, id)
	if err != nil {
		return teams, err
	}
	c.emit(TeamsAssigned{Teams: teams})
	return teams, nil
}

func (c *Coordinator) handleAssignAdHoc(ctx context.Context, cmd AssignAdHoc) (roster.Teams, error) {
	teams, err := c.engines.Roster.AssignAdHoc(ctx, cmd.Members)
	if err != nil {
		return teams, err
	}
	c.emit(TeamsAssigned{Teams: teams, AdHoc: true})
	return teams, nil
}

func (c *Coordinator) handleRecordResult(ctx context.Context, cmd RecordResult) (roster.MatchResult, error) {
	id, err := c.state.active()
	if err != nil {
		return roster.MatchResult{}, err
	}
	result, err := c.engines.Roster.RecordMatchResult(ctx, id, cmd.WinningTeam)
	if err != nil {
		return result, err
	}
	c.emit(MatchRecorded{ScheduleID: id, WinningTeam: result.WinningTeam})
	return result, nil
}

func (c *Coordinator) handleOpenBallot(ctx context.Context, cmd OpenBallot) (mvp.Ballot, error) {
	id, err := c.state.active()
	if err != nil {
		return mvp.Ballot{}, err
	}
	cfg := c.engines.MVP.Defaults()
	if cmd.Config != nil {
		cfg = *cmd.Config
	}
	ballot, err := c.engines.MVP.OpenBallot(ctx, id, cfg)
	if err != nil {
		return ballot, err
	}
	c.emit(BallotOpened{Ballot: ballot})
	return ballot, nil
}

func (c *Coordinator) handleCastMvpVote(ctx context.Context, cmd CastMvpVote) (mvp.CastResult, error) {
	id, err := c.state.active()
	if err != nil {
		return mvp.CastResult{}, err
	}
	return c.engines.MVP.CastVote(ctx, id, cmd.VoterID, cmd.CandidateID)
}

func (c *Coordinator) handleCloseBallot(ctx context.Context) ([]mvp.TallyEntry, error) {
	id, err := c.state.active()
	if err != nil {
		return nil, err
	}
	tally, err := c.engines.MVP.CloseBallot(ctx, id)
	if err != nil {
		return nil, err
	}
	c.emit(BallotClosed{ScheduleID: id, Tally: tally})
	return tally, nil
}

func (c *Coordinator) handleAwardDailyMVP(ctx context.Context) (mvp.Award, error) {
	award, err := c.engines.MVP.AwardDailyMVP(ctx)
	if err != nil {
		return award, err
	}
	c.emit(DailyMVPAwarded{Award: award})
	return award, nil
}

func (c *Coordinator) handleGetSession(ctx context.Context) (Session, error) {
	id, err := c.state.active()
	if err != nil {
		return Session{}, err
	}
	sch, err := c.store.GetSchedule(ctx, id)
	if err != nil {
		return Session{}, err
	}
	participants, err := c.engines.Roster.Participants(ctx, id)
	if err != nil {
		return Session{}, err
	}
	return Session{Schedule: sch, Participants: participants}, nil
}

func (c *Coordinator) handleGetTally(ctx context.Context) ([]mvp.TallyEntry, error) {
	id, err := c.state.active()
	if err != nil {
		return nil, err
	}
	return c.engines.MVP.Tally(ctx, id)
}

// Standings reads the open poll. Reads bypass the command loop.
func (c *Coordinator) Standings(ctx context.Context) ([]store.Standing, error) {
	return c.engines.Schedule.Standings(ctx)
}

// WinRates reads player statistics.
func (c *Coordinator) WinRates(ctx context.Context, f roster.Filter) ([]roster.WinRate, error) {
	return c.engines.Roster.WinRates(ctx, f)
}
