package coordinator

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvart/inhouse-scheduler/internal/mvp"
	"github.com/edvart/inhouse-scheduler/internal/roster"
	"github.com/edvart/inhouse-scheduler/internal/schedule"
	"github.com/edvart/inhouse-scheduler/internal/store"
)

func newEngines(s store.Store) Engines {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 5, 22, 0, 0, 0, time.Local))
	return Engines{
		Schedule: schedule.New(s, ""),
		Roster:   roster.New(s, roster.NewSeededShuffler(7)),
		MVP:      mvp.New(s, clock, mvp.DefaultConfig()),
	}
}

func startCoordinator(t *testing.T) (*Coordinator, store.Store) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "coord.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	c, err := New(context.Background(), s, newEngines(s))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go c.Run(ctx)
	return c, s
}

func send[T any](t *testing.T, c *Coordinator, build func(chan Reply[T]) Command) (T, error) {
	t.Helper()
	resp := NewResponse[T]()
	c.Send(build(resp))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return Await(ctx, resp)
}

func nextEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestCommandsNeedActiveSchedule(t *testing.T) {
	c, _ := startCoordinator(t)

	_, err := send(t, c, func(r chan Reply[store.Participant]) Command {
		return SignUp{User: roster.Member{UserID: "u1", UserName: "alice"}, Response: r}
	})
	assert.ErrorIs(t, err, ErrNoActiveSchedule)

	_, err = send(t, c, func(r chan Reply[Session]) Command { return GetSession{Response: r} })
	assert.ErrorIs(t, err, ErrNoActiveSchedule)
}

func TestFullCycle(t *testing.T) {
	c, s := startCoordinator(t)
	events := c.Subscribe()

	poll, err := send(t, c, func(r chan Reply[schedule.PollResult]) Command {
		return CreatePoll{Dates: "2025-03-05, 2025-03-06", Response: r}
	})
	require.NoError(t, err)
	require.Len(t, poll.Schedules, 2)
	assert.IsType(t, PollCreated{}, nextEvent(t, events))

	vote, err := send(t, c, func(r chan Reply[schedule.VoteResult]) Command {
		return ToggleVote{ScheduleID: poll.Schedules[1].ID, User: roster.Member{UserID: "u1", UserName: "alice"}, Response: r}
	})
	require.NoError(t, err)
	assert.True(t, vote.Voted)
	assert.Equal(t, VoteToggled{ScheduleID: poll.Schedules[1].ID, Count: 1}, nextEvent(t, events))

	closed, err := send(t, c, func(r chan Reply[schedule.CloseResult]) Command { return CloseVote{Response: r} })
	require.NoError(t, err)
	assert.Equal(t, poll.Schedules[1].ID, closed.Winner.ID)
	assert.IsType(t, PollClosed{}, nextEvent(t, events))

	for i := 0; i < roster.MaxParticipants; i++ {
		_, err := send(t, c, func(r chan Reply[store.Participant]) Command {
			return SignUp{User: roster.Member{UserID: fmt.Sprintf("p%d", i), UserName: fmt.Sprintf("player%d", i)}, Response: r}
		})
		require.NoError(t, err)
		e := nextEvent(t, events)
		require.IsType(t, ParticipantsUpdated{}, e)
		assert.Len(t, e.(ParticipantsUpdated).Participants, i+1)
	}

	teams, err := send(t, c, func(r chan Reply[roster.Teams]) Command { return AssignTeams{Response: r} })
	require.NoError(t, err)
	assert.Len(t, teams.Team1, roster.TeamSize)
	assert.IsType(t, TeamsAssigned{}, nextEvent(t, events))

	result, err := send(t, c, func(r chan Reply[roster.MatchResult]) Command {
		return RecordResult{WinningTeam: store.Team1, Response: r}
	})
	require.NoError(t, err)
	assert.Equal(t, roster.MaxParticipants, result.PlayersUpdated)
	assert.Equal(t, MatchRecorded{ScheduleID: closed.Winner.ID, WinningTeam: store.Team1}, nextEvent(t, events))

	ballot, err := send(t, c, func(r chan Reply[mvp.Ballot]) Command { return OpenBallot{Response: r} })
	require.NoError(t, err)
	assert.Equal(t, mvp.DefaultConfig(), ballot.Config)
	assert.IsType(t, BallotOpened{}, nextEvent(t, events))

	voter := teams.Team1[0].UserID
	candidate := teams.Team2[0].UserID
	cast, err := send(t, c, func(r chan Reply[mvp.CastResult]) Command {
		return CastMvpVote{VoterID: voter, CandidateID: candidate, Response: r}
	})
	require.NoError(t, err)
	assert.Equal(t, 2, cast.Remaining)

	tally, err := send(t, c, func(r chan Reply[[]mvp.TallyEntry]) Command { return CloseBallot{Response: r} })
	require.NoError(t, err)
	require.Len(t, tally, 1)
	assert.Equal(t, candidate, tally[0].CandidateID)
	assert.IsType(t, BallotClosed{}, nextEvent(t, events))

	award, err := send(t, c, func(r chan Reply[mvp.Award]) Command { return AwardDailyMVP{Response: r} })
	require.NoError(t, err)
	assert.Equal(t, candidate, award.UserID)
	assert.IsType(t, DailyMVPAwarded{}, nextEvent(t, events))

	sch, err := s.GetSchedule(context.Background(), closed.Winner.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusMvpClosed, sch.Status)
}

func TestResumesActiveScheduleAfterRestart(t *testing.T) {
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "restart.db"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	sch, err := s.InsertSchedule(ctx, "2025-03-05", "20:00", store.StatusConfirmed)
	require.NoError(t, err)

	c, err := New(ctx, s, newEngines(s))
	require.NoError(t, err)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.Run(runCtx)

	session, err := send(t, c, func(r chan Reply[Session]) Command { return GetSession{Response: r} })
	require.NoError(t, err)
	require.NotNil(t, session.Schedule)
	assert.Equal(t, sch.ID, session.Schedule.ID)
	assert.Empty(t, session.Participants)
}

func TestLoadStateResumesCurrentStatuses(t *testing.T) {
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	st, err := LoadState(ctx, s)
	require.NoError(t, err)
	assert.False(t, st.HasActive)

	closed, err := s.InsertSchedule(ctx, "2025-03-05", "20:00", store.StatusMvpClosed)
	require.NoError(t, err)
	_, err = s.InsertSchedule(ctx, "2025-03-06", "20:00", store.StatusCancelled)
	require.NoError(t, err)
	_, err = s.InsertSchedule(ctx, "2025-03-07", "20:00", store.StatusVoting)
	require.NoError(t, err)

	st, err = LoadState(ctx, s)
	require.NoError(t, err)
	require.True(t, st.HasActive)
	assert.Equal(t, closed.ID, st.ActiveScheduleID)
}

func TestAwaitHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Await(ctx, NewResponse[int]())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmitDropsWhenSubscriberFull(t *testing.T) {
	c := &Coordinator{state: &State{}}
	events := c.Subscribe()
	for i := 0; i < 150; i++ {
		c.emit(VoteToggled{ScheduleID: 1, Count: i})
	}
	assert.Len(t, events, 100)
}
