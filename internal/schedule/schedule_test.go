package schedule

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvart/inhouse-scheduler/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, store.Store) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "schedule.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, ""), s
}

func TestParseDates(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		valid   []string
		invalid []string
	}{
		{"single", "2025-03-05", []string{"2025-03-05"}, nil},
		{"spaces", " 2025-03-05 , 2025-03-06", []string{"2025-03-05", "2025-03-06"}, nil},
		{"duplicates", "2025-03-05,2025-03-05", []string{"2025-03-05"}, nil},
		{"bad format", "2025/03/05,2025-03-06", []string{"2025-03-06"}, []string{"2025/03/05"}},
		{"impossible date", "2025-02-30", nil, []string{"2025-02-30"}},
		{"empty", " , ", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, invalid := ParseDates(tt.raw)
			assert.Equal(t, tt.valid, valid)
			assert.Equal(t, tt.invalid, invalid)
		})
	}
}

func TestCreatePollAllInvalid(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreatePoll(ctx, "tomorrow,2025-13-01")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"tomorrow", "2025-13-01"}, verr.Invalid)

	voting, err := s.ListSchedulesByStatus(ctx, store.StatusVoting)
	require.NoError(t, err)
	assert.Empty(t, voting)
}

func TestCreatePollPartialAndSupersede(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	first, err := e.CreatePoll(ctx, "2025-03-01,2025-03-02")
	require.NoError(t, err)
	require.Len(t, first.Schedules, 2)
	assert.Equal(t, DefaultSessionTime, first.Schedules[0].Time)

	second, err := e.CreatePoll(ctx, "2025-03-05,nope,2025-03-06")
	require.NoError(t, err)
	assert.Len(t, second.Schedules, 2)
	assert.Equal(t, []string{"nope"}, second.Invalid)
	assert.ElementsMatch(t, []int64{first.Schedules[0].ID, first.Schedules[1].ID}, second.Abandoned)

	voting, err := s.ListSchedulesByStatus(ctx, store.StatusVoting)
	require.NoError(t, err)
	assert.Len(t, voting, 2)

	abandoned, err := s.ListSchedulesByStatus(ctx, store.StatusAbandoned)
	require.NoError(t, err)
	assert.Len(t, abandoned, 2)
}

func TestToggleVoteIsInvolution(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	poll, err := e.CreatePoll(ctx, "2025-03-05")
	require.NoError(t, err)
	id := poll.Schedules[0].ID

	r, err := e.ToggleVote(ctx, id, "u1", "alice")
	require.NoError(t, err)
	assert.True(t, r.Voted)
	assert.Equal(t, 1, r.Count)

	r, err = e.ToggleVote(ctx, id, "u1", "alice")
	require.NoError(t, err)
	assert.False(t, r.Voted)
	assert.Equal(t, 0, r.Count)
}

func TestToggleVoteErrors(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ToggleVote(ctx, 999, "u1", "alice")
	assert.ErrorIs(t, err, ErrScheduleNotFound)

	poll, err := e.CreatePoll(ctx, "2025-03-05")
	require.NoError(t, err)
	_, err = e.CloseVote(ctx)
	require.NoError(t, err)

	_, err = e.ToggleVote(ctx, poll.Schedules[0].ID, "u1", "alice")
	assert.ErrorIs(t, err, ErrPollClosed)
}

func TestCloseVoteNoPoll(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.CloseVote(context.Background())
	assert.ErrorIs(t, err, ErrNoActivePoll)
}

func TestPollScenario(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	poll, err := e.CreatePoll(ctx, "2025-03-05,2025-03-06")
	require.NoError(t, err)
	d5, d6 := poll.Schedules[0].ID, poll.Schedules[1].ID

	for _, u := range []string{"a", "b", "c"} {
		_, err := e.ToggleVote(ctx, d5, u, "name-"+u)
		require.NoError(t, err)
	}
	_, err = e.ToggleVote(ctx, d6, "d", "name-d")
	require.NoError(t, err)

	standings, err := e.Standings(ctx)
	require.NoError(t, err)
	require.Len(t, standings, 2)
	assert.Equal(t, "2025-03-05", standings[0].Date)
	assert.Equal(t, 3, standings[0].VoteCount)
	assert.Equal(t, "2025-03-06", standings[1].Date)
	assert.Equal(t, 1, standings[1].VoteCount)

	result, err := e.CloseVote(ctx)
	require.NoError(t, err)
	assert.Equal(t, d5, result.Winner.ID)
	assert.Equal(t, store.StatusConfirmed, result.Winner.Status)
	require.Len(t, result.Losers, 1)
	assert.Equal(t, d6, result.Losers[0].ID)
	assert.Len(t, result.Voters, 3)

	sch, err := s.GetSchedule(ctx, d6)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCancelled, sch.Status)

	names, err := e.Voters(ctx, d5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"name-a", "name-b", "name-c"}, names)
}

func TestCloseVoteTieGoesToEarliestDate(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	poll, err := e.CreatePoll(ctx, "2025-03-09,2025-03-07")
	require.NoError(t, err)
	for _, sch := range poll.Schedules {
		_, err := e.ToggleVote(ctx, sch.ID, "u1", "alice")
		require.NoError(t, err)
	}

	result, err := e.CloseVote(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-07", result.Winner.Date)
}

func TestCloseVoteAbandonsPreviousSession(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreatePoll(ctx, "2025-03-05")
	require.NoError(t, err)
	first, err := e.CloseVote(ctx)
	require.NoError(t, err)

	_, err = e.CreatePoll(ctx, "2025-03-12")
	require.NoError(t, err)
	second, err := e.CloseVote(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{first.Winner.ID}, second.Abandoned)

	confirmed, err := s.ListSchedulesByStatus(ctx, store.StatusConfirmed)
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, second.Winner.ID, confirmed[0].ID)
}
