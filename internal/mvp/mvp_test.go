package mvp

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvart/inhouse-scheduler/internal/store"
)

type fixture struct {
	engine *Engine
	store  store.Store
	clock  *clockwork.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "mvp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 5, 22, 0, 0, 0, time.Local))
	return &fixture{engine: New(s, clock, DefaultConfig()), store: s, clock: clock}
}

// playedMatch seeds a schedule where w0..w4 beat l0..l4.
func (f *fixture) playedMatch(t *testing.T, withResult bool) int64 {
	t.Helper()
	ctx := context.Background()

	sch, err := f.store.InsertSchedule(ctx, "2025-03-05", "20:00", store.StatusTeamsAssigned)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, f.store.InsertParticipant(ctx, &store.Participant{
			ScheduleID: sch.ID, UserID: fmt.Sprintf("w%d", i), UserName: fmt.Sprintf("winner%d", i), Team: store.Team1,
		}))
		require.NoError(t, f.store.InsertParticipant(ctx, &store.Participant{
			ScheduleID: sch.ID, UserID: fmt.Sprintf("l%d", i), UserName: fmt.Sprintf("loser%d", i), Team: store.Team2,
		}))
	}
	if withResult {
		require.NoError(t, f.store.InsertMatchResult(ctx, &store.MatchResult{ScheduleID: sch.ID, WinningTeam: store.Team1}))
		require.NoError(t, f.store.UpdateScheduleStatus(ctx, sch.ID, store.StatusCompleted))
	}
	return sch.ID
}

func TestOpenBallotRequiresResult(t *testing.T) {
	f := newFixture(t)
	id := f.playedMatch(t, false)

	_, err := f.engine.OpenBallot(context.Background(), id, DefaultConfig())
	assert.ErrorIs(t, err, ErrNoMatchResult)

	_, err = f.engine.OpenBallot(context.Background(), 999, DefaultConfig())
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestOpenBallotOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.playedMatch(t, true)

	ballot, err := f.engine.OpenBallot(ctx, id, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, store.StatusMvpOpen, ballot.Schedule.Status)
	assert.Equal(t, store.Team1, ballot.WinningTeam)
	require.Len(t, ballot.Sheets, 10)
	for _, sheet := range ballot.Sheets {
		if sheet.Voter.Team == store.Team1 {
			assert.Equal(t, 3, sheet.Quota)
		} else {
			assert.Equal(t, 1, sheet.Quota)
		}
		assert.Len(t, sheet.Candidates, 10)
	}

	_, err = f.engine.OpenBallot(ctx, id, DefaultConfig())
	assert.ErrorIs(t, err, ErrBallotExists)
}

func TestOpenBallotRejectsNegativeQuota(t *testing.T) {
	f := newFixture(t)
	id := f.playedMatch(t, true)
	_, err := f.engine.OpenBallot(context.Background(), id, Config{WinnerQuota: -1})
	assert.ErrorIs(t, err, ErrInvalidQuota)
}

func TestSheetsExcludeOwnTeam(t *testing.T) {
	f := newFixture(t)
	id := f.playedMatch(t, true)

	ballot, err := f.engine.OpenBallot(context.Background(), id, Config{WinnerQuota: 2, LoserQuota: 2})
	require.NoError(t, err)
	for _, sheet := range ballot.Sheets {
		require.Len(t, sheet.Candidates, 5)
		for _, c := range sheet.Candidates {
			assert.NotEqual(t, sheet.Voter.Team, c.Team)
		}
	}
}

func TestCastVoteQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.playedMatch(t, true)
	_, err := f.engine.OpenBallot(ctx, id, DefaultConfig())
	require.NoError(t, err)

	for want := 2; want >= 0; want-- {
		r, err := f.engine.CastVote(ctx, id, "w0", "w1")
		require.NoError(t, err)
		assert.True(t, r.Accepted)
		assert.Equal(t, want, r.Remaining)
	}

	r, err := f.engine.CastVote(ctx, id, "w0", "w1")
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.False(t, r.Accepted)
	assert.Equal(t, 0, r.Remaining)

	used, err := f.store.CountBallots(ctx, id, "w0")
	require.NoError(t, err)
	assert.Equal(t, 3, used)

	r, err = f.engine.CastVote(ctx, id, "l0", "w1")
	require.NoError(t, err)
	assert.Equal(t, 0, r.Remaining)
	_, err = f.engine.CastVote(ctx, id, "l0", "w1")
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestCastVoteEligibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.playedMatch(t, true)

	_, err := f.engine.CastVote(ctx, id, "w0", "l0")
	assert.ErrorIs(t, err, ErrBallotNotOpen)

	_, err = f.engine.OpenBallot(ctx, id, Config{WinnerQuota: 3, LoserQuota: 1, AllowSelfTeamVote: false})
	require.NoError(t, err)

	_, err = f.engine.CastVote(ctx, id, "stranger", "l0")
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = f.engine.CastVote(ctx, id, "w0", "w1")
	assert.ErrorIs(t, err, ErrIneligibleCandidate)

	_, err = f.engine.CastVote(ctx, id, "w0", "nobody")
	assert.ErrorIs(t, err, ErrIneligibleCandidate)

	r, err := f.engine.CastVote(ctx, id, "w0", "l0")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Remaining)
}

func TestTallyAndClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.playedMatch(t, true)
	_, err := f.engine.OpenBallot(ctx, id, DefaultConfig())
	require.NoError(t, err)

	votes := [][2]string{{"w0", "w2"}, {"w1", "w2"}, {"l0", "w2"}, {"w2", "l1"}, {"l1", "l1"}}
	for _, v := range votes {
		_, err := f.engine.CastVote(ctx, id, v[0], v[1])
		require.NoError(t, err)
	}

	tally, err := f.engine.CloseBallot(ctx, id)
	require.NoError(t, err)
	require.Len(t, tally, 2)
	assert.Equal(t, TallyEntry{CandidateID: "w2", CandidateName: "winner2", Votes: 3}, tally[0])
	assert.Equal(t, TallyEntry{CandidateID: "l1", CandidateName: "loser1", Votes: 2}, tally[1])

	_, err = f.engine.CastVote(ctx, id, "w3", "w2")
	assert.ErrorIs(t, err, ErrBallotNotOpen)

	_, err = f.engine.CloseBallot(ctx, id)
	assert.ErrorIs(t, err, ErrBallotNotOpen)
}

func TestAwardDailyMVP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.AwardDailyMVP(ctx)
	assert.ErrorIs(t, err, ErrNoBallotsToday)

	id := f.playedMatch(t, true)
	_, err = f.engine.OpenBallot(ctx, id, DefaultConfig())
	require.NoError(t, err)
	_, err = f.engine.CastVote(ctx, id, "w0", "l3")
	require.NoError(t, err)

	award, err := f.engine.AwardDailyMVP(ctx)
	require.NoError(t, err)
	assert.Equal(t, Award{Date: "2025-03-05", UserID: "l3", UserName: "loser3", Votes: 1}, award)

	_, err = f.engine.CastVote(ctx, id, "w1", "w4")
	require.NoError(t, err)
	_, err = f.engine.CastVote(ctx, id, "w2", "w4")
	require.NoError(t, err)

	award, err = f.engine.AwardDailyMVP(ctx)
	require.NoError(t, err)
	assert.Equal(t, "w4", award.UserID)

	stored, err := f.store.GetMvpAward(ctx, "2025-03-05")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "w4", stored.UserID)
	assert.Equal(t, 2, stored.TotalVotes)

	// Votes from yesterday do not count tomorrow.
	f.clock.Advance(24 * time.Hour)
	_, err = f.engine.AwardDailyMVP(ctx)
	assert.ErrorIs(t, err, ErrNoBallotsToday)
}
