package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStatusHelpers(t *testing.T) {
	open := map[ScheduleStatus]bool{StatusConfirmed: true, StatusTeamsAssigned: true}
	current := map[ScheduleStatus]bool{
		StatusConfirmed: true, StatusTeamsAssigned: true, StatusCompleted: true,
		StatusMvpOpen: true, StatusMvpClosed: true,
	}
	for _, st := range Statuses {
		assert.Equal(t, open[st], st.Open(), st)
		assert.Equal(t, current[st], st.Current(), st)
	}
	assert.Len(t, Statuses, 8)
}

func TestRebind(t *testing.T) {
	q := `SELECT * FROM t WHERE a = ? AND b IN (?, ?)`
	assert.Equal(t, q, sqliteDialect.rebind(q))
	assert.Equal(t, `SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)`, postgresDialect.rebind(q))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "whatever")
	assert.Error(t, err)
}

func TestStandingsOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	late, err := s.InsertSchedule(ctx, "2024-06-03", "20:00", StatusVoting)
	require.NoError(t, err)
	early, err := s.InsertSchedule(ctx, "2024-06-01", "20:00", StatusVoting)
	require.NoError(t, err)
	popular, err := s.InsertSchedule(ctx, "2024-06-05", "20:00", StatusVoting)
	require.NoError(t, err)

	for _, u := range []string{"a", "b"} {
		ok, err := s.InsertVote(ctx, &Vote{ScheduleID: popular.ID, UserID: u, UserName: u})
		require.NoError(t, err)
		assert.True(t, ok)
	}

	standings, err := s.ListStandings(ctx)
	require.NoError(t, err)
	require.Len(t, standings, 3)
	assert.Equal(t, popular.ID, standings[0].ID)
	assert.Equal(t, 2, standings[0].VoteCount)
	assert.Equal(t, early.ID, standings[1].ID)
	assert.Equal(t, late.ID, standings[2].ID)
	assert.Equal(t, 0, standings[2].VoteCount)
}

func TestVoteInsertAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sch, err := s.InsertSchedule(ctx, "2024-06-01", "20:00", StatusVoting)
	require.NoError(t, err)

	v := &Vote{ScheduleID: sch.ID, UserID: "u1", UserName: "alice"}
	ok, err := s.InsertVote(ctx, v)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.InsertVote(ctx, v)
	require.NoError(t, err)
	assert.False(t, ok, "second insert should be a no-op")

	n, err := s.CountVotes(ctx, sch.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	removed, err := s.DeleteVote(ctx, sch.ID, "u1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.DeleteVote(ctx, sch.ID, "u1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestGetMissingRowsReturnNil(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sch, err := s.GetSchedule(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, sch)

	p, err := s.GetParticipant(ctx, 42, "nobody")
	require.NoError(t, err)
	assert.Nil(t, p)

	r, err := s.GetMatchResult(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, r)

	a, err := s.GetMvpAward(ctx, "2024-06-01")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestParticipantDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sch, err := s.InsertSchedule(ctx, "2024-06-01", "20:00", StatusConfirmed)
	require.NoError(t, err)

	p := &Participant{ScheduleID: sch.ID, UserID: "u1", UserName: "alice"}
	require.NoError(t, s.InsertParticipant(ctx, p))
	assert.ErrorIs(t, s.InsertParticipant(ctx, p), ErrDuplicate)
}

func TestAdHocParticipantsNeedNoSchedule(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.InsertParticipant(ctx, &Participant{
		ScheduleID: AdHocScheduleID, UserID: "u1", UserName: "alice", Team: Team2,
	}))

	p, err := s.GetParticipant(ctx, AdHocScheduleID, "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, Team2, p.Team)
}

func seedTeams(t *testing.T, s *SQLStore, scheduleID int64) {
	t.Helper()
	ctx := context.Background()
	ids := []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "p9"}
	for _, id := range ids {
		require.NoError(t, s.InsertParticipant(ctx, &Participant{ScheduleID: scheduleID, UserID: id, UserName: "name-" + id}))
	}
	require.NoError(t, s.SetTeams(ctx, scheduleID, ids[:5], ids[5:]))
}

func TestSetTeamsAndClear(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sch, err := s.InsertSchedule(ctx, "2024-06-01", "20:00", StatusConfirmed)
	require.NoError(t, err)
	seedTeams(t, s, sch.ID)

	participants, err := s.ListParticipants(ctx, sch.ID)
	require.NoError(t, err)
	require.Len(t, participants, 10)
	for i, p := range participants {
		if i < 5 {
			assert.Equal(t, Team1, p.Team, p.UserID)
		} else {
			assert.Equal(t, Team2, p.Team, p.UserID)
		}
	}

	require.NoError(t, s.ClearTeams(ctx, sch.ID))
	participants, err = s.ListParticipants(ctx, sch.ID)
	require.NoError(t, err)
	for _, p := range participants {
		assert.Equal(t, TeamNone, p.Team)
	}
}

func TestApplyMatchResult(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sch, err := s.InsertSchedule(ctx, "2024-06-01", "20:00", StatusTeamsAssigned)
	require.NoError(t, err)
	seedTeams(t, s, sch.ID)

	// p0 already has history.
	require.NoError(t, s.EnsurePlayer(ctx, "p0", "name-p0"))

	n, err := s.ApplyMatchResult(ctx, sch.ID, Team2)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	winner, err := s.GetPlayerStats(ctx, "p7")
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 0, winner.Losses)

	loser, err := s.GetPlayerStats(ctx, "p0")
	require.NoError(t, err)
	require.NotNil(t, loser)
	assert.Equal(t, 0, loser.Wins)
	assert.Equal(t, 1, loser.Losses)

	team2, err := s.ListPlayerStatsByTeam(ctx, sch.ID, Team2)
	require.NoError(t, err)
	assert.Len(t, team2, 5)
}

func TestMatchResultDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sch, err := s.InsertSchedule(ctx, "2024-06-01", "20:00", StatusTeamsAssigned)
	require.NoError(t, err)

	require.NoError(t, s.InsertMatchResult(ctx, &MatchResult{ScheduleID: sch.ID, WinningTeam: Team1}))
	assert.ErrorIs(t, s.InsertMatchResult(ctx, &MatchResult{ScheduleID: sch.ID, WinningTeam: Team2}), ErrDuplicate)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx Store) error {
		if _, err := tx.InsertSchedule(ctx, "2024-06-01", "20:00", StatusVoting); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	schedules, err := s.ListSchedulesByStatus(ctx, StatusVoting)
	require.NoError(t, err)
	assert.Empty(t, schedules)
}

func TestWithTxNested(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.WithTx(ctx, func(tx Store) error {
		return tx.WithTx(ctx, func(inner Store) error {
			_, err := inner.InsertSchedule(ctx, "2024-06-01", "20:00", StatusVoting)
			return err
		})
	})
	require.NoError(t, err)

	latest, err := s.LatestScheduleByStatus(ctx, StatusVoting)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2024-06-01", latest.Date)
}

func TestBallotsAndAwards(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sch, err := s.InsertSchedule(ctx, "2024-06-01", "20:00", StatusMvpOpen)
	require.NoError(t, err)
	seedTeams(t, s, sch.ID)

	require.NoError(t, s.InsertMvpConfig(ctx, &MvpConfig{ScheduleID: sch.ID, WinnerQuota: 3, LoserQuota: 1, AllowSelfTeamVote: true}))
	assert.ErrorIs(t, s.InsertMvpConfig(ctx, &MvpConfig{ScheduleID: sch.ID}), ErrDuplicate)

	cfg, err := s.GetMvpConfig(ctx, sch.ID)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.True(t, cfg.AllowSelfTeamVote)
	assert.Equal(t, 3, cfg.WinnerQuota)

	ballots := []MvpBallot{
		{ID: "b1", ScheduleID: sch.ID, VoterID: "p0", CandidateID: "p5", CastOn: "2024-06-01"},
		{ID: "b2", ScheduleID: sch.ID, VoterID: "p0", CandidateID: "p5", CastOn: "2024-06-01"},
		{ID: "b3", ScheduleID: sch.ID, VoterID: "p1", CandidateID: "p2", CastOn: "2024-06-01"},
		{ID: "b4", ScheduleID: sch.ID, VoterID: "p2", CandidateID: "p2", CastOn: "2024-06-02"},
	}
	for i := range ballots {
		require.NoError(t, s.InsertBallot(ctx, &ballots[i]))
	}

	used, err := s.CountBallots(ctx, sch.ID, "p0")
	require.NoError(t, err)
	assert.Equal(t, 2, used)

	tally, err := s.TallyBallots(ctx, sch.ID)
	require.NoError(t, err)
	require.Len(t, tally, 2)
	// Tie on two votes breaks by candidate ID.
	assert.Equal(t, "p2", tally[0].CandidateID)
	assert.Equal(t, "name-p2", tally[0].CandidateName)
	assert.Equal(t, 2, tally[0].Votes)

	top, err := s.TopCandidateOn(ctx, "2024-06-01")
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Equal(t, "p5", top.CandidateID)
	assert.Equal(t, 2, top.Votes)

	none, err := s.TopCandidateOn(ctx, "2024-07-01")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, s.UpsertMvpAward(ctx, &MvpAward{Date: "2024-06-01", UserID: "p5", UserName: "name-p5", TotalVotes: 2}))
	require.NoError(t, s.UpsertMvpAward(ctx, &MvpAward{Date: "2024-06-01", UserID: "p2", UserName: "name-p2", TotalVotes: 3}))
	award, err := s.GetMvpAward(ctx, "2024-06-01")
	require.NoError(t, err)
	require.NotNil(t, award)
	assert.Equal(t, "p2", award.UserID)
	assert.Equal(t, 3, award.TotalVotes)
}

func TestPushSubscriptions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sub := &PushSubscription{UserID: "u1", Endpoint: "https://push.example/1", P256dh: "k", Auth: "a"}
	require.NoError(t, s.SavePushSubscription(ctx, sub))
	sub.P256dh = "k2"
	require.NoError(t, s.SavePushSubscription(ctx, sub))

	subs, err := s.GetPushSubscriptions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "k2", subs[0].P256dh)

	require.NoError(t, s.DeletePushSubscription(ctx, sub.Endpoint))
	subs, err = s.GetPushSubscriptions(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestEnsurePlayerRefreshesName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.EnsurePlayer(ctx, "u1", "old"))
	require.NoError(t, s.EnsurePlayer(ctx, "u1", "new"))

	byName, err := s.ListPlayerStatsByName(ctx, "new")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "u1", byName[0].UserID)

	all, err := s.ListPlayerStats(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
