package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements Store on database/sql. It speaks both SQLite and PostgreSQL.
type SQLStore struct {
	db   *sql.DB
	q    querier
	d    dialect
	inTx bool
}

// Open connects to the database for the given driver ("sqlite" or "postgres")
// and runs migrations.
func Open(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLiteStore(dsn)
	case "postgres":
		return NewPostgresStore(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type %q", driver)
	}
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection serializes every statement.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return newSQLStore(db, sqliteDialect)
}

// NewPostgresStore creates a new PostgreSQL store and runs migrations.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return newSQLStore(db, postgresDialect)
}

func newSQLStore(db *sql.DB, d dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, q: db, d: d}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	for _, m := range s.d.migrations() {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	log.WithField("driver", s.d.driver).Debug("Store migrations applied")
	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction. Nested calls reuse the outer transaction.
func (s *SQLStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&SQLStore{db: s.db, q: tx, d: s.d, inTx: true}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.q.ExecContext(ctx, s.d.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.q.QueryContext(ctx, s.d.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.q.QueryRowContext(ctx, s.d.rebind(query), args...)
}

func (s *SQLStore) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.queryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func statusArgs(statuses []ScheduleStatus) []any {
	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = string(st)
	}
	return args
}

// InsertSchedule creates a schedule row and returns it with its new ID.
func (s *SQLStore) InsertSchedule(ctx context.Context, date, time string, status ScheduleStatus) (*Schedule, error) {
	sch := &Schedule{Date: date, Time: time, Status: status}
	err := s.queryRow(ctx,
		`INSERT INTO schedules (date, time, status) VALUES (?, ?, ?) RETURNING id`,
		date, time, string(status)).Scan(&sch.ID)
	if err != nil {
		return nil, err
	}
	return sch, nil
}

// GetSchedule retrieves a schedule by ID.
func (s *SQLStore) GetSchedule(ctx context.Context, id int64) (*Schedule, error) {
	var sch Schedule
	var status string
	err := s.queryRow(ctx,
		`SELECT id, date, time, status FROM schedules WHERE id = ?`, id).Scan(
		&sch.ID, &sch.Date, &sch.Time, &status,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sch.Status = ScheduleStatus(status)
	return &sch, nil
}

// ListSchedulesByStatus returns schedules in any of the given statuses, oldest first.
func (s *SQLStore) ListSchedulesByStatus(ctx context.Context, statuses ...ScheduleStatus) ([]Schedule, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	rows, err := s.query(ctx,
		`SELECT id, date, time, status FROM schedules
		 WHERE status IN (`+placeholders(len(statuses))+`)
		 ORDER BY id`, statusArgs(statuses)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []Schedule
	for rows.Next() {
		var sch Schedule
		var status string
		if err := rows.Scan(&sch.ID, &sch.Date, &sch.Time, &status); err != nil {
			return nil, err
		}
		sch.Status = ScheduleStatus(status)
		schedules = append(schedules, sch)
	}
	return schedules, rows.Err()
}

// LatestScheduleByStatus returns the most recently created schedule in any of the given statuses.
func (s *SQLStore) LatestScheduleByStatus(ctx context.Context, statuses ...ScheduleStatus) (*Schedule, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	var sch Schedule
	var status string
	err := s.queryRow(ctx,
		`SELECT id, date, time, status FROM schedules
		 WHERE status IN (`+placeholders(len(statuses))+`)
		 ORDER BY id DESC LIMIT 1`, statusArgs(statuses)...).Scan(
		&sch.ID, &sch.Date, &sch.Time, &status,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sch.Status = ScheduleStatus(status)
	return &sch, nil
}

// UpdateScheduleStatus sets the status of a schedule.
func (s *SQLStore) UpdateScheduleStatus(ctx context.Context, id int64, status ScheduleStatus) error {
	result, err := s.exec(ctx,
		`UPDATE schedules SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("schedule %d not found", id)
	}
	return nil
}

// ListStandings returns voting schedules ordered by vote count (desc), then date (asc).
func (s *SQLStore) ListStandings(ctx context.Context) ([]Standing, error) {
	rows, err := s.query(ctx, `
		SELECT s.id, s.date, s.time, s.status, COUNT(sv.user_id) AS vote_count
		FROM schedules s
		LEFT JOIN schedule_votes sv ON s.id = sv.schedule_id
		WHERE s.status = ?
		GROUP BY s.id, s.date, s.time, s.status
		ORDER BY vote_count DESC, s.date ASC, s.id ASC
	`, string(StatusVoting))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var standings []Standing
	for rows.Next() {
		var st Standing
		var status string
		if err := rows.Scan(&st.ID, &st.Date, &st.Time, &status, &st.VoteCount); err != nil {
			return nil, err
		}
		st.Status = ScheduleStatus(status)
		standings = append(standings, st)
	}
	return standings, rows.Err()
}

// InsertVote records a vote. It reports false when the user already voted.
func (s *SQLStore) InsertVote(ctx context.Context, v *Vote) (bool, error) {
	result, err := s.exec(ctx,
		`INSERT INTO schedule_votes (schedule_id, user_id, user_name) VALUES (?, ?, ?)
		 ON CONFLICT (schedule_id, user_id) DO NOTHING`,
		v.ScheduleID, v.UserID, v.UserName)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// DeleteVote removes a vote. It reports whether a vote existed.
func (s *SQLStore) DeleteVote(ctx context.Context, scheduleID int64, userID string) (bool, error) {
	result, err := s.exec(ctx,
		`DELETE FROM schedule_votes WHERE schedule_id = ? AND user_id = ?`, scheduleID, userID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// CountVotes returns the number of votes for a schedule.
func (s *SQLStore) CountVotes(ctx context.Context, scheduleID int64) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM schedule_votes WHERE schedule_id = ?`, scheduleID)
}

// ListVoters returns the votes cast for a schedule in the order they were cast.
func (s *SQLStore) ListVoters(ctx context.Context, scheduleID int64) ([]Vote, error) {
	rows, err := s.query(ctx,
		`SELECT schedule_id, user_id, user_name FROM schedule_votes
		 WHERE schedule_id = ? ORDER BY created_at, user_id`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []Vote
	for rows.Next() {
		var v Vote
		if err := rows.Scan(&v.ScheduleID, &v.UserID, &v.UserName); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// InsertParticipant signs a user up. Returns ErrDuplicate if already signed up.
func (s *SQLStore) InsertParticipant(ctx context.Context, p *Participant) error {
	var team any
	if p.Team != TeamNone {
		team = p.Team
	}
	_, err := s.exec(ctx,
		`INSERT INTO participants (schedule_id, user_id, user_name, team) VALUES (?, ?, ?, ?)`,
		p.ScheduleID, p.UserID, p.UserName, team)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// DeleteParticipant removes a sign-up. It reports whether one existed.
func (s *SQLStore) DeleteParticipant(ctx context.Context, scheduleID int64, userID string) (bool, error) {
	result, err := s.exec(ctx,
		`DELETE FROM participants WHERE schedule_id = ? AND user_id = ?`, scheduleID, userID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// DeleteParticipants removes every sign-up of a schedule.
func (s *SQLStore) DeleteParticipants(ctx context.Context, scheduleID int64) error {
	_, err := s.exec(ctx, `DELETE FROM participants WHERE schedule_id = ?`, scheduleID)
	return err
}

// GetParticipant retrieves a single sign-up.
func (s *SQLStore) GetParticipant(ctx context.Context, scheduleID int64, userID string) (*Participant, error) {
	var p Participant
	var team sql.NullInt64
	err := s.queryRow(ctx,
		`SELECT schedule_id, user_id, user_name, team FROM participants
		 WHERE schedule_id = ? AND user_id = ?`, scheduleID, userID).Scan(
		&p.ScheduleID, &p.UserID, &p.UserName, &team,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Team = int(team.Int64)
	return &p, nil
}

// CountParticipants returns the number of sign-ups of a schedule.
func (s *SQLStore) CountParticipants(ctx context.Context, scheduleID int64) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM participants WHERE schedule_id = ?`, scheduleID)
}

// ListParticipants returns the sign-ups of a schedule in sign-up order.
func (s *SQLStore) ListParticipants(ctx context.Context, scheduleID int64) ([]Participant, error) {
	rows, err := s.query(ctx,
		`SELECT schedule_id, user_id, user_name, team FROM participants
		 WHERE schedule_id = ? ORDER BY id`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		var p Participant
		var team sql.NullInt64
		if err := rows.Scan(&p.ScheduleID, &p.UserID, &p.UserName, &team); err != nil {
			return nil, err
		}
		p.Team = int(team.Int64)
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// SetTeams writes a team split. Participants in neither list lose their team.
func (s *SQLStore) SetTeams(ctx context.Context, scheduleID int64, team1, team2 []string) error {
	if err := s.ClearTeams(ctx, scheduleID); err != nil {
		return err
	}
	for team, ids := range map[int][]string{Team1: team1, Team2: team2} {
		if len(ids) == 0 {
			continue
		}
		args := make([]any, 0, len(ids)+2)
		args = append(args, team, scheduleID)
		for _, id := range ids {
			args = append(args, id)
		}
		_, err := s.exec(ctx,
			`UPDATE participants SET team = ?
			 WHERE schedule_id = ? AND user_id IN (`+placeholders(len(ids))+`)`, args...)
		if err != nil {
			return err
		}
	}
	return nil
}

// ClearTeams unassigns every participant of a schedule.
func (s *SQLStore) ClearTeams(ctx context.Context, scheduleID int64) error {
	_, err := s.exec(ctx, `UPDATE participants SET team = NULL WHERE schedule_id = ?`, scheduleID)
	return err
}

// InsertMatchResult stores the winner of a schedule. Returns ErrDuplicate if one exists.
func (s *SQLStore) InsertMatchResult(ctx context.Context, r *MatchResult) error {
	_, err := s.exec(ctx,
		`INSERT INTO match_results (schedule_id, winning_team) VALUES (?, ?)`,
		r.ScheduleID, r.WinningTeam)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetMatchResult retrieves the result of a schedule.
func (s *SQLStore) GetMatchResult(ctx context.Context, scheduleID int64) (*MatchResult, error) {
	var r MatchResult
	err := s.queryRow(ctx,
		`SELECT schedule_id, winning_team FROM match_results WHERE schedule_id = ?`, scheduleID).Scan(
		&r.ScheduleID, &r.WinningTeam,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// EnsurePlayer creates an empty stats row for a user, or refreshes the display name.
func (s *SQLStore) EnsurePlayer(ctx context.Context, userID, userName string) error {
	_, err := s.exec(ctx,
		`INSERT INTO player_stats (user_id, user_name, wins, losses) VALUES (?, ?, 0, 0)
		 ON CONFLICT (user_id) DO UPDATE SET user_name = excluded.user_name`,
		userID, userName)
	return err
}

// ApplyMatchResult adds one win or loss to every assigned participant of a
// schedule in a single statement. It returns the number of players updated.
func (s *SQLStore) ApplyMatchResult(ctx context.Context, scheduleID int64, winningTeam int) (int, error) {
	_, err := s.exec(ctx,
		`INSERT INTO player_stats (user_id, user_name, wins, losses)
		 SELECT user_id, user_name, 0, 0 FROM participants WHERE schedule_id = ?
		 ON CONFLICT (user_id) DO NOTHING`, scheduleID)
	if err != nil {
		return 0, fmt.Errorf("failed to create stats rows: %w", err)
	}

	result, err := s.exec(ctx, `
		UPDATE player_stats SET
			wins = wins + (SELECT COUNT(*) FROM participants p
				WHERE p.schedule_id = ? AND p.user_id = player_stats.user_id AND p.team = ?),
			losses = losses + (SELECT COUNT(*) FROM participants p
				WHERE p.schedule_id = ? AND p.user_id = player_stats.user_id AND p.team IS NOT NULL AND p.team <> ?)
		WHERE user_id IN (SELECT user_id FROM participants WHERE schedule_id = ? AND team IS NOT NULL)
	`, scheduleID, winningTeam, scheduleID, winningTeam, scheduleID)
	if err != nil {
		return 0, fmt.Errorf("failed to update stats: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}

// GetPlayerStats retrieves the stats of one user.
func (s *SQLStore) GetPlayerStats(ctx context.Context, userID string) (*PlayerStats, error) {
	var ps PlayerStats
	err := s.queryRow(ctx,
		`SELECT user_id, user_name, wins, losses FROM player_stats WHERE user_id = ?`, userID).Scan(
		&ps.UserID, &ps.UserName, &ps.Wins, &ps.Losses,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ps, nil
}

// ListPlayerStatsByName returns the stats of users with the given display name.
func (s *SQLStore) ListPlayerStatsByName(ctx context.Context, userName string) ([]PlayerStats, error) {
	return s.listPlayerStats(ctx,
		`SELECT user_id, user_name, wins, losses FROM player_stats
		 WHERE user_name = ? ORDER BY user_id`, userName)
}

// ListPlayerStatsByTeam returns the stats of players on a team of a schedule.
func (s *SQLStore) ListPlayerStatsByTeam(ctx context.Context, scheduleID int64, team int) ([]PlayerStats, error) {
	return s.listPlayerStats(ctx,
		`SELECT ps.user_id, ps.user_name, ps.wins, ps.losses
		 FROM participants p
		 JOIN player_stats ps ON ps.user_id = p.user_id
		 WHERE p.schedule_id = ? AND p.team = ?
		 ORDER BY p.id`, scheduleID, team)
}

// ListPlayerStats returns all known players, best record first.
func (s *SQLStore) ListPlayerStats(ctx context.Context) ([]PlayerStats, error) {
	return s.listPlayerStats(ctx,
		`SELECT user_id, user_name, wins, losses FROM player_stats
		 ORDER BY wins DESC, losses ASC, user_name ASC`)
}

func (s *SQLStore) listPlayerStats(ctx context.Context, query string, args ...any) ([]PlayerStats, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []PlayerStats
	for rows.Next() {
		var ps PlayerStats
		if err := rows.Scan(&ps.UserID, &ps.UserName, &ps.Wins, &ps.Losses); err != nil {
			return nil, err
		}
		stats = append(stats, ps)
	}
	return stats, rows.Err()
}

// InsertMvpConfig stores the ballot settings of a schedule. Returns ErrDuplicate if one exists.
func (s *SQLStore) InsertMvpConfig(ctx context.Context, c *MvpConfig) error {
	_, err := s.exec(ctx,
		`INSERT INTO mvp_vote_configs (schedule_id, winner_vote_quota, loser_vote_quota, allow_self_team_vote)
		 VALUES (?, ?, ?, ?)`,
		c.ScheduleID, c.WinnerQuota, c.LoserQuota, c.AllowSelfTeamVote)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetMvpConfig retrieves the ballot settings of a schedule.
func (s *SQLStore) GetMvpConfig(ctx context.Context, scheduleID int64) (*MvpConfig, error) {
	var c MvpConfig
	err := s.queryRow(ctx,
		`SELECT schedule_id, winner_vote_quota, loser_vote_quota, allow_self_team_vote
		 FROM mvp_vote_configs WHERE schedule_id = ?`, scheduleID).Scan(
		&c.ScheduleID, &c.WinnerQuota, &c.LoserQuota, &c.AllowSelfTeamVote,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountBallots returns how many ballots a voter has cast for a schedule.
func (s *SQLStore) CountBallots(ctx context.Context, scheduleID int64, voterID string) (int, error) {
	return s.count(ctx,
		`SELECT COUNT(*) FROM mvp_ballots WHERE schedule_id = ? AND voter_id = ?`, scheduleID, voterID)
}

// InsertBallot records a single MVP ballot.
func (s *SQLStore) InsertBallot(ctx context.Context, b *MvpBallot) error {
	_, err := s.exec(ctx,
		`INSERT INTO mvp_ballots (id, schedule_id, voter_id, candidate_id, cast_on)
		 VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.ScheduleID, b.VoterID, b.CandidateID, b.CastOn)
	return err
}

// TallyBallots counts ballots per candidate of a schedule, most votes first.
func (s *SQLStore) TallyBallots(ctx context.Context, scheduleID int64) ([]MvpTally, error) {
	rows, err := s.query(ctx, `
		SELECT b.candidate_id, COALESCE(MAX(p.user_name), b.candidate_id), COUNT(*) AS votes
		FROM mvp_ballots b
		LEFT JOIN participants p ON p.schedule_id = b.schedule_id AND p.user_id = b.candidate_id
		WHERE b.schedule_id = ?
		GROUP BY b.candidate_id
		ORDER BY votes DESC, b.candidate_id ASC
	`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tally []MvpTally
	for rows.Next() {
		var t MvpTally
		if err := rows.Scan(&t.CandidateID, &t.CandidateName, &t.Votes); err != nil {
			return nil, err
		}
		tally = append(tally, t)
	}
	return tally, rows.Err()
}

// TopCandidateOn returns the candidate with the most ballots cast on the given date.
func (s *SQLStore) TopCandidateOn(ctx context.Context, date string) (*MvpTally, error) {
	var t MvpTally
	err := s.queryRow(ctx, `
		SELECT b.candidate_id, COALESCE(MAX(p.user_name), b.candidate_id), COUNT(*) AS votes
		FROM mvp_ballots b
		LEFT JOIN participants p ON p.schedule_id = b.schedule_id AND p.user_id = b.candidate_id
		WHERE b.cast_on = ?
		GROUP BY b.candidate_id
		ORDER BY votes DESC, b.candidate_id ASC
		LIMIT 1
	`, date).Scan(&t.CandidateID, &t.CandidateName, &t.Votes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpsertMvpAward records the award of a day, replacing an earlier one for the same date.
func (s *SQLStore) UpsertMvpAward(ctx context.Context, a *MvpAward) error {
	_, err := s.exec(ctx,
		`INSERT INTO mvp_awards (award_date, user_id, user_name, total_votes) VALUES (?, ?, ?, ?)
		 ON CONFLICT (award_date) DO UPDATE SET
		 	user_id = excluded.user_id,
		 	user_name = excluded.user_name,
		 	total_votes = excluded.total_votes`,
		a.Date, a.UserID, a.UserName, a.TotalVotes)
	return err
}

// GetMvpAward retrieves the award of a day.
func (s *SQLStore) GetMvpAward(ctx context.Context, date string) (*MvpAward, error) {
	var a MvpAward
	err := s.queryRow(ctx,
		`SELECT award_date, user_id, user_name, total_votes FROM mvp_awards WHERE award_date = ?`, date).Scan(
		&a.Date, &a.UserID, &a.UserName, &a.TotalVotes,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SavePushSubscription stores a push endpoint for a user.
func (s *SQLStore) SavePushSubscription(ctx context.Context, sub *PushSubscription) error {
	_, err := s.exec(ctx,
		`INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth) VALUES (?, ?, ?, ?)
		 ON CONFLICT (endpoint) DO UPDATE SET
		 	user_id = excluded.user_id,
		 	p256dh = excluded.p256dh,
		 	auth = excluded.auth`,
		sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth)
	return err
}

// GetPushSubscriptions returns every push endpoint of a user.
func (s *SQLStore) GetPushSubscriptions(ctx context.Context, userID string) ([]PushSubscription, error) {
	rows, err := s.query(ctx,
		`SELECT id, user_id, endpoint, p256dh, auth FROM push_subscriptions WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []PushSubscription
	for rows.Next() {
		var sub PushSubscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dh, &sub.Auth); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// DeletePushSubscription removes a push endpoint.
func (s *SQLStore) DeletePushSubscription(ctx context.Context, endpoint string) error {
	_, err := s.exec(ctx, `DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	return err
}
