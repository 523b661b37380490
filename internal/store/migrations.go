package store

import "fmt"

func (d dialect) migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS schedules (
			id ` + d.serialPK + `,
			date TEXT NOT NULL,
			time TEXT NOT NULL DEFAULT '20:00',
			status TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_schedules_status ON schedules(status)`,
		`CREATE TABLE IF NOT EXISTS schedule_votes (
			schedule_id BIGINT NOT NULL REFERENCES schedules(id),
			user_id TEXT NOT NULL,
			user_name TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (schedule_id, user_id)
		)`,
		// schedule_id 0 holds ad-hoc splits, so no foreign key here.
		`CREATE TABLE IF NOT EXISTS participants (
			id ` + d.serialPK + `,
			schedule_id BIGINT NOT NULL,
			user_id TEXT NOT NULL,
			user_name TEXT NOT NULL,
			team INTEGER,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (schedule_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS match_results (
			schedule_id BIGINT PRIMARY KEY REFERENCES schedules(id),
			winning_team INTEGER NOT NULL CHECK (winning_team IN (1, 2)),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS player_stats (
			user_id TEXT PRIMARY KEY,
			user_name TEXT NOT NULL,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_player_stats_name ON player_stats(user_name)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS mvp_vote_configs (
			schedule_id BIGINT PRIMARY KEY REFERENCES schedules(id),
			winner_vote_quota INTEGER NOT NULL,
			loser_vote_quota INTEGER NOT NULL,
			allow_self_team_vote %s NOT NULL
		)`, d.boolType),
		`CREATE TABLE IF NOT EXISTS mvp_ballots (
			id TEXT PRIMARY KEY,
			schedule_id BIGINT NOT NULL REFERENCES schedules(id),
			voter_id TEXT NOT NULL,
			candidate_id TEXT NOT NULL,
			cast_on TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mvp_ballots_voter ON mvp_ballots(schedule_id, voter_id)`,
		`CREATE INDEX IF NOT EXISTS idx_mvp_ballots_cast_on ON mvp_ballots(cast_on)`,
		`CREATE TABLE IF NOT EXISTS mvp_awards (
			award_date TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			user_name TEXT NOT NULL,
			total_votes INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS push_subscriptions (
			id ` + d.serialPK + `,
			user_id TEXT NOT NULL,
			endpoint TEXT NOT NULL UNIQUE,
			p256dh TEXT NOT NULL,
			auth TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_push_subscriptions_user ON push_subscriptions(user_id)`,
	}
}
