package mvp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/edvart/inhouse-scheduler/internal/store"
)

const dateLayout = "2006-01-02"

// Config controls how many votes each side gets and whether players may vote
// for their own team.
type Config struct {
	WinnerQuota       int  `yaml:"winner_quota"`
	LoserQuota        int  `yaml:"loser_quota"`
	AllowSelfTeamVote bool `yaml:"allow_self_team_vote"`
}

// DefaultConfig gives the winning team 3 votes each and the losing team 1.
func DefaultConfig() Config {
	return Config{WinnerQuota: 3, LoserQuota: 1, AllowSelfTeamVote: true}
}

// Sheet is what a single voter is offered when a ballot opens.
type Sheet struct {
	Voter      store.Participant
	Quota      int
	Candidates []store.Participant
}

type Ballot struct {
	Schedule    store.Schedule
	WinningTeam int
	Config      Config
	Sheets      []Sheet
}

type CastResult struct {
	Accepted  bool
	Remaining int
}

type TallyEntry struct {
	CandidateID   string
	CandidateName string
	Votes         int
}

type Award struct {
	Date     string
	UserID   string
	UserName string
	Votes    int
}

// Engine runs post-match MVP votes.
type Engine struct {
	store    store.Store
	clock    clockwork.Clock
	defaults Config
}

// New creates an MVP engine. A nil clock uses the real clock.
func New(s store.Store, clock clockwork.Clock, defaults Config) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{store: s, clock: clock, defaults: defaults}
}

// Defaults returns the ballot settings used when a caller has no preference.
func (e *Engine) Defaults() Config {
	return e.defaults
}

func quotaFor(cfg Config, voterTeam, winningTeam int) int {
	if voterTeam == winningTeam {
		return cfg.WinnerQuota
	}
	return cfg.LoserQuota
}

func eligible(cfg Config, voter, candidate store.Participant) bool {
	return cfg.AllowSelfTeamVote || voter.Team != candidate.Team
}

// OpenBallot starts the MVP vote of a finished match and returns one sheet per participant.
func (e *Engine) OpenBallot(ctx context.Context, scheduleID int64, cfg Config) (Ballot, error) {
	if cfg.WinnerQuota < 0 || cfg.LoserQuota < 0 {
		return Ballot{}, ErrInvalidQuota
	}

	ballot := Ballot{Config: cfg}
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		sch, err := tx.GetSchedule(ctx, scheduleID)
		if err != nil {
			return err
		}
		if sch == nil {
			return ErrScheduleNotFound
		}

		result, err := tx.GetMatchResult(ctx, scheduleID)
		if err != nil {
			return err
		}
		if result == nil {
			return ErrNoMatchResult
		}

		existing, err := tx.GetMvpConfig(ctx, scheduleID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrBallotExists
		}

		err = tx.InsertMvpConfig(ctx, &store.MvpConfig{
			ScheduleID:        scheduleID,
			WinnerQuota:       cfg.WinnerQuota,
			LoserQuota:        cfg.LoserQuota,
			AllowSelfTeamVote: cfg.AllowSelfTeamVote,
		})
		if err != nil {
			return fmt.Errorf("failed to save mvp config: %w", err)
		}
		if err := tx.UpdateScheduleStatus(ctx, scheduleID, store.StatusMvpOpen); err != nil {
			return err
		}
		sch.Status = store.StatusMvpOpen

		participants, err := tx.ListParticipants(ctx, scheduleID)
		if err != nil {
			return err
		}

		ballot.Schedule = *sch
		ballot.WinningTeam = result.WinningTeam
		for _, voter := range participants {
			sheet := Sheet{Voter: voter, Quota: quotaFor(cfg, voter.Team, result.WinningTeam)}
			for _, c := range participants {
				if eligible(cfg, voter, c) {
					sheet.Candidates = append(sheet.Candidates, c)
				}
			}
			ballot.Sheets = append(ballot.Sheets, sheet)
		}
		return nil
	})
	if err != nil {
		return Ballot{}, err
	}

	log.WithFields(log.Fields{
		"schedule":  scheduleID,
		"winner":    cfg.WinnerQuota,
		"loser":     cfg.LoserQuota,
		"self_team": cfg.AllowSelfTeamVote,
	}).Info("MVP vote opened")
	return ballot, nil
}

// CastVote records one vote from voter for candidate. Once the voter's quota
// is used up it returns ErrQuotaExceeded with a zero CastResult.
func (e *Engine) CastVote(ctx context.Context, scheduleID int64, voterID, candidateID string) (CastResult, error) {
	var result CastResult
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		sch, err := tx.GetSchedule(ctx, scheduleID)
		if err != nil {
			return err
		}
		if sch == nil {
			return ErrScheduleNotFound
		}
		if sch.Status != store.StatusMvpOpen {
			return ErrBallotNotOpen
		}

		cfg, err := tx.GetMvpConfig(ctx, scheduleID)
		if err != nil {
			return err
		}
		if cfg == nil {
			return ErrBallotNotOpen
		}
		match, err := tx.GetMatchResult(ctx, scheduleID)
		if err != nil {
			return err
		}
		if match == nil {
			return ErrNoMatchResult
		}

		voter, err := tx.GetParticipant(ctx, scheduleID, voterID)
		if err != nil {
			return err
		}
		if voter == nil {
			return ErrNotParticipant
		}

		c := Config{WinnerQuota: cfg.WinnerQuota, LoserQuota: cfg.LoserQuota, AllowSelfTeamVote: cfg.AllowSelfTeamVote}
		quota := quotaFor(c, voter.Team, match.WinningTeam)
		used, err := tx.CountBallots(ctx, scheduleID, voterID)
		if err != nil {
			return err
		}
		if used >= quota {
			return ErrQuotaExceeded
		}

		candidate, err := tx.GetParticipant(ctx, scheduleID, candidateID)
		if err != nil {
			return err
		}
		if candidate == nil || !eligible(c, *voter, *candidate) {
			return ErrIneligibleCandidate
		}

		err = tx.InsertBallot(ctx, &store.MvpBallot{
			ID:          uuid.New().String(),
			ScheduleID:  scheduleID,
			VoterID:     voterID,
			CandidateID: candidateID,
			CastOn:      e.clock.Now().Format(dateLayout),
		})
		if err != nil {
			return fmt.Errorf("failed to record ballot: %w", err)
		}

		result = CastResult{Accepted: true, Remaining: quota - used - 1}
		return nil
	})
	if err != nil {
		return CastResult{}, err
	}

	log.WithFields(log.Fields{
		"schedule":  scheduleID,
		"voter":     voterID,
		"candidate": candidateID,
		"remaining": result.Remaining,
	}).Debug("MVP vote cast")
	return result, nil
}

// Tally counts the votes of a schedule, most votes first. The first entry is the MVP.
func (e *Engine) Tally(ctx context.Context, scheduleID int64) ([]TallyEntry, error) {
	rows, err := e.store.TallyBallots(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	entries := make([]TallyEntry, len(rows))
	for i, r := range rows {
		entries[i] = TallyEntry{CandidateID: r.CandidateID, CandidateName: r.CandidateName, Votes: r.Votes}
	}
	return entries, nil
}

// CloseBallot stops accepting votes and returns the final tally.
func (e *Engine) CloseBallot(ctx context.Context, scheduleID int64) ([]TallyEntry, error) {
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		sch, err := tx.GetSchedule(ctx, scheduleID)
		if err != nil {
			return err
		}
		if sch == nil {
			return ErrScheduleNotFound
		}
		if sch.Status != store.StatusMvpOpen {
			return ErrBallotNotOpen
		}
		return tx.UpdateScheduleStatus(ctx, scheduleID, store.StatusMvpClosed)
	})
	if err != nil {
		return nil, err
	}

	tally, err := e.Tally(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	log.WithField("schedule", scheduleID).Info("MVP vote closed")
	return tally, nil
}

// AwardDailyMVP picks the player with the most votes cast today across all
// matches and records the award for today.
func (e *Engine) AwardDailyMVP(ctx context.Context) (Award, error) {
	today := e.clock.Now().Format(dateLayout)
	top, err := e.store.TopCandidateOn(ctx, today)
	if err != nil {
		return Award{}, err
	}
	if top == nil {
		return Award{}, ErrNoBallotsToday
	}
	return e.RecordDailyAward(ctx, today, top.CandidateID, top.CandidateName, top.Votes)
}

// RecordDailyAward stores the award of a day. A later award for the same date replaces it.
func (e *Engine) RecordDailyAward(ctx context.Context, date, userID, userName string, votes int) (Award, error) {
	err := e.store.UpsertMvpAward(ctx, &store.MvpAward{
		Date:       date,
		UserID:     userID,
		UserName:   userName,
		TotalVotes: votes,
	})
	if err != nil {
		return Award{}, fmt.Errorf("failed to record award: %w", err)
	}

	log.WithFields(log.Fields{
		"date":  date,
		"user":  userName,
		"votes": votes,
	}).Info("Daily MVP awarded")
	return Award{Date: date, UserID: userID, UserName: userName, Votes: votes}, nil
}
