package roster

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/edvart/inhouse-scheduler/internal/store"
)

const (
	// MaxParticipants is the sign-up cap of a scheduled session.
	MaxParticipants = 10
	// TeamSize is the number of players placed on team 1; the rest go to team 2.
	TeamSize = 5
)

// Member identifies a chat user.
type Member struct {
	UserID   string
	UserName string
}

// Teams is a persisted team split.
type Teams struct {
	ScheduleID int64
	Team1      []store.Participant
	Team2      []store.Participant
}

// MatchResult is a recorded outcome and the number of players whose stats changed.
type MatchResult struct {
	ScheduleID     int64
	WinningTeam    int
	PlayersUpdated int
}

// Filter selects players for WinRates. UserName takes precedence over Team;
// an empty filter selects everyone.
type Filter struct {
	UserName   string
	ScheduleID int64
	Team       int
}

type WinRate struct {
	UserID   string
	UserName string
	Wins     int
	Losses   int
	Rate     float64 // percent
}

// Engine manages sign-ups, team splits and match results.
type Engine struct {
	store    store.Store
	shuffler Shuffler
}

// New creates a roster engine. A nil shuffler uses the global random source.
func New(s store.Store, shuffler Shuffler) *Engine {
	if shuffler == nil {
		shuffler = globalShuffler{}
	}
	return &Engine{store: s, shuffler: shuffler}
}

func openSchedule(ctx context.Context, tx store.Store, scheduleID int64) (*store.Schedule, error) {
	sch, err := tx.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sch == nil {
		return nil, ErrScheduleNotFound
	}
	if !sch.Status.Open() {
		return nil, ErrScheduleNotOpen
	}
	return sch, nil
}

// SignUp adds a user to a confirmed schedule.
func (e *Engine) SignUp(ctx context.Context, scheduleID int64, userID, userName string) (store.Participant, error) {
	p := store.Participant{ScheduleID: scheduleID, UserID: userID, UserName: userName}
	var count int
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		if _, err := openSchedule(ctx, tx, scheduleID); err != nil {
			return err
		}

		existing, err := tx.GetParticipant(ctx, scheduleID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateSignUp
		}

		count, err = tx.CountParticipants(ctx, scheduleID)
		if err != nil {
			return err
		}
		if count >= MaxParticipants {
			return ErrAlreadyFull
		}

		if err := tx.InsertParticipant(ctx, &p); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrDuplicateSignUp
			}
			return fmt.Errorf("failed to insert participant: %w", err)
		}
		count++
		return tx.EnsurePlayer(ctx, userID, userName)
	})
	if err != nil {
		return store.Participant{}, err
	}

	log.WithFields(log.Fields{
		"schedule": scheduleID,
		"user":     userName,
	}).Infof("Signed up (%d/%d)", count, MaxParticipants)
	return p, nil
}

// CancelSignUp removes a user from a schedule. An existing team split is
// discarded and the schedule goes back to confirmed. It reports whether a
// split was discarded.
func (e *Engine) CancelSignUp(ctx context.Context, scheduleID int64, userID string) (bool, error) {
	var discarded bool
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		sch, err := openSchedule(ctx, tx, scheduleID)
		if err != nil {
			return err
		}

		removed, err := tx.DeleteParticipant(ctx, scheduleID, userID)
		if err != nil {
			return fmt.Errorf("failed to delete participant: %w", err)
		}
		if !removed {
			return ErrNotSignedUp
		}

		if sch.Status == store.StatusTeamsAssigned {
			if err := tx.ClearTeams(ctx, scheduleID); err != nil {
				return err
			}
			if err := tx.UpdateScheduleStatus(ctx, scheduleID, store.StatusConfirmed); err != nil {
				return err
			}
			discarded = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	log.WithFields(log.Fields{
		"schedule":        scheduleID,
		"user":            userID,
		"teams_discarded": discarded,
	}).Info("Sign-up cancelled")
	return discarded, nil
}

// Participants lists the sign-ups of a schedule in sign-up order.
func (e *Engine) Participants(ctx context.Context, scheduleID int64) ([]store.Participant, error) {
	return e.store.ListParticipants(ctx, scheduleID)
}

// split shuffles participants in place and assigns the first TeamSize to team 1.
func (e *Engine) split(scheduleID int64, participants []store.Participant) Teams {
	e.shuffler.Shuffle(len(participants), func(i, j int) {
		participants[i], participants[j] = participants[j], participants[i]
	})

	teams := Teams{ScheduleID: scheduleID}
	for i := range participants {
		if i < TeamSize {
			participants[i].Team = store.Team1
			teams.Team1 = append(teams.Team1, participants[i])
		} else {
			participants[i].Team = store.Team2
			teams.Team2 = append(teams.Team2, participants[i])
		}
	}
	return teams
}

func userIDs(participants []store.Participant) []string {
	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.UserID
	}
	return ids
}

// AssignTeams randomly splits the participants of a schedule into two teams.
// Running it again reshuffles.
func (e *Engine) AssignTeams(ctx context.Context, scheduleID int64) (Teams, error) {
	var teams Teams
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		if _, err := openSchedule(ctx, tx, scheduleID); err != nil {
			return err
		}

		participants, err := tx.ListParticipants(ctx, scheduleID)
		if err != nil {
			return err
		}
		if len(participants) < MaxParticipants {
			return ErrInsufficientParticipants
		}

		teams = e.split(scheduleID, participants)
		if err := tx.SetTeams(ctx, scheduleID, userIDs(teams.Team1), userIDs(teams.Team2)); err != nil {
			return fmt.Errorf("failed to save teams: %w", err)
		}
		return tx.UpdateScheduleStatus(ctx, scheduleID, store.StatusTeamsAssigned)
	})
	if err != nil {
		return Teams{}, err
	}

	log.WithField("schedule", scheduleID).Info("Teams assigned")
	return teams, nil
}

// AssignAdHoc splits an arbitrary group of members without a schedule, for
// example everyone present in a voice channel. The previous ad-hoc split is replaced.
func (e *Engine) AssignAdHoc(ctx context.Context, members []Member) (Teams, error) {
	seen := make(map[string]bool)
	var participants []store.Participant
	for _, m := range members {
		if m.UserID == "" || seen[m.UserID] {
			continue
		}
		seen[m.UserID] = true
		participants = append(participants, store.Participant{
			ScheduleID: store.AdHocScheduleID,
			UserID:     m.UserID,
			UserName:   m.UserName,
		})
	}
	if len(participants) < MaxParticipants {
		return Teams{}, ErrInsufficientParticipants
	}

	teams := e.split(store.AdHocScheduleID, participants)
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.DeleteParticipants(ctx, store.AdHocScheduleID); err != nil {
			return err
		}
		for i := range participants {
			if err := tx.InsertParticipant(ctx, &participants[i]); err != nil {
				return fmt.Errorf("failed to insert participant: %w", err)
			}
			if err := tx.EnsurePlayer(ctx, participants[i].UserID, participants[i].UserName); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Teams{}, err
	}

	log.WithField("players", len(participants)).Info("Ad-hoc teams assigned")
	return teams, nil
}

// RecordMatchResult stores the winner of a schedule, credits a win or loss
// to every assigned participant and completes the schedule, all at once.
func (e *Engine) RecordMatchResult(ctx context.Context, scheduleID int64, winningTeam int) (MatchResult, error) {
	if winningTeam != store.Team1 && winningTeam != store.Team2 {
		return MatchResult{}, ErrInvalidTeam
	}

	result := MatchResult{ScheduleID: scheduleID, WinningTeam: winningTeam}
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		sch, err := tx.GetSchedule(ctx, scheduleID)
		if err != nil {
			return err
		}
		if sch == nil {
			return ErrScheduleNotFound
		}

		existing, err := tx.GetMatchResult(ctx, scheduleID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateResult
		}
		if sch.Status != store.StatusTeamsAssigned {
			return ErrTeamsNotAssigned
		}

		if err := tx.InsertMatchResult(ctx, &store.MatchResult{ScheduleID: scheduleID, WinningTeam: winningTeam}); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrDuplicateResult
			}
			return fmt.Errorf("failed to insert match result: %w", err)
		}

		result.PlayersUpdated, err = tx.ApplyMatchResult(ctx, scheduleID, winningTeam)
		if err != nil {
			return err
		}
		return tx.UpdateScheduleStatus(ctx, scheduleID, store.StatusCompleted)
	})
	if err != nil {
		return MatchResult{}, err
	}

	log.WithFields(log.Fields{
		"schedule": scheduleID,
		"winner":   winningTeam,
		"players":  result.PlayersUpdated,
	}).Info("Match result recorded")
	return result, nil
}

// WinRates returns the win rate of the players selected by f.
func (e *Engine) WinRates(ctx context.Context, f Filter) ([]WinRate, error) {
	var (
		stats []store.PlayerStats
		err   error
	)
	switch {
	case f.UserName != "":
		stats, err = e.store.ListPlayerStatsByName(ctx, f.UserName)
	case f.Team != store.TeamNone:
		if f.Team != store.Team1 && f.Team != store.Team2 {
			return nil, ErrInvalidTeam
		}
		stats, err = e.store.ListPlayerStatsByTeam(ctx, f.ScheduleID, f.Team)
	default:
		stats, err = e.store.ListPlayerStats(ctx)
	}
	if err != nil {
		return nil, err
	}

	rates := make([]WinRate, len(stats))
	for i, ps := range stats {
		rates[i] = WinRate{
			UserID:   ps.UserID,
			UserName: ps.UserName,
			Wins:     ps.Wins,
			Losses:   ps.Losses,
			Rate:     winRate(ps.Wins, ps.Losses),
		}
	}
	return rates, nil
}

func winRate(wins, losses int) float64 {
	total := wins + losses
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total) * 100
}

// SyncMembers makes sure every member has a stats row. It returns the number of members processed.
func (e *Engine) SyncMembers(ctx context.Context, members []Member) (int, error) {
	n := 0
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		for _, m := range members {
			if m.UserID == "" {
				continue
			}
			if err := tx.EnsurePlayer(ctx, m.UserID, m.UserName); err != nil {
				return fmt.Errorf("failed to sync member %s: %w", m.UserID, err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.WithField("members", n).Info("Player stats synced")
	return n, nil
}
