package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/edvart/inhouse-scheduler/internal/store"
)

const (
	DateLayout         = "2006-01-02"
	DefaultSessionTime = "20:00"
)

// PollResult describes the outcome of CreatePoll.
type PollResult struct {
	Schedules []store.Schedule
	Invalid   []string
	Abandoned []int64
}

// VoteResult is the state of a vote after a toggle.
type VoteResult struct {
	ScheduleID int64
	Voted      bool
	Count      int
}

// CloseResult describes the outcome of CloseVote.
type CloseResult struct {
	Winner    store.Standing
	Losers    []store.Standing
	Voters    []store.Vote
	Abandoned []int64
}

// Engine runs date polls and confirms the winning date.
type Engine struct {
	store       store.Store
	sessionTime string
}

// New creates a schedule engine. An empty sessionTime falls back to DefaultSessionTime.
func New(s store.Store, sessionTime string) *Engine {
	if sessionTime == "" {
		sessionTime = DefaultSessionTime
	}
	return &Engine{store: s, sessionTime: sessionTime}
}

// ParseDates splits a comma separated list and partitions it into valid and
// invalid dates. Repeated dates are collapsed.
func ParseDates(raw string) (valid, invalid []string) {
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		d := strings.Join(strings.Fields(part), "")
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true

		if _, err := time.Parse(DateLayout, d); err != nil {
			invalid = append(invalid, d)
			continue
		}
		valid = append(valid, d)
	}
	return valid, invalid
}

// CreatePoll starts a new poll for the given dates. Schedules still in voting
// are abandoned first. Invalid dates are reported back; the call only fails
// when no date is valid.
func (e *Engine) CreatePoll(ctx context.Context, raw string) (PollResult, error) {
	valid, invalid := ParseDates(raw)
	if len(valid) == 0 {
		return PollResult{}, &ValidationError{Invalid: invalid}
	}

	result := PollResult{Invalid: invalid}
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		voting, err := tx.ListSchedulesByStatus(ctx, store.StatusVoting)
		if err != nil {
			return fmt.Errorf("failed to list open polls: %w", err)
		}
		for _, sch := range voting {
			if err := tx.UpdateScheduleStatus(ctx, sch.ID, store.StatusAbandoned); err != nil {
				return fmt.Errorf("failed to abandon schedule %d: %w", sch.ID, err)
			}
			result.Abandoned = append(result.Abandoned, sch.ID)
		}

		for _, d := range valid {
			sch, err := tx.InsertSchedule(ctx, d, e.sessionTime, store.StatusVoting)
			if err != nil {
				return fmt.Errorf("failed to insert schedule %s: %w", d, err)
			}
			result.Schedules = append(result.Schedules, *sch)
		}
		return nil
	})
	if err != nil {
		return PollResult{}, err
	}

	log.WithFields(log.Fields{
		"dates":     valid,
		"invalid":   len(invalid),
		"abandoned": len(result.Abandoned),
	}).Info("Poll created")
	return result, nil
}

// ToggleVote adds the user's vote for a date, or removes it if it already exists.
func (e *Engine) ToggleVote(ctx context.Context, scheduleID int64, userID, userName string) (VoteResult, error) {
	result := VoteResult{ScheduleID: scheduleID}
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		sch, err := tx.GetSchedule(ctx, scheduleID)
		if err != nil {
			return err
		}
		if sch == nil {
			return ErrScheduleNotFound
		}
		if sch.Status != store.StatusVoting {
			return ErrPollClosed
		}

		inserted, err := tx.InsertVote(ctx, &store.Vote{ScheduleID: scheduleID, UserID: userID, UserName: userName})
		if err != nil {
			return fmt.Errorf("failed to insert vote: %w", err)
		}
		if !inserted {
			if _, err := tx.DeleteVote(ctx, scheduleID, userID); err != nil {
				return fmt.Errorf("failed to delete vote: %w", err)
			}
		}
		result.Voted = inserted

		result.Count, err = tx.CountVotes(ctx, scheduleID)
		return err
	})
	if err != nil {
		return VoteResult{}, err
	}

	log.WithFields(log.Fields{
		"schedule": scheduleID,
		"user":     userID,
		"voted":    result.Voted,
		"count":    result.Count,
	}).Debug("Vote toggled")
	return result, nil
}

// Standings returns the open poll ordered by vote count, then by date.
func (e *Engine) Standings(ctx context.Context) ([]store.Standing, error) {
	return e.store.ListStandings(ctx)
}

// Voters returns the display names of everyone who voted for a date.
func (e *Engine) Voters(ctx context.Context, scheduleID int64) ([]string, error) {
	votes, err := e.store.ListVoters(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(votes))
	for i, v := range votes {
		names[i] = v.UserName
	}
	return names, nil
}

// CloseVote confirms the leading date and cancels the rest. A schedule that
// was still open from an earlier poll is abandoned.
func (e *Engine) CloseVote(ctx context.Context) (CloseResult, error) {
	var result CloseResult
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		standings, err := tx.ListStandings(ctx)
		if err != nil {
			return fmt.Errorf("failed to load standings: %w", err)
		}
		if len(standings) == 0 {
			return ErrNoActivePoll
		}

		active, err := tx.ListSchedulesByStatus(ctx, store.StatusConfirmed, store.StatusTeamsAssigned)
		if err != nil {
			return err
		}
		for _, sch := range active {
			if err := tx.UpdateScheduleStatus(ctx, sch.ID, store.StatusAbandoned); err != nil {
				return fmt.Errorf("failed to abandon schedule %d: %w", sch.ID, err)
			}
			result.Abandoned = append(result.Abandoned, sch.ID)
		}

		result.Winner = standings[0]
		if err := tx.UpdateScheduleStatus(ctx, result.Winner.ID, store.StatusConfirmed); err != nil {
			return fmt.Errorf("failed to confirm schedule: %w", err)
		}
		result.Winner.Status = store.StatusConfirmed

		for _, st := range standings[1:] {
			if err := tx.UpdateScheduleStatus(ctx, st.ID, store.StatusCancelled); err != nil {
				return fmt.Errorf("failed to cancel schedule %d: %w", st.ID, err)
			}
			st.Status = store.StatusCancelled
			result.Losers = append(result.Losers, st)
		}

		result.Voters, err = tx.ListVoters(ctx, result.Winner.ID)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrNoActivePoll) {
			log.WithError(err).Error("Failed to close poll")
		}
		return CloseResult{}, err
	}

	log.WithFields(log.Fields{
		"schedule":  result.Winner.ID,
		"date":      result.Winner.Date,
		"votes":     result.Winner.VoteCount,
		"cancelled": len(result.Losers),
	}).Info("Poll closed")
	return result, nil
}
