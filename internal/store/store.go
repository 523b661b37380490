package store

import (
	"context"
	"errors"
)

// ErrDuplicate is returned when an insert hits a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate row")

type ScheduleStatus string

const (
	StatusVoting        ScheduleStatus = "voting"
	StatusConfirmed     ScheduleStatus = "confirmed"
	StatusTeamsAssigned ScheduleStatus = "teams_assigned"
	StatusCompleted     ScheduleStatus = "completed"
	StatusMvpOpen       ScheduleStatus = "mvp_open"
	StatusMvpClosed     ScheduleStatus = "mvp_closed"
	StatusCancelled     ScheduleStatus = "cancelled"
	StatusAbandoned     ScheduleStatus = "abandoned"
)

// Open reports whether participants may still sign up for or leave the schedule.
func (s ScheduleStatus) Open() bool {
	return s == StatusConfirmed || s == StatusTeamsAssigned
}

// Current reports whether the schedule belongs to the running cycle, from
// confirmation until a newer poll is closed.
func (s ScheduleStatus) Current() bool {
	switch s {
	case StatusConfirmed, StatusTeamsAssigned, StatusCompleted, StatusMvpOpen, StatusMvpClosed:
		return true
	}
	return false
}

// Statuses lists every schedule status in lifecycle order.
var Statuses = []ScheduleStatus{
	StatusVoting,
	StatusConfirmed,
	StatusTeamsAssigned,
	StatusCompleted,
	StatusMvpOpen,
	StatusMvpClosed,
	StatusCancelled,
	StatusAbandoned,
}

// AdHocScheduleID keys participants of spontaneous team splits that have no schedule.
const AdHocScheduleID int64 = 0

const (
	TeamNone = 0
	Team1    = 1
	Team2    = 2
)

type Schedule struct {
	ID     int64
	Date   string // YYYY-MM-DD
	Time   string // HH:MM
	Status ScheduleStatus
}

type Standing struct {
	Schedule
	VoteCount int
}

type Vote struct {
	ScheduleID int64
	UserID     string
	UserName   string
}

type Participant struct {
	ScheduleID int64
	UserID     string
	UserName   string
	Team       int // TeamNone until teams are assigned
}

type MatchResult struct {
	ScheduleID  int64
	WinningTeam int
}

type PlayerStats struct {
	UserID   string
	UserName string
	Wins     int
	Losses   int
}

type MvpConfig struct {
	ScheduleID        int64
	WinnerQuota       int
	LoserQuota        int
	AllowSelfTeamVote bool
}

type MvpBallot struct {
	ID          string
	ScheduleID  int64
	VoterID     string
	CandidateID string
	CastOn      string // YYYY-MM-DD
}

type MvpTally struct {
	CandidateID   string
	CandidateName string
	Votes         int
}

type MvpAward struct {
	Date       string
	UserID     string
	UserName   string
	TotalVotes int
}

type PushSubscription struct {
	ID       int
	UserID   string
	Endpoint string
	P256dh   string
	Auth     string
}

// Store is the persistence gateway used by the engines. Lookups of a single
// row return (nil, nil) when the row does not exist.
type Store interface {
	// WithTx runs fn against a transaction-bound Store. The transaction
	// commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	InsertSchedule(ctx context.Context, date, time string, status ScheduleStatus) (*Schedule, error)
	GetSchedule(ctx context.Context, id int64) (*Schedule, error)
	ListSchedulesByStatus(ctx context.Context, statuses ...ScheduleStatus) ([]Schedule, error)
	LatestScheduleByStatus(ctx context.Context, statuses ...ScheduleStatus) (*Schedule, error)
	UpdateScheduleStatus(ctx context.Context, id int64, status ScheduleStatus) error
	ListStandings(ctx context.Context) ([]Standing, error)

	InsertVote(ctx context.Context, v *Vote) (bool, error)
	DeleteVote(ctx context.Context, scheduleID int64, userID string) (bool, error)
	CountVotes(ctx context.Context, scheduleID int64) (int, error)
	ListVoters(ctx context.Context, scheduleID int64) ([]Vote, error)

	InsertParticipant(ctx context.Context, p *Participant) error
	DeleteParticipant(ctx context.Context, scheduleID int64, userID string) (bool, error)
	DeleteParticipants(ctx context.Context, scheduleID int64) error
	GetParticipant(ctx context.Context, scheduleID int64, userID string) (*Participant, error)
	CountParticipants(ctx context.Context, scheduleID int64) (int, error)
	ListParticipants(ctx context.Context, scheduleID int64) ([]Participant, error)
	SetTeams(ctx context.Context, scheduleID int64, team1, team2 []string) error
	ClearTeams(ctx context.Context, scheduleID int64) error

	InsertMatchResult(ctx context.Context, r *MatchResult) error
	GetMatchResult(ctx context.Context, scheduleID int64) (*MatchResult, error)

	EnsurePlayer(ctx context.Context, userID, userName string) error
	ApplyMatchResult(ctx context.Context, scheduleID int64, winningTeam int) (int, error)
	GetPlayerStats(ctx context.Context, userID string) (*PlayerStats, error)
	ListPlayerStatsByName(ctx context.Context, userName string) ([]PlayerStats, error)
	ListPlayerStatsByTeam(ctx context.Context, scheduleID int64, team int) ([]PlayerStats, error)
	ListPlayerStats(ctx context.Context) ([]PlayerStats, error)

	InsertMvpConfig(ctx context.Context, c *MvpConfig) error
	GetMvpConfig(ctx context.Context, scheduleID int64) (*MvpConfig, error)
	CountBallots(ctx context.Context, scheduleID int64, voterID string) (int, error)
	InsertBallot(ctx context.Context, b *MvpBallot) error
	TallyBallots(ctx context.Context, scheduleID int64) ([]MvpTally, error)
	TopCandidateOn(ctx context.Context, date string) (*MvpTally, error)
	UpsertMvpAward(ctx context.Context, a *MvpAward) error
	GetMvpAward(ctx context.Context, date string) (*MvpAward, error)

	SavePushSubscription(ctx context.Context, sub *PushSubscription) error
	GetPushSubscriptions(ctx context.Context, userID string) ([]PushSubscription, error)
	DeletePushSubscription(ctx context.Context, endpoint string) error

	Close() error
}
