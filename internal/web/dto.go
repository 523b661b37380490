package web

import (
	"github.com/edvart/inhouse-scheduler/internal/mvp"
	"github.com/edvart/inhouse-scheduler/internal/roster"
	"github.com/edvart/inhouse-scheduler/internal/schedule"
	"github.com/edvart/inhouse-scheduler/internal/store"
)

type ScheduleJSON struct {
	ID     int64  `json:"id"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Status string `json:"status"`
}

type StandingJSON struct {
	ScheduleJSON
	Votes int `json:"votes"`
}

type ParticipantJSON struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Team     int    `json:"team,omitempty"`
}

type TeamsJSON struct {
	ScheduleID int64             `json:"scheduleId"`
	Team1      []ParticipantJSON `json:"team1"`
	Team2      []ParticipantJSON `json:"team2"`
}

type PollJSON struct {
	Schedules []ScheduleJSON `json:"schedules"`
	Invalid   []string       `json:"invalid"`
}

type VoteJSON struct {
	ScheduleID int64 `json:"scheduleId"`
	Voted      bool  `json:"voted"`
	Count      int   `json:"count"`
}

type CloseVoteJSON struct {
	Winner StandingJSON   `json:"winner"`
	Losers []StandingJSON `json:"losers"`
	Voters []string       `json:"voters"`
}

type SessionJSON struct {
	Schedule     ScheduleJSON      `json:"schedule"`
	Participants []ParticipantJSON `json:"participants"`
	Count        int               `json:"count"`
	Capacity     int               `json:"capacity"`
}

type MatchResultJSON struct {
	ScheduleID     int64 `json:"scheduleId"`
	WinningTeam    int   `json:"winningTeam"`
	PlayersUpdated int   `json:"playersUpdated"`
}

type WinRateJSON struct {
	UserID   string  `json:"userId"`
	UserName string  `json:"userName"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	Rate     float64 `json:"rate"`
}

type SheetJSON struct {
	Voter      ParticipantJSON   `json:"voter"`
	Quota      int               `json:"quota"`
	Candidates []ParticipantJSON `json:"candidates"`
}

type BallotJSON struct {
	Schedule          ScheduleJSON `json:"schedule"`
	WinningTeam       int          `json:"winningTeam"`
	WinnerQuota       int          `json:"winnerQuota"`
	LoserQuota        int          `json:"loserQuota"`
	AllowSelfTeamVote bool         `json:"allowSelfTeamVote"`
	Sheets            []SheetJSON  `json:"sheets,omitempty"`
}

type CastJSON struct {
	Accepted  bool   `json:"accepted"`
	Remaining int    `json:"remaining"`
	Reason    string `json:"reason,omitempty"`
}

type TallyJSON struct {
	CandidateID   string `json:"candidateId"`
	CandidateName string `json:"candidateName"`
	Votes         int    `json:"votes"`
}

type AwardJSON struct {
	Date     string `json:"date"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Votes    int    `json:"votes"`
}

func toSchedule(s store.Schedule) ScheduleJSON {
	return ScheduleJSON{ID: s.ID, Date: s.Date, Time: s.Time, Status: string(s.Status)}
}

func toStanding(s store.Standing) StandingJSON {
	return StandingJSON{ScheduleJSON: toSchedule(s.Schedule), Votes: s.VoteCount}
}

func toStandings(in []store.Standing) []StandingJSON {
	out := make([]StandingJSON, len(in))
	for i, s := range in {
		out[i] = toStanding(s)
	}
	return out
}

func toParticipants(in []store.Participant) []ParticipantJSON {
	out := make([]ParticipantJSON, len(in))
	for i, p := range in {
		out[i] = ParticipantJSON{UserID: p.UserID, UserName: p.UserName, Team: p.Team}
	}
	return out
}

func toTeams(t roster.Teams) TeamsJSON {
	return TeamsJSON{ScheduleID: t.ScheduleID, Team1: toParticipants(t.Team1), Team2: toParticipants(t.Team2)}
}

func toPoll(p schedule.PollResult) PollJSON {
	out := PollJSON{Schedules: make([]ScheduleJSON, len(p.Schedules)), Invalid: p.Invalid}
	for i, s := range p.Schedules {
		out.Schedules[i] = toSchedule(s)
	}
	if out.Invalid == nil {
		out.Invalid = []string{}
	}
	return out
}

func toCloseVote(r schedule.CloseResult) CloseVoteJSON {
	out := CloseVoteJSON{
		Winner: toStanding(r.Winner),
		Losers: toStandings(r.Losers),
		Voters: make([]string, len(r.Voters)),
	}
	for i, v := range r.Voters {
		out.Voters[i] = v.UserName
	}
	return out
}

func toWinRates(in []roster.WinRate) []WinRateJSON {
	out := make([]WinRateJSON, len(in))
	for i, w := range in {
		out[i] = WinRateJSON{UserID: w.UserID, UserName: w.UserName, Wins: w.Wins, Losses: w.Losses, Rate: w.Rate}
	}
	return out
}

func toBallot(b mvp.Ballot, withSheets bool) BallotJSON {
	out := BallotJSON{
		Schedule:          toSchedule(b.Schedule),
		WinningTeam:       b.WinningTeam,
		WinnerQuota:       b.Config.WinnerQuota,
		LoserQuota:        b.Config.LoserQuota,
		AllowSelfTeamVote: b.Config.AllowSelfTeamVote,
	}
	if withSheets {
		for _, sh := range b.Sheets {
			out.Sheets = append(out.Sheets, SheetJSON{
				Voter:      toParticipants([]store.Participant{sh.Voter})[0],
				Quota:      sh.Quota,
				Candidates: toParticipants(sh.Candidates),
			})
		}
	}
	return out
}

func toTally(in []mvp.TallyEntry) []TallyJSON {
	out := make([]TallyJSON, len(in))
	for i, t := range in {
		out[i] = TallyJSON{CandidateID: t.CandidateID, CandidateName: t.CandidateName, Votes: t.Votes}
	}
	return out
}

func toAward(a mvp.Award) AwardJSON {
	return AwardJSON{Date: a.Date, UserID: a.UserID, UserName: a.UserName, Votes: a.Votes}
}
