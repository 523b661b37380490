package web

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/edvart/inhouse-scheduler/internal/auth"
	"github.com/edvart/inhouse-scheduler/internal/coordinator"
	"github.com/edvart/inhouse-scheduler/internal/mvp"
	"github.com/edvart/inhouse-scheduler/internal/roster"
	"github.com/edvart/inhouse-scheduler/internal/schedule"
)

type memberJSON struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

func toMembers(in []memberJSON) []roster.Member {
	out := make([]roster.Member, len(in))
	for i, m := range in {
		out[i] = roster.Member{UserID: m.UserID, UserName: m.UserName}
	}
	return out
}

// handleCreatePoll starts a date poll. Body: {"dates": "2025-03-05,2025-03-06"}.
func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dates string `json:"dates"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	resp := coordinator.NewResponse[schedule.PollResult]()
	s.coordinator.Send(coordinator.CreatePoll{Dates: req.Dates, Response: resp})

	result, err := waitForResponse(r, resp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPoll(result))
}

func (s *Server) handleCloseVote(w http.ResponseWriter, r *http.Request) {
	resp := coordinator.NewResponse[schedule.CloseResult]()
	s.coordinator.Send(coordinator.CloseVote{Response: resp})

	result, err := waitForResponse(r, resp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCloseVote(result))
}

func (s *Server) handleAssignTeams(w http.ResponseWriter, r *http.Request) {
	resp := coordinator.NewResponse[roster.Teams]()
	s.coordinator.Send(coordinator.AssignTeams{Response: resp})

	teams, err := waitForResponse(r, resp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTeams(teams))
}

// handleAssignAdHoc splits the given members, typically everyone in a voice channel.
func (s *Server) handleAssignAdHoc(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Members []memberJSON `json:"members"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	resp := coordinator.NewResponse[roster.Teams]()
	s.coordinator.Send(coordinator.AssignAdHoc{Members: toMembers(req.Members), Response: resp})

	teams, err := waitForResponse(r, resp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTeams(teams))
}

// handleRecordResult stores the winner. Body: {"winningTeam": 1}.
func (s *Server) handleRecordResult(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WinningTeam int `json:"winningTeam"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	resp := coordinator.NewResponse[roster.MatchResult]()
	s.coordinator.Send(coordinator.RecordResult{WinningTeam: req.WinningTeam, Response: resp})

	result, err := waitForResponse(r, resp)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user := auth.UserFromContext(r.Context())
	log.WithFields(log.Fields{
		"admin":    user.ID,
		"schedule": result.ScheduleID,
		"winner":   result.WinningTeam,
	}).Info("Admin recorded match result")
	writeJSON(w, http.StatusOK, MatchResultJSON{
		ScheduleID:     result.ScheduleID,
		WinningTeam:    result.WinningTeam,
		PlayersUpdated: result.PlayersUpdated,
	})
}

// handleOpenBallot starts the MVP vote. Omitted fields fall back to the configured defaults.
func (s *Server) handleOpenBallot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WinnerQuota       *int  `json:"winnerQuota"`
		LoserQuota        *int  `json:"loserQuota"`
		AllowSelfTeamVote *bool `json:"allowSelfTeamVote"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	var cfg *mvp.Config
	if req.WinnerQuota != nil || req.LoserQuota != nil || req.AllowSelfTeamVote != nil {
		c := s.mvpDefaults
		if req.WinnerQuota != nil {
			c.WinnerQuota = *req.WinnerQuota
		}
		if req.LoserQuota != nil {
			c.LoserQuota = *req.LoserQuota
		}
		if req.AllowSelfTeamVote != nil {
			c.AllowSelfTeamVote = *req.AllowSelfTeamVote
		}
		cfg = &c
	}

	resp := coordinator.NewResponse[mvp.Ballot]()
	s.coordinator.Send(coordinator.OpenBallot{Config: cfg, Response: resp})

	ballot, err := waitForResponse(r, resp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBallot(ballot, true))
}

func (s *Server) handleCloseBallot(w http.ResponseWriter, r *http.Request) {
	resp := coordinator.NewResponse[[]mvp.TallyEntry]()
	s.coordinator.Send(coordinator.CloseBallot{Response: resp})

	tally, err := waitForResponse(r, resp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTally(tally))
}

func (s *Server) handleAwardDailyMVP(w http.ResponseWriter, r *http.Request) {
	resp := coordinator.NewResponse[mvp.Award]()
	s.coordinator.Send(coordinator.AwardDailyMVP{Response: resp})

	award, err := waitForResponse(r, resp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAward(award))
}

// handleSyncMembers creates stats rows for the given community members.
func (s *Server) handleSyncMembers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Members []memberJSON `json:"members"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	resp := coordinator.NewResponse[int]()
	s.coordinator.Send(coordinator.SyncMembers{Members: toMembers(req.Members), Response: resp})

	n, err := waitForResponse(r, resp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"synced": n})
}
