package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/edvart/inhouse-scheduler/internal/auth"
	"github.com/edvart/inhouse-scheduler/internal/coordinator"
	"github.com/edvart/inhouse-scheduler/internal/mvp"
	"github.com/edvart/inhouse-scheduler/internal/roster"
	"github.com/edvart/inhouse-scheduler/internal/schedule"
	"github.com/edvart/inhouse-scheduler/internal/store"
)

const handlerTimeout = 10 * time.Second

// waitForResponse waits for a coordinator reply with a timeout.
func waitForResponse[T any](r *http.Request, resp <-chan coordinator.Reply[T]) (T, error) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()
	return coordinator.Await(ctx, resp)
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

func member(user *auth.User) roster.Member {
	return roster.Member{UserID: user.ID, UserName: user.Name}
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	standings, err := s.coordinator.Standings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStandings(standings))
}

func (s *Server) handleToggleVote(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	scheduleID, err := strconv.ParseInt(chi.URLParam(r, "scheduleID"), 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid schedule ID")
		return
	}

	resp := coordinator.NewResponse[schedule.VoteResult]()
	s.coordinator.Send(coordinator.ToggleVote{
		ScheduleID: scheduleID,
		User:       member(user),
		Response:   resp,
	})

	result, err := waitForResponse(r, resp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, VoteJSON{ScheduleID: result.ScheduleID, Voted: result.Voted, Count: result.Count})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	resp := coordinator.NewResponse[coordinator.Session]()
	s.coordinator.Send(coordinator.GetSession{Response: resp})

	session, err := waitForResponse(r, resp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if session.Schedule == nil {
		writeError(w, r, coordinator.ErrNoActiveSchedule)
		return
	}
	writeJSON(w, http.StatusOK, SessionJSON{
		Schedule:     toSchedule(*session.Schedule),
		Participants: toParticipants(session.Participants),
		Count:        len(session.Participants),
		Capacity:     roster.MaxParticipants,
	})
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	resp := coordinator.NewResponse[store.Participant]()
	s.coordinator.Send(coordinator.SignUp{User: member(user), Response: resp})

	p, err := waitForResponse(r, resp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toParticipants([]store.Participant{p})[0])
}

func (s *Server) handleCancelSignUp(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	resp := coordinator.NewResponse[bool]()
	s.coordinator.Send(coordinator.CancelSignUp{UserID: user.ID, Response: resp})

	discarded, err := waitForResponse(r, resp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"teamsDiscarded": discarded})
}

// handleStats returns win rates. ?user=<name> selects one player by display
// name, ?team=1|2 selects a team of the active session, no filter selects everyone.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var f roster.Filter
	f.UserName = r.URL.Query().Get("user")

	if teamStr := r.URL.Query().Get("team"); teamStr != "" && f.UserName == "" {
		team, err := strconv.Atoi(teamStr)
		if err != nil {
			writeBadRequest(w, "team must be 1 or 2")
			return
		}
		f.Team = team

		resp := coordinator.NewResponse[coordinator.Session]()
		s.coordinator.Send(coordinator.GetSession{Response: resp})
		session, err := waitForResponse(r, resp)
		if err == nil && session.Schedule == nil {
			err = coordinator.ErrNoActiveSchedule
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.ScheduleID = session.Schedule.ID
	}

	rates, err := s.coordinator.WinRates(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWinRates(rates))
}

func (s *Server) handleCastMvpVote(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var req struct {
		CandidateID string `json:"candidateId"`
	}
	if err := decodeJSON(r, &req); err != nil || req.CandidateID == "" {
		writeBadRequest(w, "candidateId is required")
		return
	}

	resp := coordinator.NewResponse[mvp.CastResult]()
	s.coordinator.Send(coordinator.CastMvpVote{
		VoterID:     user.ID,
		CandidateID: req.CandidateID,
		Response:    resp,
	})

	result, err := waitForResponse(r, resp)
	if errors.Is(err, mvp.ErrQuotaExceeded) {
		writeJSON(w, http.StatusOK, CastJSON{Accepted: false, Remaining: 0, Reason: err.Error()})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CastJSON{Accepted: result.Accepted, Remaining: result.Remaining})
}

func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	resp := coordinator.NewResponse[[]mvp.TallyEntry]()
	s.coordinator.Send(coordinator.GetTally{Response: resp})

	tally, err := waitForResponse(r, resp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTally(tally))
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	log.WithField("user", user.ID).Debug("SSE subscribe")
	s.sse.HandleConnection(w, r, user.ID)
}
