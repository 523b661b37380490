package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/edvart/inhouse-scheduler/internal/coordinator"
	"github.com/edvart/inhouse-scheduler/internal/mvp"
	"github.com/edvart/inhouse-scheduler/internal/roster"
	"github.com/edvart/inhouse-scheduler/internal/schedule"
)

type errorJSON struct {
	Error   string   `json:"error"`
	Invalid []string `json:"invalid,omitempty"`
}

var errorStatus = []struct {
	err    error
	status int
}{
	{coordinator.ErrNoActiveSchedule, http.StatusNotFound},
	{schedule.ErrNoActivePoll, http.StatusNotFound},
	{schedule.ErrScheduleNotFound, http.StatusNotFound},
	{roster.ErrScheduleNotFound, http.StatusNotFound},
	{mvp.ErrScheduleNotFound, http.StatusNotFound},
	{mvp.ErrNoBallotsToday, http.StatusNotFound},
	{roster.ErrNotSignedUp, http.StatusNotFound},

	{schedule.ErrPollClosed, http.StatusConflict},
	{roster.ErrScheduleNotOpen, http.StatusConflict},
	{roster.ErrAlreadyFull, http.StatusConflict},
	{roster.ErrDuplicateSignUp, http.StatusConflict},
	{roster.ErrInsufficientParticipants, http.StatusConflict},
	{roster.ErrTeamsNotAssigned, http.StatusConflict},
	{roster.ErrDuplicateResult, http.StatusConflict},
	{mvp.ErrNoMatchResult, http.StatusConflict},
	{mvp.ErrBallotExists, http.StatusConflict},
	{mvp.ErrBallotNotOpen, http.StatusConflict},

	{mvp.ErrNotParticipant, http.StatusForbidden},

	{roster.ErrInvalidTeam, http.StatusBadRequest},
	{mvp.ErrIneligibleCandidate, http.StatusBadRequest},
	{mvp.ErrInvalidQuota, http.StatusBadRequest},
}

// writeError turns an engine error into a user-facing JSON response.
// Unknown errors are logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *schedule.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: verr.Error(), Invalid: verr.Invalid})
		return
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			writeJSON(w, e.status, errorJSON{Error: e.err.Error()})
			return
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		writeJSON(w, http.StatusGatewayTimeout, errorJSON{Error: "request timed out"})
		return
	}

	log.WithError(err).WithFields(log.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Error("Request failed")
	writeJSON(w, http.StatusInternalServerError, errorJSON{Error: "something went wrong, please try again"})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorJSON{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}
