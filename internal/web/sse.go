package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/edvart/inhouse-scheduler/internal/coordinator"
	"github.com/edvart/inhouse-scheduler/internal/schedule"
)

// SSEClient represents a connected SSE client.
type SSEClient struct {
	ID      string
	UserID  string
	Channel chan []byte
}

// SSEHub manages SSE connections and broadcasts coordinator events as JSON.
type SSEHub struct {
	clients map[*SSEClient]bool
	mu      sync.RWMutex
}

// NewSSEHub creates a new SSE hub.
func NewSSEHub() *SSEHub {
	return &SSEHub{clients: make(map[*SSEClient]bool)}
}

// Run starts the SSE hub, processing events from the coordinator.
func (h *SSEHub) Run(events <-chan coordinator.Event) {
	log.Info("SSE hub started")
	for event := range events {
		h.broadcast(event)
	}
}

// encodeEvent renders an event as a complete SSE message. Events without a
// public representation return nil.
func encodeEvent(event coordinator.Event) []byte {
	var (
		name string
		data any
	)
	switch e := event.(type) {
	case coordinator.PollCreated:
		name, data = "poll-created", toPoll(schedule.PollResult{Schedules: e.Schedules, Invalid: e.Invalid})
	case coordinator.VoteToggled:
		name, data = "vote-toggled", map[string]any{"scheduleId": e.ScheduleID, "count": e.Count}
	case coordinator.PollClosed:
		name, data = "poll-closed", toCloseVote(schedule.CloseResult{Winner: e.Winner, Losers: e.Losers, Voters: e.Voters})
	case coordinator.ParticipantsUpdated:
		name, data = "participants-updated", map[string]any{
			"scheduleId":     e.ScheduleID,
			"participants":   toParticipants(e.Participants),
			"teamsDiscarded": e.TeamsDiscarded,
		}
	case coordinator.TeamsAssigned:
		name, data = "teams-assigned", map[string]any{"teams": toTeams(e.Teams), "adHoc": e.AdHoc}
	case coordinator.MatchRecorded:
		name, data = "match-recorded", map[string]any{"scheduleId": e.ScheduleID, "winningTeam": e.WinningTeam}
	case coordinator.BallotOpened:
		// Per-voter sheets go out by push, not broadcast.
		name, data = "ballot-opened", toBallot(e.Ballot, false)
	case coordinator.BallotClosed:
		name, data = "ballot-closed", map[string]any{"scheduleId": e.ScheduleID, "tally": toTally(e.Tally)}
	case coordinator.DailyMVPAwarded:
		name, data = "daily-mvp", toAward(e.Award)
	default:
		return nil
	}

	payload, err := json.Marshal(data)
	if err != nil {
		log.WithError(err).Warnf("Failed to encode %s event", name)
		return nil
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", name, payload))
}

func (h *SSEHub) broadcast(event coordinator.Event) {
	msg := encodeEvent(event)
	if msg == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.Channel <- msg:
		default:
			log.WithField("client", client.ID).Warn("Dropping message for slow SSE client")
		}
	}
}

// HandleConnection streams events to one client until it disconnects.
func (h *SSEHub) HandleConnection(w http.ResponseWriter, r *http.Request, userID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &SSEClient{
		ID:      uuid.New().String(),
		UserID:  userID,
		Channel: make(chan []byte, 10),
	}

	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	log.WithFields(log.Fields{"client": client.ID, "user": userID}).Debug("SSE client connected")

	defer func() {
		h.mu.Lock()
		delete(h.clients, client)
		h.mu.Unlock()
		log.WithField("client", client.ID).Debug("SSE client disconnected")
	}()

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-client.Channel:
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
