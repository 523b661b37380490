package push

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/edvart/inhouse-scheduler/internal/coordinator"
	"github.com/edvart/inhouse-scheduler/internal/store"
)

// Notifier listens to coordinator events and sends push notifications.
type Notifier struct {
	service *Service
}

func NewNotifier(service *Service) *Notifier {
	return &Notifier{service: service}
}

// Run starts listening to coordinator events.
func (n *Notifier) Run(ctx context.Context, events <-chan coordinator.Event) {
	log.Info("Push notifier started")
	for {
		select {
		case <-ctx.Done():
			log.Info("Push notifier stopped")
			return
		case event := <-events:
			n.handleEvent(ctx, event)
		}
	}
}

func (n *Notifier) handleEvent(ctx context.Context, event coordinator.Event) {
	switch e := event.(type) {
	case coordinator.TeamsAssigned:
		n.handleTeamsAssigned(ctx, e)
	case coordinator.BallotOpened:
		n.handleBallotOpened(ctx, e)
	}
}

func teamIDs(ps []store.Participant) []string {
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.UserID
	}
	return ids
}

func (n *Notifier) handleTeamsAssigned(ctx context.Context, e coordinator.TeamsAssigned) {
	log.WithField("schedule", e.Teams.ScheduleID).Info("Notifying players of team assignment")

	for team, players := range map[int][]store.Participant{store.Team1: e.Teams.Team1, store.Team2: e.Teams.Team2} {
		n.service.SendToMultipleUsers(ctx, teamIDs(players), NotificationPayload{
			Title: "Teams are set",
			Body:  fmt.Sprintf("You are on team %d.", team),
			Tag:   "teams-assigned",
			Data: map[string]any{
				"scheduleId": e.Teams.ScheduleID,
				"team":       team,
			},
		})
	}
}

func (n *Notifier) handleBallotOpened(ctx context.Context, e coordinator.BallotOpened) {
	b := e.Ballot
	log.WithField("schedule", b.Schedule.ID).Infof("Sending MVP ballots to %d voters", len(b.Sheets))

	for _, sheet := range b.Sheets {
		candidates := make([]map[string]string, len(sheet.Candidates))
		for i, c := range sheet.Candidates {
			candidates[i] = map[string]string{"id": c.UserID, "name": c.UserName}
		}
		payload := NotificationPayload{
			Title: fmt.Sprintf("MVP vote for %s", b.Schedule.Date),
			Body:  fmt.Sprintf("You have %d vote(s). Pick the MVP of the match.", sheet.Quota),
			Tag:   "mvp-ballot",
			Data: map[string]any{
				"scheduleId": b.Schedule.ID,
				"quota":      sheet.Quota,
				"candidates": candidates,
			},
		}
		if err := n.service.SendToUser(ctx, sheet.Voter.UserID, payload); err != nil {
			log.WithError(err).WithField("user", sheet.Voter.UserID).Warn("Failed to send MVP ballot")
		}
	}
}
