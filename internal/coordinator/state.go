package coordinator

import (
	"context"

	"github.com/edvart/inhouse-scheduler/internal/store"
)

// Session is a snapshot of the active schedule.
type Session struct {
	Schedule     *store.Schedule
	Participants []store.Participant
}

// State is owned by the coordinator loop. The active schedule is the one
// confirmed by the most recent CloseVote; it stays active through team
// assignment, result and MVP vote until a newer poll is closed.
type State struct {
	ActiveScheduleID int64
	HasActive        bool
}

// resumable returns the statuses a restart should pick back up.
func resumable() []store.ScheduleStatus {
	var out []store.ScheduleStatus
	for _, st := range store.Statuses {
		if st.Current() {
			out = append(out, st)
		}
	}
	return out
}

// LoadState restores the active schedule from the store.
func LoadState(ctx context.Context, s store.Store) (*State, error) {
	sch, err := s.LatestScheduleByStatus(ctx, resumable()...)
	if err != nil {
		return nil, err
	}
	st := &State{}
	if sch != nil {
		st.setActive(sch.ID)
	}
	return st, nil
}

func (s *State) setActive(id int64) {
	s.ActiveScheduleID = id
	s.HasActive = true
}

func (s *State) active() (int64, error) {
	if !s.HasActive {
		return 0, ErrNoActiveSchedule
	}
	return s.ActiveScheduleID, nil
}
