package entities

import "time"

type ElectionStatus string

const (
	ElectionStatusPlanned           ElectionStatus = "planned"
	ElectionStatusNominationsOpen   ElectionStatus = "nominations_open"
	ElectionStatusNominationsClosed ElectionStatus = "nominations_closed"
	ElectionStatusVotingOpen        ElectionStatus = "voting_open"
	ElectionStatusVotingClosed      ElectionStatus = "voting_closed"
	ElectionStatusCompleted         ElectionStatus = "completed"
	ElectionStatusCancelled         ElectionStatus = "cancelled"
)

func (s ElectionStatus) Valid() bool {
	switch s {
	case ElectionStatusPlanned,
		ElectionStatusNominationsOpen,
		ElectionStatusNominationsClosed,
		ElectionStatusVotingOpen,
		ElectionStatusVotingClosed,
		ElectionStatusCompleted,
		ElectionStatusCancelled:
		return true
	default:
		return false
	}
}

func (s ElectionStatus) Terminal() bool {
	return s == ElectionStatusCompleted || s == ElectionStatusCancelled
}

// Window is a closed time interval.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(at time.Time) bool {
	return !at.Before(w.Start) && !at.After(w.End)
}

type Election struct {
	ElectionID       string
	Name             string
	PositionID       string
	HierarchyLevel   HierarchyLevel
	EntityID         string
	ElectionDate     time.Time
	NominationWindow Window
	VotingWindow     Window
	Status           ElectionStatus
	CreatedBy        string
	Finalized        bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (e Election) PositionKey() PositionKey {
	return PositionKey{
		PositionID:     e.PositionID,
		HierarchyLevel: e.HierarchyLevel,
		EntityID:       e.EntityID,
	}
}

func (e Election) AcceptsNominations() bool {
	return e.Status == ElectionStatusNominationsOpen
}

func (e Election) AcceptsVotes() bool {
	return e.Status == ElectionStatusVotingOpen
}
