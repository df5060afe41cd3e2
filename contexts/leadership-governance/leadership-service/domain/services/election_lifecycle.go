package services

import (
	"time"

	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	domainerrors "backoffice/contexts/leadership-governance/leadership-service/domain/errors"
)

// electionTransitions is the closed table of legal status moves. Anything not
// listed is rejected, so stages can never be skipped or reversed.
var electionTransitions = map[entities.ElectionStatus][]entities.ElectionStatus{
	entities.ElectionStatusPlanned: {
		entities.ElectionStatusNominationsOpen,
		entities.ElectionStatusCancelled,
	},
	entities.ElectionStatusNominationsOpen: {
		entities.ElectionStatusNominationsClosed,
		entities.ElectionStatusCancelled,
	},
	entities.ElectionStatusNominationsClosed: {
		entities.ElectionStatusVotingOpen,
		entities.ElectionStatusCancelled,
	},
	entities.ElectionStatusVotingOpen: {
		entities.ElectionStatusVotingClosed,
		entities.ElectionStatusCancelled,
	},
	entities.ElectionStatusVotingClosed: {
		entities.ElectionStatusCompleted,
		entities.ElectionStatusCancelled,
	},
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from entities.ElectionStatus, to entities.ElectionStatus) bool {
	for _, next := range electionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition for any move outside the table.
func ValidateTransition(from entities.ElectionStatus, to entities.ElectionStatus) error {
	if !to.Valid() || !CanTransition(from, to) {
		return domainerrors.ErrInvalidTransition
	}
	return nil
}

// NextStatuses lists the statuses reachable from the given one.
func NextStatuses(from entities.ElectionStatus) []entities.ElectionStatus {
	next := electionTransitions[from]
	out := make([]entities.ElectionStatus, len(next))
	copy(out, next)
	return out
}

// ValidateWindows checks nomination and voting windows. Voting may not start
// before nominations close.
func ValidateWindows(nomination entities.Window, voting entities.Window) error {
	if nomination.Start.IsZero() || nomination.End.IsZero() ||
		voting.Start.IsZero() || voting.End.IsZero() {
		return domainerrors.ErrInvalidWindow
	}
	if nomination.End.Before(nomination.Start) {
		return domainerrors.ErrInvalidWindow
	}
	if !voting.End.After(voting.Start) {
		return domainerrors.ErrInvalidWindow
	}
	if voting.Start.Before(nomination.End) {
		return domainerrors.ErrInvalidWindow
	}
	return nil
}

// ReviewableElectionStatuses are the election states in which candidates may
// still be approved or rejected. Approval status is frozen once voting opens.
func ReviewableElectionStatuses() []entities.ElectionStatus {
	return []entities.ElectionStatus{
		entities.ElectionStatusPlanned,
		entities.ElectionStatusNominationsOpen,
		entities.ElectionStatusNominationsClosed,
	}
}

// WithdrawableElectionStatuses are the election states in which a candidacy
// may be withdrawn.
func WithdrawableElectionStatuses() []entities.ElectionStatus {
	return []entities.ElectionStatus{
		entities.ElectionStatusPlanned,
		entities.ElectionStatusNominationsOpen,
		entities.ElectionStatusNominationsClosed,
		entities.ElectionStatusVotingOpen,
	}
}

// ContainsStatus is a small helper shared by adapters that re-check election
// state inside a transaction.
func ContainsStatus(statuses []entities.ElectionStatus, status entities.ElectionStatus) bool {
	for _, item := range statuses {
		if item == status {
			return true
		}
	}
	return false
}

// EvaluateReview validates a review decision against election and candidate state.
func EvaluateReview(
	electionStatus entities.ElectionStatus,
	candidateStatus entities.CandidateStatus,
	decision entities.CandidateStatus,
) error {
	if decision != entities.CandidateStatusApproved && decision != entities.CandidateStatusRejected {
		return domainerrors.ErrInvalidCandidateInput
	}
	if !ContainsStatus(ReviewableElectionStatuses(), electionStatus) {
		return domainerrors.ErrInvalidReviewState
	}
	if candidateStatus == entities.CandidateStatusWithdrawn {
		return domainerrors.ErrInvalidReviewState
	}
	return nil
}

// EvaluateWithdrawal validates a withdrawal against election and candidate state.
func EvaluateWithdrawal(electionStatus entities.ElectionStatus, candidateStatus entities.CandidateStatus) error {
	if !ContainsStatus(WithdrawableElectionStatuses(), electionStatus) {
		return domainerrors.ErrInvalidReviewState
	}
	if candidateStatus == entities.CandidateStatusWithdrawn {
		return domainerrors.ErrInvalidReviewState
	}
	return nil
}

// EvaluateFinalization enforces the pre-conditions of turning an election
// into an appointment. Finalized is checked before status so a completed
// election reports ErrAlreadyFinalized rather than a transition error.
func EvaluateFinalization(election entities.Election, candidate entities.Candidate) error {
	if candidate.ElectionID != election.ElectionID {
		return domainerrors.ErrCandidateNotInElection
	}
	if election.Finalized {
		return domainerrors.ErrAlreadyFinalized
	}
	if election.Status != entities.ElectionStatusVotingClosed {
		return domainerrors.ErrInvalidTransition
	}
	return nil
}

// ValidateAppointmentDates rejects an end date before the start date.
func ValidateAppointmentDates(start time.Time, end *time.Time) error {
	if start.IsZero() {
		return domainerrors.ErrInvalidAppointmentInput
	}
	if end != nil && end.Before(start) {
		return domainerrors.ErrInvalidAppointmentInput
	}
	return nil
}

// DefaultEndDate is the end date used when a term is closed without an
// explicit one. A term that has not started yet ends on its start date.
func DefaultEndDate(start time.Time, now time.Time) time.Time {
	if now.Before(start) {
		return start.UTC()
	}
	return now.UTC()
}
