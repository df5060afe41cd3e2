package errors

import "errors"

var (
	ErrInvalidElectionInput    = errors.New("invalid election input")
	ErrInvalidCandidateInput   = errors.New("invalid candidate input")
	ErrInvalidVoteInput        = errors.New("invalid vote input")
	ErrInvalidAppointmentInput = errors.New("invalid appointment input")
	ErrActorRequired           = errors.New("actor id is required")
	ErrForbidden               = errors.New("operation requires operator capability")

	ErrElectionNotFound    = errors.New("election not found")
	ErrCandidateNotFound   = errors.New("candidate not found")
	ErrPositionNotFound    = errors.New("position not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrMemberNotFound      = errors.New("member not found")

	ErrCandidateNotInElection = errors.New("candidate does not belong to election")
	ErrInvalidWindow          = errors.New("invalid nomination or voting window")
	ErrInvalidTransition      = errors.New("invalid election status transition")
	ErrNominationWindowClosed = errors.New("nominations are not open")
	ErrInvalidReviewState     = errors.New("candidate cannot be changed in current state")
	ErrVotingClosed           = errors.New("voting is not open")
	ErrInvalidCandidate       = errors.New("candidate is not approved for this election")
	ErrDuplicateNomination    = errors.New("member already has an active nomination")
	ErrMemberNotEligible      = errors.New("member is not eligible")

	ErrAlreadyVoted     = errors.New("member has already voted in this election")
	ErrAlreadyFinalized = errors.New("election is already finalized")
	ErrPositionOccupied = errors.New("position already has an active appointment")
	ErrNotActive        = errors.New("appointment is not active")
	ErrOutboxNotFound   = errors.New("outbox message not found")
)
