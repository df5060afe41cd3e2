package entities

import "time"

type CandidateStatus string

const (
	CandidateStatusNominated CandidateStatus = "nominated"
	CandidateStatusApproved  CandidateStatus = "approved"
	CandidateStatusRejected  CandidateStatus = "rejected"
	CandidateStatusWithdrawn CandidateStatus = "withdrawn"
)

func (s CandidateStatus) Valid() bool {
	switch s {
	case CandidateStatusNominated,
		CandidateStatusApproved,
		CandidateStatusRejected,
		CandidateStatusWithdrawn:
		return true
	default:
		return false
	}
}

// Candidate rows are never deleted; withdrawal is a status.
type Candidate struct {
	CandidateID         string
	ElectionID          string
	MemberID            string
	NominationStatement string
	Status              CandidateStatus
	ReviewedBy          string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (c Candidate) Active() bool {
	return c.Status != CandidateStatusWithdrawn
}

func (c Candidate) Electable() bool {
	return c.Status == CandidateStatusApproved
}
