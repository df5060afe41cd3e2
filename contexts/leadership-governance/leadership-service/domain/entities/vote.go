package entities

import "time"

// Vote is append-only. A member holds at most one vote per election.
type Vote struct {
	VoteID        string
	ElectionID    string
	VoterMemberID string
	CandidateID   string
	CastAt        time.Time
}

// ResultRow is one line of a tally. It is derived and never persisted.
type ResultRow struct {
	CandidateID     string
	MemberID        string
	CandidateStatus CandidateStatus
	VoteCount       int
}
