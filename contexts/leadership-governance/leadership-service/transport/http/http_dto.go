package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateElectionRequest struct {
	Name            string    `json:"name"`
	PositionID      string    `json:"position_id"`
	HierarchyLevel  string    `json:"hierarchy_level"`
	EntityID        string    `json:"entity_id"`
	ElectionDate    time.Time `json:"election_date"`
	NominationStart time.Time `json:"nomination_start"`
	NominationEnd   time.Time `json:"nomination_end"`
	VotingStart     time.Time `json:"voting_start"`
	VotingEnd       time.Time `json:"voting_end"`
}

type TransitionElectionRequest struct {
	Status string `json:"status"`
}

type ElectionResponse struct {
	ElectionID      string    `json:"election_id"`
	Name            string    `json:"name"`
	PositionID      string    `json:"position_id"`
	HierarchyLevel  string    `json:"hierarchy_level"`
	EntityID        string    `json:"entity_id"`
	ElectionDate    time.Time `json:"election_date"`
	NominationStart time.Time `json:"nomination_start"`
	NominationEnd   time.Time `json:"nomination_end"`
	VotingStart     time.Time `json:"voting_start"`
	VotingEnd       time.Time `json:"voting_end"`
	Status          string    `json:"status"`
	CreatedBy       string    `json:"created_by"`
	Finalized       bool      `json:"finalized"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ListElectionsRequest struct {
	Status         string
	PositionID     string
	HierarchyLevel string
	EntityID       string
	Limit          int
	Offset         int
}

type ListElectionsResponse struct {
	Items []ElectionResponse `json:"items"`
}

type NominateCandidateRequest struct {
	MemberID            string `json:"member_id"`
	NominationStatement string `json:"nomination_statement,omitempty"`
}

type ReviewCandidateRequest struct {
	Decision string `json:"decision"`
}

type CandidateResponse struct {
	CandidateID         string    `json:"candidate_id"`
	ElectionID          string    `json:"election_id"`
	MemberID            string    `json:"member_id"`
	NominationStatement string    `json:"nomination_statement,omitempty"`
	Status              string    `json:"status"`
	ReviewedBy          string    `json:"reviewed_by,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type ListCandidatesResponse struct {
	Items []CandidateResponse `json:"items"`
}

type CastVoteRequest struct {
	CandidateID string `json:"candidate_id"`
}

// VoteResponse acknowledges a ballot without echoing the choice.
type VoteResponse struct {
	VoteID        string    `json:"vote_id"`
	ElectionID    string    `json:"election_id"`
	VoterMemberID string    `json:"voter_member_id"`
	CastAt        time.Time `json:"cast_at"`
}

type ResultRowResponse struct {
	CandidateID     string `json:"candidate_id"`
	MemberID        string `json:"member_id"`
	CandidateStatus string `json:"candidate_status"`
	VoteCount       int    `json:"vote_count"`
}

type ElectionResultsResponse struct {
	ElectionID string              `json:"election_id"`
	Status     string              `json:"status"`
	Finalized  bool                `json:"finalized"`
	TotalVotes int                 `json:"total_votes"`
	Items      []ResultRowResponse `json:"items"`
}

type FinalizeElectionRequest struct {
	WinnerCandidateID string     `json:"winner_candidate_id"`
	StartDate         time.Time  `json:"start_date"`
	EndDate           *time.Time `json:"end_date,omitempty"`
}

type FinalizeElectionResponse struct {
	ElectionFinalized       bool                `json:"election_finalized"`
	AppointmentID           string              `json:"appointment_id"`
	SupersededAppointmentID string              `json:"superseded_appointment_id,omitempty"`
	WinnerIsTallyLeader     bool                `json:"winner_is_tally_leader"`
	Appointment             AppointmentResponse `json:"appointment"`
	Tally                   []ResultRowResponse `json:"tally"`
}

type CreateAppointmentRequest struct {
	PositionID      string     `json:"position_id"`
	MemberID        string     `json:"member_id"`
	HierarchyLevel  string     `json:"hierarchy_level"`
	EntityID        string     `json:"entity_id"`
	AppointmentType string     `json:"appointment_type"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         *time.Time `json:"end_date,omitempty"`
}

type TerminateAppointmentRequest struct {
	Reason  string     `json:"reason"`
	EndDate *time.Time `json:"end_date,omitempty"`
}

type RemoveAppointmentRequest struct {
	Reason string `json:"reason"`
}

type AppointmentResponse struct {
	AppointmentID     string     `json:"appointment_id"`
	PositionID        string     `json:"position_id"`
	MemberID          string     `json:"member_id"`
	HierarchyLevel    string     `json:"hierarchy_level"`
	EntityID          string     `json:"entity_id"`
	AppointmentType   string     `json:"appointment_type"`
	StartDate         time.Time  `json:"start_date"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	Status            string     `json:"status"`
	AppointedBy       string     `json:"appointed_by"`
	TerminationReason string     `json:"termination_reason,omitempty"`
	ElectionID        string     `json:"election_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type ListAppointmentsRequest struct {
	PositionID     string
	HierarchyLevel string
	EntityID       string
	MemberID       string
	Status         string
	Limit          int
	Offset         int
}

type ListAppointmentsResponse struct {
	Items []AppointmentResponse `json:"items"`
}

type PositionHolderResponse struct {
	PositionID     string               `json:"position_id"`
	HierarchyLevel string               `json:"hierarchy_level"`
	EntityID       string               `json:"entity_id"`
	Occupied       bool                 `json:"occupied"`
	Appointment    *AppointmentResponse `json:"appointment,omitempty"`
}

type PositionResponse struct {
	PositionID     string `json:"position_id"`
	Title          string `json:"title"`
	HierarchyLevel string `json:"hierarchy_level"`
}

type ListPositionsResponse struct {
	Items []PositionResponse `json:"items"`
}
