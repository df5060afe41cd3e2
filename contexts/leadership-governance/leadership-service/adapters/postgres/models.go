package postgresadapter

import (
	"strings"
	"time"

	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
)

type positionModel struct {
	PositionID     string `gorm:"column:position_id;primaryKey"`
	Title          string `gorm:"column:title"`
	HierarchyLevel string `gorm:"column:hierarchy_level;index"`
}

func (positionModel) TableName() string {
	return "leadership_positions"
}

func (m positionModel) toEntity() entities.Position {
	return entities.Position{
		PositionID:     m.PositionID,
		Title:          m.Title,
		HierarchyLevel: entities.HierarchyLevel(m.HierarchyLevel),
	}
}

type memberModel struct {
	MemberID    string `gorm:"column:member_id;primaryKey"`
	DisplayName string `gorm:"column:display_name"`
	Status      string `gorm:"column:status"`
}

func (memberModel) TableName() string {
	return "members"
}

type operatorModel struct {
	ActorID   string    `gorm:"column:actor_id;primaryKey"`
	GrantedAt time.Time `gorm:"column:granted_at"`
}

func (operatorModel) TableName() string {
	return "leadership_operators"
}

type electionModel struct {
	ElectionID      string    `gorm:"column:election_id;primaryKey"`
	Name            string    `gorm:"column:name"`
	PositionID      string    `gorm:"column:position_id;index:idx_elections_position"`
	HierarchyLevel  string    `gorm:"column:hierarchy_level;index:idx_elections_position"`
	EntityID        string    `gorm:"column:entity_id;index:idx_elections_position"`
	ElectionDate    time.Time `gorm:"column:election_date"`
	NominationStart time.Time `gorm:"column:nomination_start"`
	NominationEnd   time.Time `gorm:"column:nomination_end"`
	VotingStart     time.Time `gorm:"column:voting_start"`
	VotingEnd       time.Time `gorm:"column:voting_end"`
	Status          string    `gorm:"column:status;index"`
	CreatedBy       string    `gorm:"column:created_by"`
	Finalized       bool      `gorm:"column:finalized"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (electionModel) TableName() string {
	return "elections"
}

func electionModelFromEntity(election entities.Election) electionModel {
	return electionModel{
		ElectionID:      strings.TrimSpace(election.ElectionID),
		Name:            strings.TrimSpace(election.Name),
		PositionID:      strings.TrimSpace(election.PositionID),
		HierarchyLevel:  string(election.HierarchyLevel),
		EntityID:        strings.TrimSpace(election.EntityID),
		ElectionDate:    election.ElectionDate.UTC(),
		NominationStart: election.NominationWindow.Start.UTC(),
		NominationEnd:   election.NominationWindow.End.UTC(),
		VotingStart:     election.VotingWindow.Start.UTC(),
		VotingEnd:       election.VotingWindow.End.UTC(),
		Status:          string(election.Status),
		CreatedBy:       strings.TrimSpace(election.CreatedBy),
		Finalized:       election.Finalized,
		CreatedAt:       election.CreatedAt.UTC(),
		UpdatedAt:       election.UpdatedAt.UTC(),
	}
}

func (m electionModel) toEntity() entities.Election {
	return entities.Election{
		ElectionID:       m.ElectionID,
		Name:             m.Name,
		PositionID:       m.PositionID,
		HierarchyLevel:   entities.HierarchyLevel(m.HierarchyLevel),
		EntityID:         m.EntityID,
		ElectionDate:     m.ElectionDate.UTC(),
		NominationWindow: entities.Window{Start: m.NominationStart.UTC(), End: m.NominationEnd.UTC()},
		VotingWindow:     entities.Window{Start: m.VotingStart.UTC(), End: m.VotingEnd.UTC()},
		Status:           entities.ElectionStatus(m.Status),
		CreatedBy:        m.CreatedBy,
		Finalized:        m.Finalized,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

type candidateModel struct {
	CandidateID         string    `gorm:"column:candidate_id;primaryKey"`
	ElectionID          string    `gorm:"column:election_id;index"`
	MemberID            string    `gorm:"column:member_id"`
	NominationStatement string    `gorm:"column:nomination_statement"`
	Status              string    `gorm:"column:status"`
	ReviewedBy          *string   `gorm:"column:reviewed_by"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (candidateModel) TableName() string {
	return "candidates"
}

func candidateModelFromEntity(candidate entities.Candidate) candidateModel {
	return candidateModel{
		CandidateID:         strings.TrimSpace(candidate.CandidateID),
		ElectionID:          strings.TrimSpace(candidate.ElectionID),
		MemberID:            strings.TrimSpace(candidate.MemberID),
		NominationStatement: candidate.NominationStatement,
		Status:              string(candidate.Status),
		ReviewedBy:          optionalString(candidate.ReviewedBy),
		CreatedAt:           candidate.CreatedAt.UTC(),
		UpdatedAt:           candidate.UpdatedAt.UTC(),
	}
}

func (m candidateModel) toEntity() entities.Candidate {
	reviewedBy := ""
	if m.ReviewedBy != nil {
		reviewedBy = *m.ReviewedBy
	}
	return entities.Candidate{
		CandidateID:         m.CandidateID,
		ElectionID:          m.ElectionID,
		MemberID:            m.MemberID,
		NominationStatement: m.NominationStatement,
		Status:              entities.CandidateStatus(m.Status),
		ReviewedBy:          reviewedBy,
		CreatedAt:           m.CreatedAt.UTC(),
		UpdatedAt:           m.UpdatedAt.UTC(),
	}
}

type voteModel struct {
	VoteID        string    `gorm:"column:vote_id;primaryKey"`
	ElectionID    string    `gorm:"column:election_id"`
	VoterMemberID string    `gorm:"column:voter_member_id"`
	CandidateID   string    `gorm:"column:candidate_id;index"`
	CastAt        time.Time `gorm:"column:cast_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

type voteCountRow struct {
	CandidateID string `gorm:"column:candidate_id"`
	Total       int    `gorm:"column:total"`
}

type appointmentModel struct {
	AppointmentID     string     `gorm:"column:appointment_id;primaryKey"`
	PositionID        string     `gorm:"column:position_id;index:idx_appointments_key"`
	MemberID          string     `gorm:"column:member_id;index"`
	HierarchyLevel    string     `gorm:"column:hierarchy_level;index:idx_appointments_key"`
	EntityID          string     `gorm:"column:entity_id;index:idx_appointments_key"`
	AppointmentType   string     `gorm:"column:appointment_type"`
	StartDate         time.Time  `gorm:"column:start_date"`
	EndDate           *time.Time `gorm:"column:end_date"`
	Status            string     `gorm:"column:status"`
	AppointedBy       string     `gorm:"column:appointed_by"`
	TerminationReason *string    `gorm:"column:termination_reason"`
	ElectionID        *string    `gorm:"column:election_id"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

func (appointmentModel) TableName() string {
	return "appointments"
}

func appointmentModelFromEntity(appointment entities.Appointment) appointmentModel {
	return appointmentModel{
		AppointmentID:     strings.TrimSpace(appointment.AppointmentID),
		PositionID:        strings.TrimSpace(appointment.PositionID),
		MemberID:          strings.TrimSpace(appointment.MemberID),
		HierarchyLevel:    string(appointment.HierarchyLevel),
		EntityID:          strings.TrimSpace(appointment.EntityID),
		AppointmentType:   string(appointment.AppointmentType),
		StartDate:         appointment.StartDate.UTC(),
		EndDate:           normalizeOptionalTime(appointment.EndDate),
		Status:            string(appointment.Status),
		AppointedBy:       strings.TrimSpace(appointment.AppointedBy),
		TerminationReason: appointment.TerminationReason,
		ElectionID:        appointment.ElectionID,
		CreatedAt:         appointment.CreatedAt.UTC(),
		UpdatedAt:         appointment.UpdatedAt.UTC(),
	}
}

func (m appointmentModel) toEntity() entities.Appointment {
	return entities.Appointment{
		AppointmentID:     m.AppointmentID,
		PositionID:        m.PositionID,
		MemberID:          m.MemberID,
		HierarchyLevel:    entities.HierarchyLevel(m.HierarchyLevel),
		EntityID:          m.EntityID,
		AppointmentType:   entities.AppointmentType(m.AppointmentType),
		StartDate:         m.StartDate.UTC(),
		EndDate:           normalizeOptionalTime(m.EndDate),
		Status:            entities.AppointmentStatus(m.Status),
		AppointedBy:       m.AppointedBy,
		TerminationReason: m.TerminationReason,
		ElectionID:        m.ElectionID,
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "leadership_outbox"
}

// Models lists every table owned by the module, in migration order.
func Models() []any {
	return []any{
		&positionModel{},
		&memberModel{},
		&operatorModel{},
		&electionModel{},
		&candidateModel{},
		&voteModel{},
		&appointmentModel{},
		&outboxModel{},
	}
}

// PartialIndexes are the uniqueness rules AutoMigrate cannot express. Both
// postgres and sqlite accept this syntax.
func PartialIndexes() []string {
	return []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_votes_election_voter ON votes (election_id, voter_member_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_candidates_active_member ON candidates (election_id, member_id) WHERE status <> 'withdrawn'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_appointments_active_seat ON appointments (position_id, hierarchy_level, entity_id) WHERE status = 'active'`,
	}
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
