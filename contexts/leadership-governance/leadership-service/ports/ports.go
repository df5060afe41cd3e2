package ports

import (
	"context"
	"strings"
	"time"

	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	contractsv1 "backoffice/contracts/gen/events/v1"
)

// PositionCatalog is read-only reference data owned outside this module.
type PositionCatalog interface {
	GetPosition(ctx context.Context, positionID string) (entities.Position, error)
	ListPositions(ctx context.Context, level entities.HierarchyLevel) ([]entities.Position, error)
}

// MemberProjection is the slice of member data needed for eligibility checks.
type MemberProjection struct {
	MemberID    string
	DisplayName string
	Status      string
}

func (m MemberProjection) Eligible() bool {
	return strings.EqualFold(strings.TrimSpace(m.Status), "active")
}

// MemberDirectory resolves members owned by the membership module.
type MemberDirectory interface {
	GetMember(ctx context.Context, memberID string) (MemberProjection, error)
}

// OperatorRegistry answers whether an actor holds the operator capability
// required for destructive maintenance paths.
type OperatorRegistry interface {
	IsOperator(ctx context.Context, actorID string) (bool, error)
}

type ElectionFilter struct {
	Status         entities.ElectionStatus
	PositionID     string
	HierarchyLevel entities.HierarchyLevel
	EntityID       string
	Limit          int
	Offset         int
}

// ElectionStatusChange is applied as a compare-and-set on From.
type ElectionStatusChange struct {
	ElectionID string
	From       entities.ElectionStatus
	To         entities.ElectionStatus
	ChangedAt  time.Time
}

type ElectionRepository interface {
	CreateElection(ctx context.Context, election entities.Election, event EventEnvelope) error
	GetElection(ctx context.Context, electionID string) (entities.Election, error)
	// ListElections orders by election_date desc, then created_at desc.
	ListElections(ctx context.Context, filter ElectionFilter) ([]entities.Election, error)
	// TransitionElectionStatus fails with ErrInvalidTransition when the stored
	// status no longer equals change.From.
	TransitionElectionStatus(ctx context.Context, change ElectionStatusChange, event EventEnvelope) (entities.Election, error)
}

// CandidateStatusChange moves a candidate From -> To while the owning
// election is in one of ElectionStatuses.
type CandidateStatusChange struct {
	CandidateID      string
	From             entities.CandidateStatus
	To               entities.CandidateStatus
	ReviewedBy       string
	ElectionStatuses []entities.ElectionStatus
	ChangedAt        time.Time
}

type CandidateRepository interface {
	// NominateCandidate re-checks that nominations are open in the same
	// transaction as the insert. Duplicate active candidacies surface as
	// ErrDuplicateNomination from the storage constraint.
	NominateCandidate(ctx context.Context, candidate entities.Candidate, event EventEnvelope) error
	GetCandidate(ctx context.Context, candidateID string) (entities.Candidate, error)
	ListCandidates(ctx context.Context, electionID string) ([]entities.Candidate, error)
	ChangeCandidateStatus(ctx context.Context, change CandidateStatusChange, event EventEnvelope) (entities.Candidate, error)
}

type VoteRepository interface {
	// CastVote verifies election and candidate state and inserts the vote in
	// one transaction. A second vote by the same member yields ErrAlreadyVoted.
	CastVote(ctx context.Context, vote entities.Vote, event EventEnvelope) error
	CountVotesByCandidate(ctx context.Context, electionID string) (map[string]int, error)
}

type AppointmentFilter struct {
	PositionID     string
	HierarchyLevel entities.HierarchyLevel
	EntityID       string
	MemberID       string
	Status         entities.AppointmentStatus
	Limit          int
	Offset         int
}

// AppointmentClosure ends an active appointment as terminated or removed.
type AppointmentClosure struct {
	AppointmentID string
	Status        entities.AppointmentStatus
	Reason        string
	EndDate       time.Time
	ClosedAt      time.Time
}

type AppointmentRepository interface {
	// CreateAppointment fails with ErrPositionOccupied when an active
	// appointment exists for the same position key.
	CreateAppointment(ctx context.Context, appointment entities.Appointment, event EventEnvelope) error
	GetAppointment(ctx context.Context, appointmentID string) (entities.Appointment, error)
	// ListAppointments orders by start_date desc, then created_at desc.
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]entities.Appointment, error)
	GetActiveAppointment(ctx context.Context, key entities.PositionKey) (entities.Appointment, bool, error)
	// CloseAppointment fails with ErrNotActive unless the row is active.
	CloseAppointment(ctx context.Context, closure AppointmentClosure, event EventEnvelope) (entities.Appointment, error)
	DeleteAppointment(ctx context.Context, appointmentID string, event EventEnvelope) error
}

// FinalizationRecord carries everything the coordinator commits atomically.
type FinalizationRecord struct {
	ElectionID       string
	Appointment      entities.Appointment
	SuccessionReason string
	FinalizedAt      time.Time
	Events           []EventEnvelope
}

type FinalizationOutcome struct {
	Election                entities.Election
	Appointment             entities.Appointment
	SupersededAppointmentID string
}

type FinalizationRepository interface {
	// FinalizeElection flips the election to completed/finalized with a
	// compare-and-set, supersedes the current holder and inserts the elected
	// appointment. Either every step commits or none does.
	FinalizeElection(ctx context.Context, record FinalizationRecord) (FinalizationOutcome, error)
}

// AuditEntry is an operator-facing record. Vote entries never carry the
// chosen candidate.
type AuditEntry struct {
	Action     string
	ActorID    string
	EntityType string
	EntityID   string
	Details    map[string]any
	OccurredAt time.Time
}

type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// Metrics receives one observation per use-case call.
type Metrics interface {
	ObserveOperation(operation string, outcome string, duration time.Duration)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventEnvelope) error) error
}
