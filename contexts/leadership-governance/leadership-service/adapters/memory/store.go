package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	domainerrors "backoffice/contexts/leadership-governance/leadership-service/domain/errors"
	"backoffice/contexts/leadership-governance/leadership-service/domain/services"
	"backoffice/contexts/leadership-governance/leadership-service/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type voteKey struct {
	electionID string
	voterID    string
}

type candidacyKey struct {
	electionID string
	memberID   string
}

// Store is a process-local implementation of every leadership port. A single
// mutex serializes writes, and each uniqueness rule is checked while it is
// held, mirroring the constraints of the relational schema.
type Store struct {
	mu sync.RWMutex

	positions    map[string]entities.Position
	members      map[string]ports.MemberProjection
	operators    map[string]struct{}
	elections    map[string]entities.Election
	candidates   map[string]entities.Candidate
	votes        map[voteKey]entities.Vote
	appointments map[string]entities.Appointment
	outbox       []outboxRecord

	activeCandidacies map[candidacyKey]string
	activeSeats       map[entities.PositionKey]string

	finalizeFault error
	now           func() time.Time
}

func NewStore() *Store {
	return &Store{
		positions:         make(map[string]entities.Position),
		members:           make(map[string]ports.MemberProjection),
		operators:         make(map[string]struct{}),
		elections:         make(map[string]entities.Election),
		candidates:        make(map[string]entities.Candidate),
		votes:             make(map[voteKey]entities.Vote),
		appointments:      make(map[string]entities.Appointment),
		activeCandidacies: make(map[candidacyKey]string),
		activeSeats:       make(map[entities.PositionKey]string),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *Store) SetPosition(position entities.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	position.PositionID = strings.TrimSpace(position.PositionID)
	s.positions[position.PositionID] = position
}

func (s *Store) SetMember(member ports.MemberProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member.MemberID = strings.TrimSpace(member.MemberID)
	s.members[member.MemberID] = member
}

func (s *Store) SetOperator(actorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operators[strings.TrimSpace(actorID)] = struct{}{}
}

// SetClock overrides the wall clock, mainly for deterministic tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailNextFinalization makes the next FinalizeElection call fail after all
// checks passed but before anything is committed.
func (s *Store) FailNextFinalization(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalizeFault = err
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

func (s *Store) NewID(context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) GetPosition(_ context.Context, positionID string) (entities.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	position, ok := s.positions[strings.TrimSpace(positionID)]
	if !ok {
		return entities.Position{}, domainerrors.ErrPositionNotFound
	}
	return position, nil
}

func (s *Store) ListPositions(_ context.Context, level entities.HierarchyLevel) ([]entities.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Position, 0, len(s.positions))
	for _, position := range s.positions {
		if level != "" && position.HierarchyLevel != level {
			continue
		}
		items = append(items, position)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].PositionID < items[j].PositionID
	})
	return items, nil
}

func (s *Store) GetMember(_ context.Context, memberID string) (ports.MemberProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.members[strings.TrimSpace(memberID)]
	if !ok {
		return ports.MemberProjection{}, domainerrors.ErrMemberNotFound
	}
	return member, nil
}

func (s *Store) IsOperator(_ context.Context, actorID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.operators[strings.TrimSpace(actorID)]
	return ok, nil
}

func (s *Store) CreateElection(_ context.Context, election entities.Election, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.elections[election.ElectionID]; exists {
		return domainerrors.ErrInvalidElectionInput
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return err
	}
	s.elections[election.ElectionID] = election
	return nil
}

func (s *Store) GetElection(_ context.Context, electionID string) (entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return election, nil
}

func (s *Store) ListElections(_ context.Context, filter ports.ElectionFilter) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Election, 0, len(s.elections))
	for _, election := range s.elections {
		if filter.Status != "" && election.Status != filter.Status {
			continue
		}
		if filter.PositionID != "" && election.PositionID != filter.PositionID {
			continue
		}
		if filter.HierarchyLevel != "" && election.HierarchyLevel != filter.HierarchyLevel {
			continue
		}
		if filter.EntityID != "" && election.EntityID != filter.EntityID {
			continue
		}
		items = append(items, election)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].ElectionDate.Equal(items[j].ElectionDate) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ElectionDate.After(items[j].ElectionDate)
	})
	return paginate(items, filter.Offset, filter.Limit), nil
}

func (s *Store) TransitionElectionStatus(
	_ context.Context,
	change ports.ElectionStatusChange,
	event ports.EventEnvelope,
) (entities.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	election, ok := s.elections[change.ElectionID]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	if election.Status != change.From {
		return entities.Election{}, domainerrors.ErrInvalidTransition
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return entities.Election{}, err
	}
	election.Status = change.To
	election.UpdatedAt = change.ChangedAt
	s.elections[election.ElectionID] = election
	return election, nil
}

func (s *Store) NominateCandidate(_ context.Context, candidate entities.Candidate, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	election, ok := s.elections[candidate.ElectionID]
	if !ok {
		return domainerrors.ErrElectionNotFound
	}
	if !election.AcceptsNominations() {
		return domainerrors.ErrNominationWindowClosed
	}
	key := candidacyKey{electionID: candidate.ElectionID, memberID: candidate.MemberID}
	if _, exists := s.activeCandidacies[key]; exists {
		return domainerrors.ErrDuplicateNomination
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return err
	}
	s.candidates[candidate.CandidateID] = candidate
	s.activeCandidacies[key] = candidate.CandidateID
	return nil
}

func (s *Store) GetCandidate(_ context.Context, candidateID string) (entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidate, ok := s.candidates[strings.TrimSpace(candidateID)]
	if !ok {
		return entities.Candidate{}, domainerrors.ErrCandidateNotFound
	}
	return candidate, nil
}

func (s *Store) ListCandidates(_ context.Context, electionID string) ([]entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Candidate, 0)
	for _, candidate := range s.candidates {
		if candidate.ElectionID == strings.TrimSpace(electionID) {
			items = append(items, candidate)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CandidateID < items[j].CandidateID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) ChangeCandidateStatus(
	_ context.Context,
	change ports.CandidateStatusChange,
	event ports.EventEnvelope,
) (entities.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate, ok := s.candidates[change.CandidateID]
	if !ok {
		return entities.Candidate{}, domainerrors.ErrCandidateNotFound
	}
	election, ok := s.elections[candidate.ElectionID]
	if !ok {
		return entities.Candidate{}, domainerrors.ErrElectionNotFound
	}
	if !services.ContainsStatus(change.ElectionStatuses, election.Status) || candidate.Status != change.From {
		return entities.Candidate{}, domainerrors.ErrInvalidReviewState
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return entities.Candidate{}, err
	}
	candidate.Status = change.To
	candidate.ReviewedBy = change.ReviewedBy
	candidate.UpdatedAt = change.ChangedAt
	s.candidates[candidate.CandidateID] = candidate
	if change.To == entities.CandidateStatusWithdrawn {
		delete(s.activeCandidacies, candidacyKey{electionID: candidate.ElectionID, memberID: candidate.MemberID})
	}
	return candidate, nil
}

func (s *Store) CastVote(_ context.Context, vote entities.Vote, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	election, ok := s.elections[vote.ElectionID]
	if !ok {
		return domainerrors.ErrElectionNotFound
	}
	if !election.AcceptsVotes() {
		return domainerrors.ErrVotingClosed
	}
	candidate, ok := s.candidates[vote.CandidateID]
	if !ok || candidate.ElectionID != vote.ElectionID || !candidate.Electable() {
		return domainerrors.ErrInvalidCandidate
	}
	key := voteKey{electionID: vote.ElectionID, voterID: vote.VoterMemberID}
	if _, exists := s.votes[key]; exists {
		return domainerrors.ErrAlreadyVoted
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return err
	}
	s.votes[key] = vote
	return nil
}

func (s *Store) CountVotesByCandidate(_ context.Context, electionID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for key, vote := range s.votes {
		if key.electionID == strings.TrimSpace(electionID) {
			counts[vote.CandidateID]++
		}
	}
	return counts, nil
}

func (s *Store) CreateAppointment(_ context.Context, appointment entities.Appointment, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertAppointmentLocked(appointment); err != nil {
		return err
	}
	if err := s.appendOutboxLocked(event); err != nil {
		s.removeAppointmentLocked(appointment.AppointmentID)
		return err
	}
	return nil
}

func (s *Store) GetAppointment(_ context.Context, appointmentID string) (entities.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appointment, ok := s.appointments[strings.TrimSpace(appointmentID)]
	if !ok {
		return entities.Appointment{}, domainerrors.ErrAppointmentNotFound
	}
	return appointment, nil
}

func (s *Store) ListAppointments(_ context.Context, filter ports.AppointmentFilter) ([]entities.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Appointment, 0)
	for _, appointment := range s.appointments {
		if filter.PositionID != "" && appointment.PositionID != filter.PositionID {
			continue
		}
		if filter.HierarchyLevel != "" && appointment.HierarchyLevel != filter.HierarchyLevel {
			continue
		}
		if filter.EntityID != "" && appointment.EntityID != filter.EntityID {
			continue
		}
		if filter.MemberID != "" && appointment.MemberID != filter.MemberID {
			continue
		}
		if filter.Status != "" && appointment.Status != filter.Status {
			continue
		}
		items = append(items, appointment)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].StartDate.Equal(items[j].StartDate) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].StartDate.After(items[j].StartDate)
	})
	return paginate(items, filter.Offset, filter.Limit), nil
}

func (s *Store) GetActiveAppointment(_ context.Context, key entities.PositionKey) (entities.Appointment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appointmentID, ok := s.activeSeats[key.Normalize()]
	if !ok {
		return entities.Appointment{}, false, nil
	}
	return s.appointments[appointmentID], true, nil
}

func (s *Store) CloseAppointment(
	_ context.Context,
	closure ports.AppointmentClosure,
	event ports.EventEnvelope,
) (entities.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appointment, ok := s.appointments[closure.AppointmentID]
	if !ok {
		return entities.Appointment{}, domainerrors.ErrAppointmentNotFound
	}
	if !appointment.IsActive() {
		return entities.Appointment{}, domainerrors.ErrNotActive
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return entities.Appointment{}, err
	}
	appointment = closeAppointment(appointment, closure.Status, closure.Reason, closure.EndDate, closure.ClosedAt)
	s.appointments[appointment.AppointmentID] = appointment
	delete(s.activeSeats, appointment.PositionKey().Normalize())
	return appointment, nil
}

func (s *Store) DeleteAppointment(_ context.Context, appointmentID string, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[appointmentID]; !ok {
		return domainerrors.ErrAppointmentNotFound
	}
	if err := s.appendOutboxLocked(event); err != nil {
		return err
	}
	s.removeAppointmentLocked(appointmentID)
	return nil
}

// FinalizeElection validates every step before mutating anything, so a
// failure leaves the store exactly as it was.
func (s *Store) FinalizeElection(_ context.Context, record ports.FinalizationRecord) (ports.FinalizationOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	election, ok := s.elections[record.ElectionID]
	if !ok {
		return ports.FinalizationOutcome{}, domainerrors.ErrElectionNotFound
	}
	if election.Finalized {
		return ports.FinalizationOutcome{}, domainerrors.ErrAlreadyFinalized
	}
	if election.Status != entities.ElectionStatusVotingClosed {
		return ports.FinalizationOutcome{}, domainerrors.ErrInvalidTransition
	}
	if s.finalizeFault != nil {
		err := s.finalizeFault
		s.finalizeFault = nil
		return ports.FinalizationOutcome{}, err
	}

	payloads := make([][]byte, 0, len(record.Events))
	for _, event := range record.Events {
		payload, err := json.Marshal(event)
		if err != nil {
			return ports.FinalizationOutcome{}, err
		}
		payloads = append(payloads, payload)
	}

	if _, exists := s.appointments[record.Appointment.AppointmentID]; exists {
		return ports.FinalizationOutcome{}, domainerrors.ErrInvalidAppointmentInput
	}

	outcome := ports.FinalizationOutcome{}
	key := record.Appointment.PositionKey().Normalize()
	if previousID, occupied := s.activeSeats[key]; occupied {
		previous := closeAppointment(
			s.appointments[previousID],
			entities.AppointmentStatusTerminated,
			record.SuccessionReason,
			record.Appointment.StartDate,
			record.FinalizedAt,
		)
		s.appointments[previousID] = previous
		delete(s.activeSeats, key)
		outcome.SupersededAppointmentID = previousID
	}
	if err := s.insertAppointmentLocked(record.Appointment); err != nil {
		return ports.FinalizationOutcome{}, err
	}

	election.Status = entities.ElectionStatusCompleted
	election.Finalized = true
	election.UpdatedAt = record.FinalizedAt
	s.elections[election.ElectionID] = election
	for i, event := range record.Events {
		s.outbox = append(s.outbox, outboxRecord{message: outboxMessage(event, payloads[i])})
	}

	outcome.Election = election
	outcome.Appointment = record.Appointment
	return outcome, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, limit)
	for _, record := range s.outbox {
		if record.published {
			continue
		}
		items = append(items, record.message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			s.outbox[i].published = true
			return nil
		}
	}
	return domainerrors.ErrOutboxNotFound
}

// Outbox returns every recorded envelope in append order.
func (s *Store) Outbox() []ports.EventEnvelope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.EventEnvelope, 0, len(s.outbox))
	for _, record := range s.outbox {
		var event ports.EventEnvelope
		if err := json.Unmarshal(record.message.Payload, &event); err == nil {
			items = append(items, event)
		}
	}
	return items
}

func (s *Store) insertAppointmentLocked(appointment entities.Appointment) error {
	if _, exists := s.appointments[appointment.AppointmentID]; exists {
		return domainerrors.ErrInvalidAppointmentInput
	}
	key := appointment.PositionKey().Normalize()
	if appointment.IsActive() {
		if _, occupied := s.activeSeats[key]; occupied {
			return domainerrors.ErrPositionOccupied
		}
		s.activeSeats[key] = appointment.AppointmentID
	}
	s.appointments[appointment.AppointmentID] = appointment
	return nil
}

func (s *Store) removeAppointmentLocked(appointmentID string) {
	appointment, ok := s.appointments[appointmentID]
	if !ok {
		return
	}
	key := appointment.PositionKey().Normalize()
	if s.activeSeats[key] == appointmentID {
		delete(s.activeSeats, key)
	}
	delete(s.appointments, appointmentID)
}

func (s *Store) appendOutboxLocked(event ports.EventEnvelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.outbox = append(s.outbox, outboxRecord{message: outboxMessage(event, payload)})
	return nil
}

func outboxMessage(event ports.EventEnvelope, payload []byte) ports.OutboxMessage {
	id := strings.TrimSpace(event.EventID)
	if id == "" {
		id = uuid.NewString()
	}
	return ports.OutboxMessage{
		OutboxID:     id,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      payload,
		CreatedAt:    event.OccurredAt.UTC(),
	}
}

func closeAppointment(
	appointment entities.Appointment,
	status entities.AppointmentStatus,
	reason string,
	endDate time.Time,
	closedAt time.Time,
) entities.Appointment {
	end := endDate.UTC()
	why := reason
	appointment.Status = status
	appointment.EndDate = &end
	appointment.TerminationReason = &why
	appointment.UpdatedAt = closedAt
	return appointment
}

func paginate[T any](items []T, offset int, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

var _ ports.PositionCatalog = (*Store)(nil)
var _ ports.MemberDirectory = (*Store)(nil)
var _ ports.OperatorRegistry = (*Store)(nil)
var _ ports.ElectionRepository = (*Store)(nil)
var _ ports.CandidateRepository = (*Store)(nil)
var _ ports.VoteRepository = (*Store)(nil)
var _ ports.AppointmentRepository = (*Store)(nil)
var _ ports.FinalizationRepository = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
