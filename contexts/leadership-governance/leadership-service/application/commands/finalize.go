package commands

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	application "backoffice/contexts/leadership-governance/leadership-service/application"
	"backoffice/contexts/leadership-governance/leadership-service/application/queries"
	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	domainerrors "backoffice/contexts/leadership-governance/leadership-service/domain/errors"
	"backoffice/contexts/leadership-governance/leadership-service/domain/services"
	"backoffice/contexts/leadership-governance/leadership-service/ports"
)

// SuccessionReason is written on the appointment displaced by an election.
const SuccessionReason = "Succeeded by election result"

// FinalizeCommand names the winning candidate and the term of the resulting
// appointment.
type FinalizeCommand struct {
	ElectionID        string
	WinnerCandidateID string
	StartDate         time.Time
	EndDate           *time.Time
	ActorID           string
}

// FinalizeResult is the read-model output of a finalization: the new
// appointment, the displaced one if any, and the tally it was checked against.
type FinalizeResult struct {
	ElectionFinalized       bool
	AppointmentID           string
	Appointment             entities.Appointment
	SupersededAppointmentID string
	WinnerIsTallyLeader     bool
	Tally                   []entities.ResultRow
}

// FinalizationUseCase converts a closed election into an elected appointment.
// The winner is an explicit administrative choice; the computed tally is
// recorded next to it but never overrides it.
type FinalizationUseCase struct {
	Elections  ports.ElectionRepository
	Candidates ports.CandidateRepository
	Finalizer  ports.FinalizationRepository
	Tally      queries.TallyUseCase
	Audit      ports.AuditSink
	Metrics    ports.Metrics
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// Finalize completes a voting_closed election and installs the winner,
// superseding any incumbent in the same write.
func (uc FinalizationUseCase) Finalize(ctx context.Context, cmd FinalizeCommand) (result FinalizeResult, err error) {
	started := time.Now()
	defer func() { observe(uc.Metrics, "finalize_election", started, err) }()

	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(cmd.ElectionID)
	winnerID := strings.TrimSpace(cmd.WinnerCandidateID)
	logger.Info("election finalization started",
		"event", "leadership_election_finalize_started",
		"module", logModule,
		"layer", "application",
		"election_id", electionID,
		"winner_candidate_id", winnerID,
	)

	actorID, err := requireActor(cmd.ActorID)
	if err != nil {
		return FinalizeResult{}, err
	}
	if electionID == "" || winnerID == "" {
		return FinalizeResult{}, domainerrors.ErrInvalidElectionInput
	}
	if err := services.ValidateAppointmentDates(cmd.StartDate, cmd.EndDate); err != nil {
		logger.Warn("election finalization dates invalid",
			"event", "leadership_election_finalize_dates_invalid",
			"module", logModule,
			"layer", "application",
			"election_id", electionID,
		)
		return FinalizeResult{}, err
	}

	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return FinalizeResult{}, err
	}
	candidate, err := uc.Candidates.GetCandidate(ctx, winnerID)
	if err != nil {
		return FinalizeResult{}, err
	}
	if err := services.EvaluateFinalization(election, candidate); err != nil {
		logger.Warn("election finalization rejected",
			"event", "leadership_election_finalize_rejected",
			"module", logModule,
			"layer", "application",
			"election_id", electionID,
			"winner_candidate_id", winnerID,
			"election_status", string(election.Status),
			"finalized", election.Finalized,
			"error", err.Error(),
		)
		return FinalizeResult{}, err
	}

	tally, err := uc.Tally.Tally(ctx, electionID)
	if err != nil {
		return FinalizeResult{}, err
	}
	leader := services.IsTallyLeader(tally.Rows, winnerID)
	logger.Info("election finalization tally computed",
		"event", "leadership_election_finalize_tally",
		"module", logModule,
		"layer", "application",
		"election_id", electionID,
		"winner_candidate_id", winnerID,
		"winner_is_tally_leader", leader,
		"total_votes", tally.TotalVotes,
		"tally", tallySummary(tally.Rows),
	)
	if !leader {
		logger.Warn("election finalized with a winner other than the tally leader",
			"event", "leadership_election_finalize_override",
			"module", logModule,
			"layer", "application",
			"election_id", electionID,
			"winner_candidate_id", winnerID,
			"actor_id", actorID,
		)
	}

	appointmentID, err := newID(ctx, uc.IDGen)
	if err != nil {
		return FinalizeResult{}, err
	}
	finalizedEventID, err := newID(ctx, uc.IDGen)
	if err != nil {
		return FinalizeResult{}, err
	}
	appointmentEventID, err := newID(ctx, uc.IDGen)
	if err != nil {
		return FinalizeResult{}, err
	}

	now := resolveNow(uc.Clock)
	linkedElection := election.ElectionID
	appointment := entities.Appointment{
		AppointmentID:   appointmentID,
		PositionID:      election.PositionID,
		MemberID:        candidate.MemberID,
		HierarchyLevel:  election.HierarchyLevel,
		EntityID:        election.EntityID,
		AppointmentType: entities.AppointmentTypeElected,
		StartDate:       cmd.StartDate.UTC(),
		Status:          entities.AppointmentStatusActive,
		AppointedBy:     actorID,
		ElectionID:      &linkedElection,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if cmd.EndDate != nil {
		end := cmd.EndDate.UTC()
		appointment.EndDate = &end
	}

	finalizedEvent, err := newLeadershipEnvelope(finalizedEventID, "election.finalized", "election_id", electionID, actorID, now, map[string]any{
		"election_id":            electionID,
		"winner_candidate_id":    winnerID,
		"winner_member_id":       candidate.MemberID,
		"winner_is_tally_leader": leader,
		"appointment_id":         appointmentID,
		"total_votes":            tally.TotalVotes,
		"tally":                  tallyPayload(tally.Rows),
	})
	if err != nil {
		return FinalizeResult{}, err
	}
	appointmentEvent, err := newLeadershipEnvelope(appointmentEventID, "appointment.created", "position_key", appointment.PositionKey().String(), actorID, now, appointmentPayload(appointment))
	if err != nil {
		return FinalizeResult{}, err
	}

	outcome, err := uc.Finalizer.FinalizeElection(ctx, ports.FinalizationRecord{
		ElectionID:       electionID,
		Appointment:      appointment,
		SuccessionReason: SuccessionReason,
		FinalizedAt:      now,
		Events:           []ports.EventEnvelope{finalizedEvent, appointmentEvent},
	})
	if err != nil {
		logger.Warn("election finalization persist failed",
			"event", "leadership_election_finalize_persist_failed",
			"module", logModule,
			"layer", "application",
			"election_id", electionID,
			"error", err.Error(),
		)
		return FinalizeResult{}, err
	}

	recordAudit(ctx, uc.Audit, logger, ports.AuditEntry{
		Action:     "election.finalized",
		ActorID:    actorID,
		EntityType: "election",
		EntityID:   electionID,
		Details: map[string]any{
			"winner_candidate_id":       winnerID,
			"winner_is_tally_leader":    leader,
			"appointment_id":            appointmentID,
			"superseded_appointment_id": outcome.SupersededAppointmentID,
			"tally":                     tallyPayload(tally.Rows),
		},
		OccurredAt: now,
	})
	logger.Info("election finalized",
		"event", "leadership_election_finalized",
		"module", logModule,
		"layer", "application",
		"election_id", electionID,
		"appointment_id", appointmentID,
		"superseded_appointment_id", outcome.SupersededAppointmentID,
		"actor_id", actorID,
	)
	return FinalizeResult{
		ElectionFinalized:       true,
		AppointmentID:           outcome.Appointment.AppointmentID,
		Appointment:             outcome.Appointment,
		SupersededAppointmentID: outcome.SupersededAppointmentID,
		WinnerIsTallyLeader:     leader,
		Tally:                   tally.Rows,
	}, nil
}

func tallyPayload(rows []entities.ResultRow) []map[string]any {
	items := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		items = append(items, map[string]any{
			"candidate_id": row.CandidateID,
			"member_id":    row.MemberID,
			"vote_count":   row.VoteCount,
		})
	}
	return items
}

func tallySummary(rows []entities.ResultRow) string {
	parts := make([]string, 0, len(rows))
	for _, row := range rows {
		parts = append(parts, row.CandidateID+"="+strconv.Itoa(row.VoteCount))
	}
	return strings.Join(parts, ",")
}
