package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "backoffice/contexts/leadership-governance/leadership-service/application"
	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	domainerrors "backoffice/contexts/leadership-governance/leadership-service/domain/errors"
	"backoffice/contexts/leadership-governance/leadership-service/domain/services"
	"backoffice/contexts/leadership-governance/leadership-service/ports"
)

// CreateElectionCommand is the write-model input for scheduling an election on
// one seat.
type CreateElectionCommand struct {
	Name             string
	PositionID       string
	HierarchyLevel   entities.HierarchyLevel
	EntityID         string
	ElectionDate     time.Time
	NominationWindow entities.Window
	VotingWindow     entities.Window
	ActorID          string
}

// TransitionElectionCommand moves an election to the next lifecycle status.
type TransitionElectionCommand struct {
	ElectionID string
	To         entities.ElectionStatus
	ActorID    string
}

// ElectionUseCase owns election creation and the status state machine.
type ElectionUseCase struct {
	Elections ports.ElectionRepository
	Positions ports.PositionCatalog
	Audit     ports.AuditSink
	Metrics   ports.Metrics
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// CreateElection validates windows and the position reference, then stores a
// planned election.
func (uc ElectionUseCase) CreateElection(ctx context.Context, cmd CreateElectionCommand) (election entities.Election, err error) {
	started := time.Now()
	defer func() { observe(uc.Metrics, "create_election", started, err) }()

	logger := application.ResolveLogger(uc.Logger)
	logger.Info("election create processing started",
		"event", "leadership_election_create_started",
		"module", logModule,
		"layer", "application",
		"position_id", strings.TrimSpace(cmd.PositionID),
		"hierarchy_level", string(cmd.HierarchyLevel),
		"entity_id", strings.TrimSpace(cmd.EntityID),
	)

	actorID, err := requireActor(cmd.ActorID)
	if err != nil {
		return entities.Election{}, err
	}
	key := entities.PositionKey{
		PositionID:     cmd.PositionID,
		HierarchyLevel: cmd.HierarchyLevel,
		EntityID:       cmd.EntityID,
	}.Normalize()
	name := strings.TrimSpace(cmd.Name)
	if name == "" || !key.Valid() || cmd.ElectionDate.IsZero() {
		logger.Warn("election create validation failed",
			"event", "leadership_election_create_validation_failed",
			"module", logModule,
			"layer", "application",
			"position_id", key.PositionID,
			"entity_id", key.EntityID,
		)
		return entities.Election{}, domainerrors.ErrInvalidElectionInput
	}
	if err := services.ValidateWindows(cmd.NominationWindow, cmd.VotingWindow); err != nil {
		logger.Warn("election create window validation failed",
			"event", "leadership_election_create_window_invalid",
			"module", logModule,
			"layer", "application",
			"nomination_start", cmd.NominationWindow.Start,
			"nomination_end", cmd.NominationWindow.End,
			"voting_start", cmd.VotingWindow.Start,
			"voting_end", cmd.VotingWindow.End,
		)
		return entities.Election{}, err
	}

	if uc.Positions != nil {
		position, err := uc.Positions.GetPosition(ctx, key.PositionID)
		if err != nil {
			return entities.Election{}, err
		}
		if position.HierarchyLevel != key.HierarchyLevel {
			logger.Warn("election hierarchy level does not match position",
				"event", "leadership_election_create_level_mismatch",
				"module", logModule,
				"layer", "application",
				"position_id", key.PositionID,
				"position_level", string(position.HierarchyLevel),
				"requested_level", string(key.HierarchyLevel),
			)
			return entities.Election{}, domainerrors.ErrInvalidElectionInput
		}
	}

	electionID, err := newID(ctx, uc.IDGen)
	if err != nil {
		return entities.Election{}, err
	}
	eventID, err := newID(ctx, uc.IDGen)
	if err != nil {
		return entities.Election{}, err
	}
	now := resolveNow(uc.Clock)
	election = entities.Election{
		ElectionID:     electionID,
		Name:           name,
		PositionID:     key.PositionID,
		HierarchyLevel: key.HierarchyLevel,
		EntityID:       key.EntityID,
		ElectionDate:   cmd.ElectionDate.UTC(),
		NominationWindow: entities.Window{
			Start: cmd.NominationWindow.Start.UTC(),
			End:   cmd.NominationWindow.End.UTC(),
		},
		VotingWindow: entities.Window{
			Start: cmd.VotingWindow.Start.UTC(),
			End:   cmd.VotingWindow.End.UTC(),
		},
		Status:    entities.ElectionStatusPlanned,
		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	event, err := newLeadershipEnvelope(eventID, "election.created", "election_id", election.ElectionID, actorID, now, map[string]any{
		"election_id":     election.ElectionID,
		"name":            election.Name,
		"position_id":     election.PositionID,
		"hierarchy_level": string(election.HierarchyLevel),
		"entity_id":       election.EntityID,
		"election_date":   election.ElectionDate,
		"status":          string(election.Status),
	})
	if err != nil {
		return entities.Election{}, err
	}
	if err := uc.Elections.CreateElection(ctx, election, event); err != nil {
		logger.Error("election create persist failed",
			"event", "leadership_election_create_persist_failed",
			"module", logModule,
			"layer", "application",
			"election_id", election.ElectionID,
			"error", err.Error(),
		)
		return entities.Election{}, err
	}

	recordAudit(ctx, uc.Audit, logger, ports.AuditEntry{
		Action:     "election.created",
		ActorID:    actorID,
		EntityType: "election",
		EntityID:   election.ElectionID,
		Details: map[string]any{
			"position_key": election.PositionKey().String(),
			"name":         election.Name,
		},
		OccurredAt: now,
	})
	logger.Info("election created",
		"event", "leadership_election_created",
		"module", logModule,
		"layer", "application",
		"election_id", election.ElectionID,
		"position_key", election.PositionKey().String(),
		"actor_id", actorID,
	)
	return election, nil
}

// TransitionStatus applies one step of the election state machine. The
// repository re-checks the source status so concurrent transitions cannot both
// succeed from the same state.
func (uc ElectionUseCase) TransitionStatus(ctx context.Context, cmd TransitionElectionCommand) (election entities.Election, err error) {
	started := time.Now()
	defer func() { observe(uc.Metrics, "transition_election_status", started, err) }()

	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(cmd.ElectionID)
	logger.Info("election status transition started",
		"event", "leadership_election_transition_started",
		"module", logModule,
		"layer", "application",
		"election_id", electionID,
		"to_status", string(cmd.To),
	)

	actorID, err := requireActor(cmd.ActorID)
	if err != nil {
		return entities.Election{}, err
	}
	if electionID == "" {
		return entities.Election{}, domainerrors.ErrInvalidElectionInput
	}

	current, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return entities.Election{}, err
	}
	if err := services.ValidateTransition(current.Status, cmd.To); err != nil {
		logger.Warn("election status transition rejected",
			"event", "leadership_election_transition_rejected",
			"module", logModule,
			"layer", "application",
			"election_id", electionID,
			"from_status", string(current.Status),
			"to_status", string(cmd.To),
		)
		return entities.Election{}, err
	}

	eventID, err := newID(ctx, uc.IDGen)
	if err != nil {
		return entities.Election{}, err
	}
	now := resolveNow(uc.Clock)
	event, err := newLeadershipEnvelope(eventID, "election.status_changed", "election_id", electionID, actorID, now, map[string]any{
		"election_id": electionID,
		"from_status": string(current.Status),
		"to_status":   string(cmd.To),
	})
	if err != nil {
		return entities.Election{}, err
	}
	election, err = uc.Elections.TransitionElectionStatus(ctx, ports.ElectionStatusChange{
		ElectionID: electionID,
		From:       current.Status,
		To:         cmd.To,
		ChangedAt:  now,
	}, event)
	if err != nil {
		logger.Warn("election status transition persist failed",
			"event", "leadership_election_transition_persist_failed",
			"module", logModule,
			"layer", "application",
			"election_id", electionID,
			"from_status", string(current.Status),
			"to_status", string(cmd.To),
			"error", err.Error(),
		)
		return entities.Election{}, err
	}

	recordAudit(ctx, uc.Audit, logger, ports.AuditEntry{
		Action:     "election.status_changed",
		ActorID:    actorID,
		EntityType: "election",
		EntityID:   electionID,
		Details: map[string]any{
			"from_status": string(current.Status),
			"to_status":   string(cmd.To),
		},
		OccurredAt: now,
	})
	logger.Info("election status transitioned",
		"event", "leadership_election_transitioned",
		"module", logModule,
		"layer", "application",
		"election_id", electionID,
		"from_status", string(current.Status),
		"to_status", string(election.Status),
		"actor_id", actorID,
	)
	return election, nil
}
