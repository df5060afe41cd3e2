package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	application "backoffice/contexts/leadership-governance/leadership-service/application"
	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	"backoffice/contexts/leadership-governance/leadership-service/ports"
)

const (
	electionFinalizedTopic      = "election.finalized"
	defaultSuccessionGroup      = "leadership-succession-cg"
	successionConsumerOperation = "succession_consumer"
)

// ErrSuccessionMismatch is returned when a finalized election names an
// appointment that is no longer the active holder of its seat.
var ErrSuccessionMismatch = errors.New("succession appointment is not the active holder")

// SuccessionConsumer confirms that every relayed election.finalized event
// left its elected appointment holding the seat, and records the handover.
type SuccessionConsumer struct {
	Subscriber    ports.EventSubscriber
	Appointments  ports.AppointmentRepository
	Metrics       ports.Metrics
	Clock         ports.Clock
	ConsumerGroup string
	Logger        *slog.Logger
}

type electionFinalizedPayload struct {
	ElectionID          string `json:"election_id"`
	WinnerCandidateID   string `json:"winner_candidate_id"`
	WinnerMemberID      string `json:"winner_member_id"`
	WinnerIsTallyLeader bool   `json:"winner_is_tally_leader"`
	AppointmentID       string `json:"appointment_id"`
	TotalVotes          int    `json:"total_votes"`
}

func (c SuccessionConsumer) Start(ctx context.Context) error {
	group := c.ConsumerGroup
	if group == "" {
		group = defaultSuccessionGroup
	}
	return c.Subscriber.Subscribe(ctx, electionFinalizedTopic, group, c.Handle)
}

// Handle processes one election.finalized envelope. Replays are harmless:
// the check only reads the appointment ledger.
func (c SuccessionConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	started := c.now()
	outcome := "ok"
	defer func() {
		if c.Metrics != nil {
			c.Metrics.ObserveOperation(successionConsumerOperation, outcome, c.now().Sub(started))
		}
	}()

	var payload electionFinalizedPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		outcome = "error"
		return fmt.Errorf("decode election finalized payload: %w", err)
	}
	if payload.AppointmentID == "" {
		outcome = "error"
		return fmt.Errorf("election finalized event missing appointment_id")
	}

	appointment, err := c.Appointments.GetAppointment(ctx, payload.AppointmentID)
	if err != nil {
		outcome = "error"
		logger.Error("succession appointment lookup failed",
			"event", "leadership_succession_lookup_failed",
			"module", "leadership-governance/leadership-service",
			"layer", "worker",
			"event_id", event.EventID,
			"election_id", payload.ElectionID,
			"appointment_id", payload.AppointmentID,
			"error", err.Error(),
		)
		return err
	}

	if appointment.Status != entities.AppointmentStatusActive {
		// A later termination or removal can legitimately end the term
		// before the event is consumed.
		outcome = "superseded"
		logger.Warn("succession appointment no longer active",
			"event", "leadership_succession_stale",
			"module", "leadership-governance/leadership-service",
			"layer", "worker",
			"event_id", event.EventID,
			"election_id", payload.ElectionID,
			"appointment_id", appointment.AppointmentID,
			"status", string(appointment.Status),
		)
		return nil
	}

	holder, found, err := c.Appointments.GetActiveAppointment(ctx, appointment.PositionKey())
	if err != nil {
		outcome = "error"
		return err
	}
	if !found || holder.AppointmentID != appointment.AppointmentID {
		outcome = "mismatch"
		logger.Error("succession holder mismatch",
			"event", "leadership_succession_mismatch",
			"module", "leadership-governance/leadership-service",
			"layer", "worker",
			"event_id", event.EventID,
			"election_id", payload.ElectionID,
			"appointment_id", appointment.AppointmentID,
			"position_key", appointment.PositionKey().String(),
		)
		return ErrSuccessionMismatch
	}

	logger.Info("succession confirmed",
		"event", "leadership_succession_confirmed",
		"module", "leadership-governance/leadership-service",
		"layer", "worker",
		"event_id", event.EventID,
		"election_id", payload.ElectionID,
		"appointment_id", appointment.AppointmentID,
		"member_id", appointment.MemberID,
		"position_key", appointment.PositionKey().String(),
		"winner_is_tally_leader", payload.WinnerIsTallyLeader,
		"total_votes", payload.TotalVotes,
	)
	return nil
}

func (c SuccessionConsumer) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
