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

// CreateAppointmentCommand is the write-model input for a manual appointment.
// Elected appointments only come from finalization.
type CreateAppointmentCommand struct {
	PositionID      string
	MemberID        string
	HierarchyLevel  entities.HierarchyLevel
	EntityID        string
	AppointmentType entities.AppointmentType
	StartDate       time.Time
	EndDate         *time.Time
	ActorID         string
}

// TerminateAppointmentCommand ends an active term. A nil EndDate lets the use
// case pick the end date.
type TerminateAppointmentCommand struct {
	AppointmentID string
	Reason        string
	EndDate       *time.Time
	ActorID       string
}

// RemoveAppointmentCommand vacates a seat outside the normal end of a term.
type RemoveAppointmentCommand struct {
	AppointmentID string
	Reason        string
	ActorID       string
}

// DeleteAppointmentCommand is the operator-only hard delete of a ledger row.
type DeleteAppointmentCommand struct {
	AppointmentID string
	ActorID       string
}

// AppointmentUseCase is the direct administrative path into the appointment
// ledger. It never supersedes an occupant implicitly: callers terminate or
// remove first, then create.
type AppointmentUseCase struct {
	Appointments ports.AppointmentRepository
	Positions    ports.PositionCatalog
	Members      ports.MemberDirectory
	Operators    ports.OperatorRegistry
	Audit        ports.AuditSink
	Metrics      ports.Metrics
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Logger       *slog.Logger
}

// CreateAppointment records a new active appointment. The seat must be vacant.
func (uc AppointmentUseCase) CreateAppointment(ctx context.Context, cmd CreateAppointmentCommand) (appointment entities.Appointment, err error) {
	started := time.Now()
	defer func() { observe(uc.Metrics, "create_appointment", started, err) }()

	logger := application.ResolveLogger(uc.Logger)
	key := entities.PositionKey{
		PositionID:     cmd.PositionID,
		HierarchyLevel: cmd.HierarchyLevel,
		EntityID:       cmd.EntityID,
	}.Normalize()
	memberID := strings.TrimSpace(cmd.MemberID)
	logger.Info("appointment create processing started",
		"event", "leadership_appointment_create_started",
		"module", logModule,
		"layer", "application",
		"position_key", key.String(),
		"member_id", memberID,
		"appointment_type", string(cmd.AppointmentType),
	)

	actorID, err := requireActor(cmd.ActorID)
	if err != nil {
		return entities.Appointment{}, err
	}
	if !key.Valid() || memberID == "" || !cmd.AppointmentType.ManuallyCreatable() {
		logger.Warn("appointment create validation failed",
			"event", "leadership_appointment_create_validation_failed",
			"module", logModule,
			"layer", "application",
			"position_key", key.String(),
			"member_id", memberID,
			"appointment_type", string(cmd.AppointmentType),
		)
		return entities.Appointment{}, domainerrors.ErrInvalidAppointmentInput
	}
	if err := services.ValidateAppointmentDates(cmd.StartDate, cmd.EndDate); err != nil {
		return entities.Appointment{}, err
	}
	if uc.Positions != nil {
		position, err := uc.Positions.GetPosition(ctx, key.PositionID)
		if err != nil {
			return entities.Appointment{}, err
		}
		if position.HierarchyLevel != key.HierarchyLevel {
			return entities.Appointment{}, domainerrors.ErrInvalidAppointmentInput
		}
	}
	if err := checkMember(ctx, uc.Members, memberID); err != nil {
		return entities.Appointment{}, err
	}

	appointmentID, err := newID(ctx, uc.IDGen)
	if err != nil {
		return entities.Appointment{}, err
	}
	eventID, err := newID(ctx, uc.IDGen)
	if err != nil {
		return entities.Appointment{}, err
	}
	now := resolveNow(uc.Clock)
	appointment = entities.Appointment{
		AppointmentID:   appointmentID,
		PositionID:      key.PositionID,
		MemberID:        memberID,
		HierarchyLevel:  key.HierarchyLevel,
		EntityID:        key.EntityID,
		AppointmentType: cmd.AppointmentType,
		StartDate:       cmd.StartDate.UTC(),
		Status:          entities.AppointmentStatusActive,
		AppointedBy:     actorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if cmd.EndDate != nil {
		end := cmd.EndDate.UTC()
		appointment.EndDate = &end
	}
	event, err := newLeadershipEnvelope(eventID, "appointment.created", "position_key", key.String(), actorID, now, appointmentPayload(appointment))
	if err != nil {
		return entities.Appointment{}, err
	}
	if err := uc.Appointments.CreateAppointment(ctx, appointment, event); err != nil {
		logger.Warn("appointment create persist failed",
			"event", "leadership_appointment_create_persist_failed",
			"module", logModule,
			"layer", "application",
			"position_key", key.String(),
			"member_id", memberID,
			"error", err.Error(),
		)
		return entities.Appointment{}, err
	}

	recordAudit(ctx, uc.Audit, logger, ports.AuditEntry{
		Action:     "appointment.created",
		ActorID:    actorID,
		EntityType: "appointment",
		EntityID:   appointment.AppointmentID,
		Details: map[string]any{
			"position_key":     key.String(),
			"member_id":        memberID,
			"appointment_type": string(appointment.AppointmentType),
		},
		OccurredAt: now,
	})
	logger.Info("appointment created",
		"event", "leadership_appointment_created",
		"module", logModule,
		"layer", "application",
		"appointment_id", appointment.AppointmentID,
		"position_key", key.String(),
		"member_id", memberID,
		"actor_id", actorID,
	)
	return appointment, nil
}

// Terminate ends an active term. Without an explicit end date the term ends
// now, or at its start date when the term has not begun yet.
func (uc AppointmentUseCase) Terminate(ctx context.Context, cmd TerminateAppointmentCommand) (appointment entities.Appointment, err error) {
	started := time.Now()
	defer func() { observe(uc.Metrics, "terminate_appointment", started, err) }()

	return uc.close(ctx, cmd.AppointmentID, cmd.ActorID, cmd.Reason, entities.AppointmentStatusTerminated, cmd.EndDate, resolveNow(uc.Clock))
}

// Remove vacates the seat without a formal term end, e.g. disciplinary removal.
func (uc AppointmentUseCase) Remove(ctx context.Context, cmd RemoveAppointmentCommand) (appointment entities.Appointment, err error) {
	started := time.Now()
	defer func() { observe(uc.Metrics, "remove_appointment", started, err) }()

	return uc.close(ctx, cmd.AppointmentID, cmd.ActorID, cmd.Reason, entities.AppointmentStatusRemoved, nil, resolveNow(uc.Clock))
}

// Delete hard-deletes a ledger row. It exists for cleanup paths and requires
// the operator capability.
func (uc AppointmentUseCase) Delete(ctx context.Context, cmd DeleteAppointmentCommand) (err error) {
	started := time.Now()
	defer func() { observe(uc.Metrics, "delete_appointment", started, err) }()

	logger := application.ResolveLogger(uc.Logger)
	appointmentID := strings.TrimSpace(cmd.AppointmentID)
	actorID, err := requireActor(cmd.ActorID)
	if err != nil {
		return err
	}
	allowed := false
	if uc.Operators != nil {
		allowed, err = uc.Operators.IsOperator(ctx, actorID)
		if err != nil {
			return err
		}
	}
	if !allowed {
		logger.Warn("appointment delete denied",
			"event", "leadership_appointment_delete_denied",
			"module", logModule,
			"layer", "application",
			"appointment_id", appointmentID,
			"actor_id", actorID,
		)
		return domainerrors.ErrForbidden
	}
	if appointmentID == "" {
		return domainerrors.ErrAppointmentNotFound
	}

	existing, err := uc.Appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}
	eventID, err := newID(ctx, uc.IDGen)
	if err != nil {
		return err
	}
	now := resolveNow(uc.Clock)
	event, err := newLeadershipEnvelope(eventID, "appointment.deleted", "position_key", existing.PositionKey().String(), actorID, now, map[string]any{
		"appointment_id": appointmentID,
		"status":         string(existing.Status),
	})
	if err != nil {
		return err
	}
	if err := uc.Appointments.DeleteAppointment(ctx, appointmentID, event); err != nil {
		return err
	}

	recordAudit(ctx, uc.Audit, logger, ports.AuditEntry{
		Action:     "appointment.deleted",
		ActorID:    actorID,
		EntityType: "appointment",
		EntityID:   appointmentID,
		Details: map[string]any{
			"position_key": existing.PositionKey().String(),
			"member_id":    existing.MemberID,
			"status":       string(existing.Status),
		},
		OccurredAt: now,
	})
	logger.Warn("appointment hard deleted",
		"event", "leadership_appointment_deleted",
		"module", logModule,
		"layer", "application",
		"appointment_id", appointmentID,
		"actor_id", actorID,
	)
	return nil
}

func (uc AppointmentUseCase) close(
	ctx context.Context,
	appointmentID string,
	actor string,
	reason string,
	status entities.AppointmentStatus,
	requestedEnd *time.Time,
	now time.Time,
) (entities.Appointment, error) {
	logger := application.ResolveLogger(uc.Logger)
	appointmentID = strings.TrimSpace(appointmentID)
	reason = strings.TrimSpace(reason)
	logger.Info("appointment close processing started",
		"event", "leadership_appointment_close_started",
		"module", logModule,
		"layer", "application",
		"appointment_id", appointmentID,
		"target_status", string(status),
	)

	actorID, err := requireActor(actor)
	if err != nil {
		return entities.Appointment{}, err
	}
	if appointmentID == "" || reason == "" {
		return entities.Appointment{}, domainerrors.ErrInvalidAppointmentInput
	}
	existing, err := uc.Appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return entities.Appointment{}, err
	}
	if !existing.IsActive() {
		logger.Warn("appointment close rejected for inactive appointment",
			"event", "leadership_appointment_close_not_active",
			"module", logModule,
			"layer", "application",
			"appointment_id", appointmentID,
			"status", string(existing.Status),
		)
		return entities.Appointment{}, domainerrors.ErrNotActive
	}
	endDate := services.DefaultEndDate(existing.StartDate, now)
	if requestedEnd != nil {
		endDate = requestedEnd.UTC()
		if endDate.Before(existing.StartDate) {
			return entities.Appointment{}, domainerrors.ErrInvalidAppointmentInput
		}
	}

	eventID, err := newID(ctx, uc.IDGen)
	if err != nil {
		return entities.Appointment{}, err
	}
	eventType := "appointment.terminated"
	if status == entities.AppointmentStatusRemoved {
		eventType = "appointment.removed"
	}
	event, err := newLeadershipEnvelope(eventID, eventType, "position_key", existing.PositionKey().String(), actorID, now, map[string]any{
		"appointment_id": appointmentID,
		"member_id":      existing.MemberID,
		"status":         string(status),
		"reason":         reason,
		"end_date":       endDate.UTC(),
	})
	if err != nil {
		return entities.Appointment{}, err
	}
	updated, err := uc.Appointments.CloseAppointment(ctx, ports.AppointmentClosure{
		AppointmentID: appointmentID,
		Status:        status,
		Reason:        reason,
		EndDate:       endDate.UTC(),
		ClosedAt:      now,
	}, event)
	if err != nil {
		logger.Warn("appointment close persist failed",
			"event", "leadership_appointment_close_persist_failed",
			"module", logModule,
			"layer", "application",
			"appointment_id", appointmentID,
			"error", err.Error(),
		)
		return entities.Appointment{}, err
	}

	recordAudit(ctx, uc.Audit, logger, ports.AuditEntry{
		Action:     eventType,
		ActorID:    actorID,
		EntityType: "appointment",
		EntityID:   appointmentID,
		Details: map[string]any{
			"position_key": existing.PositionKey().String(),
			"member_id":    existing.MemberID,
			"reason":       reason,
		},
		OccurredAt: now,
	})
	logger.Info("appointment closed",
		"event", "leadership_appointment_closed",
		"module", logModule,
		"layer", "application",
		"appointment_id", appointmentID,
		"status", string(updated.Status),
		"actor_id", actorID,
	)
	return updated, nil
}

func appointmentPayload(appointment entities.Appointment) map[string]any {
	data := map[string]any{
		"appointment_id":   appointment.AppointmentID,
		"position_id":      appointment.PositionID,
		"member_id":        appointment.MemberID,
		"hierarchy_level":  string(appointment.HierarchyLevel),
		"entity_id":        appointment.EntityID,
		"appointment_type": string(appointment.AppointmentType),
		"status":           string(appointment.Status),
		"start_date":       appointment.StartDate.UTC(),
		"end_date":         timePtrValue(appointment.EndDate),
		"appointed_by":     appointment.AppointedBy,
	}
	if appointment.ElectionID != nil {
		data["election_id"] = *appointment.ElectionID
	}
	return data
}
