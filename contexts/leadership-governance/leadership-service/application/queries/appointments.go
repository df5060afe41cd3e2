package queries

import (
	"context"
	"strings"

	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	domainerrors "backoffice/contexts/leadership-governance/leadership-service/domain/errors"
	"backoffice/contexts/leadership-governance/leadership-service/ports"
)

// AppointmentQueryUseCase exposes the appointment ledger and the derived
// current-holder view.
type AppointmentQueryUseCase struct {
	Appointments ports.AppointmentRepository
	Positions    ports.PositionCatalog
}

func (uc AppointmentQueryUseCase) GetAppointment(ctx context.Context, appointmentID string) (entities.Appointment, error) {
	appointmentID = strings.TrimSpace(appointmentID)
	if appointmentID == "" {
		return entities.Appointment{}, domainerrors.ErrAppointmentNotFound
	}
	return uc.Appointments.GetAppointment(ctx, appointmentID)
}

func (uc AppointmentQueryUseCase) ListAppointments(ctx context.Context, filter ports.AppointmentFilter) ([]entities.Appointment, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domainerrors.ErrInvalidAppointmentInput
	}
	if filter.HierarchyLevel != "" && !filter.HierarchyLevel.Valid() {
		return nil, domainerrors.ErrInvalidAppointmentInput
	}
	if filter.Offset < 0 {
		return nil, domainerrors.ErrInvalidAppointmentInput
	}
	filter.PositionID = strings.TrimSpace(filter.PositionID)
	filter.EntityID = strings.TrimSpace(filter.EntityID)
	filter.MemberID = strings.TrimSpace(filter.MemberID)
	filter.Limit = normalizeLimit(filter.Limit)
	return uc.Appointments.ListAppointments(ctx, filter)
}

// CurrentHolder returns the active appointment for a seat, if any.
func (uc AppointmentQueryUseCase) CurrentHolder(ctx context.Context, key entities.PositionKey) (entities.Appointment, bool, error) {
	key = key.Normalize()
	if !key.Valid() {
		return entities.Appointment{}, false, domainerrors.ErrInvalidAppointmentInput
	}
	return uc.Appointments.GetActiveAppointment(ctx, key)
}

// History lists every appointment ever made to a seat, newest first.
func (uc AppointmentQueryUseCase) History(ctx context.Context, key entities.PositionKey, limit int) ([]entities.Appointment, error) {
	key = key.Normalize()
	if !key.Valid() {
		return nil, domainerrors.ErrInvalidAppointmentInput
	}
	return uc.ListAppointments(ctx, ports.AppointmentFilter{
		PositionID:     key.PositionID,
		HierarchyLevel: key.HierarchyLevel,
		EntityID:       key.EntityID,
		Limit:          limit,
	})
}

func (uc AppointmentQueryUseCase) ListPositions(ctx context.Context, level entities.HierarchyLevel) ([]entities.Position, error) {
	if level != "" && !level.Valid() {
		return nil, domainerrors.ErrInvalidAppointmentInput
	}
	return uc.Positions.ListPositions(ctx, level)
}
