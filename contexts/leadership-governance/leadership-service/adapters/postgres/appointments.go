package postgresadapter

import (
	"context"
	"errors"
	"strings"

	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	domainerrors "backoffice/contexts/leadership-governance/leadership-service/domain/errors"
	"backoffice/contexts/leadership-governance/leadership-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repository) CreateAppointment(ctx context.Context, appointment entities.Appointment, event ports.EventEnvelope) error {
	row := appointmentModelFromEntity(appointment)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrPositionOccupied
			}
			return err
		}
		return appendOutbox(tx, event)
	})
	return r.finish("leadership_repo_create_appointment_failed", err,
		"appointment_id", row.AppointmentID,
		"position_id", row.PositionID,
		"entity_id", row.EntityID,
	)
}

func (r *Repository) GetAppointment(ctx context.Context, appointmentID string) (entities.Appointment, error) {
	var row appointmentModel
	err := r.db.WithContext(ctx).
		Where("appointment_id = ?", strings.TrimSpace(appointmentID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Appointment{}, domainerrors.ErrAppointmentNotFound
		}
		return entities.Appointment{}, r.logError("leadership_repo_get_appointment_failed", err,
			"appointment_id", strings.TrimSpace(appointmentID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListAppointments(ctx context.Context, filter ports.AppointmentFilter) ([]entities.Appointment, error) {
	tx := r.db.WithContext(ctx).Model(&appointmentModel{})
	if value := strings.TrimSpace(filter.PositionID); value != "" {
		tx = tx.Where("position_id = ?", value)
	}
	if filter.HierarchyLevel != "" {
		tx = tx.Where("hierarchy_level = ?", string(filter.HierarchyLevel))
	}
	if value := strings.TrimSpace(filter.EntityID); value != "" {
		tx = tx.Where("entity_id = ?", value)
	}
	if value := strings.TrimSpace(filter.MemberID); value != "" {
		tx = tx.Where("member_id = ?", value)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		tx = tx.Offset(filter.Offset)
	}

	var rows []appointmentModel
	if err := tx.Order("start_date DESC").Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, r.logError("leadership_repo_list_appointments_failed", err,
			"position_id", filter.PositionID,
			"member_id", filter.MemberID,
		)
	}
	items := make([]entities.Appointment, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetActiveAppointment(ctx context.Context, key entities.PositionKey) (entities.Appointment, bool, error) {
	row, found, err := activeAppointment(r.db.WithContext(ctx), key.Normalize(), false)
	if err != nil {
		return entities.Appointment{}, false, r.logError("leadership_repo_get_active_appointment_failed", err,
			"position_key", key.String(),
		)
	}
	if !found {
		return entities.Appointment{}, false, nil
	}
	return row.toEntity(), true, nil
}

func (r *Repository) CloseAppointment(
	ctx context.Context,
	closure ports.AppointmentClosure,
	event ports.EventEnvelope,
) (entities.Appointment, error) {
	appointmentID := strings.TrimSpace(closure.AppointmentID)
	var updated appointmentModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		closure.AppointmentID = appointmentID
		closed, err := closeActive(tx, closure)
		if err != nil {
			return err
		}
		if !closed {
			var row appointmentModel
			if err := tx.Where("appointment_id = ?", appointmentID).First(&row).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domainerrors.ErrAppointmentNotFound
				}
				return err
			}
			return domainerrors.ErrNotActive
		}
		if err := appendOutbox(tx, event); err != nil {
			return err
		}
		return tx.Where("appointment_id = ?", appointmentID).First(&updated).Error
	})
	if err != nil {
		return entities.Appointment{}, r.finish("leadership_repo_close_appointment_failed", err,
			"appointment_id", appointmentID,
			"status", string(closure.Status),
		)
	}
	return updated.toEntity(), nil
}

func (r *Repository) DeleteAppointment(ctx context.Context, appointmentID string, event ports.EventEnvelope) error {
	appointmentID = strings.TrimSpace(appointmentID)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("appointment_id = ?", appointmentID).Delete(&appointmentModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrAppointmentNotFound
		}
		return appendOutbox(tx, event)
	})
	return r.finish("leadership_repo_delete_appointment_failed", err, "appointment_id", appointmentID)
}

func activeAppointment(tx *gorm.DB, key entities.PositionKey, lock bool) (appointmentModel, bool, error) {
	query := tx
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row appointmentModel
	err := query.
		Where("position_id = ?", key.PositionID).
		Where("hierarchy_level = ?", string(key.HierarchyLevel)).
		Where("entity_id = ?", key.EntityID).
		Where("status = ?", string(entities.AppointmentStatusActive)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appointmentModel{}, false, nil
		}
		return appointmentModel{}, false, err
	}
	return row, true, nil
}

// closeActive flips an appointment out of active only if it is still active.
func closeActive(tx *gorm.DB, closure ports.AppointmentClosure) (bool, error) {
	result := tx.Model(&appointmentModel{}).
		Where("appointment_id = ? AND status = ?", closure.AppointmentID, string(entities.AppointmentStatusActive)).
		Updates(map[string]any{
			"status":             string(closure.Status),
			"end_date":           closure.EndDate.UTC(),
			"termination_reason": strings.TrimSpace(closure.Reason),
			"updated_at":         closure.ClosedAt.UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
