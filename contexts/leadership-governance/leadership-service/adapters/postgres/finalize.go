package postgresadapter

import (
	"context"
	"strings"

	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	domainerrors "backoffice/contexts/leadership-governance/leadership-service/domain/errors"
	"backoffice/contexts/leadership-governance/leadership-service/ports"

	"gorm.io/gorm"
)

// FinalizeElection commits the whole succession in one transaction. The
// compare-and-set on finalized=false makes the first of two concurrent
// finalizers win; the loser sees ErrAlreadyFinalized.
func (r *Repository) FinalizeElection(ctx context.Context, record ports.FinalizationRecord) (ports.FinalizationOutcome, error) {
	electionID := strings.TrimSpace(record.ElectionID)
	outcome := ports.FinalizationOutcome{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&electionModel{}).
			Where("election_id = ? AND finalized = ? AND status = ?",
				electionID, false, string(entities.ElectionStatusVotingClosed)).
			Updates(map[string]any{
				"status":     string(entities.ElectionStatusCompleted),
				"finalized":  true,
				"updated_at": record.FinalizedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			election, err := loadElection(tx, electionID, false)
			if err != nil {
				return err
			}
			if election.Finalized {
				return domainerrors.ErrAlreadyFinalized
			}
			return domainerrors.ErrInvalidTransition
		}

		key := record.Appointment.PositionKey().Normalize()
		previous, occupied, err := activeAppointment(tx, key, true)
		if err != nil {
			return err
		}
		if occupied {
			closed, err := closeActive(tx, ports.AppointmentClosure{
				AppointmentID: previous.AppointmentID,
				Status:        entities.AppointmentStatusTerminated,
				Reason:        record.SuccessionReason,
				EndDate:       record.Appointment.StartDate,
				ClosedAt:      record.FinalizedAt,
			})
			if err != nil {
				return err
			}
			if !closed {
				return domainerrors.ErrPositionOccupied
			}
			outcome.SupersededAppointmentID = previous.AppointmentID
		}

		row := appointmentModelFromEntity(record.Appointment)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrPositionOccupied
			}
			return err
		}
		for _, event := range record.Events {
			if err := appendOutbox(tx, event); err != nil {
				return err
			}
		}

		election, err := loadElection(tx, electionID, false)
		if err != nil {
			return err
		}
		outcome.Election = election
		outcome.Appointment = row.toEntity()
		return nil
	})
	if err != nil {
		return ports.FinalizationOutcome{}, r.finish("leadership_repo_finalize_election_failed", err,
			"election_id", electionID,
			"appointment_id", record.Appointment.AppointmentID,
		)
	}
	return outcome, nil
}
