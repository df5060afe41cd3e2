package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"backoffice/contexts/leadership-governance/leadership-service/domain/entities"
	domainerrors "backoffice/contexts/leadership-governance/leadership-service/domain/errors"
	"backoffice/contexts/leadership-governance/leadership-service/ports"
)

var (
	storeTime = time.Date(2026, time.August, 1, 9, 0, 0, 0, time.UTC)
	storeSeat = entities.PositionKey{
		PositionID:     "ward-chair",
		HierarchyLevel: entities.HierarchyLevelWard,
		EntityID:       "ward-3",
	}
)

func envelopeFor(id string, eventType string) ports.EventEnvelope {
	return ports.EventEnvelope{
		EventID:       id,
		EventType:     eventType,
		OccurredAt:    storeTime,
		SchemaVersion: 1,
		Data:          []byte(`{}`),
	}
}

func appointmentOnSeat(id string, memberID string, status entities.AppointmentStatus) entities.Appointment {
	return entities.Appointment{
		AppointmentID:   id,
		PositionID:      storeSeat.PositionID,
		MemberID:        memberID,
		HierarchyLevel:  storeSeat.HierarchyLevel,
		EntityID:        storeSeat.EntityID,
		AppointmentType: entities.AppointmentTypeAppointed,
		StartDate:       storeTime,
		Status:          status,
		AppointedBy:     "admin-1",
		CreatedAt:       storeTime,
		UpdatedAt:       storeTime,
	}
}

func TestFinalizeElectionIDCollisionLeavesIncumbent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	election := entities.Election{
		ElectionID:     "el-1",
		Name:           "Ward 3 chair",
		PositionID:     storeSeat.PositionID,
		HierarchyLevel: storeSeat.HierarchyLevel,
		EntityID:       storeSeat.EntityID,
		Status:         entities.ElectionStatusVotingClosed,
		CreatedAt:      storeTime,
		UpdatedAt:      storeTime,
	}
	if err := store.CreateElection(ctx, election, envelopeFor("ev-1", "election.created")); err != nil {
		t.Fatalf("create election: %v", err)
	}
	if err := store.CreateAppointment(ctx, appointmentOnSeat("appt-old", "m-old", entities.AppointmentStatusTerminated), envelopeFor("ev-2", "appointment.created")); err != nil {
		t.Fatalf("create closed appointment: %v", err)
	}
	if err := store.CreateAppointment(ctx, appointmentOnSeat("appt-holder", "m-holder", entities.AppointmentStatusActive), envelopeFor("ev-3", "appointment.created")); err != nil {
		t.Fatalf("create holder: %v", err)
	}
	before := len(store.Outbox())

	elected := appointmentOnSeat("appt-old", "m-winner", entities.AppointmentStatusActive)
	elected.AppointmentType = entities.AppointmentTypeElected
	_, err := store.FinalizeElection(ctx, ports.FinalizationRecord{
		ElectionID:       "el-1",
		Appointment:      elected,
		SuccessionReason: "Succeeded by election result",
		FinalizedAt:      storeTime,
		Events:           []ports.EventEnvelope{envelopeFor("ev-4", "election.finalized")},
	})
	if !errors.Is(err, domainerrors.ErrInvalidAppointmentInput) {
		t.Fatalf("expected ErrInvalidAppointmentInput, got %v", err)
	}

	holder, ok, err := store.GetActiveAppointment(ctx, storeSeat)
	if err != nil || !ok {
		t.Fatalf("expected active holder, ok=%v err=%v", ok, err)
	}
	if holder.AppointmentID != "appt-holder" || holder.EndDate != nil || holder.TerminationReason != nil {
		t.Fatalf("incumbent was modified: %+v", holder)
	}
	stored, err := store.GetElection(ctx, "el-1")
	if err != nil {
		t.Fatalf("get election: %v", err)
	}
	if stored.Finalized || stored.Status != entities.ElectionStatusVotingClosed {
		t.Fatalf("election changed after failed finalize: %+v", stored)
	}
	if after := len(store.Outbox()); after != before {
		t.Fatalf("failed finalize wrote events: before=%d after=%d", before, after)
	}
}
