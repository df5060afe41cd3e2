package entities

import "time"

type AppointmentType string

const (
	AppointmentTypeElected   AppointmentType = "elected"
	AppointmentTypeAppointed AppointmentType = "appointed"
	AppointmentTypeActing    AppointmentType = "acting"
	AppointmentTypeInterim   AppointmentType = "interim"
)

func (t AppointmentType) Valid() bool {
	switch t {
	case AppointmentTypeElected,
		AppointmentTypeAppointed,
		AppointmentTypeActing,
		AppointmentTypeInterim:
		return true
	default:
		return false
	}
}

// ManuallyCreatable reports whether an administrator may create this type
// directly. Elected appointments only come out of election finalization.
func (t AppointmentType) ManuallyCreatable() bool {
	return t == AppointmentTypeAppointed || t == AppointmentTypeActing || t == AppointmentTypeInterim
}

type AppointmentStatus string

const (
	AppointmentStatusActive     AppointmentStatus = "active"
	AppointmentStatusTerminated AppointmentStatus = "terminated"
	AppointmentStatusRemoved    AppointmentStatus = "removed"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusActive, AppointmentStatusTerminated, AppointmentStatusRemoved:
		return true
	default:
		return false
	}
}

type Appointment struct {
	AppointmentID     string
	PositionID        string
	MemberID          string
	HierarchyLevel    HierarchyLevel
	EntityID          string
	AppointmentType   AppointmentType
	StartDate         time.Time
	EndDate           *time.Time
	Status            AppointmentStatus
	AppointedBy       string
	TerminationReason *string
	ElectionID        *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (a Appointment) PositionKey() PositionKey {
	return PositionKey{
		PositionID:     a.PositionID,
		HierarchyLevel: a.HierarchyLevel,
		EntityID:       a.EntityID,
	}
}

func (a Appointment) IsActive() bool {
	return a.Status == AppointmentStatusActive
}
