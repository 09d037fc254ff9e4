package model

import (
	"time"

	"github.com/google/uuid"
)

type ConsultationStatus string

const (
	ConsultationStatusScheduled  ConsultationStatus = "scheduled"
	ConsultationStatusInProgress ConsultationStatus = "in_progress"
	ConsultationStatusCompleted  ConsultationStatus = "completed"
	ConsultationStatusCancelled  ConsultationStatus = "cancelled"
)

// Terminal reports whether no further lifecycle transition is permitted.
func (s ConsultationStatus) Terminal() bool {
	return s == ConsultationStatusCompleted || s == ConsultationStatusCancelled
}

type Modality string

const (
	ModalityInPerson Modality = "in_person"
	ModalityRemote   Modality = "remote"
)

// Consultation is one scheduled or occurred medical encounter. Patient and
// practitioner are weak references by identifier; the consultation never
// embeds them.
type Consultation struct {
	Base
	PatientID      uuid.UUID          `json:"patient_id"`
	PractitionerID uuid.UUID          `json:"practitioner_id"`
	Slot           Slot               `json:"slot"`
	Specialty      string             `json:"specialty"`
	Modality       Modality           `json:"modality"`
	Status         ConsultationStatus `json:"status"`
	Notes          string             `json:"notes,omitempty"`
	RecordID       *uuid.UUID         `json:"record_id,omitempty"`
	StartedAt      *time.Time         `json:"started_at,omitempty"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
	CancelReason   *string            `json:"cancel_reason,omitempty"`
}

type ScheduleConsultationRequest struct {
	PatientID      uuid.UUID `json:"patient_id" validate:"required"`
	PractitionerID uuid.UUID `json:"practitioner_id" validate:"required"`
	Date           string    `json:"date" validate:"required,datetime=2006-01-02"`
	Time           string    `json:"time" validate:"required,datetime=15:04"`
	Specialty      string    `json:"specialty" validate:"required,max=120"`
	Modality       Modality  `json:"modality" validate:"required,oneof=in_person remote"`
	Notes          string    `json:"notes" validate:"max=1000"`
}

func (r ScheduleConsultationRequest) Slot() Slot {
	return Slot{Date: r.Date, Time: r.Time}
}

type RescheduleConsultationRequest struct {
	ConsultationID uuid.UUID `json:"consultation_id" validate:"required"`
	Date           string    `json:"date" validate:"required,datetime=2006-01-02"`
	Time           string    `json:"time" validate:"required,datetime=15:04"`
}

func (r RescheduleConsultationRequest) Slot() Slot {
	return Slot{Date: r.Date, Time: r.Time}
}

type ConsultationFilters struct {
	PatientID      uuid.UUID
	PractitionerID uuid.UUID
	Status         ConsultationStatus
	Date           string
}
