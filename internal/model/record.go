package model

import (
	"github.com/google/uuid"
)

// MedicalRecord is the clinical documentation tied to one consultation.
// What callers see is always the latest merged view; the repository keeps
// the full amendment history behind it.
type MedicalRecord struct {
	Base
	PatientID      uuid.UUID `json:"patient_id"`
	PractitionerID uuid.UUID `json:"practitioner_id"`
	ConsultationID uuid.UUID `json:"consultation_id"`
	Symptoms       string    `json:"symptoms"`
	Diagnosis      string    `json:"diagnosis"`
	Treatment      string    `json:"treatment"`
	Medications    []string  `json:"medications"`
	Notes          string    `json:"notes"`
	Version        int       `json:"version"`
}

// Clone returns a deep copy so callers can never alias repository state.
func (r *MedicalRecord) Clone() *MedicalRecord {
	cp := *r
	cp.Medications = append([]string(nil), r.Medications...)
	return &cp
}

type CreateRecordRequest struct {
	ConsultationID uuid.UUID `json:"consultation_id" validate:"required"`
	Symptoms       string    `json:"symptoms" validate:"required"`
	Diagnosis      string    `json:"diagnosis" validate:"required"`
	Treatment      string    `json:"treatment"`
	Medications    []string  `json:"medications"`
	Notes          string    `json:"notes" validate:"max=4000"`
}

// RecordAmendment is an append-only patch. Nil fields keep their current
// value. Medications are only ever added, except for explicit removal by
// index requested by the caller.
type RecordAmendment struct {
	Symptoms            *string  `json:"symptoms,omitempty"`
	Diagnosis           *string  `json:"diagnosis,omitempty"`
	Treatment           *string  `json:"treatment,omitempty"`
	Notes               *string  `json:"notes,omitempty"`
	AddMedications      []string `json:"add_medications,omitempty"`
	RemoveMedicationIdx []int    `json:"remove_medication_idx,omitempty"`
}

// Empty reports whether the amendment would change nothing.
func (a RecordAmendment) Empty() bool {
	return a.Symptoms == nil && a.Diagnosis == nil && a.Treatment == nil &&
		a.Notes == nil && len(a.AddMedications) == 0 && len(a.RemoveMedicationIdx) == 0
}
