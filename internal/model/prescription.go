package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Prescription statuses
const (
	PrescriptionActive    = "active"
	PrescriptionCompleted = "completed"
	PrescriptionCancelled = "cancelled"
)

// ValidPrescriptionStatus reports whether status is one of the three
// recognised values. Transitions between them are deliberately not
// restricted; see UpdateStatus in the prescription service.
func ValidPrescriptionStatus(status string) bool {
	return status == PrescriptionActive ||
		status == PrescriptionCompleted ||
		status == PrescriptionCancelled
}

// Medication is one ordered entry on a prescription
type Medication struct {
	Name         string `json:"name" binding:"required"`
	Dosage       string `json:"dosage" binding:"required"`
	Frequency    string `json:"frequency" binding:"required"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions"`
}

type MedicationList []Medication

func (l MedicationList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *MedicationList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// Prescription is a signed clinical order. PatientName is the verified
// registered name at issuance time, never the caller-supplied assertion.
// Immutable after creation except for Status.
type Prescription struct {
	Base
	Number      string         `json:"number" db:"number"`
	DoctorID    uuid.UUID      `json:"doctor_id" db:"doctor_id"`
	PatientID   uuid.UUID      `json:"patient_id" db:"patient_id"`
	PatientName string         `json:"patient_name" db:"patient_name"`
	Medications MedicationList `json:"medications" db:"medications"`
	Diagnosis   string         `json:"diagnosis" db:"diagnosis"`
	Notes       *string        `json:"notes,omitempty" db:"notes"`
	Status      string         `json:"status" db:"status"`
	IssuedAt    time.Time      `json:"issued_at" db:"issued_at"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty" db:"expires_at"`
}

// CreatePrescriptionRequest represents prescription issuance parameters.
// PatientName is the doctor's independent assertion of the patient's
// registered name; it is verified before anything is persisted.
type CreatePrescriptionRequest struct {
	PatientNumber int64        `json:"patient_number" binding:"required"`
	PatientName   string       `json:"patient_name" binding:"required"`
	Medications   []Medication `json:"medications" binding:"required,dive"`
	Diagnosis     string       `json:"diagnosis" binding:"required"`
	Notes         *string      `json:"notes"`
	ExpiresAt     *time.Time   `json:"expires_at"`
}

// UpdatePrescriptionStatusRequest carries a status transition
type UpdatePrescriptionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
