package prescription

import (
	"time"

	"github.com/google/uuid"
)

type Medication struct {
	Name         string  `json:"name" validate:"required,max=255"`
	Dosage       string  `json:"dosage" validate:"required,max=120"`
	Frequency    string  `json:"frequency" validate:"required,max=120"`
	DurationDays int     `json:"duration_days" validate:"min=0,max=365"`
	Instructions *string `json:"instructions,omitempty"`
}

// Prescription is stored with its medications as a jsonb array.
type Prescription struct {
	ID            uuid.UUID    `json:"id"`
	AppointmentID *uuid.UUID   `json:"appointment_id,omitempty"`
	PatientID     uuid.UUID    `json:"patient_id"`
	DoctorID      uuid.UUID    `json:"doctor_id"`
	Diagnosis     string       `json:"diagnosis"`
	Medications   []Medication `json:"medications"`
	Notes         *string      `json:"notes,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

type Request struct {
	AppointmentID *string      `json:"appointment_id" validate:"omitempty,uuid"`
	PatientID     string       `json:"patient_id" validate:"required,uuid"`
	DoctorID      string       `json:"doctor_id" validate:"required,uuid"`
	Diagnosis     string       `json:"diagnosis" validate:"required"`
	Medications   []Medication `json:"medications" validate:"dive"`
	Notes         *string      `json:"notes"`
}

type Filter struct {
	PatientID     *uuid.UUID
	DoctorID      *uuid.UUID
	AppointmentID *uuid.UUID
}

// Document is a prescription with the names printed on its PDF.
type Document struct {
	Prescription
	PatientName  string
	PatientEmail *string
	DoctorName   string
	Specialty    string
	HospitalName string
}

func (r Request) toModel() (*Prescription, error) {
	p := &Prescription{Diagnosis: r.Diagnosis, Medications: r.Medications, Notes: r.Notes}
	var err error
	if p.PatientID, err = uuid.Parse(r.PatientID); err != nil {
		return nil, invalid("patient_id must be a valid UUID")
	}
	if p.DoctorID, err = uuid.Parse(r.DoctorID); err != nil {
		return nil, invalid("doctor_id must be a valid UUID")
	}
	if r.AppointmentID != nil && *r.AppointmentID != "" {
		aid, err := uuid.Parse(*r.AppointmentID)
		if err != nil {
			return nil, invalid("appointment_id must be a valid UUID")
		}
		p.AppointmentID = &aid
	}
	return p, nil
}
