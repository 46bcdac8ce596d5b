package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/hospease/hospease/internal/platform/validate"
)

const (
	StatusBooked    = "booked"
	StatusCompleted = "completed"
)

// Appointment is a booked visit. TokenNumber is the patient's position in the
// doctor's queue for AppointmentDate (YYYY-MM-DD) and is unique per
// (doctor, date).
type Appointment struct {
	ID              uuid.UUID  `json:"id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	DoctorID        uuid.UUID  `json:"doctor_id"`
	HospitalID      uuid.UUID  `json:"hospital_id"`
	TokenNumber     int        `json:"token_number"`
	AppointmentDate string     `json:"appointment_date"`
	PreferredTime   *string    `json:"preferred_time,omitempty"`
	Reason          *string    `json:"reason,omitempty"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// BookRequest is the body of POST /appointments. HospitalID defaults to the
// doctor's hospital and must match it when given. AppointmentDate defaults
// to today (UTC).
type BookRequest struct {
	PatientID       string  `json:"patient_id" validate:"required,uuid"`
	DoctorID        string  `json:"doctor_id" validate:"required,uuid"`
	HospitalID      *string `json:"hospital_id" validate:"omitempty,uuid"`
	AppointmentDate string  `json:"appointment_date" validate:"omitempty,date"`
	PreferredTime   *string `json:"preferred_time" validate:"omitempty,clock"`
	Reason          *string `json:"reason" validate:"omitempty,max=2000"`
}

// Booking is a validated BookRequest.
type Booking struct {
	PatientID     uuid.UUID
	DoctorID      uuid.UUID
	HospitalID    *uuid.UUID
	Date          time.Time
	PreferredTime *string
	Reason        *string
}

// TokenRequest is the body of PUT /doctors/:id/token. Without CurrentToken
// the doctor's cursor advances by one.
type TokenRequest struct {
	CurrentToken *int   `json:"current_token" validate:"omitempty,min=0"`
	Date         string `json:"date" validate:"omitempty,date"`
}

// QueueDay is a doctor's queue for one date. Waiting counts booked
// appointments with a token above CurrentToken.
type QueueDay struct {
	DoctorID     uuid.UUID `json:"doctor_id"`
	Date         string    `json:"date"`
	CurrentToken int       `json:"current_token"`
	LastToken    int       `json:"last_token"`
	Waiting      int       `json:"waiting"`
}

// TokenUpdate is the token_updated event payload.
type TokenUpdate struct {
	DoctorID     uuid.UUID `json:"doctor_id"`
	CurrentToken int       `json:"current_token"`
	Date         string    `json:"date"`
}

type Filter struct {
	DoctorID   *uuid.UUID
	PatientID  *uuid.UUID
	HospitalID *uuid.UUID
	Status     string
	Date       *time.Time
}

// Contacts holds what the booking confirmation email needs.
type Contacts struct {
	PatientName  string
	PatientEmail *string
	DoctorName   string
}

func (r BookRequest) toBooking() (Booking, error) {
	var b Booking
	var err error
	if b.PatientID, err = uuid.Parse(r.PatientID); err != nil {
		return b, invalid("patient_id must be a valid UUID")
	}
	if b.DoctorID, err = uuid.Parse(r.DoctorID); err != nil {
		return b, invalid("doctor_id must be a valid UUID")
	}
	if r.HospitalID != nil && *r.HospitalID != "" {
		hid, err := uuid.Parse(*r.HospitalID)
		if err != nil {
			return b, invalid("hospital_id must be a valid UUID")
		}
		b.HospitalID = &hid
	}
	if b.Date, err = validate.ParseDate(r.AppointmentDate); err != nil {
		return b, invalid("appointment_date must be a date in YYYY-MM-DD format")
	}
	b.PreferredTime = r.PreferredTime
	b.Reason = r.Reason
	return b, nil
}
