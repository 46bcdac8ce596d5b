package bed

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusAvailable   = "available"
	StatusOccupied    = "occupied"
	StatusMaintenance = "maintenance"
)

// Bed is occupied exactly when PatientID is set.
type Bed struct {
	ID           uuid.UUID  `json:"id"`
	HospitalID   uuid.UUID  `json:"hospital_id"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	Ward         string     `json:"ward"`
	BedNumber    string     `json:"bed_number"`
	Status       string     `json:"status"`
	PatientID    *uuid.UUID `json:"patient_id,omitempty"`
	AssignedAt   *time.Time `json:"assigned_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type CreateRequest struct {
	HospitalID   string  `json:"hospital_id" validate:"required,uuid"`
	DepartmentID *string `json:"department_id" validate:"omitempty,uuid"`
	Ward         string  `json:"ward" validate:"required,max=120"`
	BedNumber    string  `json:"bed_number" validate:"required,max=40"`
	Status       string  `json:"status" validate:"omitempty,oneof=available maintenance"`
}

type AssignRequest struct {
	PatientID string `json:"patient_id" validate:"required,uuid"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=available maintenance"`
}

type Filter struct {
	HospitalID   *uuid.UUID
	DepartmentID *uuid.UUID
	Ward         string
	Status       string
}

func (r CreateRequest) toModel() (*Bed, error) {
	hid, err := uuid.Parse(r.HospitalID)
	if err != nil {
		return nil, invalid("hospital_id must be a valid UUID")
	}
	b := &Bed{HospitalID: hid, Ward: r.Ward, BedNumber: r.BedNumber, Status: r.Status}
	if r.DepartmentID != nil && *r.DepartmentID != "" {
		did, err := uuid.Parse(*r.DepartmentID)
		if err != nil {
			return nil, invalid("department_id must be a valid UUID")
		}
		b.DepartmentID = &did
	}
	return b, nil
}
