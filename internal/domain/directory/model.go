package directory

import (
	"time"

	"github.com/google/uuid"
)

type Hospital struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	City      *string   `json:"city,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Department struct {
	ID          uuid.UUID `json:"id"`
	HospitalID  uuid.UUID `json:"hospital_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Doctor carries CurrentToken, the token being served today (0 when the
// doctor has not opened a queue today). It is read from the queue_days row
// and is never written through the doctor endpoints.
type Doctor struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        *string    `json:"email,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	HospitalID   uuid.UUID  `json:"hospital_id"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	Specialty    string     `json:"specialty"`
	CurrentToken int        `json:"current_token"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type HospitalRequest struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Address *string `json:"address"`
	City    *string `json:"city" validate:"omitempty,max=120"`
	Phone   *string `json:"phone" validate:"omitempty,max=40"`
}

type DepartmentRequest struct {
	HospitalID  string  `json:"hospital_id" validate:"required,uuid"`
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
}

type DoctorRequest struct {
	Name         string  `json:"name" validate:"required,max=255"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Phone        *string `json:"phone" validate:"omitempty,max=40"`
	HospitalID   string  `json:"hospital_id" validate:"required,uuid"`
	DepartmentID *string `json:"department_id" validate:"omitempty,uuid"`
	Specialty    string  `json:"specialty" validate:"required,max=120"`
}

type DepartmentFilter struct {
	HospitalID *uuid.UUID
}

type DoctorFilter struct {
	HospitalID   *uuid.UUID
	DepartmentID *uuid.UUID
	Specialty    string
}

func (r HospitalRequest) toModel() *Hospital {
	return &Hospital{Name: r.Name, Address: r.Address, City: r.City, Phone: r.Phone}
}

func (r DepartmentRequest) toModel() (*Department, error) {
	hid, err := uuid.Parse(r.HospitalID)
	if err != nil {
		return nil, invalid("hospital_id must be a valid UUID")
	}
	return &Department{HospitalID: hid, Name: r.Name, Description: r.Description}, nil
}

func (r DoctorRequest) toModel() (*Doctor, error) {
	hid, err := uuid.Parse(r.HospitalID)
	if err != nil {
		return nil, invalid("hospital_id must be a valid UUID")
	}
	d := &Doctor{Name: r.Name, Email: r.Email, Phone: r.Phone, HospitalID: hid, Specialty: r.Specialty}
	if r.DepartmentID != nil && *r.DepartmentID != "" {
		did, err := uuid.Parse(*r.DepartmentID)
		if err != nil {
			return nil, invalid("department_id must be a valid UUID")
		}
		d.DepartmentID = &did
	}
	return d, nil
}
