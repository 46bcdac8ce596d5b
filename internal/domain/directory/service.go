package directory

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	hospitals   HospitalRepository
	departments DepartmentRepository
	doctors     DoctorRepository
}

func NewService(h HospitalRepository, d DepartmentRepository, doc DoctorRepository) *Service {
	return &Service{hospitals: h, departments: d, doctors: doc}
}

// -- Hospital --

func (s *Service) CreateHospital(ctx context.Context, h *Hospital) error {
	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" {
		return invalid("name is required")
	}
	return s.hospitals.Create(ctx, h)
}

func (s *Service) GetHospital(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.hospitals.GetByID(ctx, id)
}

func (s *Service) UpdateHospital(ctx context.Context, h *Hospital) error {
	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" {
		return invalid("name is required")
	}
	return s.hospitals.Update(ctx, h)
}

func (s *Service) DeleteHospital(ctx context.Context, id uuid.UUID) error {
	return s.hospitals.Delete(ctx, id)
}

func (s *Service) ListHospitals(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	return s.hospitals.List(ctx, limit, offset)
}

// -- Department --

func (s *Service) CreateDepartment(ctx context.Context, d *Department) error {
	if err := s.checkDepartment(ctx, d); err != nil {
		return err
	}
	return s.departments.Create(ctx, d)
}

func (s *Service) GetDepartment(ctx context.Context, id uuid.UUID) (*Department, error) {
	return s.departments.GetByID(ctx, id)
}

func (s *Service) UpdateDepartment(ctx context.Context, d *Department) error {
	if err := s.checkDepartment(ctx, d); err != nil {
		return err
	}
	return s.departments.Update(ctx, d)
}

func (s *Service) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	return s.departments.Delete(ctx, id)
}

func (s *Service) ListDepartments(ctx context.Context, f DepartmentFilter, limit, offset int) ([]*Department, int, error) {
	return s.departments.List(ctx, f, limit, offset)
}

func (s *Service) checkDepartment(ctx context.Context, d *Department) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return invalid("name is required")
	}
	if d.HospitalID == uuid.Nil {
		return invalid("hospital_id is required")
	}
	if _, err := s.hospitals.GetByID(ctx, d.HospitalID); err != nil {
		if errors.Is(err, ErrHospitalNotFound) {
			return ErrInvalidReference
		}
		return err
	}
	return nil
}

// -- Doctor --

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if err := s.checkDoctor(ctx, d); err != nil {
		return err
	}
	return s.doctors.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) UpdateDoctor(ctx context.Context, d *Doctor) error {
	if err := s.checkDoctor(ctx, d); err != nil {
		return err
	}
	return s.doctors.Update(ctx, d)
}

func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	return s.doctors.Delete(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, f DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, f, limit, offset)
}

// checkDoctor requires the hospital to exist and, when a department is
// given, the department to belong to that hospital.
func (s *Service) checkDoctor(ctx context.Context, d *Doctor) error {
	d.Name = strings.TrimSpace(d.Name)
	d.Specialty = strings.TrimSpace(d.Specialty)
	if d.Name == "" {
		return invalid("name is required")
	}
	if d.Specialty == "" {
		return invalid("specialty is required")
	}
	if d.HospitalID == uuid.Nil {
		return invalid("hospital_id is required")
	}
	if _, err := s.hospitals.GetByID(ctx, d.HospitalID); err != nil {
		if errors.Is(err, ErrHospitalNotFound) {
			return ErrInvalidReference
		}
		return err
	}
	if d.DepartmentID == nil {
		return nil
	}
	dept, err := s.departments.GetByID(ctx, *d.DepartmentID)
	if err != nil {
		if errors.Is(err, ErrDepartmentNotFound) {
			return ErrInvalidReference
		}
		return err
	}
	if dept.HospitalID != d.HospitalID {
		return invalid("department_id belongs to a different hospital")
	}
	return nil
}
