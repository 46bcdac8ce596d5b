package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hospease/hospease/internal/domain/bed"
	"github.com/hospease/hospease/internal/domain/directory"
	"github.com/hospease/hospease/internal/domain/patient"
)

type seedDoctor struct {
	name       string
	email      string
	specialty  string
	department string
}

type seedPatient struct {
	name   string
	email  string
	dob    string
	gender string
}

type seedBed struct {
	ward       string
	number     string
	department string
}

// demoData is the fixture loaded by the seed command.
type demoData struct {
	hospital    string
	city        string
	departments []string
	doctors     []seedDoctor
	patients    []seedPatient
	beds        []seedBed
}

func demoDirectory() demoData {
	return demoData{
		hospital:    "City General Hospital",
		city:        "Pune",
		departments: []string{"Cardiology", "Orthopedics", "General Medicine"},
		doctors: []seedDoctor{
			{name: "Dr. Asha Rao", email: "asha.rao@citygeneral.example", specialty: "Cardiologist", department: "Cardiology"},
			{name: "Dr. Vikram Mehta", email: "vikram.mehta@citygeneral.example", specialty: "Orthopedic Surgeon", department: "Orthopedics"},
			{name: "Dr. Leena Joshi", email: "leena.joshi@citygeneral.example", specialty: "General Physician", department: "General Medicine"},
		},
		patients: []seedPatient{
			{name: "Rahul Sharma", email: "rahul.sharma@example.com", dob: "1988-04-12", gender: "male"},
			{name: "Priya Nair", email: "priya.nair@example.com", dob: "1992-09-30", gender: "female"},
			{name: "Sam Fernandes", email: "sam.fernandes@example.com", dob: "1975-01-05", gender: "other"},
		},
		beds: []seedBed{
			{ward: "Ward A", number: "A-101", department: "Cardiology"},
			{ward: "Ward A", number: "A-102", department: "Cardiology"},
			{ward: "Ward B", number: "B-201", department: "Orthopedics"},
			{ward: "Ward C", number: "C-301", department: "General Medicine"},
		},
	}
}

type seeder struct {
	directory *directory.Service
	patients  *patient.Service
	beds      *bed.Service
	logger    zerolog.Logger
}

func newSeeder(pool *pgxpool.Pool, logger zerolog.Logger) *seeder {
	return &seeder{
		directory: directory.NewService(
			directory.NewHospitalRepoPG(pool),
			directory.NewDepartmentRepoPG(pool),
			directory.NewDoctorRepoPG(pool),
		),
		patients: patient.NewService(patient.NewRepoPG(pool)),
		beds:     bed.NewService(bed.NewRepoPG(pool), logger),
		logger:   logger,
	}
}

func runSeed(ctx context.Context, s *seeder, force bool) error {
	if !force {
		_, total, err := s.directory.ListHospitals(ctx, 1, 0)
		if err != nil {
			return fmt.Errorf("count hospitals: %w", err)
		}
		if total > 0 {
			s.logger.Info().Int("hospitals", total).Msg("database already seeded, use --force to seed again")
			return nil
		}
	}
	return s.load(ctx, demoDirectory())
}

func (s *seeder) load(ctx context.Context, data demoData) error {
	city := data.city
	h := &directory.Hospital{Name: data.hospital, City: &city}
	if err := s.directory.CreateHospital(ctx, h); err != nil {
		return fmt.Errorf("seed hospital: %w", err)
	}

	departments := make(map[string]*directory.Department, len(data.departments))
	for _, name := range data.departments {
		d := &directory.Department{HospitalID: h.ID, Name: name}
		if err := s.directory.CreateDepartment(ctx, d); err != nil {
			return fmt.Errorf("seed department %s: %w", name, err)
		}
		departments[name] = d
	}

	for _, sd := range data.doctors {
		email := sd.email
		doc := &directory.Doctor{
			Name:         sd.name,
			Email:        &email,
			HospitalID:   h.ID,
			DepartmentID: &departments[sd.department].ID,
			Specialty:    sd.specialty,
		}
		if err := s.directory.CreateDoctor(ctx, doc); err != nil {
			return fmt.Errorf("seed doctor %s: %w", sd.name, err)
		}
		s.logger.Info().Str("doctor_id", doc.ID.String()).Str("name", doc.Name).Msg("seeded doctor")
	}

	for _, sp := range data.patients {
		email, dob, gender := sp.email, sp.dob, sp.gender
		p := &patient.Patient{Name: sp.name, Email: &email, DateOfBirth: &dob, Gender: &gender}
		if err := s.patients.Create(ctx, p); err != nil {
			return fmt.Errorf("seed patient %s: %w", sp.name, err)
		}
		s.logger.Info().Str("patient_id", p.ID.String()).Str("name", p.Name).Msg("seeded patient")
	}

	for _, sb := range data.beds {
		b := &bed.Bed{
			HospitalID:   h.ID,
			DepartmentID: &departments[sb.department].ID,
			Ward:         sb.ward,
			BedNumber:    sb.number,
		}
		if err := s.beds.Create(ctx, b); err != nil {
			return fmt.Errorf("seed bed %s: %w", sb.number, err)
		}
	}

	s.logger.Info().
		Str("hospital_id", h.ID.String()).
		Int("departments", len(data.departments)).
		Int("doctors", len(data.doctors)).
		Int("patients", len(data.patients)).
		Int("beds", len(data.beds)).
		Msg("seed complete")
	return nil
}
