package bed

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "bed").Logger()}
}

func (s *Service) Create(ctx context.Context, b *Bed) error {
	b.Ward = strings.TrimSpace(b.Ward)
	b.BedNumber = strings.TrimSpace(b.BedNumber)
	if b.HospitalID == uuid.Nil {
		return invalid("hospital_id is required")
	}
	if b.Ward == "" || b.BedNumber == "" {
		return invalid("ward and bed_number are required")
	}
	if b.Status == "" {
		b.Status = StatusAvailable
	}
	if b.Status != StatusAvailable && b.Status != StatusMaintenance {
		return invalid("status must be one of [available maintenance]")
	}
	b.PatientID = nil
	b.AssignedAt = nil
	return s.repo.Create(ctx, b)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Bed, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Bed, int, error) {
	switch f.Status {
	case "", StatusAvailable, StatusOccupied, StatusMaintenance:
	default:
		return nil, 0, invalid("status must be one of [available occupied maintenance]")
	}
	return s.repo.List(ctx, f, limit, offset)
}

// Delete refuses occupied beds.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Assign places a patient in an available bed. A bed that is occupied or
// under maintenance is left unchanged.
func (s *Service) Assign(ctx context.Context, id, patientID uuid.UUID) (*Bed, error) {
	if patientID == uuid.Nil {
		return nil, invalid("patient_id is required")
	}
	b, err := s.repo.Assign(ctx, id, patientID)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("bed_id", id.String()).Str("patient_id", patientID.String()).Msg("bed assigned")
	return b, nil
}

func (s *Service) Release(ctx context.Context, id uuid.UUID) (*Bed, error) {
	b, err := s.repo.Release(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("bed_id", id.String()).Msg("bed released")
	return b, nil
}

// SetStatus moves a bed between available and maintenance. Occupancy only
// changes through Assign and Release.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (*Bed, error) {
	if status != StatusAvailable && status != StatusMaintenance {
		return nil, invalid("status must be one of [available maintenance]")
	}
	return s.repo.SetStatus(ctx, id, status)
}
