package prescription

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hospease/hospease/internal/platform/notification"
)

type Service struct {
	repo     Repository
	notifier *notification.Notifier
	logger   zerolog.Logger
}

func NewService(repo Repository, n *notification.Notifier, logger zerolog.Logger) *Service {
	return &Service{repo: repo, notifier: n, logger: logger.With().Str("component", "prescription").Logger()}
}

func (s *Service) check(p *Prescription) error {
	p.Diagnosis = strings.TrimSpace(p.Diagnosis)
	if p.PatientID == uuid.Nil {
		return invalid("patient_id is required")
	}
	if p.DoctorID == uuid.Nil {
		return invalid("doctor_id is required")
	}
	if p.Diagnosis == "" {
		return invalid("diagnosis is required")
	}
	if p.Medications == nil {
		p.Medications = []Medication{}
	}
	for _, m := range p.Medications {
		if strings.TrimSpace(m.Name) == "" {
			return invalid("medication name is required")
		}
	}
	return nil
}

// Create stores the prescription and, when email is configured, mails the
// PDF to the patient.
func (s *Service) Create(ctx context.Context, p *Prescription) error {
	if err := s.check(p); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.mailPDF(ctx, p.ID)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Prescription) error {
	if err := s.check(p); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// PDF renders the prescription document.
func (s *Service) PDF(ctx context.Context, id uuid.UUID) ([]byte, error) {
	doc, err := s.repo.Document(ctx, id)
	if err != nil {
		return nil, err
	}
	return RenderPDF(doc)
}

func (s *Service) mailPDF(ctx context.Context, id uuid.UUID) {
	if !s.notifier.Enabled() {
		return
	}
	doc, err := s.repo.Document(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("prescription_id", id.String()).Msg("load prescription document")
		return
	}
	if doc.PatientEmail == nil {
		return
	}
	data, err := RenderPDF(doc)
	if err != nil {
		s.logger.Warn().Err(err).Str("prescription_id", id.String()).Msg("render prescription pdf")
		return
	}
	s.notifier.Dispatch(ctx, *doc.PatientEmail, notification.TemplatePrescriptionIssued, map[string]string{
		"patient_name": doc.PatientName,
		"doctor_name":  doc.DoctorName,
		"date":         doc.CreatedAt.UTC().Format(dateLayout),
	}, notification.Attachment{
		Filename:    "prescription-" + id.String() + ".pdf",
		ContentType: "application/pdf",
		Data:        data,
	})
}
