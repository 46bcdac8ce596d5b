package appointment

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/hospease/hospease/internal/platform/db"
	"github.com/hospease/hospease/internal/platform/metrics"
	"github.com/hospease/hospease/internal/platform/notification"
	"github.com/hospease/hospease/internal/platform/realtime"
	"github.com/hospease/hospease/internal/platform/validate"
)

// TxFunc runs fn in a transaction carried by the context passed to fn.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// PGTx returns a TxFunc backed by a Postgres pool.
func PGTx(pool db.TxBeginner) TxFunc {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, pgx.TxOptions{}, fn)
	}
}

type Service struct {
	repo        Repository
	tx          TxFunc
	broadcaster realtime.Broadcaster
	notifier    *notification.Notifier
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

func NewService(repo Repository, tx TxFunc, bc realtime.Broadcaster, n *notification.Notifier, m *metrics.Metrics, logger zerolog.Logger) *Service {
	if bc == nil {
		bc = realtime.NopBroadcaster{}
	}
	return &Service{
		repo:        repo,
		tx:          tx,
		broadcaster: bc,
		notifier:    n,
		metrics:     m,
		logger:      logger.With().Str("component", "appointment").Logger(),
	}
}

// Book issues the next token for the doctor's queue on b.Date and stores the
// appointment in the same transaction. Subscribers and the patient are
// notified after commit; notification failures do not fail the booking.
func (s *Service) Book(ctx context.Context, b Booking) (*Appointment, error) {
	if b.PatientID == uuid.Nil {
		return nil, invalid("patient_id is required")
	}
	if b.DoctorID == uuid.Nil {
		return nil, invalid("doctor_id is required")
	}
	if b.Date.IsZero() {
		b.Date = validate.Today()
	}

	a := &Appointment{
		PatientID:       b.PatientID,
		DoctorID:        b.DoctorID,
		AppointmentDate: b.Date.Format(validate.DateLayout),
		PreferredTime:   b.PreferredTime,
		Reason:          b.Reason,
		Status:          StatusBooked,
	}
	if b.HospitalID != nil {
		a.HospitalID = *b.HospitalID
	}

	err := s.tx(ctx, func(ctx context.Context) error {
		token, err := s.repo.NextToken(ctx, a.DoctorID, b.Date)
		if err != nil {
			return err
		}
		a.TokenNumber = token
		return s.repo.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TokenAssigned()
	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("doctor_id", a.DoctorID.String()).
		Str("date", a.AppointmentDate).
		Int("token", a.TokenNumber).
		Msg("appointment booked")

	s.publish(ctx, realtime.DoctorTopic(a.DoctorID.String()), realtime.EventNewAppointment, a)
	s.publish(ctx, realtime.UserTopic(a.PatientID.String()), realtime.EventAppointmentCreated, a)
	s.sendConfirmation(ctx, a)
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	if f.Status != "" && f.Status != StatusBooked && f.Status != StatusCompleted {
		return nil, 0, invalid("status must be one of [booked completed]")
	}
	return s.repo.List(ctx, f, limit, offset)
}

// Complete is idempotent.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.Complete(ctx, id)
}

// SetCurrentToken updates the token the doctor is serving and notifies the
// doctor's room. A nil token advances the queue by one.
func (s *Service) SetCurrentToken(ctx context.Context, doctorID uuid.UUID, date time.Time, token *int) (*QueueDay, error) {
	if token != nil && *token < 0 {
		return nil, invalid("current_token must be at least 0")
	}
	if date.IsZero() {
		date = validate.Today()
	}
	q, err := s.repo.SetCurrentToken(ctx, doctorID, date, token)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, realtime.DoctorTopic(doctorID.String()), realtime.EventTokenUpdated, TokenUpdate{
		DoctorID:     doctorID,
		CurrentToken: q.CurrentToken,
		Date:         q.Date,
	})
	return q, nil
}

func (s *Service) Queue(ctx context.Context, doctorID uuid.UUID, date time.Time) (*QueueDay, error) {
	if date.IsZero() {
		date = validate.Today()
	}
	return s.repo.Queue(ctx, doctorID, date)
}

// DoctorPatients lists the doctor's appointments for one date in token order.
func (s *Service) DoctorPatients(ctx context.Context, doctorID uuid.UUID, date time.Time, limit, offset int) ([]*Appointment, int, error) {
	if date.IsZero() {
		date = validate.Today()
	}
	return s.repo.List(ctx, Filter{DoctorID: &doctorID, Date: &date}, limit, offset)
}

func (s *Service) publish(ctx context.Context, topic, event string, payload any) {
	if err := s.broadcaster.Broadcast(ctx, topic, event, payload); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Str("event", event).Msg("broadcast failed")
	}
}

func (s *Service) sendConfirmation(ctx context.Context, a *Appointment) {
	if !s.notifier.Enabled() {
		return
	}
	contacts, err := s.repo.Contacts(ctx, a.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", a.ID.String()).Msg("load confirmation contacts")
		return
	}
	if contacts.PatientEmail == nil {
		return
	}
	s.notifier.Dispatch(ctx, *contacts.PatientEmail, notification.TemplateAppointmentBooked, map[string]string{
		"patient_name": contacts.PatientName,
		"doctor_name":  contacts.DoctorName,
		"date":         a.AppointmentDate,
		"token_number": strconv.Itoa(a.TokenNumber),
	})
}
