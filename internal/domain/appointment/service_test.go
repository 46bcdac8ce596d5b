package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospease/hospease/internal/platform/notification"
	"github.com/hospease/hospease/internal/platform/realtime"
)

type published struct {
	topic, event string
	payload      any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (r *recordingBroadcaster) Broadcast(_ context.Context, topic, event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{topic, event, payload})
	return r.err
}

func (r *recordingBroadcaster) all() []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]published(nil), r.events...)
}

func newTestService(bc realtime.Broadcaster, n *notification.Notifier) (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, repo.tx, bc, n, nil, zerolog.Nop()), repo
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestService_Book_SequentialTokensPerDoctorAndDate(t *testing.T) {
	svc, repo := newTestService(nil, nil)
	ctx := context.Background()
	doc := repo.addDoctor("Dr. Rao")
	p1 := repo.addPatient("Asha", nil)
	p2 := repo.addPatient("Ravi", nil)

	a1, err := svc.Book(ctx, Booking{PatientID: p1, DoctorID: doc, Date: day("2025-01-01")})
	require.NoError(t, err)
	a2, err := svc.Book(ctx, Booking{PatientID: p2, DoctorID: doc, Date: day("2025-01-01")})
	require.NoError(t, err)
	a3, err := svc.Book(ctx, Booking{PatientID: p1, DoctorID: doc, Date: day("2025-01-02")})
	require.NoError(t, err)

	assert.Equal(t, 1, a1.TokenNumber)
	assert.Equal(t, 2, a2.TokenNumber)
	assert.Equal(t, 1, a3.TokenNumber)
	assert.Equal(t, "2025-01-02", a3.AppointmentDate)
	assert.Equal(t, StatusBooked, a1.Status)
}

func TestService_Book_DoctorsHaveIndependentQueues(t *testing.T) {
	svc, repo := newTestService(nil, nil)
	ctx := context.Background()
	d1 := repo.addDoctor("Dr. A")
	d2 := repo.addDoctor("Dr. B")
	p := repo.addPatient("Asha", nil)

	a, err := svc.Book(ctx, Booking{PatientID: p, DoctorID: d1, Date: day("2025-01-01")})
	require.NoError(t, err)
	b, err := svc.Book(ctx, Booking{PatientID: p, DoctorID: d2, Date: day("2025-01-01")})
	require.NoError(t, err)
	assert.Equal(t, 1, a.TokenNumber)
	assert.Equal(t, 1, b.TokenNumber)
}

func TestService_Book_ConcurrentTokensAreDense(t *testing.T) {
	svc, repo := newTestService(nil, nil)
	doc := repo.addDoctor("Dr. Rao")
	p := repo.addPatient("Asha", nil)

	const n = 50
	tokens := make([]int, n)
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := svc.Book(context.Background(), Booking{PatientID: p, DoctorID: doc, Date: day("2025-03-10")})
			if err != nil {
				errs <- err
				return
			}
			tokens[i] = a.TokenNumber
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	sort.Ints(tokens)
	for i, tok := range tokens {
		assert.Equal(t, i+1, tok)
	}
}

func TestService_Book_DefaultsToToday(t *testing.T) {
	svc, repo := newTestService(nil, nil)
	a, err := svc.Book(context.Background(), Booking{PatientID: repo.addPatient("Asha", nil), DoctorID: repo.addDoctor("Dr. Rao")})
	require.NoError(t, err)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), a.AppointmentDate)
}

func TestService_Book_DefaultsHospitalToDoctors(t *testing.T) {
	svc, repo := newTestService(nil, nil)
	doc := repo.addDoctor("Dr. Rao")
	a, err := svc.Book(context.Background(), Booking{PatientID: repo.addPatient("Asha", nil), DoctorID: doc})
	require.NoError(t, err)
	assert.Equal(t, repo.doctors[doc], a.HospitalID)
}

func TestService_Book_RejectsOtherHospital(t *testing.T) {
	bc := &recordingBroadcaster{}
	svc, repo := newTestService(bc, nil)
	ctx := context.Background()
	doc := repo.addDoctor("Dr. Rao")
	p := repo.addPatient("Asha", nil)
	other := uuid.New()

	_, err := svc.Book(ctx, Booking{PatientID: p, DoctorID: doc, HospitalID: &other, Date: day("2025-01-01")})
	require.ErrorIs(t, err, ErrHospitalMismatch)
	assert.Empty(t, bc.all())

	own := repo.doctors[doc]
	a, err := svc.Book(ctx, Booking{PatientID: p, DoctorID: doc, HospitalID: &own, Date: day("2025-01-01")})
	require.NoError(t, err)
	assert.Equal(t, 1, a.TokenNumber)
	assert.Equal(t, own, a.HospitalID)
}

func TestService_Book_UnknownPatientRollsBackCounter(t *testing.T) {
	bc := &recordingBroadcaster{}
	svc, repo := newTestService(bc, nil)
	ctx := context.Background()
	doc := repo.addDoctor("Dr. Rao")

	_, err := svc.Book(ctx, Booking{PatientID: uuid.New(), DoctorID: doc, Date: day("2025-01-01")})
	require.ErrorIs(t, err, ErrUnknownPatient)
	assert.Empty(t, bc.all())

	a, err := svc.Book(ctx, Booking{PatientID: repo.addPatient("Asha", nil), DoctorID: doc, Date: day("2025-01-01")})
	require.NoError(t, err)
	assert.Equal(t, 1, a.TokenNumber)
}

func TestService_Book_UnknownDoctor(t *testing.T) {
	svc, repo := newTestService(nil, nil)
	_, err := svc.Book(context.Background(), Booking{PatientID: repo.addPatient("Asha", nil), DoctorID: uuid.New()})
	assert.ErrorIs(t, err, ErrUnknownDoctor)
}

func TestService_Book_MissingIDs(t *testing.T) {
	svc, _ := newTestService(nil, nil)
	_, err := svc.Book(context.Background(), Booking{DoctorID: uuid.New()})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Book(context.Background(), Booking{PatientID: uuid.New()})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_Book_BroadcastsToDoctorAndPatient(t *testing.T) {
	bc := &recordingBroadcaster{}
	svc, repo := newTestService(bc, nil)
	doc := repo.addDoctor("Dr. Rao")
	p := repo.addPatient("Asha", nil)

	a, err := svc.Book(context.Background(), Booking{PatientID: p, DoctorID: doc})
	require.NoError(t, err)

	events := bc.all()
	require.Len(t, events, 2)
	assert.Equal(t, "doctor_"+doc.String(), events[0].topic)
	assert.Equal(t, realtime.EventNewAppointment, events[0].event)
	assert.Equal(t, "user_"+p.String(), events[1].topic)
	assert.Equal(t, realtime.EventAppointmentCreated, events[1].event)
	assert.Equal(t, a.ID, events[1].payload.(*Appointment).ID)
}

func TestService_Book_BroadcastFailureDoesNotFailBooking(t *testing.T) {
	bc := &recordingBroadcaster{err: errors.New("redis down")}
	svc, repo := newTestService(bc, nil)

	a, err := svc.Book(context.Background(), Booking{PatientID: repo.addPatient("Asha", nil), DoctorID: repo.addDoctor("Dr. Rao")})
	require.NoError(t, err)
	assert.Equal(t, 1, a.TokenNumber)
}

func TestService_Book_SendsConfirmationEmail(t *testing.T) {
	sender := &notification.MockEmailSender{}
	n := notification.NewNotifier(sender, nil, zerolog.Nop(), nil)
	svc, repo := newTestService(nil, n)
	email := "asha@example.com"

	_, err := svc.Book(context.Background(), Booking{
		PatientID: repo.addPatient("Asha", &email),
		DoctorID:  repo.addDoctor("Dr. Rao"),
		Date:      day("2025-01-01"),
	})
	require.NoError(t, err)
	n.Wait()

	calls := sender.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, email, calls[0].To)
	assert.Equal(t, "Appointment confirmed: token 1", calls[0].Subject)
	assert.Contains(t, calls[0].Body, "Dr. Rao")
	assert.Contains(t, calls[0].Body, "2025-01-01")
}

func TestService_Book_NoEmailWithoutAddress(t *testing.T) {
	sender := &notification.MockEmailSender{}
	n := notification.NewNotifier(sender, nil, zerolog.Nop(), nil)
	svc, repo := newTestService(nil, n)

	_, err := svc.Book(context.Background(), Booking{PatientID: repo.addPatient("Asha", nil), DoctorID: repo.addDoctor("Dr. Rao")})
	require.NoError(t, err)
	n.Wait()
	assert.Empty(t, sender.Calls())
}

func TestService_Complete_Idempotent(t *testing.T) {
	svc, repo := newTestService(nil, nil)
	ctx := context.Background()
	a, err := svc.Book(ctx, Booking{PatientID: repo.addPatient("Asha", nil), DoctorID: repo.addDoctor("Dr. Rao")})
	require.NoError(t, err)

	first := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	repo.completedAt = func() time.Time { return first }
	done, err := svc.Complete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)

	repo.completedAt = func() time.Time { return first.Add(time.Hour) }
	again, err := svc.Complete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, again.Status)
	require.NotNil(t, again.CompletedAt)
	assert.True(t, again.CompletedAt.Equal(first))
}

func TestService_Complete_NotFound(t *testing.T) {
	svc, _ := newTestService(nil, nil)
	_, err := svc.Complete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_SetCurrentToken_BroadcastsToDoctorRoom(t *testing.T) {
	bc := &recordingBroadcaster{}
	svc, repo := newTestService(bc, nil)
	doc := repo.addDoctor("Dr. Rao")
	token := 3

	q, err := svc.SetCurrentToken(context.Background(), doc, day("2025-01-01"), &token)
	require.NoError(t, err)
	assert.Equal(t, 3, q.CurrentToken)

	events := bc.all()
	require.Len(t, events, 1)
	assert.Equal(t, "doctor_"+doc.String(), events[0].topic)
	assert.Equal(t, realtime.EventTokenUpdated, events[0].event)
	assert.Equal(t, TokenUpdate{DoctorID: doc, CurrentToken: 3, Date: "2025-01-01"}, events[0].payload)
}

func TestService_SetCurrentToken_AdvanceStopsAtLastIssued(t *testing.T) {
	svc, repo := newTestService(nil, nil)
	ctx := context.Background()
	doc := repo.addDoctor("Dr. Rao")
	p := repo.addPatient("Asha", nil)
	date := day("2025-01-01")
	for i := 0; i < 2; i++ {
		_, err := svc.Book(ctx, Booking{PatientID: p, DoctorID: doc, Date: date})
		require.NoError(t, err)
	}

	var q *QueueDay
	var err error
	for i := 0; i < 3; i++ {
		q, err = svc.SetCurrentToken(ctx, doc, date, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, q.CurrentToken)
	assert.Equal(t, 2, q.LastToken)
	assert.Equal(t, 0, q.Waiting)
}

func TestService_SetCurrentToken_UnknownDoctor(t *testing.T) {
	bc := &recordingBroadcaster{}
	svc, _ := newTestService(bc, nil)
	_, err := svc.SetCurrentToken(context.Background(), uuid.New(), time.Time{}, nil)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
	assert.Empty(t, bc.all())
}

func TestService_SetCurrentToken_Negative(t *testing.T) {
	svc, repo := newTestService(nil, nil)
	token := -1
	_, err := svc.SetCurrentToken(context.Background(), repo.addDoctor("Dr. Rao"), time.Time{}, &token)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_Queue_CountsWaiting(t *testing.T) {
	svc, repo := newTestService(nil, nil)
	ctx := context.Background()
	doc := repo.addDoctor("Dr. Rao")
	p := repo.addPatient("Asha", nil)
	date := day("2025-01-01")
	for i := 0; i < 3; i++ {
		_, err := svc.Book(ctx, Booking{PatientID: p, DoctorID: doc, Date: date})
		require.NoError(t, err)
	}
	_, err := svc.SetCurrentToken(ctx, doc, date, nil)
	require.NoError(t, err)

	q, err := svc.Queue(ctx, doc, date)
	require.NoError(t, err)
	assert.Equal(t, QueueDay{DoctorID: doc, Date: "2025-01-01", CurrentToken: 1, LastToken: 3, Waiting: 2}, *q)
}

func TestService_DoctorPatients_TokenOrder(t *testing.T) {
	svc, repo := newTestService(nil, nil)
	ctx := context.Background()
	doc := repo.addDoctor("Dr. Rao")
	date := day("2025-01-01")
	for _, name := range []string{"A", "B", "C"} {
		_, err := svc.Book(ctx, Booking{PatientID: repo.addPatient(name, nil), DoctorID: doc, Date: date})
		require.NoError(t, err)
	}
	_, err := svc.Book(ctx, Booking{PatientID: repo.addPatient("D", nil), DoctorID: doc, Date: day("2025-01-02")})
	require.NoError(t, err)

	items, total, err := svc.DoctorPatients(ctx, doc, date, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	for i, a := range items {
		assert.Equal(t, i+1, a.TokenNumber)
	}
}

func TestService_List_InvalidStatus(t *testing.T) {
	svc, _ := newTestService(nil, nil)
	_, _, err := svc.List(context.Background(), Filter{Status: "cancelled"}, 50, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

// Only the booked doctor's room hears about a booking.
func TestService_Book_HubIsolation(t *testing.T) {
	hub := realtime.NewHub(zerolog.Nop(), nil)
	svc, repo := newTestService(hub, nil)
	doc := repo.addDoctor("Dr. Rao")
	other := repo.addDoctor("Dr. Iyer")
	p := repo.addPatient("Asha", nil)

	mine := realtime.NewClient("mine", 8)
	mine.Topics = []string{"doctor_" + doc.String()}
	theirs := realtime.NewClient("theirs", 8)
	theirs.Topics = []string{"doctor_" + other.String()}
	patient := realtime.NewClient("patient", 8)
	patient.Topics = []string{"user_" + p.String()}
	for _, c := range []*realtime.Client{mine, theirs, patient} {
		hub.Register(c)
	}

	_, err := svc.Book(context.Background(), Booking{PatientID: p, DoctorID: doc})
	require.NoError(t, err)

	require.Len(t, mine.Send, 1)
	var evt realtime.Event
	require.NoError(t, json.Unmarshal(<-mine.Send, &evt))
	assert.Equal(t, realtime.EventNewAppointment, evt.Event)

	require.Len(t, patient.Send, 1)
	require.NoError(t, json.Unmarshal(<-patient.Send, &evt))
	assert.Equal(t, realtime.EventAppointmentCreated, evt.Event)

	assert.Len(t, theirs.Send, 0)
}
