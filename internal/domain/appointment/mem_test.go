package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hospease/hospease/internal/platform/validate"
)

type queueKey struct {
	doctor uuid.UUID
	date   string
}

type memQueue struct {
	current, last int
}

type memPatient struct {
	name  string
	email *string
}

// memRepo is an in-memory Repository. Its tx method serialises whole
// transactions and rolls back on error, mirroring the queue row lock.
type memRepo struct {
	txMu sync.Mutex
	mu   sync.Mutex

	doctors  map[uuid.UUID]uuid.UUID // doctor -> hospital
	names    map[uuid.UUID]string
	patients map[uuid.UUID]memPatient
	queues   map[queueKey]*memQueue
	appts    map[uuid.UUID]*Appointment

	completedAt func() time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{
		doctors:     make(map[uuid.UUID]uuid.UUID),
		names:       make(map[uuid.UUID]string),
		patients:    make(map[uuid.UUID]memPatient),
		queues:      make(map[queueKey]*memQueue),
		appts:       make(map[uuid.UUID]*Appointment),
		completedAt: time.Now,
	}
}

func (m *memRepo) addDoctor(name string) uuid.UUID {
	id := uuid.New()
	m.doctors[id] = uuid.New()
	m.names[id] = name
	return id
}

func (m *memRepo) addPatient(name string, email *string) uuid.UUID {
	id := uuid.New()
	m.patients[id] = memPatient{name: name, email: email}
	return id
}

func (m *memRepo) tx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	queues := make(map[queueKey]memQueue, len(m.queues))
	for k, q := range m.queues {
		queues[k] = *q
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.queues = make(map[queueKey]*memQueue, len(queues))
		for k, q := range queues {
			q := q
			m.queues[k] = &q
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memRepo) NextToken(_ context.Context, doctorID uuid.UUID, date time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.doctors[doctorID]; !ok {
		return 0, ErrUnknownDoctor
	}
	key := queueKey{doctorID, date.Format(validate.DateLayout)}
	q, ok := m.queues[key]
	if !ok {
		q = &memQueue{}
		m.queues[key] = q
	}
	q.last++
	return q.last, nil
}

func (m *memRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patients[a.PatientID]; !ok {
		return ErrUnknownPatient
	}
	if a.HospitalID != uuid.Nil && a.HospitalID != m.doctors[a.DoctorID] {
		return ErrHospitalMismatch
	}
	a.HospitalID = m.doctors[a.DoctorID]
	for _, other := range m.appts {
		if other.DoctorID == a.DoctorID && other.AppointmentDate == a.AppointmentDate && other.TokenNumber == a.TokenNumber {
			panic("duplicate token")
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*Appointment
	for _, a := range m.appts {
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.HospitalID != nil && a.HospitalID != *f.HospitalID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Date != nil && a.AppointmentDate != f.Date.Format(validate.DateLayout) {
			continue
		}
		cp := *a
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].AppointmentDate != all[j].AppointmentDate {
			return all[i].AppointmentDate > all[j].AppointmentDate
		}
		return all[i].TokenNumber < all[j].TokenNumber
	})
	out := []*Appointment{}
	for i := offset; i < len(all) && i < offset+limit; i++ {
		out = append(out, all[i])
	}
	return out, len(all), nil
}

func (m *memRepo) Complete(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	a.Status = StatusCompleted
	if a.CompletedAt == nil {
		at := m.completedAt()
		a.CompletedAt = &at
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) SetCurrentToken(ctx context.Context, doctorID uuid.UUID, date time.Time, token *int) (*QueueDay, error) {
	m.mu.Lock()
	if _, ok := m.doctors[doctorID]; !ok {
		m.mu.Unlock()
		return nil, ErrDoctorNotFound
	}
	key := queueKey{doctorID, date.Format(validate.DateLayout)}
	q, ok := m.queues[key]
	if !ok {
		q = &memQueue{}
		m.queues[key] = q
	} else if token == nil && q.current < q.last {
		q.current++
	}
	if token != nil {
		q.current = *token
	}
	m.mu.Unlock()
	return m.Queue(ctx, doctorID, date)
}

func (m *memRepo) Queue(_ context.Context, doctorID uuid.UUID, date time.Time) (*QueueDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.doctors[doctorID]; !ok {
		return nil, ErrDoctorNotFound
	}
	day := date.Format(validate.DateLayout)
	out := &QueueDay{DoctorID: doctorID, Date: day}
	if q, ok := m.queues[queueKey{doctorID, day}]; ok {
		out.CurrentToken, out.LastToken = q.current, q.last
	}
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.AppointmentDate == day && a.Status == StatusBooked && a.TokenNumber > out.CurrentToken {
			out.Waiting++
		}
	}
	return out, nil
}

func (m *memRepo) Contacts(_ context.Context, id uuid.UUID) (*Contacts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	p := m.patients[a.PatientID]
	return &Contacts{PatientName: p.name, PatientEmail: p.email, DoctorName: m.names[a.DoctorID]}, nil
}
