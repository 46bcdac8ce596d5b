package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospease/hospease/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const apptCols = `id, patient_id, doctor_id, hospital_id, token_number, to_char(appointment_date, 'YYYY-MM-DD'),
	preferred_time, reason, status, created_at, completed_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.HospitalID, &a.TokenNumber, &a.AppointmentDate,
		&a.PreferredTime, &a.Reason, &a.Status, &a.CreatedAt, &a.CompletedAt)
	return &a, err
}

// NextToken takes the row lock on (doctor, date) until the enclosing
// transaction ends, so concurrent bookings for the same queue are serialised.
func (r *repoPG) NextToken(ctx context.Context, doctorID uuid.UUID, date time.Time) (int, error) {
	var token int
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO queue_days (doctor_id, queue_date, last_token, current_token)
		VALUES ($1, $2, 1, 0)
		ON CONFLICT (doctor_id, queue_date)
		DO UPDATE SET last_token = queue_days.last_token + 1, updated_at = NOW()
		RETURNING last_token`,
		doctorID, date,
	).Scan(&token)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return 0, ErrUnknownDoctor
		}
		return 0, err
	}
	return token, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	var hospitalID *uuid.UUID
	if a.HospitalID != uuid.Nil {
		hospitalID = &a.HospitalID
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, hospital_id, token_number,
			appointment_date, preferred_time, reason, status)
		SELECT $1::uuid, $2::uuid, d.id, d.hospital_id, $5::int, $6::date, $7::varchar, $8::text, $9::varchar
		FROM doctors d
		WHERE d.id = $3 AND ($4::uuid IS NULL OR d.hospital_id = $4::uuid)
		RETURNING hospital_id, created_at`,
		a.ID, a.PatientID, a.DoctorID, hospitalID, a.TokenNumber,
		a.AppointmentDate, a.PreferredTime, a.Reason, a.Status,
	).Scan(&a.HospitalID, &a.CreatedAt)
	if err != nil {
		// NextToken already proved the doctor exists, so no row means the
		// requested hospital is not the doctor's.
		if db.IsNotFound(err) {
			return ErrHospitalMismatch
		}
		if db.IsForeignKeyViolation(err) {
			return referenceError(err)
		}
		return err
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	var filter db.Filter
	if f.DoctorID != nil {
		filter.Eq("doctor_id", *f.DoctorID)
	}
	if f.PatientID != nil {
		filter.Eq("patient_id", *f.PatientID)
	}
	if f.HospitalID != nil {
		filter.Eq("hospital_id", *f.HospitalID)
	}
	if f.Status != "" {
		filter.Eq("status", f.Status)
	}
	if f.Date != nil {
		filter.Eq("appointment_date", *f.Date)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments`+filter.Where(), filter.Args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, args := filter.Page(limit, offset)
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+apptCols+` FROM appointments`+filter.Where()+
		` ORDER BY appointment_date DESC, doctor_id, token_number`+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []*Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments
		SET status = 'completed', completed_at = COALESCE(completed_at, NOW())
		WHERE id = $1
		RETURNING `+apptCols, id))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// SetCurrentToken upserts the queue row. Advancing never moves the cursor
// past the last issued token.
func (r *repoPG) SetCurrentToken(ctx context.Context, doctorID uuid.UUID, date time.Time, token *int) (*QueueDay, error) {
	var err error
	if token != nil {
		_, err = r.conn(ctx).Exec(ctx, `
			INSERT INTO queue_days (doctor_id, queue_date, last_token, current_token)
			VALUES ($1, $2, 0, $3)
			ON CONFLICT (doctor_id, queue_date)
			DO UPDATE SET current_token = EXCLUDED.current_token, updated_at = NOW()`,
			doctorID, date, *token)
	} else {
		_, err = r.conn(ctx).Exec(ctx, `
			INSERT INTO queue_days (doctor_id, queue_date, last_token, current_token)
			VALUES ($1, $2, 0, 0)
			ON CONFLICT (doctor_id, queue_date)
			DO UPDATE SET current_token = GREATEST(queue_days.current_token,
				LEAST(queue_days.current_token + 1, queue_days.last_token)), updated_at = NOW()`,
			doctorID, date)
	}
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return r.Queue(ctx, doctorID, date)
}

func (r *repoPG) Queue(ctx context.Context, doctorID uuid.UUID, date time.Time) (*QueueDay, error) {
	q := QueueDay{DoctorID: doctorID}
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT to_char($2::date, 'YYYY-MM-DD'),
			COALESCE(q.current_token, 0),
			COALESCE(q.last_token, 0),
			(SELECT COUNT(*) FROM appointments a
				WHERE a.doctor_id = d.id AND a.appointment_date = $2::date
				AND a.status = 'booked' AND a.token_number > COALESCE(q.current_token, 0))
		FROM doctors d
		LEFT JOIN queue_days q ON q.doctor_id = d.id AND q.queue_date = $2::date
		WHERE d.id = $1`,
		doctorID, date,
	).Scan(&q.Date, &q.CurrentToken, &q.LastToken, &q.Waiting)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *repoPG) Contacts(ctx context.Context, id uuid.UUID) (*Contacts, error) {
	var c Contacts
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT p.name, p.email, d.name
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		JOIN doctors d ON d.id = a.doctor_id
		WHERE a.id = $1`, id,
	).Scan(&c.PatientName, &c.PatientEmail, &c.DoctorName)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
