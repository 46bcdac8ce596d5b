package prescription

import (
	"context"

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

const rxCols = `id, appointment_id, patient_id, doctor_id, diagnosis, medications, notes, created_at, updated_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.AppointmentID, &p.PatientID, &p.DoctorID, &p.Diagnosis, &p.Medications,
		&p.Notes, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsNotFound(err):
		return ErrNotFound
	case db.IsForeignKeyViolation(err):
		return ErrInvalidReference
	default:
		return err
	}
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescriptions (id, appointment_id, patient_id, doctor_id, diagnosis, medications, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		p.ID, p.AppointmentID, p.PatientID, p.DoctorID, p.Diagnosis, p.Medications, p.Notes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return translate(err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx, `SELECT `+rxCols+` FROM prescriptions WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Prescription) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE prescriptions
		SET appointment_id = $2, patient_id = $3, doctor_id = $4, diagnosis = $5, medications = $6,
			notes = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		p.ID, p.AppointmentID, p.PatientID, p.DoctorID, p.Diagnosis, p.Medications, p.Notes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return translate(err)
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Prescription, int, error) {
	var filter db.Filter
	if f.PatientID != nil {
		filter.Eq("patient_id", *f.PatientID)
	}
	if f.DoctorID != nil {
		filter.Eq("doctor_id", *f.DoctorID)
	}
	if f.AppointmentID != nil {
		filter.Eq("appointment_id", *f.AppointmentID)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM prescriptions`+filter.Where(), filter.Args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, args := filter.Page(limit, offset)
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+rxCols+` FROM prescriptions`+filter.Where()+
		` ORDER BY created_at DESC, id`+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []*Prescription{}
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Document(ctx context.Context, id uuid.UUID) (*Document, error) {
	var d Document
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT rx.id, rx.appointment_id, rx.patient_id, rx.doctor_id, rx.diagnosis, rx.medications, rx.notes,
			rx.created_at, rx.updated_at, p.name, p.email, d.name, d.specialty, h.name
		FROM prescriptions rx
		JOIN patients p ON p.id = rx.patient_id
		JOIN doctors d ON d.id = rx.doctor_id
		JOIN hospitals h ON h.id = d.hospital_id
		WHERE rx.id = $1`, id,
	).Scan(&d.ID, &d.AppointmentID, &d.PatientID, &d.DoctorID, &d.Diagnosis, &d.Medications, &d.Notes,
		&d.CreatedAt, &d.UpdatedAt, &d.PatientName, &d.PatientEmail, &d.DoctorName, &d.Specialty, &d.HospitalName)
	if err != nil {
		return nil, translate(err)
	}
	return &d, nil
}
