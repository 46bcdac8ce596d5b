package directory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospease/hospease/internal/platform/db"
)

// =========== Hospital Repository ===========

type hospitalRepoPG struct{ pool *pgxpool.Pool }

func NewHospitalRepoPG(pool *pgxpool.Pool) HospitalRepository { return &hospitalRepoPG{pool: pool} }

func (r *hospitalRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const hospitalCols = `id, name, address, city, phone, created_at, updated_at`

func scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.Name, &h.Address, &h.City, &h.Phone, &h.CreatedAt, &h.UpdatedAt)
	return &h, err
}

func (r *hospitalRepoPG) Create(ctx context.Context, h *Hospital) error {
	h.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO hospitals (id, name, address, city, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		h.ID, h.Name, h.Address, h.City, h.Phone,
	).Scan(&h.CreatedAt, &h.UpdatedAt)
	return translateWrite(err, ErrHospitalNotFound)
}

func (r *hospitalRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	h, err := scanHospital(r.conn(ctx).QueryRow(ctx, `SELECT `+hospitalCols+` FROM hospitals WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, ErrHospitalNotFound)
	}
	return h, nil
}

func (r *hospitalRepoPG) Update(ctx context.Context, h *Hospital) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE hospitals SET name = $2, address = $3, city = $4, phone = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		h.ID, h.Name, h.Address, h.City, h.Phone,
	).Scan(&h.CreatedAt, &h.UpdatedAt)
	return translateWrite(err, ErrHospitalNotFound)
}

func (r *hospitalRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM hospitals WHERE id = $1`, id)
	if err != nil {
		return translateDelete(err, ErrHospitalNotFound)
	}
	if tag.RowsAffected() == 0 {
		return ErrHospitalNotFound
	}
	return nil
}

func (r *hospitalRepoPG) List(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM hospitals`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+hospitalCols+` FROM hospitals ORDER BY name, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []*Hospital{}
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, h)
	}
	return items, total, rows.Err()
}

// =========== Department Repository ===========

type departmentRepoPG struct{ pool *pgxpool.Pool }

func NewDepartmentRepoPG(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepoPG{pool: pool}
}

func (r *departmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const departmentCols = `id, hospital_id, name, description, created_at, updated_at`

func scanDepartment(row pgx.Row) (*Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.HospitalID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *departmentRepoPG) Create(ctx context.Context, d *Department) error {
	d.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO departments (id, hospital_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		d.ID, d.HospitalID, d.Name, d.Description,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	return translateWrite(err, ErrDepartmentNotFound)
}

func (r *departmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	d, err := scanDepartment(r.conn(ctx).QueryRow(ctx, `SELECT `+departmentCols+` FROM departments WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err, ErrDepartmentNotFound)
	}
	return d, nil
}

func (r *departmentRepoPG) Update(ctx context.Context, d *Department) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE departments SET hospital_id = $2, name = $3, description = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		d.ID, d.HospitalID, d.Name, d.Description,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	return translateWrite(err, ErrDepartmentNotFound)
}

func (r *departmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return translateDelete(err, ErrDepartmentNotFound)
	}
	if tag.RowsAffected() == 0 {
		return ErrDepartmentNotFound
	}
	return nil
}

func (r *departmentRepoPG) List(ctx context.Context, f DepartmentFilter, limit, offset int) ([]*Department, int, error) {
	var filter db.Filter
	if f.HospitalID != nil {
		filter.Eq("hospital_id", *f.HospitalID)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM departments`+filter.Where(), filter.Args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, args := filter.Page(limit, offset)
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+departmentCols+` FROM departments`+filter.Where()+` ORDER BY name, id`+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []*Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

func (r *doctorRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

// doctorSelect joins today's queue row (UTC) to expose current_token.
const doctorSelect = `SELECT d.id, d.name, d.email, d.phone, d.hospital_id, d.department_id, d.specialty,
	COALESCE(q.current_token, 0), d.created_at, d.updated_at
	FROM doctors d
	LEFT JOIN queue_days q ON q.doctor_id = d.id AND q.queue_date = (NOW() AT TIME ZONE 'UTC')::date`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.HospitalID, &d.DepartmentID, &d.Specialty,
		&d.CurrentToken, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	d.CurrentToken = 0
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctors (id, name, email, phone, hospital_id, department_id, specialty)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		d.ID, d.Name, d.Email, d.Phone, d.HospitalID, d.DepartmentID, d.Specialty,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	return translateWrite(err, ErrDoctorNotFound)
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx, doctorSelect+` WHERE d.id = $1`, id))
	if err != nil {
		return nil, translate(err, ErrDoctorNotFound)
	}
	return d, nil
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctors SET name = $2, email = $3, phone = $4, hospital_id = $5, department_id = $6,
			specialty = $7, updated_at = NOW()
		WHERE id = $1`,
		d.ID, d.Name, d.Email, d.Phone, d.HospitalID, d.DepartmentID, d.Specialty)
	if err != nil {
		return translateWrite(err, ErrDoctorNotFound)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	updated, err := r.GetByID(ctx, d.ID)
	if err != nil {
		return err
	}
	*d = *updated
	return nil
}

func (r *doctorRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return translateDelete(err, ErrDoctorNotFound)
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *doctorRepoPG) List(ctx context.Context, f DoctorFilter, limit, offset int) ([]*Doctor, int, error) {
	var filter db.Filter
	if f.HospitalID != nil {
		filter.Eq("d.hospital_id", *f.HospitalID)
	}
	if f.DepartmentID != nil {
		filter.Eq("d.department_id", *f.DepartmentID)
	}
	if f.Specialty != "" {
		filter.Eq("d.specialty", f.Specialty)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctors d`+filter.Where(), filter.Args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, args := filter.Page(limit, offset)
	rows, err := r.conn(ctx).Query(ctx, doctorSelect+filter.Where()+` ORDER BY d.name, d.id`+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []*Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}
