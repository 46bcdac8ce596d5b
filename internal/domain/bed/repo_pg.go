package bed

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

const bedCols = `id, hospital_id, department_id, ward, bed_number, status, patient_id, assigned_at, created_at, updated_at`

func scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	err := row.Scan(&b.ID, &b.HospitalID, &b.DepartmentID, &b.Ward, &b.BedNumber, &b.Status,
		&b.PatientID, &b.AssignedAt, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsNotFound(err):
		return ErrNotFound
	case db.IsForeignKeyViolation(err):
		return ErrInvalidReference
	case db.IsUniqueViolation(err):
		return ErrDuplicate
	default:
		return err
	}
}

func (r *repoPG) Create(ctx context.Context, b *Bed) error {
	b.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO beds (id, hospital_id, department_id, ward, bed_number, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		b.ID, b.HospitalID, b.DepartmentID, b.Ward, b.BedNumber, b.Status,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	return translate(err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bed, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx, `SELECT `+bedCols+` FROM beds WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return b, nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Bed, int, error) {
	var filter db.Filter
	if f.HospitalID != nil {
		filter.Eq("hospital_id", *f.HospitalID)
	}
	if f.DepartmentID != nil {
		filter.Eq("department_id", *f.DepartmentID)
	}
	if f.Ward != "" {
		filter.Eq("ward", f.Ward)
	}
	if f.Status != "" {
		filter.Eq("status", f.Status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM beds`+filter.Where(), filter.Args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, args := filter.Page(limit, offset)
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+bedCols+` FROM beds`+filter.Where()+
		` ORDER BY hospital_id, ward, bed_number`+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []*Bed{}
	for rows.Next() {
		b, err := scanBed(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, rows.Err()
}

// explain reports why a conditional update on bed id matched no rows:
// ErrNotFound when the bed is gone, otherwise reason(current status).
func (r *repoPG) explain(ctx context.Context, id uuid.UUID, reason func(status string) error) error {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return reason(b.Status)
}

func occupied(string) error { return ErrBedOccupied }

func notOccupied(string) error { return ErrBedNotOccupied }

func notAvailable(status string) error {
	if status == StatusOccupied {
		return ErrBedOccupied
	}
	return ErrBedUnavailable
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM beds WHERE id = $1 AND status <> 'occupied'`, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return r.explain(ctx, id, occupied)
	}
	return nil
}

func (r *repoPG) Assign(ctx context.Context, id, patientID uuid.UUID) (*Bed, error) {
	return r.transition(ctx, id, notAvailable, `
		UPDATE beds
		SET status = 'occupied', patient_id = $2, assigned_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'available'
		RETURNING `+bedCols, id, patientID)
}

func (r *repoPG) Release(ctx context.Context, id uuid.UUID) (*Bed, error) {
	return r.transition(ctx, id, notOccupied, `
		UPDATE beds
		SET status = 'available', patient_id = NULL, assigned_at = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'occupied'
		RETURNING `+bedCols, id)
}

func (r *repoPG) SetStatus(ctx context.Context, id uuid.UUID, status string) (*Bed, error) {
	return r.transition(ctx, id, occupied, `
		UPDATE beds SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status <> 'occupied'
		RETURNING `+bedCols, id, status)
}

func (r *repoPG) transition(ctx context.Context, id uuid.UUID, reason func(string) error, sql string, args ...interface{}) (*Bed, error) {
	b, err := scanBed(r.conn(ctx).QueryRow(ctx, sql, args...))
	if db.IsNotFound(err) {
		return nil, r.explain(ctx, id, reason)
	}
	if err != nil {
		return nil, translate(err)
	}
	return b, nil
}
