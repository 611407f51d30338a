package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/ssacademy/backoffice/core/batch"
)

// postgres error codes
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

type batchRow struct {
	ID        int       `db:"id"`
	Name      string    `db:"batch_name"`
	CreatedAt time.Time `db:"created_at"`
}

func (r batchRow) batch() batch.Batch {
	return batch.Batch{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt}
}

type batchRepository struct {
	db *sqlx.DB
}

var _ batch.Repository = (*batchRepository)(nil) // interface compliance check

func NewBatchRepository(db *sqlx.DB) *batchRepository {
	return &batchRepository{db: db}
}

func (repo batchRepository) NameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM batch WHERE lower(batch_name) = lower($1))", name)
	if err != nil {
		return false, errors.Wrap(err, "checking batch name")
	}
	return exists, nil
}

func (repo batchRepository) CreateBatch(ctx context.Context, b batch.Batch) (batch.Batch, error) {
	err := repo.db.QueryRowxContext(ctx,
		"INSERT INTO batch (batch_name, created_at) VALUES ($1, $2) RETURNING id", b.Name, b.CreatedAt.UTC()).Scan(&b.ID)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return batch.Batch{}, batch.ErrNameExists
		}
		return batch.Batch{}, errors.Wrap(err, "inserting batch")
	}
	return b, nil
}

func (repo batchRepository) QueryBatches(ctx context.Context) ([]batch.Batch, error) {
	var rows []batchRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT id, batch_name, created_at FROM batch ORDER BY batch_name, id"); err != nil {
		return nil, errors.Wrap(err, "querying batches")
	}
	batches := make([]batch.Batch, 0, len(rows))
	for _, r := range rows {
		batches = append(batches, r.batch())
	}
	return batches, nil
}

func (repo batchRepository) GetBatch(ctx context.Context, id int) (batch.Batch, error) {
	var row batchRow
	if err := repo.db.GetContext(ctx, &row, "SELECT id, batch_name, created_at FROM batch WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return batch.Batch{}, batch.ErrNotFound
		}
		return batch.Batch{}, errors.Wrap(err, "finding batch")
	}
	return row.batch(), nil
}

// DeleteBatch relies on ON DELETE CASCADE for memberships and attendance.
func (repo batchRepository) DeleteBatch(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM batch WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting batch")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return batch.ErrNotFound
	}
	return nil
}

func (repo batchRepository) QueryMembers(ctx context.Context, batchID int) ([]batch.Member, error) {
	members := make([]batch.Member, 0)
	err := repo.db.SelectContext(ctx, &members, `SELECT s.id, s.name FROM batch_student bs
		JOIN student s ON s.id = bs.student_id
		WHERE bs.batch_id = $1 ORDER BY s.name, s.id`, batchID)
	if err != nil {
		return nil, errors.Wrap(err, "querying batch members")
	}
	return members, nil
}

func (repo batchRepository) AddMember(ctx context.Context, batchID, studentID int) error {
	_, err := repo.db.ExecContext(ctx, "INSERT INTO batch_student (batch_id, student_id) VALUES ($1, $2)", batchID, studentID)
	switch pqCode(err) {
	case "":
		if err != nil {
			return errors.Wrap(err, "adding batch member")
		}
		return nil
	case pqUniqueViolation:
		return batch.ErrAlreadyMember
	case pqForeignKeyViolation:
		return batch.ErrStudentNotFound
	default:
		return errors.Wrap(err, "adding batch member")
	}
}

func (repo batchRepository) RemoveMember(ctx context.Context, batchID, studentID int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM batch_student WHERE batch_id = $1 AND student_id = $2", batchID, studentID)
	if err != nil {
		return errors.Wrap(err, "removing batch member")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return batch.ErrNotMember
	}
	return nil
}
