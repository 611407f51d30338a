package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/attendance"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

// SaveRecords writes all records in one transaction.
func (repo attendanceRepository) SaveRecords(ctx context.Context, records []attendance.Record) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning attendance transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO attendance (batch_id, student_id, date, status, marked_by, marked_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (batch_id, student_id, date)
		DO UPDATE SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, marked_at = EXCLUDED.marked_at`)
	if err != nil {
		return errors.Wrap(err, "preparing attendance upsert")
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		if _, err = stmt.ExecContext(ctx, r.BatchID, r.StudentID, r.Date, string(r.Status), r.MarkedBy, r.MarkedAt.UTC()); err != nil {
			return errors.Wrap(err, "upserting attendance")
		}
	}
	return tx.Commit()
}

type historyRow struct {
	StudentID   int               `db:"student_id"`
	StudentName string            `db:"student_name"`
	Date        core.Date         `db:"date"`
	BatchName   string            `db:"batch_name"`
	Status      attendance.Status `db:"status"`
	MarkedBy    string            `db:"marked_by"`
}

func (repo attendanceRepository) QueryHistory(ctx context.Context) ([]attendance.HistoryRow, error) {
	var rows []historyRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT a.student_id, s.name AS student_name, a.date, b.batch_name, a.status, a.marked_by
		FROM attendance a
		JOIN student s ON s.id = a.student_id
		JOIN batch b ON b.id = a.batch_id
		ORDER BY a.date, b.batch_name, a.student_id`)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance history")
	}
	history := make([]attendance.HistoryRow, 0, len(rows))
	for _, r := range rows {
		history = append(history, attendance.HistoryRow{
			StudentID:   r.StudentID,
			StudentName: r.StudentName,
			HistoryEntry: attendance.HistoryEntry{
				Date:      r.Date,
				BatchName: r.BatchName,
				Status:    r.Status,
				MarkedBy:  r.MarkedBy,
			},
		})
	}
	return history, nil
}
