package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/student"
)

type studentRow struct {
	ID          int             `db:"id"`
	Name        string          `db:"name"`
	ClassStd    null.String     `db:"class_std"`
	RollNo      null.String     `db:"roll_no"`
	ParentPhone null.String     `db:"parent_phone"`
	Address     null.String     `db:"address"`
	TotalFee    decimal.Decimal `db:"total_fee"`
	PaidFee     decimal.Decimal `db:"paid_fee"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func toStudentRow(st student.Student) studentRow {
	return studentRow{
		ID:          st.ID,
		Name:        st.Name,
		ClassStd:    null.NewString(st.ClassStd, st.ClassStd != ""),
		RollNo:      null.NewString(st.RollNo, st.RollNo != ""),
		ParentPhone: null.NewString(st.ParentPhone, st.ParentPhone != ""),
		Address:     null.NewString(st.Address, st.Address != ""),
		TotalFee:    st.TotalFee,
		PaidFee:     st.PaidFee,
		CreatedAt:   st.CreatedAt.UTC(),
		UpdatedAt:   st.UpdatedAt.UTC(),
	}
}

func (r studentRow) student() student.Student {
	st := student.Student{
		ID:          r.ID,
		Name:        r.Name,
		ClassStd:    r.ClassStd.String,
		RollNo:      r.RollNo.String,
		ParentPhone: r.ParentPhone.String,
		Address:     r.Address.String,
		TotalFee:    r.TotalFee,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	st.Settle(r.PaidFee)
	return st
}

// paid_fee is derived from the payment ledger.
const studentSelect = `SELECT s.id, s.name, s.class_std, s.roll_no, s.parent_phone, s.address, s.total_fee,
		COALESCE((SELECT SUM(p.paid_amount) FROM fee_payment p WHERE p.student_id = s.id), 0) AS paid_fee,
		s.created_at, s.updated_at
	FROM student s`

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	row := toStudentRow(st)
	q := `INSERT INTO student (name, class_std, roll_no, parent_phone, address, total_fee, created_at, updated_at)
		VALUES (:name, :class_std, :roll_no, :parent_phone, :address, :total_fee, :created_at, :updated_at)
		RETURNING id`
	stmt, err := repo.db.PrepareNamedContext(ctx, q)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "preparing student insert")
	}
	defer func() { _ = stmt.Close() }()
	if err = stmt.GetContext(ctx, &row.ID, row); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return row.student(), nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, ordering []core.DBOrdering) ([]student.Student, error) {
	q := studentSelect
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, "s."+ord.String())
		}
		q += " ORDER BY " + strings.Join(orderList, ", ")
	}

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.student())
	}
	return students, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id int) (student.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, studentSelect+" WHERE s.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "finding student")
	}
	return row.student(), nil
}

func (repo studentRepository) UpdateTotalFee(ctx context.Context, st student.Student) (student.Student, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE student SET total_fee = $1, updated_at = $2 WHERE id = $3", st.TotalFee, st.UpdatedAt.UTC(), st.ID)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating total fee")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return repo.GetStudent(ctx, st.ID)
}
