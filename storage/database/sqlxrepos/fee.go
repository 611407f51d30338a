package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/fee"
)

type paymentRow struct {
	ID              int             `db:"id"`
	StudentID       int             `db:"student_id"`
	PaidAmount      decimal.Decimal `db:"paid_amount"`
	PaidOn          core.Date       `db:"paid_on"`
	RemainingAmount decimal.Decimal `db:"remaining_amount"`
	CreatedAt       time.Time       `db:"created_at"`
}

func (r paymentRow) payment() fee.Payment {
	return fee.Payment{
		ID:              r.ID,
		StudentID:       r.StudentID,
		PaidAmount:      r.PaidAmount,
		PaidOn:          r.PaidOn,
		RemainingAmount: r.RemainingAmount,
		CreatedAt:       r.CreatedAt,
	}
}

type feeRepository struct {
	db *sqlx.DB
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *sqlx.DB) *feeRepository {
	return &feeRepository{db: db}
}

// BeginLedger opens a transaction holding a row lock on the student until commit or rollback.
func (repo feeRepository) BeginLedger(ctx context.Context, studentID int) (fee.LedgerTx, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning ledger transaction")
	}

	ledger := fee.Ledger{StudentID: studentID}
	err = tx.QueryRowxContext(ctx, "SELECT total_fee FROM student WHERE id = $1 FOR UPDATE", studentID).Scan(&ledger.TotalFee)
	if err != nil {
		_ = tx.Rollback()
		if err == sql.ErrNoRows {
			return nil, fee.ErrStudentNotFound
		}
		return nil, errors.Wrap(err, "locking student ledger")
	}
	err = tx.GetContext(ctx, &ledger.PaidFee,
		"SELECT COALESCE(SUM(paid_amount), 0) FROM fee_payment WHERE student_id = $1", studentID)
	if err != nil {
		_ = tx.Rollback()
		return nil, errors.Wrap(err, "summing payments")
	}
	return &ledgerTx{tx: tx, ledger: ledger}, nil
}

func (repo feeRepository) QueryPayments(ctx context.Context, studentID int) ([]fee.Payment, error) {
	var rows []paymentRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT id, student_id, paid_amount, paid_on, remaining_amount, created_at
		FROM fee_payment WHERE student_id = $1 ORDER BY id`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	payments := make([]fee.Payment, 0, len(rows))
	for _, r := range rows {
		payments = append(payments, r.payment())
	}
	return payments, nil
}

type ledgerTx struct {
	tx     *sqlx.Tx
	ledger fee.Ledger
}

func (lt *ledgerTx) Ledger() fee.Ledger { return lt.ledger }

func (lt *ledgerTx) InsertPayment(ctx context.Context, p fee.Payment) (fee.Payment, error) {
	err := lt.tx.QueryRowxContext(ctx, `INSERT INTO fee_payment (student_id, paid_amount, paid_on, remaining_amount, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		p.StudentID, p.PaidAmount, p.PaidOn, p.RemainingAmount, p.CreatedAt.UTC()).Scan(&p.ID)
	if err != nil {
		return fee.Payment{}, errors.Wrap(err, "inserting payment")
	}
	return p, nil
}

func (lt *ledgerTx) Commit() error { return lt.tx.Commit() }

// Rollback is a no-op after Commit.
func (lt *ledgerTx) Rollback() error {
	if err := lt.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return err
	}
	return nil
}
