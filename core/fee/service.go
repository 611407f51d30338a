package fee

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ssacademy/backoffice/core"
)

var (
	// errors
	ErrStudentNotFound   = errors.New("student not found")
	ErrNonPositiveAmount = errors.New("payment amount must be greater than 0")
)

type (
	// LedgerTx is a locked view of one student's ledger.
	// Payments recorded through it are only visible once committed.
	LedgerTx interface {
		Ledger() Ledger
		InsertPayment(ctx context.Context, p Payment) (Payment, error)
		Commit() error
		Rollback() error
	}

	Repository interface {
		// BeginLedger locks the student's ledger until the returned LedgerTx is committed or rolled back.
		BeginLedger(ctx context.Context, studentID int) (LedgerTx, error)
		// QueryPayments lists a student's payments in the order they were recorded.
		// That is the order remaining snapshots were taken in, whatever their paid_on.
		QueryPayments(ctx context.Context, studentID int) ([]Payment, error)
	}

	Service interface {
		Record(ctx context.Context, np NewPayment) (Payment, error)
		History(ctx context.Context, studentID int) ([]Payment, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// ExceedsRemainingError is returned when a payment would push the paid fee above the total fee.
type ExceedsRemainingError struct {
	Remaining decimal.Decimal
}

func (e *ExceedsRemainingError) Error() string {
	return fmt.Sprintf("payment cannot exceed remaining fee of %s", e.Remaining.StringFixed(2))
}

// Record appends a payment to the student's ledger.
// The amount must be positive and at most the remaining fee at the time of recording.
func (svc *service) Record(ctx context.Context, np NewPayment) (Payment, error) {
	if !np.PaidAmount.IsPositive() {
		return Payment{}, core.NewValidationError(ErrNonPositiveAmount, core.FieldError{Field: "paid_amount", Error: ErrNonPositiveAmount.Error()})
	}
	paidOn := core.Today()
	if np.PaidOn != "" {
		d, err := core.ParseDate(np.PaidOn)
		if err != nil {
			return Payment{}, core.NewFieldError("paid_on", "date must be in the YYYY-MM-DD format")
		}
		paidOn = d
	}

	tx, err := svc.repo.BeginLedger(ctx, np.StudentID)
	if err != nil {
		return Payment{}, err
	}
	defer func() { _ = tx.Rollback() }()

	ledger := tx.Ledger()
	remaining := ledger.Remaining()
	if np.PaidAmount.GreaterThan(remaining) {
		exceeded := &ExceedsRemainingError{Remaining: remaining}
		return Payment{}, core.NewValidationError(exceeded, core.FieldError{Field: "paid_amount", Error: exceeded.Error()})
	}

	p, err := tx.InsertPayment(ctx, Payment{
		StudentID:       np.StudentID,
		PaidAmount:      np.PaidAmount,
		PaidOn:          paidOn,
		RemainingAmount: remaining.Sub(np.PaidAmount),
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		return Payment{}, errors.Wrap(err, "inserting payment")
	}
	if err = tx.Commit(); err != nil {
		return Payment{}, errors.Wrap(err, "committing payment")
	}
	return p, nil
}

func (svc *service) History(ctx context.Context, studentID int) ([]Payment, error) {
	return svc.repo.QueryPayments(ctx, studentID)
}
