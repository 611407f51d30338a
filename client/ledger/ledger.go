// Package ledger is the fee ledger view of one student: summary, payment guards and refetching.
package ledger

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/atomic"

	"github.com/ssacademy/backoffice/client"
	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/fee"
	"github.com/ssacademy/backoffice/core/student"
)

var (
	// errors
	ErrNotNumeric  = errors.New("please enter a valid amount")
	ErrNotPositive = errors.New("amount must be greater than 0")
	ErrNegativeFee = errors.New("total fee cannot be negative")
	ErrNoStudent   = errors.New("no student is open")
)

// Summary is what the ledger view shows above the history.
type Summary struct {
	PaidTotal decimal.Decimal
	Remaining decimal.Decimal
}

// Summarize recomputes the totals from the history. It has no side effects.
func Summarize(st student.Student, history []fee.Payment) Summary {
	amounts := make([]decimal.Decimal, 0, len(history))
	for _, p := range history {
		amounts = append(amounts, p.PaidAmount)
	}
	paid := core.SumAmounts(amounts...)
	return Summary{PaidTotal: paid, Remaining: st.TotalFee.Sub(paid)}
}

func parse(field, input string) (decimal.Decimal, error) {
	amount, err := core.ParseAmount(input)
	if err != nil {
		return decimal.Zero, core.NewValidationError(ErrNotNumeric, core.FieldError{Field: field, Error: ErrNotNumeric.Error()})
	}
	return amount, nil
}

// CheckPayment guards a payment against the remaining fee the server reported for st.
// An amount equal to the remaining fee is accepted.
func CheckPayment(input string, st student.Student) (decimal.Decimal, error) {
	amount, err := parse("paid_amount", input)
	if err != nil {
		return amount, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, core.NewValidationError(ErrNotPositive, core.FieldError{Field: "paid_amount", Error: ErrNotPositive.Error()})
	}
	if amount.GreaterThan(st.RemainingFee) {
		msg := fmt.Sprintf("payment cannot exceed remaining fee of %s", st.RemainingFee.StringFixed(2))
		return decimal.Zero, core.NewFieldError("paid_amount", msg)
	}
	return amount, nil
}

// CheckTotalFee guards a fee edit: a number, zero or more.
func CheckTotalFee(input string) (decimal.Decimal, error) {
	amount, err := parse("total_fee", input)
	if err != nil {
		return amount, err
	}
	if amount.IsNegative() {
		return decimal.Zero, core.NewValidationError(ErrNegativeFee, core.FieldError{Field: "total_fee", Error: ErrNegativeFee.Error()})
	}
	return amount, nil
}

// Remote is the part of the API the ledger view uses.
type Remote interface {
	Students(ctx context.Context) ([]student.Student, error)
	FeeHistory(ctx context.Context, studentID int) ([]fee.Payment, error)
	AddPayment(ctx context.Context, studentID int, amount decimal.Decimal, paidOn string) error
	UpdateFee(ctx context.Context, studentID int, totalFee decimal.Decimal) error
}

// View is the ledger of the open student. After any mutation it refetches instead of patching locally.
type View struct {
	remote   Remote
	inFlight *atomic.Bool

	student student.Student
	history []fee.Payment
	summary Summary
}

func NewView(remote Remote) *View {
	return &View{remote: remote, inFlight: atomic.NewBool(false)}
}

// Open shows st's ledger. st must come from the latest student list.
func (v *View) Open(ctx context.Context, st student.Student) error {
	history, err := v.remote.FeeHistory(ctx, st.ID)
	if err != nil {
		return err
	}
	v.student = st
	v.setHistory(history)
	return nil
}

func (v *View) setHistory(history []fee.Payment) {
	v.history = history
	v.summary = Summarize(v.student, history)
}

func (v *View) Student() student.Student { return v.student }
func (v *View) History() []fee.Payment   { return v.history }
func (v *View) Summary() Summary         { return v.summary }

// RecordPayment guards, sends, then refetches both the student list and the history.
// The fresh student list is returned for its owner to replace wholesale.
func (v *View) RecordPayment(ctx context.Context, input, paidOn string) ([]student.Student, error) {
	if v.student.ID == 0 {
		return nil, ErrNoStudent
	}
	amount, err := CheckPayment(input, v.student)
	if err != nil {
		return nil, err
	}
	if !v.inFlight.CompareAndSwap(false, true) {
		return nil, client.ErrInFlight
	}
	defer v.inFlight.Store(false)

	if err = v.remote.AddPayment(ctx, v.student.ID, amount, core.CleanString(paidOn)); err != nil {
		return nil, err
	}
	return v.refetch(ctx)
}

// EditFee overwrites the total fee. Earlier remaining snapshots in the history stay as recorded.
func (v *View) EditFee(ctx context.Context, input string) ([]student.Student, error) {
	if v.student.ID == 0 {
		return nil, ErrNoStudent
	}
	total, err := CheckTotalFee(input)
	if err != nil {
		return nil, err
	}
	if !v.inFlight.CompareAndSwap(false, true) {
		return nil, client.ErrInFlight
	}
	defer v.inFlight.Store(false)

	if err = v.remote.UpdateFee(ctx, v.student.ID, total); err != nil {
		return nil, err
	}
	return v.refetch(ctx)
}

func (v *View) refetch(ctx context.Context) ([]student.Student, error) {
	students, err := v.remote.Students(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range students {
		if st.ID == v.student.ID {
			v.student = st
			break
		}
	}
	history, err := v.remote.FeeHistory(ctx, v.student.ID)
	if err != nil {
		return students, err
	}
	v.setHistory(history)
	return students, nil
}
