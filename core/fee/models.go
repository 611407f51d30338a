package fee

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ssacademy/backoffice/core"
)

// Payment is one entry of a student's fee ledger.
// RemainingAmount is the balance right after this payment; it is never recomputed afterwards.
type Payment struct {
	ID              int             `json:"id"`
	StudentID       int             `json:"student_id"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	PaidOn          core.Date       `json:"paid_on"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	CreatedAt       time.Time       `json:"-"`
}

// Ledger holds the fee totals of a student at a point in time.
type Ledger struct {
	StudentID int
	TotalFee  decimal.Decimal
	PaidFee   decimal.Decimal
}

func (l Ledger) Remaining() decimal.Decimal {
	return l.TotalFee.Sub(l.PaidFee)
}

// NewPayment contains information needed to record a payment.
type NewPayment struct {
	StudentID  int             `json:"student_id" validate:"required,gt=0"`
	PaidAmount decimal.Decimal `json:"paid_amount" validate:"posmoney"`
	PaidOn     string          `json:"paid_on" validate:"omitempty,isodate"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.PaidOn = core.CleanString(np.PaidOn)
	return validate.Struct(np)
}
