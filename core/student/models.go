package student

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ssacademy/backoffice/core"
)

// Student is a roster entry with its fee totals.
// PaidFee and RemainingFee are derived from the payment ledger; PaidFee + RemainingFee == TotalFee.
type Student struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	ClassStd     string          `json:"class_std"`
	RollNo       string          `json:"roll_no"`
	ParentPhone  string          `json:"parent_phone"`
	Address      string          `json:"address"`
	TotalFee     decimal.Decimal `json:"total_fee"`
	PaidFee      decimal.Decimal `json:"paid_fee"`
	RemainingFee decimal.Decimal `json:"remaining_fee"`
	CreatedAt    time.Time       `json:"-"`
	UpdatedAt    time.Time       `json:"-"`
}

// Settle fills in the derived fee fields from the sum of payments.
func (s *Student) Settle(paid decimal.Decimal) {
	s.PaidFee = paid
	s.RemainingFee = s.TotalFee.Sub(paid)
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	Name        string          `json:"name" validate:"notblank,max=120"`
	ClassStd    string          `json:"class_std" validate:"max=40"`
	RollNo      string          `json:"roll_no" validate:"max=40"`
	ParentPhone string          `json:"parent_phone" validate:"max=40"`
	Address     string          `json:"address" validate:"max=255"`
	TotalFee    decimal.Decimal `json:"total_fee" validate:"money"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.ClassStd = core.CleanString(ns.ClassStd)
	ns.RollNo = core.CleanString(ns.RollNo)
	ns.ParentPhone = core.CleanString(ns.ParentPhone)
	ns.Address = core.CleanString(ns.Address)
	return validate.Struct(ns)
}

// UpdateFee overwrites a student's total fee. It is an administrative override, not a payment.
type UpdateFee struct {
	TotalFee *decimal.Decimal `json:"total_fee" validate:"required,money"`
}

func (uf *UpdateFee) Validate(validate *validator.Validate) error {
	return validate.Struct(uf)
}
