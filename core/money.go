package core

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrAmountRequired   = errors.New("amount is required")
	ErrAmountNotNumeric = errors.New("amount must be a number")
)

func init() {
	// amounts travel as JSON numbers, e.g. {"total_fee": 1500.5}
	decimal.MarshalJSONWithoutQuotes = true
}

// ParseAmount parses user input such as "1500" or " 99.50 " into a decimal amount.
// It does not check the sign; callers apply their own bounds.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = CleanString(s)
	if s == "" {
		return decimal.Zero, ErrAmountRequired
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrAmountNotNumeric
	}
	return d, nil
}

// SumAmounts adds up amounts without float rounding drift.
func SumAmounts(amounts ...decimal.Decimal) decimal.Decimal {
	return decimal.Sum(decimal.Zero, amounts...)
}
