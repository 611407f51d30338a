package fee

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// LedgerMismatch describes a payment whose remaining snapshot disagrees with the running balance.
type LedgerMismatch struct {
	PaymentID int
	Want      decimal.Decimal
	Got       decimal.Decimal
}

func (m LedgerMismatch) String() string {
	return fmt.Sprintf("payment %d: remaining_amount %s, running balance %s", m.PaymentID, m.Got.StringFixed(2), m.Want.StringFixed(2))
}

// CheckLedger replays history (in recording order) against total and reports every payment whose
// RemainingAmount is not total minus the cumulative sum up to and including it.
// Mismatches are expected after the total fee was edited, since snapshots are never rewritten.
func CheckLedger(total decimal.Decimal, history []Payment) []LedgerMismatch {
	var mismatches []LedgerMismatch
	running := total
	for _, p := range history {
		running = running.Sub(p.PaidAmount)
		if !p.RemainingAmount.Equal(running) {
			mismatches = append(mismatches, LedgerMismatch{PaymentID: p.ID, Want: running, Got: p.RemainingAmount})
		}
	}
	return mismatches
}
