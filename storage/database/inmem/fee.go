package inmemdb

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ssacademy/backoffice/core/fee"
)

type feeRepository struct {
	db *DB
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *DB) *feeRepository {
	return &feeRepository{db: db}
}

// BeginLedger holds the student's ledger lock until the LedgerTx is committed or rolled back.
func (repo *feeRepository) BeginLedger(ctx context.Context, studentID int) (fee.LedgerTx, error) {
	lock := repo.db.ledgerLock(studentID)
	lock.Lock()

	repo.db.mutex.RLock()
	st, ok := repo.db.students[studentID]
	if !ok {
		repo.db.mutex.RUnlock()
		lock.Unlock()
		return nil, fee.ErrStudentNotFound
	}
	ledger := fee.Ledger{StudentID: studentID, TotalFee: st.TotalFee, PaidFee: decimal.Zero}
	for _, p := range repo.db.payments[studentID] {
		ledger.PaidFee = ledger.PaidFee.Add(p.PaidAmount)
	}
	repo.db.mutex.RUnlock()

	return &ledgerTx{db: repo.db, lock: lock, ledger: ledger}, nil
}

func (repo *feeRepository) QueryPayments(_ context.Context, studentID int) ([]fee.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	payments := append([]fee.Payment{}, repo.db.payments[studentID]...)
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID < payments[j].ID })
	return payments, nil
}

type ledgerTx struct {
	db      *DB
	lock    *sync.Mutex
	ledger  fee.Ledger
	pending []fee.Payment
	done    bool
}

func (lt *ledgerTx) Ledger() fee.Ledger { return lt.ledger }

func (lt *ledgerTx) InsertPayment(_ context.Context, p fee.Payment) (fee.Payment, error) {
	lt.db.mutex.Lock()
	p.ID = lt.db.nextID("fee_payment")
	lt.db.mutex.Unlock()
	lt.pending = append(lt.pending, p)
	return p, nil
}

func (lt *ledgerTx) Commit() error {
	if lt.done {
		return nil
	}
	lt.db.mutex.Lock()
	lt.db.payments[lt.ledger.StudentID] = append(lt.db.payments[lt.ledger.StudentID], lt.pending...)
	lt.db.mutex.Unlock()
	lt.release()
	return nil
}

func (lt *ledgerTx) Rollback() error {
	if !lt.done {
		lt.release()
	}
	return nil
}

func (lt *ledgerTx) release() {
	lt.done = true
	lt.pending = nil
	lt.lock.Unlock()
}
