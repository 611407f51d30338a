package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/fee"
	"github.com/ssacademy/backoffice/core/student"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSummarize(t *testing.T) {
	st := student.Student{ID: 1, TotalFee: dec("5000")}
	history := []fee.Payment{{PaidAmount: dec("500")}, {PaidAmount: dec("1000")}, {PaidAmount: dec("250.50")}}

	first := Summarize(st, history)
	assert.Equal(t, "1750.5", first.PaidTotal.String())
	assert.Equal(t, "3249.5", first.Remaining.String())

	second := Summarize(st, history)
	assert.True(t, first.PaidTotal.Equal(second.PaidTotal))
	assert.True(t, first.Remaining.Equal(second.Remaining))
	assert.Len(t, history, 3)

	empty := Summarize(st, nil)
	assert.True(t, empty.PaidTotal.IsZero())
	assert.Equal(t, "5000", empty.Remaining.String())
}

func TestCheckPayment(t *testing.T) {
	st := student.Student{ID: 1, TotalFee: dec("1000"), PaidFee: dec("250"), RemainingFee: dec("750")}

	tests := []struct {
		input   string
		want    string
		wantErr string
	}{
		{input: "750", want: "750"},
		{input: " 0.01 ", want: "0.01"},
		{input: "750.01", wantErr: "payment cannot exceed remaining fee of 750.00"},
		{input: "0", wantErr: "amount must be greater than 0"},
		{input: "-10", wantErr: "amount must be greater than 0"},
		{input: "ten", wantErr: "please enter a valid amount"},
		{input: "", wantErr: "please enter a valid amount"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := CheckPayment(tt.input, st)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, core.IsValidationError(err))
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestCheckPayment_usesServerRemaining(t *testing.T) {
	// the server value wins over a local recomputation from total and paid
	st := student.Student{ID: 1, TotalFee: dec("1000"), PaidFee: dec("0"), RemainingFee: dec("100")}
	_, err := CheckPayment("100.01", st)
	assert.Error(t, err)
}

func TestCheckTotalFee(t *testing.T) {
	for input, ok := range map[string]bool{"0": true, "1500.50": true, "-1": false, "": false, "abc": false} {
		_, err := CheckTotalFee(input)
		assert.Equal(t, ok, err == nil, "input %q: %v", input, err)
	}
}

type fakeRemote struct {
	students []student.Student
	payments map[int][]fee.Payment
	calls    []string
	failAdd  error
}

func (f *fakeRemote) Students(context.Context) ([]student.Student, error) {
	f.calls = append(f.calls, "students")
	return append([]student.Student(nil), f.students...), nil
}

func (f *fakeRemote) FeeHistory(_ context.Context, id int) ([]fee.Payment, error) {
	f.calls = append(f.calls, "history")
	return append([]fee.Payment(nil), f.payments[id]...), nil
}

func (f *fakeRemote) AddPayment(_ context.Context, id int, amount decimal.Decimal, _ string) error {
	f.calls = append(f.calls, "add")
	if f.failAdd != nil {
		return f.failAdd
	}
	st := &f.students[0]
	st.PaidFee = st.PaidFee.Add(amount)
	st.RemainingFee = st.TotalFee.Sub(st.PaidFee)
	f.payments[id] = append(f.payments[id], fee.Payment{PaidAmount: amount, RemainingAmount: st.RemainingFee})
	return nil
}

func (f *fakeRemote) UpdateFee(_ context.Context, _ int, total decimal.Decimal) error {
	f.calls = append(f.calls, "update")
	st := &f.students[0]
	st.TotalFee = total
	st.RemainingFee = total.Sub(st.PaidFee)
	return nil
}

func TestView(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{
		students: []student.Student{{ID: 1, Name: "Ravi", TotalFee: dec("1000"), PaidFee: dec("0"), RemainingFee: dec("1000")}},
		payments: map[int][]fee.Payment{},
	}
	v := NewView(remote)

	_, err := v.RecordPayment(ctx, "10", "")
	assert.Equal(t, ErrNoStudent, err)

	require.NoError(t, v.Open(ctx, remote.students[0]))

	t.Run("guard rejects before any request", func(t *testing.T) {
		remote.calls = nil
		_, err := v.RecordPayment(ctx, "1000.01", "")
		assert.True(t, core.IsValidationError(err))
		assert.Empty(t, remote.calls)
	})

	t.Run("payment refetches list and history", func(t *testing.T) {
		remote.calls = nil
		students, err := v.RecordPayment(ctx, "400", "2024-01-15")
		require.NoError(t, err)
		assert.Equal(t, []string{"add", "students", "history"}, remote.calls)
		assert.Equal(t, "600", students[0].RemainingFee.String())
		assert.Equal(t, "600", v.Student().RemainingFee.String())
		assert.Len(t, v.History(), 1)
		assert.Equal(t, "400", v.Summary().PaidTotal.String())
	})

	t.Run("edit fee leaves snapshots alone", func(t *testing.T) {
		remote.calls = nil
		_, err := v.EditFee(ctx, "2000")
		require.NoError(t, err)
		assert.Equal(t, []string{"update", "students", "history"}, remote.calls)
		assert.Equal(t, "1600", v.Summary().Remaining.String())
		assert.Equal(t, "600", v.History()[0].RemainingAmount.String())
	})

	t.Run("failed payment does not refetch", func(t *testing.T) {
		remote.calls = nil
		remote.failAdd = assert.AnError
		_, err := v.RecordPayment(ctx, "10", "")
		assert.Equal(t, assert.AnError, err)
		assert.Equal(t, []string{"add"}, remote.calls)
		assert.Len(t, v.History(), 1)
	})
}
