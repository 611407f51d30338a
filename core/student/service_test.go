package student_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/fee"
	"github.com/ssacademy/backoffice/core/student"
	inmemdb "github.com/ssacademy/backoffice/storage/database/inmem"
	"github.com/ssacademy/backoffice/tests"
)

func TestService_Create(t *testing.T) {
	svc := student.NewService(inmemdb.NewStudentRepository(inmemdb.Open()))
	st, err := svc.Create(context.Background(), student.NewStudent{Name: "Ravi", ClassStd: "10", TotalFee: testutil.Dec("1500")})
	require.NoError(t, err)
	assert.NotZero(t, st.ID)
	assert.Equal(t, "1500", st.TotalFee.String())
	assert.True(t, st.PaidFee.IsZero())
	assert.Equal(t, "1500", st.RemainingFee.String())
}

func TestService_QueryAll(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewStudentRepository(inmemdb.Open())
	svc := student.NewService(repo)
	testutil.CreateStudent(t, repo, "Zara", "100")
	testutil.CreateStudent(t, repo, "Asha", "300")
	testutil.CreateStudent(t, repo, "Ravi", "200")

	names := func(sts []student.Student) []string {
		var out []string
		for _, st := range sts {
			out = append(out, st.Name)
		}
		return out
	}

	tests := []struct {
		name     string
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "default by name", want: []string{"Asha", "Ravi", "Zara"}},
		{name: "unknown field ignored", ordering: []core.DBOrdering{{Field: "password"}}, want: []string{"Asha", "Ravi", "Zara"}},
		{name: "total fee desc", ordering: []core.DBOrdering{{Field: "total_fee"}}, want: []string{"Asha", "Ravi", "Zara"}},
		{name: "total fee asc", ordering: []core.DBOrdering{{Field: "TOTAL_FEE", Ascending: true}}, want: []string{"Zara", "Ravi", "Asha"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.QueryAll(ctx, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestService_UpdateFee(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.Open()
	repo := inmemdb.NewStudentRepository(db)
	svc := student.NewService(repo)
	st := testutil.CreateStudent(t, repo, "Ravi", "1000")
	_, err := fee.NewService(inmemdb.NewFeeRepository(db)).Record(ctx, fee.NewPayment{StudentID: st.ID, PaidAmount: testutil.Dec("400"), PaidOn: "2024-01-15"})
	require.NoError(t, err)

	newFee := func(s string) student.UpdateFee {
		d := testutil.Dec(s)
		return student.UpdateFee{TotalFee: &d}
	}

	t.Run("missing", func(t *testing.T) {
		_, err := svc.UpdateFee(ctx, st.ID, student.UpdateFee{})
		assert.True(t, core.IsValidationError(err))
	})
	t.Run("not found", func(t *testing.T) {
		_, err := svc.UpdateFee(ctx, 999, newFee("10"))
		assert.Equal(t, student.ErrNotFound, errors.Cause(err))
	})
	t.Run("below paid", func(t *testing.T) {
		_, err := svc.UpdateFee(ctx, st.ID, newFee("399.99"))
		require.Error(t, err)
		assert.Equal(t, student.ErrFeeBelowPaid.Error(), err.Error())
	})
	t.Run("equal to paid", func(t *testing.T) {
		got, err := svc.UpdateFee(ctx, st.ID, newFee("400"))
		require.NoError(t, err)
		assert.True(t, got.RemainingFee.IsZero())
	})
	t.Run("raised", func(t *testing.T) {
		got, err := svc.UpdateFee(ctx, st.ID, newFee("2000"))
		require.NoError(t, err)
		assert.Equal(t, "400", got.PaidFee.String())
		assert.Equal(t, "1600", got.RemainingFee.String())

		reloaded, err := svc.GetByID(ctx, st.ID)
		require.NoError(t, err)
		assert.Equal(t, "2000", reloaded.TotalFee.String())
	})
}
