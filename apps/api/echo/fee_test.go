package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssacademy/backoffice/core/fee"
	"github.com/ssacademy/backoffice/tests"
)

func Test_feeApi_create(t *testing.T) {
	app := setup(t)
	adminToken := app.token(t, app.admin)
	st := testutil.CreateStudent(t, app.studentRepo, "Ravi", "5000")

	pay := func(amount interface{}, paidOn string) []byte {
		return marshallObj(t, map[string]interface{}{"student_id": st.ID, "paid_amount": amount, "paid_on": paidOn})
	}

	app.run(t, []httpTest{
		{
			name: "admin required", method: http.MethodPost, path: "/fees/add", token: app.token(t, app.teacher),
			body: pay(100, "2024-01-10"), wantCode: http.StatusForbidden,
		},
		{
			name: "zero amount", method: http.MethodPost, path: "/fees/add", token: adminToken,
			body:     pay(0, "2024-01-10"),
			wantCode: http.StatusBadRequest,
			wantData: failure(t, "amount must be a number greater than 0",
				map[string]string{"paid_amount": "amount must be a number greater than 0"}),
		},
		{
			name: "bad date", method: http.MethodPost, path: "/fees/add", token: adminToken,
			body:     pay(100, "10/01/2024"),
			wantCode: http.StatusBadRequest,
			wantData: failure(t, "date must be in the YYYY-MM-DD format",
				map[string]string{"paid_on": "date must be in the YYYY-MM-DD format"}),
		},
		{
			name: "unknown student", method: http.MethodPost, path: "/fees/add", token: adminToken,
			body:     marshallObj(t, map[string]interface{}{"student_id": 999, "paid_amount": 10}),
			wantCode: http.StatusNotFound, wantData: failure(t, "student not found", nil),
		},
		{
			name: "first payment", method: http.MethodPost, path: "/fees/add", token: adminToken,
			body: pay(2000, "2024-01-10"), wantCode: http.StatusCreated,
		},
		{
			name: "over remaining", method: http.MethodPost, path: "/fees/add", token: adminToken,
			body:     pay(3000.01, "2024-01-11"),
			wantCode: http.StatusBadRequest,
			wantData: failure(t, "payment cannot exceed remaining fee of 3000.00",
				map[string]string{"paid_amount": "payment cannot exceed remaining fee of 3000.00"}),
		},
		{
			name: "exactly remaining", method: http.MethodPost, path: "/fees/add", token: adminToken,
			body: pay(3000, "2024-01-12"), wantCode: http.StatusCreated,
		},
		{
			name: "fully paid", method: http.MethodPost, path: "/fees/add", token: adminToken,
			body: pay(1, "2024-01-13"), wantCode: http.StatusBadRequest,
		},
	})

	got, err := app.studentRepo.GetStudent(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, "5000", got.PaidFee.String())
	assert.True(t, got.RemainingFee.IsZero())
}

func Test_feeApi_history(t *testing.T) {
	app := setup(t)
	st := testutil.CreateStudent(t, app.studentRepo, "Ravi", "5000")
	other := testutil.CreateStudent(t, app.studentRepo, "Asha", "1000")

	svc := fee.NewService(app.feeRepo)
	ctx := context.Background()
	for _, p := range []fee.NewPayment{
		{StudentID: st.ID, PaidAmount: testutil.Dec("500"), PaidOn: "2024-01-15"},
		{StudentID: st.ID, PaidAmount: testutil.Dec("1000"), PaidOn: "2024-02-01"},
		{StudentID: other.ID, PaidAmount: testutil.Dec("1000"), PaidOn: "2024-01-20"},
		{StudentID: st.ID, PaidAmount: testutil.Dec("250.50"), PaidOn: "2024-03-01"},
	} {
		_, err := svc.Record(ctx, p)
		require.NoError(t, err)
	}

	app.run(t, []httpTest{
		{name: "auth required", path: "/fees/history/" + itoa(st.ID), wantCode: http.StatusUnauthorized},
		{name: "bad id", path: "/fees/history/abc", token: app.token(t, app.teacher), wantCode: http.StatusNotFound},
		{
			name: "no payments", path: "/fees/history/999", token: app.token(t, app.teacher), wantCode: http.StatusOK,
			wantData: success(t, map[string]interface{}{"history": []interface{}{}}),
		},
	})

	t.Run("chronological snapshots", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/fees/history/"+itoa(st.ID), app.token(t, app.teacher))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		history := decodeBody(t, rec)["history"].([]interface{})
		require.Len(t, history, 3)
		wantDates := []string{"2024-01-15", "2024-02-01", "2024-03-01"}
		wantRemaining := []float64{4500, 3500, 3249.5}
		for i, h := range history {
			entry := h.(map[string]interface{})
			assert.Equal(t, wantDates[i], entry["paid_on"])
			assert.Equal(t, wantRemaining[i], entry["remaining_amount"])
		}
	})
}
