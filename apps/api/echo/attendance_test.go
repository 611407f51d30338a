package echoapi_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssacademy/backoffice/core/attendance"
	inmemdb "github.com/ssacademy/backoffice/storage/database/inmem"
	"github.com/ssacademy/backoffice/tests"
)

func attendanceRepo(app *testApp) attendance.Repository {
	return inmemdb.NewAttendanceRepository(app.db)
}

type markEntry struct {
	StudentID int    `json:"student_id"`
	Status    string `json:"status"`
}

func markBody(t *testing.T, batchID int, date string, entries ...markEntry) []byte {
	if entries == nil {
		entries = []markEntry{}
	}
	return marshallObj(t, map[string]interface{}{"batch_id": batchID, "date": date, "students": entries})
}

func Test_attendanceApi_markBatch(t *testing.T) {
	app := setup(t)
	token := app.token(t, app.teacher)
	ravi := testutil.CreateStudent(t, app.studentRepo, "Ravi", "100")
	asha := testutil.CreateStudent(t, app.studentRepo, "Asha", "100")
	outsider := testutil.CreateStudent(t, app.studentRepo, "Zed", "100")
	b := testutil.CreateBatch(t, app.batchRepo, "Batch A", ravi.ID, asha.ID)
	empty := testutil.CreateBatch(t, app.batchRepo, "Empty")

	const path = "/attendance/mark-batch"
	app.run(t, []httpTest{
		{name: "auth required", method: http.MethodPost, path: path, wantCode: http.StatusUnauthorized},
		{
			name: "unknown batch", method: http.MethodPost, path: path, token: token,
			body:     markBody(t, 999, "2024-01-15", markEntry{ravi.ID, "P"}),
			wantCode: http.StatusNotFound, wantData: failure(t, "batch not found", nil),
		},
		{
			name: "bad date", method: http.MethodPost, path: path, token: token,
			body:     markBody(t, b.ID, "15-01-2024", markEntry{ravi.ID, "P"}, markEntry{asha.ID, "A"}),
			wantCode: http.StatusBadRequest,
			wantData: failure(t, "date must be in the YYYY-MM-DD format", map[string]string{"date": "date must be in the YYYY-MM-DD format"}),
		},
		{
			name: "bad status", method: http.MethodPost, path: path, token: token,
			body:     markBody(t, b.ID, "2024-01-15", markEntry{ravi.ID, "X"}, markEntry{asha.ID, "A"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "no entries", method: http.MethodPost, path: path, token: token,
			body: markBody(t, b.ID, "2024-01-15"), wantCode: http.StatusBadRequest,
		},
		{
			name: "empty batch", method: http.MethodPost, path: path, token: token,
			body:     markBody(t, empty.ID, "2024-01-15", markEntry{ravi.ID, "P"}),
			wantCode: http.StatusBadRequest,
			wantData: failure(t, "batch has no students", map[string]string{"batch_id": "batch has no students"}),
		},
		{
			name: "duplicate entry", method: http.MethodPost, path: path, token: token,
			body:     markBody(t, b.ID, "2024-01-15", markEntry{ravi.ID, "P"}, markEntry{ravi.ID, "A"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "non member", method: http.MethodPost, path: path, token: token,
			body:     markBody(t, b.ID, "2024-01-15", markEntry{ravi.ID, "P"}, markEntry{asha.ID, "P"}, markEntry{outsider.ID, "P"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "incomplete roster", method: http.MethodPost, path: path, token: token,
			body:     markBody(t, b.ID, "2024-01-15", markEntry{ravi.ID, "P"}),
			wantCode: http.StatusBadRequest,
			wantData: failure(t, "every student of the batch must be marked",
				map[string]string{"students": "every student of the batch must be marked"}),
		},
	})

	history, err := attendanceRepo(app).QueryHistory(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history, "rejected submissions must not store anything")

	t.Run("success", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, token,
			markBody(t, b.ID, "2024-01-15", markEntry{ravi.ID, "A"}, markEntry{asha.ID, "P"}))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		report, _ := decodeBody(t, rec)["report"].(string)
		assert.True(t, strings.HasPrefix(report, "Attendance Report - Batch A\nDate: 15 Jan 2024\n"), report)
		assert.Contains(t, report, "Present (1):\n1. Asha\n")
		assert.Contains(t, report, "Absent (1):\n1. Ravi\n")
		assert.True(t, strings.HasSuffix(report, "Total: 2 | Present: 1 | Absent: 1"), report)
	})

	t.Run("resubmission overwrites", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, token,
			markBody(t, b.ID, "2024-01-15", markEntry{ravi.ID, "P"}, markEntry{asha.ID, "P"}))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		history, err := attendanceRepo(app).QueryHistory(context.Background())
		require.NoError(t, err)
		require.Len(t, history, 2)
		for _, h := range history {
			assert.Equal(t, attendance.Present, h.Status)
			assert.Equal(t, "Ms Rao", h.MarkedBy)
		}
	})
}

func Test_attendanceApi_studentHistory(t *testing.T) {
	app := setup(t)
	token := app.token(t, app.teacher)
	ravi := testutil.CreateStudent(t, app.studentRepo, "Ravi", "100")
	a := testutil.CreateBatch(t, app.batchRepo, "Batch A", ravi.ID)
	b := testutil.CreateBatch(t, app.batchRepo, "Batch B", ravi.ID)

	for _, req := range []struct {
		batchID int
		date    string
		status  string
	}{
		{b.ID, "2024-01-16", "A"},
		{a.ID, "2024-01-15", "P"},
	} {
		r, rec := newAuthRequest(http.MethodPost, "/attendance/mark-batch", token, markBody(t, req.batchID, req.date, markEntry{ravi.ID, req.status}))
		app.do(r, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	app.run(t, []httpTest{
		{name: "auth required", path: "/attendance/student-history", wantCode: http.StatusUnauthorized},
		{
			name: "grouped by student, ordered by date", path: "/attendance/student-history", token: token, wantCode: http.StatusOK,
			wantData: success(t, map[string]interface{}{"students": map[string]interface{}{
				itoa(ravi.ID): map[string]interface{}{
					"student_name": "Ravi",
					"attendance": []interface{}{
						map[string]interface{}{"date": "2024-01-15", "batch_name": "Batch A", "status": "P", "marked_by": "Ms Rao"},
						map[string]interface{}{"date": "2024-01-16", "batch_name": "Batch B", "status": "A", "marked_by": "Ms Rao"},
					},
				},
			}}),
		},
	})
}
