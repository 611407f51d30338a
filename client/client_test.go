package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssacademy/backoffice/client"
	"github.com/ssacademy/backoffice/core/attendance"
)

func newClient(t *testing.T, handler http.HandlerFunc, timeout ...time.Duration) *client.Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	conf := client.Config{BaseURL: srv.URL + "/"}
	if len(timeout) > 0 {
		conf.Timeout = timeout[0]
	}
	c, err := client.New(conf, srv.Client())
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	_, err := client.New(client.Config{})
	assert.Error(t, err)
}

func TestClient_envelope(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
		check   func(t *testing.T, err error)
	}{
		{
			name: "rejected verbatim", status: http.StatusBadRequest,
			body: `{"success":false,"error":"a batch with this name already exists"}`,
			check: func(t *testing.T, err error) {
				assert.True(t, client.IsRejected(err, http.StatusBadRequest))
				assert.Equal(t, "a batch with this name already exists", err.Error())
			},
		},
		{
			name: "rejected without message", status: http.StatusInternalServerError, body: `{"success":false}`,
			check: func(t *testing.T, err error) {
				assert.True(t, client.IsRejected(err))
				assert.Equal(t, "The request could not be completed. Please try again.", err.Error())
			},
		},
		{
			name: "not an envelope", status: http.StatusBadGateway, body: `<html>bad gateway</html>`,
			check: func(t *testing.T, err error) {
				assert.True(t, client.IsRejected(err, http.StatusBadGateway))
				assert.False(t, client.IsTransport(err))
			},
		},
		{
			name: "success", status: http.StatusCreated, body: `{"success":true,"batch":{"id":1,"batch_name":"Batch A"}}`,
			check: func(t *testing.T, err error) { assert.NoError(t, err) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			tt.check(t, c.CreateBatch(ctx, "Batch A"))
		})
	}
}

func TestClient_transport(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c, err := client.New(client.Config{BaseURL: url})
		require.NoError(t, err)
		_, err = c.Batches(context.Background())
		assert.True(t, client.IsTransport(err), "%v", err)
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}, 50*time.Millisecond)

		start := time.Now()
		_, err := c.Batches(context.Background())
		assert.True(t, client.IsTransport(err), "%v", err)
		assert.Less(t, int64(time.Since(start)), int64(5*time.Second))
	})

	t.Run("caller cancelled", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"success":true,"batches":[]}`)
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.Batches(ctx)
		assert.True(t, client.IsTransport(err), "%v", err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClient_requests(t *testing.T) {
	var gotMethod, gotPath, gotAuth string
	var gotBody map[string]interface{}
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotAuth = r.Method, r.URL.Path, r.Header.Get("Authorization")
		gotBody = nil
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		switch r.URL.Path {
		case "/auth/login":
			_, _ = io.WriteString(w, `{"success":true,"token":"tok","user":{"id":1,"name":"Ms Rao","username":"teacher","role":"teacher"}}`)
		case "/attendance/mark-batch":
			_, _ = io.WriteString(w, `{"success":true,"report":"Attendance Report - Batch A"}`)
		case "/attendance/student-history":
			_, _ = io.WriteString(w, `{"success":true,"students":{"7":{"student_name":"Ravi","attendance":[{"date":"2024-01-15","batch_name":"Batch A","status":"P","marked_by":"Ms Rao"}]}}}`)
		default:
			_, _ = io.WriteString(w, `{"success":true}`)
		}
	})
	ctx := context.Background()

	token, usr, err := c.Login(ctx, "teacher", "Sup3rS3cret!")
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.False(t, usr.IsAdmin())
	assert.Equal(t, "", gotAuth)

	report, err := c.MarkAttendance(ctx, attendance.MarkBatch{
		BatchID:  3,
		Date:     "2024-01-15",
		Students: []attendance.Entry{{StudentID: 1, Status: attendance.Absent}, {StudentID: 2, Status: attendance.Present}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Attendance Report - Batch A", report)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, map[string]interface{}{
		"batch_id": float64(3),
		"date":     "2024-01-15",
		"students": []interface{}{
			map[string]interface{}{"student_id": float64(1), "status": "A"},
			map[string]interface{}{"student_id": float64(2), "status": "P"},
		},
	}, gotBody)

	require.NoError(t, c.RemoveStudentFromBatch(ctx, 3, 2))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/batches/3/students/2", gotPath)

	history, err := c.AttendanceHistory(ctx)
	require.NoError(t, err)
	require.Contains(t, history, 7)
	assert.Equal(t, "Ravi", history[7].StudentName)
	assert.Equal(t, "2024-01-15", history[7].Attendance[0].Date.String())
}
