package workflow

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssacademy/backoffice/client"
	"github.com/ssacademy/backoffice/client/session"
	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/attendance"
	"github.com/ssacademy/backoffice/core/batch"
	"github.com/ssacademy/backoffice/core/fee"
	"github.com/ssacademy/backoffice/core/student"
)

// fakeRemote keeps just enough server state to drive the desk.
type fakeRemote struct {
	students []student.Student
	batches  []batch.Batch
	members  map[int]map[int]bool
	batchSeq int
	payloads []attendance.MarkBatch
	calls    []string
	loading  chan struct{} // when set, BatchStudents signals on it and waits for loaded
	loaded   chan struct{}
}

func newFakeRemote(names ...string) *fakeRemote {
	f := &fakeRemote{members: map[int]map[int]bool{}}
	for i, name := range names {
		f.students = append(f.students, student.Student{ID: i + 1, Name: name, TotalFee: decimal.NewFromInt(100), RemainingFee: decimal.NewFromInt(100)})
	}
	return f
}

func (f *fakeRemote) Students(context.Context) ([]student.Student, error) {
	f.calls = append(f.calls, "students")
	return append([]student.Student(nil), f.students...), nil
}

func (f *fakeRemote) AddStudent(_ context.Context, ns student.NewStudent) (student.Student, error) {
	st := student.Student{ID: len(f.students) + 1, Name: ns.Name, TotalFee: ns.TotalFee, RemainingFee: ns.TotalFee}
	f.students = append(f.students, st)
	return st, nil
}

func (f *fakeRemote) FeeHistory(context.Context, int) ([]fee.Payment, error) { return nil, nil }

func (f *fakeRemote) AddPayment(context.Context, int, decimal.Decimal, string) error { return nil }

func (f *fakeRemote) UpdateFee(context.Context, int, decimal.Decimal) error { return nil }

func (f *fakeRemote) Batches(context.Context) ([]batch.Batch, error) {
	f.calls = append(f.calls, "batches")
	return append([]batch.Batch(nil), f.batches...), nil
}

func (f *fakeRemote) CreateBatch(_ context.Context, name string) error {
	for _, b := range f.batches {
		if b.Name == name {
			return &client.RejectedError{Status: 400, Message: "a batch with this name already exists"}
		}
	}
	f.batchSeq++
	f.batches = append(f.batches, batch.Batch{ID: f.batchSeq, Name: name})
	return nil
}

func (f *fakeRemote) DeleteBatch(_ context.Context, id int) error {
	for i, b := range f.batches {
		if b.ID == id {
			f.batches = append(f.batches[:i], f.batches[i+1:]...)
			delete(f.members, id)
			return nil
		}
	}
	return &client.RejectedError{Status: 404, Message: "batch not found"}
}

func (f *fakeRemote) BatchStudents(_ context.Context, id int) ([]batch.Member, error) {
	f.calls = append(f.calls, "members")
	if f.loading != nil {
		f.loading <- struct{}{}
		<-f.loaded
	}
	var out []batch.Member
	for _, st := range f.students {
		if f.members[id][st.ID] {
			out = append(out, batch.Member{ID: st.ID, Name: st.Name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeRemote) AddStudentToBatch(_ context.Context, batchID, studentID int) error {
	f.calls = append(f.calls, "add")
	if f.members[batchID] == nil {
		f.members[batchID] = map[int]bool{}
	}
	if f.members[batchID][studentID] {
		return &client.RejectedError{Status: 409, Message: "student is already in this batch"}
	}
	f.members[batchID][studentID] = true
	return nil
}

func (f *fakeRemote) RemoveStudentFromBatch(_ context.Context, batchID, studentID int) error {
	f.calls = append(f.calls, "remove")
	delete(f.members[batchID], studentID)
	return nil
}

func (f *fakeRemote) MarkAttendance(_ context.Context, mb attendance.MarkBatch) (string, error) {
	f.payloads = append(f.payloads, mb)
	return "Attendance Report - Batch A", nil
}

func yes(string) bool { return true }
func no(string) bool  { return false }

func TestDesk_endToEnd(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote("Ravi", "Asha")
	d := NewDesk(remote)
	require.NoError(t, d.Load(ctx))

	require.NoError(t, d.CreateBatch(ctx, "  Batch A "))
	require.Len(t, d.Batches(), 1)
	b := d.Batches()[0]
	assert.Equal(t, "Batch A", b.Name)

	dialog, err := d.Manage(ctx, b)
	require.NoError(t, err)
	dialog.Selection.Toggle(1)
	dialog.Selection.Toggle(2)
	res, err := d.AddSelected(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Successfully added 2 student(s) to the batch!", res.Message())
	assert.Empty(t, d.Available())

	require.NoError(t, d.Session.Select(ctx, b))
	assert.Equal(t, []session.Mark{
		{Member: batch.Member{ID: 2, Name: "Asha"}, Checked: true},
		{Member: batch.Member{ID: 1, Name: "Ravi"}, Checked: true},
	}, d.Session.Roster())

	require.NoError(t, d.Session.Toggle(1))
	_, err = d.Session.Submit(ctx, "2024-01-15")
	require.NoError(t, err)

	require.Len(t, remote.payloads, 1)
	got := remote.payloads[0]
	assert.Equal(t, b.ID, got.BatchID)
	assert.Equal(t, "2024-01-15", got.Date)
	assert.ElementsMatch(t, []attendance.Entry{{StudentID: 1, Status: "A"}, {StudentID: 2, Status: "P"}}, got.Students)
}

func TestDesk_AddSelected_partial(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote("Ravi", "Asha", "Zed")
	d := NewDesk(remote)
	require.NoError(t, d.Load(ctx))
	require.NoError(t, d.CreateBatch(ctx, "Batch A"))
	b := d.Batches()[0]
	require.NoError(t, remote.AddStudentToBatch(ctx, b.ID, 2))

	dialog, err := d.Manage(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, studentIDs(d.Available()))

	_, err = d.AddSelected(ctx)
	assert.True(t, core.IsValidationError(err))

	require.NoError(t, d.Session.Select(ctx, b))
	require.NoError(t, d.ToggleSelection(3))
	require.NoError(t, d.ToggleSelection(2)) // already a member
	require.NoError(t, d.ToggleSelection(1))

	remote.calls = nil
	res, err := d.AddSelected(ctx)
	require.NoError(t, err)
	assert.Equal(t, AddResult{Added: 2, Requested: 3}, res)
	assert.Equal(t, "Added 2 out of 3 student(s). Some may already be in the batch.", res.Message())
	assert.Equal(t, []string{"add", "add", "add", "members", "members"}, remote.calls, "dialog and main roster are both refetched")
	assert.Len(t, d.Session.Roster(), 3)
	assert.Zero(t, dialog.Selection.Len())
}

func TestDesk_selection(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote("Ravi", "Asha", "Zed")
	d := NewDesk(remote)
	require.NoError(t, d.Load(ctx))
	require.NoError(t, d.CreateBatch(ctx, "Batch A"))
	b := d.Batches()[0]

	assert.Equal(t, ErrNoDialog, d.ToggleSelection(1))
	assert.Equal(t, ErrNoDialog, d.Pick(1))
	assert.Equal(t, ErrNoDialog, d.SelectAllAvailable())

	require.NoError(t, remote.AddStudentToBatch(ctx, b.ID, 2))
	dialog, err := d.Manage(ctx, b)
	require.NoError(t, err)

	require.NoError(t, d.Pick(3, 3, 1))
	assert.Equal(t, []int{3, 1}, dialog.Selection.IDs())
	require.NoError(t, d.ToggleSelection(3))
	assert.Equal(t, []int{1}, dialog.Selection.IDs())
	require.NoError(t, d.SelectAllAvailable())
	assert.ElementsMatch(t, []int{1, 3}, dialog.Selection.IDs())

	t.Run("picks while adding", func(t *testing.T) {
		stop := make(chan struct{})
		picked := make(chan struct{})
		go func() {
			defer close(picked)
			for {
				select {
				case <-stop:
					return
				default:
					_ = d.Pick(1)
					_ = d.ToggleSelection(3)
				}
			}
		}()
		_, err := d.AddSelected(ctx)
		close(stop)
		<-picked
		assert.NoError(t, err)
	})
}

func TestDesk_RemoveMember(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote("Ravi", "Asha")
	d := NewDesk(remote)
	require.NoError(t, d.Load(ctx))
	require.NoError(t, d.CreateBatch(ctx, "Batch A"))
	require.NoError(t, d.CreateBatch(ctx, "Batch B"))
	a, b := d.Batches()[0], d.Batches()[1]
	require.NoError(t, remote.AddStudentToBatch(ctx, b.ID, 1))

	// main view shows another batch: only the dialog is refetched
	require.NoError(t, d.Session.Select(ctx, a))
	_, err := d.Manage(ctx, b)
	require.NoError(t, err)

	var prompt string
	err = d.RemoveMember(ctx, batch.Member{ID: 1, Name: "Ravi"}, func(p string) bool { prompt = p; return false })
	assert.Equal(t, ErrCancelled, err)
	assert.Equal(t, "Remove Ravi from Batch B?", prompt)

	remote.calls = nil
	require.NoError(t, d.RemoveMember(ctx, batch.Member{ID: 1, Name: "Ravi"}, yes))
	assert.Equal(t, []string{"remove", "members"}, remote.calls)
	assert.Empty(t, d.Dialog().Members)
}

func TestDesk_DeleteBatch(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote("Ravi")
	d := NewDesk(remote)
	require.NoError(t, d.Load(ctx))
	require.NoError(t, d.CreateBatch(ctx, "Batch A"))
	require.NoError(t, d.CreateBatch(ctx, "Batch B"))
	a, b := d.Batches()[0], d.Batches()[1]

	require.NoError(t, d.Session.Select(ctx, a))
	_, err := d.Manage(ctx, a)
	require.NoError(t, err)

	assert.Equal(t, ErrCancelled, d.DeleteBatch(ctx, a, no))
	assert.Len(t, d.Batches(), 2)

	require.NoError(t, d.DeleteBatch(ctx, a, yes))
	assert.Equal(t, []batch.Batch{b}, d.Batches())
	assert.Nil(t, d.Dialog())
	assert.Nil(t, d.Available())
	_, ok := d.Session.Batch()
	assert.False(t, ok)
	assert.Equal(t, session.NoBatchSelected, d.Session.State())

	// a batch open elsewhere is left alone
	require.NoError(t, d.Session.Select(ctx, b))
	require.NoError(t, d.CreateBatch(ctx, "Batch C"))
	c, _ := d.Batch(3)
	require.NoError(t, d.DeleteBatch(ctx, c, yes))
	open, ok := d.Session.Batch()
	assert.True(t, ok)
	assert.Equal(t, b.ID, open.ID)
}

func TestDesk_DeleteBatch_whileLoading(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote("Ravi")
	d := NewDesk(remote)
	require.NoError(t, d.Load(ctx))
	require.NoError(t, d.CreateBatch(ctx, "Batch A"))
	a := d.Batches()[0]

	remote.loading = make(chan struct{})
	remote.loaded = make(chan struct{})
	done := make(chan error)
	go func() { done <- d.Session.Select(ctx, a) }()
	<-remote.loading

	require.NoError(t, d.DeleteBatch(ctx, a, yes))
	close(remote.loaded)
	require.NoError(t, <-done)

	_, ok := d.Session.Batch()
	assert.False(t, ok)
	assert.Equal(t, session.NoBatchSelected, d.Session.State())
}

func TestDesk_guards(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	d := NewDesk(remote)

	remote.calls = nil
	assert.True(t, core.IsValidationError(d.CreateBatch(ctx, "   ")))
	_, err := d.AddStudent(ctx, StudentInput{Name: " ", TotalFee: "100"})
	assert.True(t, core.IsValidationError(err))
	_, err = d.AddStudent(ctx, StudentInput{Name: "Ravi", TotalFee: "-1"})
	assert.True(t, core.IsValidationError(err))
	assert.Empty(t, remote.calls)

	_, err = d.AddSelected(ctx)
	assert.Equal(t, ErrNoDialog, err)

	st, err := d.AddStudent(ctx, StudentInput{Name: " Ravi ", TotalFee: "1500"})
	require.NoError(t, err)
	assert.Equal(t, "Ravi", st.Name)
	assert.Equal(t, []string{"students"}, remote.calls)
	assert.Len(t, d.Students(), 1)

	require.NoError(t, d.CreateBatch(ctx, "Batch A"))
	err = d.CreateBatch(ctx, "Batch A")
	assert.True(t, client.IsRejected(err, 400))
	assert.Equal(t, "a batch with this name already exists", err.Error())
}

func TestDesk_inFlight(t *testing.T) {
	d := NewDesk(newFakeRemote())
	d.createInFlight.Store(true)
	assert.True(t, errors.Is(d.CreateBatch(context.Background(), "Batch A"), client.ErrInFlight))
}

func studentIDs(sts []student.Student) []int {
	var out []int
	for _, st := range sts {
		out = append(out, st.ID)
	}
	return out
}
