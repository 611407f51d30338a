// Package workflow ties the views together the way the back office front-end uses them:
// student list, batch list, the main attendance session and the batch management dialog.
package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/ssacademy/backoffice/client"
	"github.com/ssacademy/backoffice/client/ledger"
	"github.com/ssacademy/backoffice/client/roster"
	"github.com/ssacademy/backoffice/client/session"
	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/batch"
	"github.com/ssacademy/backoffice/core/student"
)

var (
	// errors
	ErrCancelled      = errors.New("cancelled")
	ErrNoDialog       = errors.New("no batch is being managed")
	ErrEmptySelection = errors.New("please select at least one student")
	ErrBlankName      = errors.New("please enter a batch name")
	ErrBlankStudent   = errors.New("please enter the student's name")
)

// Remote is the whole API surface the desk drives.
type Remote interface {
	ledger.Remote
	session.Remote
	AddStudent(ctx context.Context, ns student.NewStudent) (student.Student, error)
	Batches(ctx context.Context) ([]batch.Batch, error)
	CreateBatch(ctx context.Context, name string) error
	DeleteBatch(ctx context.Context, batchID int) error
	AddStudentToBatch(ctx context.Context, batchID, studentID int) error
	RemoveStudentFromBatch(ctx context.Context, batchID, studentID int) error
}

// Confirm asks the user to approve an irrevocable action.
type Confirm func(prompt string) bool

// Dialog is the batch management dialog: one batch, its members and the students picked to add.
// Batch is fixed when the dialog opens; Members and Selection change under the desk's lock.
type Dialog struct {
	Batch     batch.Batch
	Members   []batch.Member
	Selection roster.Selection
}

type Desk struct {
	remote  Remote
	Session *session.Session

	mu       sync.Mutex
	students []student.Student
	batches  []batch.Batch
	dialog   *Dialog

	addInFlight     *atomic.Bool
	removeInFlight  *atomic.Bool
	createInFlight  *atomic.Bool
	deleteInFlight  *atomic.Bool
	studentInFlight *atomic.Bool
}

func NewDesk(remote Remote) *Desk {
	return &Desk{
		remote:          remote,
		Session:         session.New(remote),
		addInFlight:     atomic.NewBool(false),
		removeInFlight:  atomic.NewBool(false),
		createInFlight:  atomic.NewBool(false),
		deleteInFlight:  atomic.NewBool(false),
		studentInFlight: atomic.NewBool(false),
	}
}

// begin claims a workflow's in-flight flag; the returned func releases it.
func begin(flag *atomic.Bool) (func(), error) {
	if !flag.CompareAndSwap(false, true) {
		return nil, client.ErrInFlight
	}
	return func() { flag.Store(false) }, nil
}

// Load fetches the student and batch lists.
func (d *Desk) Load(ctx context.Context) error {
	if err := d.refreshStudents(ctx); err != nil {
		return err
	}
	return d.refreshBatches(ctx)
}

func (d *Desk) refreshStudents(ctx context.Context) error {
	students, err := d.remote.Students(ctx)
	if err != nil {
		return err
	}
	d.setStudents(students)
	return nil
}

func (d *Desk) setStudents(students []student.Student) {
	d.mu.Lock()
	d.students = students
	d.mu.Unlock()
}

func (d *Desk) refreshBatches(ctx context.Context) error {
	batches, err := d.remote.Batches(ctx)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.batches = batches
	d.mu.Unlock()
	return nil
}

func (d *Desk) Students() []student.Student {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]student.Student(nil), d.students...)
}

func (d *Desk) Batches() []batch.Batch {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]batch.Batch(nil), d.batches...)
}

// Student finds a student of the current list by id.
func (d *Desk) Student(id int) (student.Student, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, st := range d.students {
		if st.ID == id {
			return st, true
		}
	}
	return student.Student{}, false
}

// Batch finds a batch of the current list by id.
func (d *Desk) Batch(id int) (batch.Batch, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range d.batches {
		if b.ID == id {
			return b, true
		}
	}
	return batch.Batch{}, false
}

// StudentInput is the add-student form as typed.
type StudentInput struct {
	Name        string
	ClassStd    string
	RollNo      string
	ParentPhone string
	Address     string
	TotalFee    string
}

// AddStudent checks the form, sends it and refetches the student list.
func (d *Desk) AddStudent(ctx context.Context, in StudentInput) (student.Student, error) {
	name := core.CleanString(in.Name)
	if name == "" {
		return student.Student{}, core.NewValidationError(ErrBlankStudent, core.FieldError{Field: "name", Error: ErrBlankStudent.Error()})
	}
	totalFee, err := ledger.CheckTotalFee(in.TotalFee)
	if err != nil {
		return student.Student{}, err
	}
	done, err := begin(d.studentInFlight)
	if err != nil {
		return student.Student{}, err
	}
	defer done()

	st, err := d.remote.AddStudent(ctx, student.NewStudent{
		Name:        name,
		ClassStd:    core.CleanString(in.ClassStd),
		RollNo:      core.CleanString(in.RollNo),
		ParentPhone: core.CleanString(in.ParentPhone),
		Address:     core.CleanString(in.Address),
		TotalFee:    totalFee,
	})
	if err != nil {
		return student.Student{}, err
	}
	return st, d.refreshStudents(ctx)
}

// OpenLedger opens the fee ledger of a student from the current list.
func (d *Desk) OpenLedger(ctx context.Context, studentID int) (*ledger.View, error) {
	st, ok := d.Student(studentID)
	if !ok {
		return nil, errors.Errorf("student %d is not in the list", studentID)
	}
	v := ledger.NewView(d.remote)
	if err := v.Open(ctx, st); err != nil {
		return nil, err
	}
	return v, nil
}

// RecordPayment records through the open ledger and replaces the student list with the refetched one.
func (d *Desk) RecordPayment(ctx context.Context, v *ledger.View, amount, paidOn string) error {
	students, err := v.RecordPayment(ctx, amount, paidOn)
	if students != nil {
		d.setStudents(students)
	}
	return err
}

// EditFee overwrites the open student's total fee and replaces the student list.
func (d *Desk) EditFee(ctx context.Context, v *ledger.View, totalFee string) error {
	students, err := v.EditFee(ctx, totalFee)
	if students != nil {
		d.setStudents(students)
	}
	return err
}

// CreateBatch trims the name, rejects a blank one, then refetches the batch list.
func (d *Desk) CreateBatch(ctx context.Context, name string) error {
	name = core.CleanString(name)
	if name == "" {
		return core.NewValidationError(ErrBlankName, core.FieldError{Field: "batch_name", Error: ErrBlankName.Error()})
	}
	done, err := begin(d.createInFlight)
	if err != nil {
		return err
	}
	defer done()

	if err = d.remote.CreateBatch(ctx, name); err != nil {
		return err
	}
	return d.refreshBatches(ctx)
}

// DeleteBatch removes b after confirmation and forgets every view pointing at it.
func (d *Desk) DeleteBatch(ctx context.Context, b batch.Batch, confirm Confirm) error {
	if !confirm(fmt.Sprintf("Delete batch %q? Its members and attendance records will be removed. This cannot be undone.", b.Name)) {
		return ErrCancelled
	}
	done, err := begin(d.deleteInFlight)
	if err != nil {
		return err
	}
	defer done()

	if err = d.remote.DeleteBatch(ctx, b.ID); err != nil {
		return err
	}

	d.mu.Lock()
	kept := make([]batch.Batch, 0, len(d.batches))
	for _, x := range d.batches {
		if x.ID != b.ID {
			kept = append(kept, x)
		}
	}
	d.batches = kept
	if d.dialog != nil && d.dialog.Batch.ID == b.ID {
		d.dialog = nil
	}
	d.mu.Unlock()

	d.Session.Forget(b.ID)
	return nil
}

// Manage opens the management dialog for b with an empty selection.
func (d *Desk) Manage(ctx context.Context, b batch.Batch) (*Dialog, error) {
	members, err := d.remote.BatchStudents(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	dialog := &Dialog{Batch: b, Members: members}
	d.mu.Lock()
	d.dialog = dialog
	d.mu.Unlock()
	return dialog, nil
}

// Dialog returns the open management dialog, or nil.
func (d *Desk) Dialog() *Dialog {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dialog
}

// CloseDialog closes the management dialog.
func (d *Desk) CloseDialog() {
	d.mu.Lock()
	d.dialog = nil
	d.mu.Unlock()
}

// Available lists the students that can still join the managed batch.
func (d *Desk) Available() []student.Student {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dialog == nil {
		return nil
	}
	return roster.AvailableStudents(d.students, d.dialog.Members)
}

// AddResult aggregates a multi-student add.
type AddResult struct {
	Added     int
	Requested int
}

func (r AddResult) Message() string {
	if r.Added == r.Requested {
		return fmt.Sprintf("Successfully added %d student(s) to the batch!", r.Added)
	}
	return fmt.Sprintf("Added %d out of %d student(s). Some may already be in the batch.", r.Added, r.Requested)
}

// ToggleSelection picks or unpicks a student in the management dialog.
func (d *Desk) ToggleSelection(studentID int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dialog == nil {
		return ErrNoDialog
	}
	d.dialog.Selection.Toggle(studentID)
	return nil
}

// Pick adds students to the dialog selection; ids already picked stay picked.
func (d *Desk) Pick(ids ...int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dialog == nil {
		return ErrNoDialog
	}
	for _, id := range ids {
		if !d.dialog.Selection.Has(id) {
			d.dialog.Selection.Toggle(id)
		}
	}
	return nil
}

// SelectAllAvailable picks every student not yet in the managed batch.
func (d *Desk) SelectAllAvailable() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dialog == nil {
		return ErrNoDialog
	}
	d.dialog.Selection.SelectAll(roster.AvailableStudents(d.students, d.dialog.Members))
	return nil
}

// AddSelected adds the selected students one request at a time, in selection order.
// Earlier successes stand when a later add fails.
func (d *Desk) AddSelected(ctx context.Context) (AddResult, error) {
	d.mu.Lock()
	dialog := d.dialog
	var ids []int
	if dialog != nil {
		ids = dialog.Selection.IDs()
	}
	d.mu.Unlock()
	if dialog == nil {
		return AddResult{}, ErrNoDialog
	}
	if len(ids) == 0 {
		return AddResult{}, core.NewValidationError(ErrEmptySelection, core.FieldError{Field: "students", Error: ErrEmptySelection.Error()})
	}
	done, err := begin(d.addInFlight)
	if err != nil {
		return AddResult{}, err
	}
	defer done()

	res := AddResult{Requested: len(ids)}
	for _, id := range ids {
		if err := d.remote.AddStudentToBatch(ctx, dialog.Batch.ID, id); err == nil {
			res.Added++
		}
	}
	d.mu.Lock()
	dialog.Selection.Clear()
	d.mu.Unlock()
	return res, d.afterMembershipChange(ctx, dialog)
}

// RemoveMember removes m from the managed batch after confirmation naming both.
func (d *Desk) RemoveMember(ctx context.Context, m batch.Member, confirm Confirm) error {
	dialog := d.Dialog()
	if dialog == nil {
		return ErrNoDialog
	}
	if !confirm(fmt.Sprintf("Remove %s from %s?", m.Name, dialog.Batch.Name)) {
		return ErrCancelled
	}
	done, err := begin(d.removeInFlight)
	if err != nil {
		return err
	}
	defer done()

	if err = d.remote.RemoveStudentFromBatch(ctx, dialog.Batch.ID, m.ID); err != nil {
		return err
	}
	return d.afterMembershipChange(ctx, dialog)
}

// afterMembershipChange refetches the dialog members, and the main roster when it shows the same batch.
func (d *Desk) afterMembershipChange(ctx context.Context, dialog *Dialog) error {
	members, err := d.remote.BatchStudents(ctx, dialog.Batch.ID)
	if err != nil {
		return err
	}
	d.mu.Lock()
	dialog.Members = members
	d.mu.Unlock()

	if open, ok := d.Session.Batch(); ok && open.ID == dialog.Batch.ID {
		return d.Session.Reload(ctx)
	}
	return nil
}

// assert the API client drives the desk
var _ Remote = (*client.Client)(nil)
