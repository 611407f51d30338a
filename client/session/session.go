// Package session is the attendance-taking state of the main view.
package session

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/ssacademy/backoffice/client"
	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/attendance"
	"github.com/ssacademy/backoffice/core/batch"
)

type State int

const (
	NoBatchSelected State = iota
	BatchLoaded
	Submitting
	ReportReady
)

func (s State) String() string {
	switch s {
	case BatchLoaded:
		return "batch loaded"
	case Submitting:
		return "submitting"
	case ReportReady:
		return "report ready"
	default:
		return "no batch selected"
	}
}

// DefaultReport is shown when the server accepted the marks but sent no report text.
const DefaultReport = "Attendance marked successfully."

var (
	// errors
	ErrNoBatch     = errors.New("please select a batch")
	ErrEmptyRoster = errors.New("this batch has no students")
	ErrNotInRoster = errors.New("student is not in this batch")
)

// Remote is the part of the API the session uses.
type Remote interface {
	BatchStudents(ctx context.Context, batchID int) ([]batch.Member, error)
	MarkAttendance(ctx context.Context, mb attendance.MarkBatch) (string, error)
}

// Mark is one roster line. Checked means present.
type Mark struct {
	Member  batch.Member
	Checked bool
}

type Session struct {
	remote   Remote
	inFlight *atomic.Bool

	mu      sync.Mutex
	gen     int // bumped on every batch switch; stale responses are dropped
	pending int // id of the batch whose members are being fetched
	state   State
	batch   batch.Batch
	roster  []Mark
	report  string
}

func New(remote Remote) *Session {
	return &Session{remote: remote, inFlight: atomic.NewBool(false)}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Batch returns the selected batch, if any.
func (s *Session) Batch() (batch.Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batch, s.state != NoBatchSelected
}

func (s *Session) Roster() []Mark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Mark(nil), s.roster...)
}

func (s *Session) Report() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Select loads b's members, every one marked present, and drops any previous report.
// It may be called from any state.
func (s *Session) Select(ctx context.Context, b batch.Batch) error {
	s.mu.Lock()
	s.reset()
	gen := s.gen
	s.pending = b.ID
	s.mu.Unlock()

	members, err := s.remote.BatchStudents(ctx, b.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil
	}
	s.pending = 0
	if err != nil {
		return err
	}
	s.batch = b
	s.roster = defaultMarks(members)
	s.state = BatchLoaded
	return nil
}

// Reload reopens the selected batch after a membership change: every member is marked present
// again and the report is dropped, as with Select.
func (s *Session) Reload(ctx context.Context) error {
	b, ok := s.Batch()
	if !ok {
		return nil
	}
	return s.Select(ctx, b)
}

func defaultMarks(members []batch.Member) []Mark {
	marks := make([]Mark, 0, len(members))
	for _, m := range members {
		marks = append(marks, Mark{Member: m, Checked: true})
	}
	return marks
}

// reset drops the selection and invalidates any outstanding fetch or submit. s.mu must be held.
func (s *Session) reset() {
	s.gen++
	s.pending = 0
	s.state = NoBatchSelected
	s.batch = batch.Batch{}
	s.roster = nil
	s.report = ""
}

// Clear returns to NoBatchSelected.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Forget clears the session when it shows, or is still loading, the batch batchID.
// It reports whether it did.
func (s *Session) Forget(batchID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	selected := s.state != NoBatchSelected && s.batch.ID == batchID
	if !selected && (s.pending == 0 || s.pending != batchID) {
		return false
	}
	s.reset()
	return true
}

func (s *Session) Toggle(studentID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.roster {
		if s.roster[i].Member.ID == studentID {
			s.roster[i].Checked = !s.roster[i].Checked
			return nil
		}
	}
	return ErrNotInRoster
}

// SelectAll marks every member present (true) or absent (false).
func (s *Session) SelectAll(checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.roster {
		s.roster[i].Checked = checked
	}
}

// AllSelected is true iff the roster is not empty and every member is checked.
func (s *Session) AllSelected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.roster) == 0 {
		return false
	}
	for _, m := range s.roster {
		if !m.Checked {
			return false
		}
	}
	return true
}

// Payload builds the submission for date with every member in roster order.
func (s *Session) Payload(date string) (attendance.MarkBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payload(date)
}

func (s *Session) payload(date string) (attendance.MarkBatch, error) {
	if s.state == NoBatchSelected {
		return attendance.MarkBatch{}, core.NewFieldError("batch_id", ErrNoBatch.Error())
	}
	if len(s.roster) == 0 {
		return attendance.MarkBatch{}, core.NewFieldError("students", ErrEmptyRoster.Error())
	}
	date = core.CleanString(date)
	if _, err := core.ParseDate(date); err != nil {
		return attendance.MarkBatch{}, core.NewFieldError("date", "date must be in the YYYY-MM-DD format")
	}
	entries := make([]attendance.Entry, 0, len(s.roster))
	for _, m := range s.roster {
		entries = append(entries, attendance.Entry{StudentID: m.Member.ID, Status: attendance.StatusOf(m.Checked)})
	}
	return attendance.MarkBatch{BatchID: s.batch.ID, Date: date, Students: entries}, nil
}

// Submit sends the whole roster in one request. On failure the session goes back to BatchLoaded
// so the teacher can resubmit.
func (s *Session) Submit(ctx context.Context, date string) (string, error) {
	s.mu.Lock()
	mb, err := s.payload(date)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		s.mu.Unlock()
		return "", client.ErrInFlight
	}
	defer s.inFlight.Store(false)
	gen := s.gen
	s.state = Submitting
	s.report = ""
	s.mu.Unlock()

	report, err := s.remote.MarkAttendance(ctx, mb)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		// another batch was selected meanwhile
		return report, err
	}
	if err != nil {
		s.state = BatchLoaded
		return "", err
	}
	if report == "" {
		report = DefaultReport
	}
	s.report = report
	s.state = ReportReady
	return report, nil
}

// CopyReport writes the report to w; it does nothing when there is no report.
func (s *Session) CopyReport(w io.Writer) error {
	report := s.Report()
	if report == "" {
		return nil
	}
	_, err := io.WriteString(w, report)
	return err
}
