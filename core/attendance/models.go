package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ssacademy/backoffice/core"
)

type Status string

const (
	Present Status = "P"
	Absent  Status = "A"
)

// StatusOf maps a roster checkbox to a status: checked students are present.
func StatusOf(checked bool) Status {
	if checked {
		return Present
	}
	return Absent
}

func (s Status) Valid() bool {
	return s == Present || s == Absent
}

// Entry is one student's mark within a batch submission.
type Entry struct {
	StudentID int    `json:"student_id" validate:"required,gt=0"`
	Status    Status `json:"status" validate:"required,oneof=P A"`
}

// MarkBatch is a whole-roster attendance submission for one batch and date.
type MarkBatch struct {
	BatchID  int     `json:"batch_id" validate:"required,gt=0"`
	Date     string  `json:"date" validate:"required,isodate"`
	Students []Entry `json:"students" validate:"required,min=1,dive"`
}

func (mb *MarkBatch) Validate(validate *validator.Validate) error {
	mb.Date = core.CleanString(mb.Date)
	return validate.Struct(mb)
}

// Record is the stored attendance of one student in one batch on one date.
type Record struct {
	BatchID   int
	StudentID int
	Date      core.Date
	Status    Status
	MarkedBy  string
	MarkedAt  time.Time
}

type HistoryEntry struct {
	Date      core.Date `json:"date"`
	BatchName string    `json:"batch_name"`
	Status    Status    `json:"status"`
	MarkedBy  string    `json:"marked_by"`
}

// HistoryRow is a HistoryEntry along with the student it belongs to.
type HistoryRow struct {
	StudentID   int
	StudentName string
	HistoryEntry
}

type StudentHistory struct {
	StudentName string         `json:"student_name"`
	Attendance  []HistoryEntry `json:"attendance"`
}
