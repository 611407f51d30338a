package attendance

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/batch"
)

var (
	// errors
	ErrDuplicateStudent = errors.New("a student appears more than once")
	ErrNotMember        = errors.New("a student is not a member of this batch")
	ErrIncompleteRoster = errors.New("every student of the batch must be marked")
	ErrEmptyBatch       = errors.New("batch has no students")
)

type (
	Repository interface {
		// SaveRecords upserts records keyed on (batch, student, date).
		SaveRecords(ctx context.Context, records []Record) error
		// QueryHistory lists every record joined with student and batch names, ordered by date.
		QueryHistory(ctx context.Context) ([]HistoryRow, error)
	}

	// BatchFinder is the part of batch.Service attendance depends on.
	BatchFinder interface {
		GetByID(ctx context.Context, id int) (batch.Batch, error)
		Members(ctx context.Context, id int) ([]batch.Member, error)
	}

	Service interface {
		MarkBatch(ctx context.Context, mb MarkBatch, markedBy string) (string, error)
		StudentHistory(ctx context.Context) (map[int]StudentHistory, error)
	}

	Options struct {
		Repo       Repository
		Batches    BatchFinder
		MailSvc    core.EmailService // optional
		Recipients []mail.Address
	}

	service struct {
		repo       Repository
		batches    BatchFinder
		mailSvc    core.EmailService
		recipients []mail.Address
	}
)

var _ Service = (*service)(nil)

func NewService(opts Options) Service {
	return &service{
		repo:       opts.Repo,
		batches:    opts.Batches,
		mailSvc:    opts.MailSvc,
		recipients: opts.Recipients,
	}
}

// MarkBatch stores the attendance of a whole batch for one date and returns the report text.
// Each member must appear exactly once; resubmitting the same batch and date overwrites.
func (svc *service) MarkBatch(ctx context.Context, mb MarkBatch, markedBy string) (string, error) {
	date, err := core.ParseDate(mb.Date)
	if err != nil {
		return "", core.NewFieldError("date", "date must be in the YYYY-MM-DD format")
	}

	b, err := svc.batches.GetByID(ctx, mb.BatchID)
	if err != nil {
		return "", err
	}
	members, err := svc.batches.Members(ctx, mb.BatchID)
	if err != nil {
		return "", errors.Wrap(err, "querying batch members")
	}
	if err = checkRoster(members, mb.Students); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	records := make([]Record, 0, len(mb.Students))
	for _, e := range mb.Students {
		records = append(records, Record{
			BatchID:   b.ID,
			StudentID: e.StudentID,
			Date:      date,
			Status:    e.Status,
			MarkedBy:  markedBy,
			MarkedAt:  now,
		})
	}
	if err = svc.repo.SaveRecords(ctx, records); err != nil {
		return "", errors.Wrap(err, "saving attendance records")
	}

	report := BuildReport(b, date, members, mb.Students)
	svc.mailReport(b, date, report)
	return report, nil
}

// checkRoster enforces one entry per member, and nothing else.
func checkRoster(members []batch.Member, entries []Entry) error {
	if len(members) == 0 {
		return core.NewFieldError("batch_id", ErrEmptyBatch.Error())
	}
	isMember := make(map[int]bool, len(members))
	for _, m := range members {
		isMember[m.ID] = true
	}
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if seen[e.StudentID] {
			return core.NewFieldError("students", fmt.Sprintf("%s (student %d)", ErrDuplicateStudent, e.StudentID))
		}
		if !isMember[e.StudentID] {
			return core.NewFieldError("students", fmt.Sprintf("%s (student %d)", ErrNotMember, e.StudentID))
		}
		seen[e.StudentID] = true
	}
	if len(seen) != len(members) {
		return core.NewFieldError("students", ErrIncompleteRoster.Error())
	}
	return nil
}

func (svc *service) mailReport(b batch.Batch, date core.Date, report string) {
	if svc.mailSvc == nil || len(svc.recipients) == 0 {
		return
	}
	msg := &core.EmailMessage{
		To:      svc.recipients,
		Subject: fmt.Sprintf("Attendance %s - %s", b.Name, date),
		Text:    report,
	}
	filename := fmt.Sprintf("attendance-%s-%s.txt", strings.ReplaceAll(strings.ToLower(b.Name), " ", "-"), date)
	msg.Attach(filename, "text/plain", []byte(report))
	svc.mailSvc.SendMessages(msg)
}

func (svc *service) StudentHistory(ctx context.Context) (map[int]StudentHistory, error) {
	rows, err := svc.repo.QueryHistory(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance history")
	}
	history := make(map[int]StudentHistory)
	for _, row := range rows {
		h := history[row.StudentID]
		h.StudentName = row.StudentName
		h.Attendance = append(h.Attendance, row.HistoryEntry)
		history[row.StudentID] = h
	}
	return history, nil
}
