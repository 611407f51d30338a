package batch

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ssacademy/backoffice/core"
)

var (
	// errors
	ErrNotFound        = errors.New("batch not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrNameExists      = errors.New("a batch with this name already exists")
	ErrAlreadyMember   = errors.New("student is already in this batch")
	ErrNotMember       = errors.New("student is not in this batch")
)

type (
	Repository interface {
		NameExists(ctx context.Context, name string) (bool, error)
		CreateBatch(ctx context.Context, b Batch) (Batch, error)
		QueryBatches(ctx context.Context) ([]Batch, error)
		GetBatch(ctx context.Context, id int) (Batch, error)
		// DeleteBatch removes the batch along with its memberships and attendance records.
		DeleteBatch(ctx context.Context, id int) error
		// QueryMembers lists the batch's students ordered by name.
		QueryMembers(ctx context.Context, batchID int) ([]Member, error)
		AddMember(ctx context.Context, batchID, studentID int) error
		RemoveMember(ctx context.Context, batchID, studentID int) error
	}

	Service interface {
		Create(ctx context.Context, nb NewBatch) (Batch, error)
		QueryAll(ctx context.Context) ([]Batch, error)
		GetByID(ctx context.Context, id int) (Batch, error)
		Delete(ctx context.Context, id int) error
		Members(ctx context.Context, id int) ([]Member, error)
		AddStudent(ctx context.Context, as AddStudent) error
		RemoveStudent(ctx context.Context, batchID, studentID int) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, nb NewBatch) (Batch, error) {
	exists, err := svc.repo.NameExists(ctx, nb.Name)
	if err != nil {
		return Batch{}, errors.Wrap(err, "checking batch name uniqueness")
	}
	if exists {
		return Batch{}, core.NewValidationError(ErrNameExists, core.FieldError{Field: "batch_name", Error: ErrNameExists.Error()})
	}
	return svc.repo.CreateBatch(ctx, Batch{Name: nb.Name, CreatedAt: time.Now().UTC()})
}

func (svc *service) QueryAll(ctx context.Context) ([]Batch, error) {
	return svc.repo.QueryBatches(ctx)
}

func (svc *service) GetByID(ctx context.Context, id int) (Batch, error) {
	return svc.repo.GetBatch(ctx, id)
}

func (svc *service) Delete(ctx context.Context, id int) error {
	if _, err := svc.repo.GetBatch(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteBatch(ctx, id)
}

func (svc *service) Members(ctx context.Context, id int) ([]Member, error) {
	if _, err := svc.repo.GetBatch(ctx, id); err != nil {
		return nil, err
	}
	return svc.repo.QueryMembers(ctx, id)
}

// AddStudent adds one student to a batch. Adding an existing member fails with ErrAlreadyMember.
func (svc *service) AddStudent(ctx context.Context, as AddStudent) error {
	if _, err := svc.repo.GetBatch(ctx, as.BatchID); err != nil {
		return err
	}
	return svc.repo.AddMember(ctx, as.BatchID, as.StudentID)
}

func (svc *service) RemoveStudent(ctx context.Context, batchID, studentID int) error {
	if _, err := svc.repo.GetBatch(ctx, batchID); err != nil {
		return err
	}
	return svc.repo.RemoveMember(ctx, batchID, studentID)
}
