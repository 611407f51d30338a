package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ssacademy/backoffice/core"
)

var (
	// errors
	ErrNotFound      = errors.New("student not found")
	ErrFeeBelowPaid  = errors.New("total fee cannot be less than the amount already paid")
	errMissingNewFee = errors.New("total_fee is required")
	orderingFields   = map[string]string{"id": "id", "name": "name", "class_std": "class_std", "roll_no": "roll_no", "total_fee": "total_fee"}
	defaultOrderings = []core.DBOrdering{{Field: "name", Ascending: true}, {Field: "id", Ascending: true}}
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, st Student) (Student, error)
		// QueryStudents returns every student with PaidFee and RemainingFee settled.
		QueryStudents(ctx context.Context, ordering []core.DBOrdering) ([]Student, error)
		GetStudent(ctx context.Context, id int) (Student, error)
		UpdateTotalFee(ctx context.Context, st Student) (Student, error)
	}

	Service interface {
		Create(ctx context.Context, ns NewStudent) (Student, error)
		QueryAll(ctx context.Context, ordering []core.DBOrdering) ([]Student, error)
		GetByID(ctx context.Context, id int) (Student, error)
		UpdateFee(ctx context.Context, id int, uf UpdateFee) (Student, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	st := Student{
		Name:        ns.Name,
		ClassStd:    ns.ClassStd,
		RollNo:      ns.RollNo,
		ParentPhone: ns.ParentPhone,
		Address:     ns.Address,
		TotalFee:    ns.TotalFee,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	st.Settle(st.PaidFee)
	return svc.repo.CreateStudent(ctx, st)
}

func (svc *service) QueryAll(ctx context.Context, ordering []core.DBOrdering) ([]Student, error) {
	ordering = core.FilterOrderings(ordering, orderingFields)
	if len(ordering) == 0 {
		ordering = defaultOrderings
	}
	return svc.repo.QueryStudents(ctx, ordering)
}

func (svc *service) GetByID(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

// UpdateFee overwrites the total fee. Earlier ledger snapshots are left untouched.
func (svc *service) UpdateFee(ctx context.Context, id int, uf UpdateFee) (Student, error) {
	if uf.TotalFee == nil {
		return Student{}, core.NewValidationError(errMissingNewFee, core.FieldError{Field: "total_fee", Error: errMissingNewFee.Error()})
	}
	st, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if uf.TotalFee.LessThan(st.PaidFee) {
		return Student{}, core.NewValidationError(ErrFeeBelowPaid, core.FieldError{Field: "total_fee", Error: ErrFeeBelowPaid.Error()})
	}

	st.TotalFee = *uf.TotalFee
	st.UpdatedAt = time.Now().UTC()
	st.Settle(st.PaidFee)
	return svc.repo.UpdateTotalFee(ctx, st)
}
