package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

// settled must be called with the lock held.
func (repo *studentRepository) settled(st student.Student) student.Student {
	paid := decimal.Zero
	for _, p := range repo.db.payments[st.ID] {
		paid = paid.Add(p.PaidAmount)
	}
	st.Settle(paid)
	return st
}

func (repo *studentRepository) CreateStudent(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	st.ID = repo.db.nextID("student")
	repo.db.students[st.ID] = &st
	return repo.settled(st), nil
}

func (repo *studentRepository) QueryStudents(_ context.Context, ordering []core.DBOrdering) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	students := make([]student.Student, 0, len(repo.db.students))
	for _, st := range repo.db.students {
		students = append(students, repo.settled(*st))
	}
	sort.SliceStable(students, func(i, j int) bool { return lessStudent(students[i], students[j], ordering) })
	return students, nil
}

func lessStudent(a, b student.Student, ordering []core.DBOrdering) bool {
	for _, ord := range ordering {
		var cmp int
		switch ord.Field {
		case "name":
			cmp = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case "class_std":
			cmp = strings.Compare(a.ClassStd, b.ClassStd)
		case "roll_no":
			cmp = strings.Compare(a.RollNo, b.RollNo)
		case "total_fee":
			cmp = a.TotalFee.Cmp(b.TotalFee)
		case "id":
			cmp = a.ID - b.ID
		}
		if cmp == 0 {
			continue
		}
		if ord.Ascending {
			return cmp < 0
		}
		return cmp > 0
	}
	return a.ID < b.ID
}

func (repo *studentRepository) GetStudent(_ context.Context, id int) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	st, ok := repo.db.students[id]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	return repo.settled(*st), nil
}

func (repo *studentRepository) UpdateTotalFee(_ context.Context, st student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	orig, ok := repo.db.students[st.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	orig.TotalFee = st.TotalFee
	orig.UpdatedAt = st.UpdatedAt
	return repo.settled(*orig), nil
}
