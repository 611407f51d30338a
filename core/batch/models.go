package batch

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ssacademy/backoffice/core"
)

// Batch is a named group of students sharing attendance sessions.
type Batch struct {
	ID        int       `json:"id"`
	Name      string    `json:"batch_name"`
	CreatedAt time.Time `json:"-"`
}

// Member is a student belonging to a batch.
type Member struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type NewBatch struct {
	Name string `json:"batch_name" validate:"notblank,max=80"`
}

func (nb *NewBatch) Validate(validate *validator.Validate) error {
	nb.Name = core.CleanString(nb.Name)
	return validate.Struct(nb)
}

type AddStudent struct {
	BatchID   int `json:"batch_id" validate:"required,gt=0"`
	StudentID int `json:"student_id" validate:"required,gt=0"`
}

func (as *AddStudent) Validate(validate *validator.Validate) error {
	return validate.Struct(as)
}
