package core_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ssacademy/backoffice/tests"
)

func TestInitValidators(t *testing.T) {
	validate, translator := testutil.NewValidator()

	type form struct {
		Name   string          `json:"name" validate:"notblank"`
		Date   string          `json:"date" validate:"omitempty,isodate"`
		Total  decimal.Decimal `json:"total" validate:"money"`
		Amount decimal.Decimal `json:"amount" validate:"posmoney"`
	}
	valid := form{Name: "Ravi", Date: "2024-01-15", Total: decimal.Zero, Amount: decimal.NewFromInt(1)}

	tests := []struct {
		name      string
		mutate    func(f *form)
		wantField string
		wantMsg   string
	}{
		{name: "valid", mutate: func(*form) {}},
		{name: "blank name", mutate: func(f *form) { f.Name = "  " }, wantField: "name", wantMsg: "this field cannot be blank"},
		{name: "bad date", mutate: func(f *form) { f.Date = "2024-1-5" }, wantField: "date", wantMsg: "date must be in the YYYY-MM-DD format"},
		{name: "negative total", mutate: func(f *form) { f.Total = decimal.NewFromInt(-1) }, wantField: "total",
			wantMsg: "amount must be a number greater than or equal to 0"},
		{name: "zero amount", mutate: func(f *form) { f.Amount = decimal.Zero }, wantField: "amount",
			wantMsg: "amount must be a number greater than 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			err := validate.Struct(f)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Struct() error = %v", err)
				}
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			if !ok || len(vErrs) != 1 {
				t.Fatalf("Struct() error = %v; want one field error", err)
			}
			if vErrs[0].Field() != tt.wantField || vErrs[0].Translate(translator) != tt.wantMsg {
				t.Errorf("got %s: %q; want %s: %q", vErrs[0].Field(), vErrs[0].Translate(translator), tt.wantField, tt.wantMsg)
			}
		})
	}
}
