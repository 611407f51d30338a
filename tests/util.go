package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/batch"
	"github.com/ssacademy/backoffice/core/student"
	"github.com/ssacademy/backoffice/core/user"
	logsvc "github.com/ssacademy/backoffice/services/logger"
)

// NewConfig returns the app config in test mode.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.TestMode = true
	conf.Debug = false
	return conf
}

// NewLogger returns a logger that discards everything.
func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)
	return logger
}

func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(t *testing.T, repo user.Repository, name, uname, pwd, role string, isActive bool) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  uname,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(t *testing.T, repo student.Repository, name, totalFee string) student.Student {
	t.Helper()
	now := time.Now().UTC()
	st, err := repo.CreateStudent(context.Background(), student.Student{
		Name:      name,
		TotalFee:  decimal.RequireFromString(totalFee),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return st
}

func CreateBatch(t *testing.T, repo batch.Repository, name string, memberIDs ...int) batch.Batch {
	t.Helper()
	ctx := context.Background()
	b, err := repo.CreateBatch(ctx, batch.Batch{Name: name, CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("CreateBatch() failed: %v", err)
	}
	for _, id := range memberIDs {
		if err = repo.AddMember(ctx, b.ID, id); err != nil {
			t.Fatalf("CreateBatch() failed to add member %d: %v", id, err)
		}
	}
	return b
}

// Dec parses a decimal literal.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
