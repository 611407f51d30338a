package di

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/ssacademy/backoffice/apps/api/echo"
	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/attendance"
	"github.com/ssacademy/backoffice/core/batch"
	"github.com/ssacademy/backoffice/core/fee"
	"github.com/ssacademy/backoffice/core/student"
	"github.com/ssacademy/backoffice/core/user"
	emailsvc "github.com/ssacademy/backoffice/services/email"
	logsvc "github.com/ssacademy/backoffice/services/logger"
	"github.com/ssacademy/backoffice/storage/database"
	inmemdb "github.com/ssacademy/backoffice/storage/database/inmem"
	"github.com/ssacademy/backoffice/storage/database/sqlxrepos"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// DBParam is empty when the app runs on the in-memory store.
	DBParam struct {
		dig.In
		DB *sqlx.DB `optional:"true"`
	}

	Repositories struct {
		dig.Out
		Users      user.Repository
		Students   student.Repository
		Fees       fee.Repository
		Batches    batch.Repository
		Attendance attendance.Repository
	}

	serverParams struct {
		dig.In
		Conf          *core.Config
		Logger        core.Logger
		Validate      *validator.Validate
		Translator    ut.Translator
		UserSvc       user.Service
		StudentSvc    student.Service
		FeeSvc        fee.Service
		BatchSvc      batch.Service
		AttendanceSvc attendance.Service
	}
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newSQLRepositories(db *sqlx.DB) Repositories {
	return Repositories{
		Users:      sqlxrepos.NewUserRepository(db),
		Students:   sqlxrepos.NewStudentRepository(db),
		Fees:       sqlxrepos.NewFeeRepository(db),
		Batches:    sqlxrepos.NewBatchRepository(db),
		Attendance: sqlxrepos.NewAttendanceRepository(db),
	}
}

func newMemRepositories(db *inmemdb.DB) Repositories {
	return Repositories{
		Users:      inmemdb.NewUserRepository(db),
		Students:   inmemdb.NewStudentRepository(db),
		Fees:       inmemdb.NewFeeRepository(db),
		Batches:    inmemdb.NewBatchRepository(db),
		Attendance: inmemdb.NewAttendanceRepository(db),
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newValidate(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

func newAttendanceService(
	conf *core.Config,
	repo attendance.Repository,
	batchSvc batch.Service,
	mailSvc core.EmailService,
) attendance.Service {
	return attendance.NewService(attendance.Options{
		Repo:       repo,
		Batches:    batchSvc,
		MailSvc:    mailSvc,
		Recipients: conf.Mail.ReportRecipients,
	})
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		UserSvc:       p.UserSvc,
		StudentSvc:    p.StudentSvc,
		FeeSvc:        p.FeeSvc,
		BatchSvc:      p.BatchSvc,
		AttendanceSvc: p.AttendanceSvc,
	})
}

// seedDemoAdmin creates an admin account on an empty in-memory store when demo.adminPassword is set.
func seedDemoAdmin(conf *core.Config, logger core.Logger, validate *validator.Validate, usrSvc user.Service) error {
	pwd := conf.Viper().GetString("demo.adminPassword")
	if pwd == "" {
		logger.Warn("in-memory store has no users; set demo.adminPassword to seed an admin")
		return nil
	}
	nu := user.NewUser{Name: "Administrator", Username: "admin", Role: user.RoleAdmin, Password: pwd, PasswordConfirm: pwd}
	if err := nu.Validate(validate, usrSvc); err != nil {
		return errors.Wrap(err, "validating demo admin")
	}
	if _, err := usrSvc.Create(context.Background(), nu); err != nil {
		return errors.Wrap(err, "creating demo admin")
	}
	logger.Info("demo admin created: admin")
	return nil
}

// New returns a new dependency injection dig.Container.
// With inMemory set, the app runs on the process-local store and no database is opened.
func New(inMemory bool) *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	if inMemory {
		must(c.Provide(inmemdb.Open))
		must(c.Provide(newMemRepositories))
	} else {
		must(c.Provide(newDB))
		must(c.Provide(newSQLRepositories))
	}
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(newTranslator))
	must(c.Provide(newValidate))
	must(c.Provide(user.NewService))
	must(c.Provide(student.NewService))
	must(c.Provide(fee.NewService))
	must(c.Provide(batch.NewService))
	must(c.Provide(newAttendanceService))
	must(c.Provide(newServer))

	if inMemory {
		must(c.Invoke(seedDemoAdmin))
	}
	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
