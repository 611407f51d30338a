package main

import (
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/fee"
	"github.com/ssacademy/backoffice/core/student"
	"github.com/ssacademy/backoffice/core/user"
	logsvc "github.com/ssacademy/backoffice/services/logger"
	"github.com/ssacademy/backoffice/storage/database"
	"github.com/ssacademy/backoffice/storage/database/sqlxrepos"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()
	rl := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	rl.Enable(!conf.Debug && conf.RollbarToken != "")
	defer rl.Close()
	logger = rl

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()

	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:         db,
		out:        os.Stdout,
		validate:   validate,
		usrSvc:     user.NewService(sqlxrepos.NewUserRepository(db)),
		studentSvc: student.NewService(sqlxrepos.NewStudentRepository(db)),
		feeSvc:     fee.NewService(sqlxrepos.NewFeeRepository(db)),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			log.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
