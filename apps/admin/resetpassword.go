package main

import (
	"context"

	"github.com/ssacademy/backoffice/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	sp := user.SetUserPassword{Username: uname, Password: pwd, PasswordConfirm: pwd}
	if err := sp.Validate(cli.validate); err != nil {
		return err
	}
	_, err := cli.usrSvc.SetPassword(context.Background(), sp)
	return err
}
