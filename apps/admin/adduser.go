package main

import (
	"context"
	"fmt"

	"github.com/ssacademy/backoffice/core/user"
)

// addUser creates a staff account after applying the username and password policies.
func (cli *commandLine) addUser(name, uname, role, pwd string) error {
	nu := user.NewUser{
		Name:            name,
		Username:        uname,
		Role:            role,
		Password:        pwd,
		PasswordConfirm: pwd,
	}
	if err := nu.Validate(cli.validate, cli.usrSvc); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(context.Background(), nu)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created %s %q (id %d)\n", usr.Role, usr.Username, usr.ID)
	return nil
}
