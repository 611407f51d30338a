// Command desk is the terminal front-end of the back office.
package main

import (
	"fmt"
	"os"

	"github.com/ssacademy/backoffice/client/credentials"
	"github.com/ssacademy/backoffice/core"
)

func main() {
	conf := core.NewConfig()

	path, err := credentials.DefaultPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	a := &app{
		conf:  conf,
		in:    os.Stdin,
		out:   os.Stdout,
		store: credentials.NewStore(path),
	}
	if err := execute(a, os.Args[1:]...); err != nil {
		os.Exit(1)
	}
}
