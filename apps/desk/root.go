package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ssacademy/backoffice/client"
	"github.com/ssacademy/backoffice/client/credentials"
	"github.com/ssacademy/backoffice/client/workflow"
	"github.com/ssacademy/backoffice/core"
)

var readPasswordFunc = term.ReadPassword // mockable

var errNotLoggedIn = errors.New("you are not logged in, run: desk login USERNAME")

type app struct {
	conf  *core.Config
	in    io.Reader
	out   io.Writer
	store *credentials.Store
	yes   bool

	lines  *bufio.Reader
	flags  credentials.Flags
	client *client.Client
	desk   *workflow.Desk
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "desk",
		Short:         a.conf.AppName + " back office",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.out)
	root.PersistentFlags().StringVar(&a.conf.Desk.BaseURL, "server", a.conf.Desk.BaseURL, "API base URL")
	root.PersistentFlags().DurationVar(&a.conf.Desk.Timeout, "timeout", a.conf.Desk.Timeout, "per-request timeout")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newStudentsCmd(a),
		newBatchesCmd(a),
		newAttendanceCmd(a),
	)
	return root
}

// execute runs one invocation and prints any error the way the front-end surfaces it.
func execute(a *app, args ...string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(a.out, "Error:", describe(err))
	}
	return err
}

func (a *app) init() error {
	c, err := client.New(client.ConfigFrom(a.conf))
	if err != nil {
		return err
	}
	if a.flags, err = a.store.Load(); err != nil {
		return err
	}
	c.SetToken(a.flags.Token)
	a.client = c
	a.desk = workflow.NewDesk(c)
	a.lines = bufio.NewReader(a.in)
	return nil
}

// requireLogin loads the desk lists for commands that need a session.
func (a *app) requireLogin(ctx context.Context) error {
	if !a.flags.LoggedIn() {
		return errNotLoggedIn
	}
	return a.desk.Load(ctx)
}

// describe renders an error per its kind: transport, rejection or local validation.
func describe(err error) string {
	switch {
	case client.IsTransport(err):
		return "could not reach the server, please check your connection and try again"
	case client.IsRejected(err):
		return err.Error()
	}
	if vErr, ok := errors.Cause(err).(*core.ValidationError); ok && len(vErr.Fields) > 0 {
		msgs := make([]string, 0, len(vErr.Fields))
		for _, f := range vErr.Fields {
			msgs = append(msgs, f.Error)
		}
		return strings.Join(msgs, "; ")
	}
	return err.Error()
}

// confirm asks a yes/no question on the terminal.
func (a *app) confirm(prompt string) bool {
	fmt.Fprintf(a.out, "%s [y/N] ", prompt)
	answer, _ := a.lines.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func (a *app) readPassword() (string, error) {
	fmt.Fprint(a.out, "Password: ")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(a.out)
	return string(pwd), err
}

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login USERNAME",
		Short: "Log in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := a.readPassword()
			if err != nil {
				return err
			}
			token, usr, err := a.client.Login(cmd.Context(), args[0], pwd)
			if err != nil {
				return err
			}
			if err = a.store.Save(credentials.Flags{Token: token, Role: usr.Role}); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Welcome, %s (%s)\n", usr.Name, usr.Role)
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}
