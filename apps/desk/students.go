package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ssacademy/backoffice/client/ledger"
	"github.com/ssacademy/backoffice/client/workflow"
)

func parseID(what, arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid %s id: %q", what, arg)
	}
	return id, nil
}

func newStudentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "students",
		Short: "Student records and fee ledgers",
	}
	cmd.AddCommand(
		newStudentsListCmd(a),
		newStudentsAddCmd(a),
		newStudentsEditFeeCmd(a),
		newStudentsPayCmd(a),
		newStudentsHistoryCmd(a),
	)
	return cmd
}

func newStudentsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List students with their fee balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireLogin(cmd.Context()); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCLASS\tROLL\tTOTAL\tPAID\tREMAINING")
			for _, st := range a.desk.Students() {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", st.ID, st.Name, st.ClassStd, st.RollNo,
					st.TotalFee.StringFixed(2), st.PaidFee.StringFixed(2), st.RemainingFee.StringFixed(2))
			}
			return tw.Flush()
		},
	}
}

func newStudentsAddCmd(a *app) *cobra.Command {
	var in workflow.StudentInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireLogin(cmd.Context()); err != nil {
				return err
			}
			st, err := a.desk.AddStudent(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added %s (id %d)\n", st.Name, st.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "student name")
	f.StringVar(&in.ClassStd, "class", "", "class / standard")
	f.StringVar(&in.RollNo, "roll", "", "roll number")
	f.StringVar(&in.ParentPhone, "phone", "", "parent phone")
	f.StringVar(&in.Address, "address", "", "address")
	f.StringVar(&in.TotalFee, "fee", "0", "total fee")
	return cmd
}

// openLedger loads the desk and opens the ledger of the student named by arg.
func (a *app) openLedger(cmd *cobra.Command, arg string) (*ledger.View, error) {
	id, err := parseID("student", arg)
	if err != nil {
		return nil, err
	}
	if err = a.requireLogin(cmd.Context()); err != nil {
		return nil, err
	}
	return a.desk.OpenLedger(cmd.Context(), id)
}

func (a *app) printSummary(v *ledger.View) {
	st, sum := v.Student(), v.Summary()
	fmt.Fprintf(a.out, "%s: total %s, paid %s, remaining %s\n",
		st.Name, st.TotalFee.StringFixed(2), sum.PaidTotal.StringFixed(2), sum.Remaining.StringFixed(2))
}

func newStudentsEditFeeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit-fee STUDENT_ID TOTAL_FEE",
		Short: "Overwrite a student's total fee",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.openLedger(cmd, args[0])
			if err != nil {
				return err
			}
			if err = a.desk.EditFee(cmd.Context(), v, args[1]); err != nil {
				return err
			}
			a.printSummary(v)
			return nil
		},
	}
}

func newStudentsPayCmd(a *app) *cobra.Command {
	var paidOn string
	cmd := &cobra.Command{
		Use:   "pay STUDENT_ID AMOUNT",
		Short: "Record a fee payment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.openLedger(cmd, args[0])
			if err != nil {
				return err
			}
			if err = a.desk.RecordPayment(cmd.Context(), v, args[1], paidOn); err != nil {
				return err
			}
			a.printSummary(v)
			return nil
		},
	}
	cmd.Flags().StringVar(&paidOn, "date", "", "payment date (YYYY-MM-DD), defaults to today")
	return cmd
}

func newStudentsHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history STUDENT_ID",
		Short: "Show a student's payment history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.openLedger(cmd, args[0])
			if err != nil {
				return err
			}
			a.printSummary(v)
			if len(v.History()) == 0 {
				fmt.Fprintln(a.out, "No payments recorded.")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tAMOUNT\tREMAINING AFTER")
			for _, p := range v.History() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.PaidOn, p.PaidAmount.StringFixed(2), p.RemainingAmount.StringFixed(2))
			}
			return tw.Flush()
		},
	}
}
