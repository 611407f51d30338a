package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ssacademy/backoffice/core/batch"
)

func newBatchesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batches",
		Short: "Batches and their rosters",
	}
	cmd.PersistentFlags().BoolVarP(&a.yes, "yes", "y", false, "do not ask for confirmation")
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List batches",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := a.requireLogin(cmd.Context()); err != nil {
					return err
				}
				for _, b := range a.desk.Batches() {
					fmt.Fprintf(a.out, "%d\t%s\n", b.ID, b.Name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create a batch",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.requireLogin(cmd.Context()); err != nil {
					return err
				}
				if err := a.desk.CreateBatch(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Batch created.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete BATCH_ID",
			Short: "Delete a batch with its memberships and attendance",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				b, err := a.lookupBatch(cmd, args[0])
				if err != nil {
					return err
				}
				if err = a.desk.DeleteBatch(cmd.Context(), b, a.confirmFunc()); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Deleted %s.\n", b.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "members BATCH_ID",
			Short: "List the students in a batch",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				b, err := a.lookupBatch(cmd, args[0])
				if err != nil {
					return err
				}
				dialog, err := a.desk.Manage(cmd.Context(), b)
				if err != nil {
					return err
				}
				if len(dialog.Members) == 0 {
					fmt.Fprintln(a.out, "No students in this batch.")
				}
				for _, m := range dialog.Members {
					fmt.Fprintf(a.out, "%d\t%s\n", m.ID, m.Name)
				}
				return nil
			},
		},
		newBatchesAddCmd(a),
		&cobra.Command{
			Use:   "remove BATCH_ID STUDENT_ID",
			Short: "Remove a student from a batch",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				b, err := a.lookupBatch(cmd, args[0])
				if err != nil {
					return err
				}
				id, err := parseID("student", args[1])
				if err != nil {
					return err
				}
				dialog, err := a.desk.Manage(cmd.Context(), b)
				if err != nil {
					return err
				}
				for _, m := range dialog.Members {
					if m.ID == id {
						if err = a.desk.RemoveMember(cmd.Context(), m, a.confirmFunc()); err != nil {
							return err
						}
						fmt.Fprintf(a.out, "Removed %s from %s.\n", m.Name, b.Name)
						return nil
					}
				}
				return errors.Errorf("student %d is not in %s", id, b.Name)
			},
		},
	)
	return cmd
}

func newBatchesAddCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "add BATCH_ID [STUDENT_ID...]",
		Short: "Add students to a batch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.lookupBatch(cmd, args[0])
			if err != nil {
				return err
			}
			ids := make([]int, 0, len(args)-1)
			for _, arg := range args[1:] {
				id, err := parseID("student", arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			if _, err = a.desk.Manage(cmd.Context(), b); err != nil {
				return err
			}
			if all {
				if err = a.desk.SelectAllAvailable(); err != nil {
					return err
				}
			}
			if err = a.desk.Pick(ids...); err != nil {
				return err
			}
			res, err := a.desk.AddSelected(cmd.Context())
			if res.Requested > 0 {
				fmt.Fprintln(a.out, res.Message())
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "add every student not yet in the batch")
	return cmd
}

func (a *app) lookupBatch(cmd *cobra.Command, arg string) (batch.Batch, error) {
	id, err := parseID("batch", arg)
	if err != nil {
		return batch.Batch{}, err
	}
	if err = a.requireLogin(cmd.Context()); err != nil {
		return batch.Batch{}, err
	}
	b, ok := a.desk.Batch(id)
	if !ok {
		return batch.Batch{}, errors.Errorf("batch %d not found", id)
	}
	return b, nil
}

func (a *app) confirmFunc() func(string) bool {
	if a.yes {
		return func(string) bool { return true }
	}
	return a.confirm
}
