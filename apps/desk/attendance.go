package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssacademy/backoffice/core"
)

func newAttendanceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Mark and review attendance",
	}
	cmd.AddCommand(newAttendanceMarkCmd(a), newAttendanceHistoryCmd(a))
	return cmd
}

func newAttendanceMarkCmd(a *app) *cobra.Command {
	var (
		date   string
		absent []int
	)
	cmd := &cobra.Command{
		Use:   "mark BATCH_ID",
		Short: "Mark the whole roster of a batch; students are present unless listed with --absent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.lookupBatch(cmd, args[0])
			if err != nil {
				return err
			}
			s := a.desk.Session
			if err = s.Select(cmd.Context(), b); err != nil {
				return err
			}
			for _, id := range absent {
				if err = s.Toggle(id); err != nil {
					return err
				}
			}
			if date == "" {
				date = core.Today().String()
			}
			if _, err = s.Submit(cmd.Context(), date); err != nil {
				return err
			}
			if err = s.CopyReport(a.out); err != nil {
				return err
			}
			fmt.Fprintln(a.out)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "attendance date (YYYY-MM-DD), defaults to today")
	cmd.Flags().IntSliceVar(&absent, "absent", nil, "ids of absent students")
	return cmd
}

func newAttendanceHistoryCmd(a *app) *cobra.Command {
	var studentID int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show attendance history per student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.flags.LoggedIn() {
				return errNotLoggedIn
			}
			history, err := a.client.AttendanceHistory(cmd.Context())
			if err != nil {
				return err
			}
			ids := make([]int, 0, len(history))
			for id := range history {
				if studentID == 0 || id == studentID {
					ids = append(ids, id)
				}
			}
			sort.Ints(ids)
			if len(ids) == 0 {
				fmt.Fprintln(a.out, "No attendance recorded.")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			for _, id := range ids {
				h := history[id]
				fmt.Fprintf(tw, "%s (id %d)\n", h.StudentName, id)
				for _, e := range h.Attendance {
					fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", e.Date, e.BatchName, e.Status, e.MarkedBy)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&studentID, "student", 0, "only this student")
	return cmd
}
