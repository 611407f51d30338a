package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/ssacademy/backoffice/core/fee"
)

// ledgerCheck replays every student's payments against their current total fee.
// Mismatches are reported, not repaired: an edited total fee leaves older snapshots as they were.
func (cli *commandLine) ledgerCheck() error {
	ctx := context.Background()
	students, err := cli.studentSvc.QueryAll(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}

	var flagged int
	for _, st := range students {
		history, err := cli.feeSvc.History(ctx, st.ID)
		if err != nil {
			return errors.Wrapf(err, "querying payments of student %d", st.ID)
		}
		mismatches := fee.CheckLedger(st.TotalFee, history)
		if len(mismatches) == 0 {
			continue
		}
		flagged++
		fmt.Fprintf(cli.out, "%s (id %d, total fee %s):\n", st.Name, st.ID, st.TotalFee.StringFixed(2))
		for _, m := range mismatches {
			fmt.Fprintf(cli.out, "  %s\n", m)
		}
	}
	fmt.Fprintf(cli.out, "%d student(s) checked, %d with a diverging ledger\n", len(students), flagged)
	return nil
}
