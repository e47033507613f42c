package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ats-resume-checker/internal/analyses"
	"ats-resume-checker/internal/reports"
)

func (c *cli) reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <id>",
		Short: "Print a stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, release, err := c.deps.openStore(ctx, c.cfg)
			if err != nil {
				return fmt.Errorf("%w: %v", reports.ErrUnavailable, err)
			}
			defer release()

			svc := &analyses.Service{Store: store}
			report, err := svc.GetReport(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}
