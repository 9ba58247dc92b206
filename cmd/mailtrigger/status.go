package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the database, the mail provider and the operator identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, rt *runtime) error {
				report := rt.status(ctx)

				if c.json {
					if err := c.writeJSON(report); err != nil {
						return err
					}
					return report.Err()
				}

				rows := make([][]string, 0, len(report.Checks))
				for _, name := range report.Names() {
					check := report.Checks[name]
					rows = append(rows, []string{name, check.Status, orDash(check.Error)})
				}
				if err := c.writeTable([]string{"CHECK", "STATUS", "ERROR"}, rows); err != nil {
					return err
				}
				return report.Err()
			})
		},
	}
}
