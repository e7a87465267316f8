package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"happytube/internal/status"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var dateFlag string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show per-stage record counts and report presence for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			day, err := parseDate(dateFlag)
			if err != nil {
				return err
			}

			summary, err := status.Inspect(cfg, day)
			if err != nil {
				return fmt.Errorf("inspect %s: %w", day.Format("2006-01-02"), err)
			}

			rows := make([][]string, 0, len(summary.Stages)+1)
			for _, stageStatus := range summary.Stages {
				rows = append(rows, []string{
					stageStatus.Label,
					yesNo(stageStatus.Present),
					fmt.Sprintf("%d", stageStatus.Records),
				})
			}
			rows = append(rows, []string{"Report", yesNo(summary.HasReport), ""})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Pipeline status for %s\n", summary.Date)
			fmt.Fprintln(out, renderTable(
				[]string{"Stage", "Present", "Records"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			if summary.HasReport {
				fmt.Fprintf(out, "Report: %s\n", summary.ReportPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dateFlag, "date", "d", "", "Processing date (YYYY-MM-DD, default today)")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
