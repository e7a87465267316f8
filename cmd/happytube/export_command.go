package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"happytube/internal/analytics"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var dateFlag string
	var stageFlag string
	var daysBack int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a trailing-window SQLite snapshot of a stage bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			day, err := parseDate(dateFlag)
			if err != nil {
				return err
			}
			if daysBack == 0 {
				daysBack = cfg.Processing.DaysBack
			}

			exporter := analytics.NewExporter(cfg, logger)
			snapshot, err := exporter.Export(cmd.Context(), stageFlag, daysBack, day)
			if err != nil {
				return fmt.Errorf("export %s: %w", stageFlag, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s\n", snapshot.Path)
			fmt.Fprintf(out, "%d rows, %d columns", snapshot.Rows, len(snapshot.Columns))
			if snapshot.Skipped > 0 {
				fmt.Fprintf(out, ", %d malformed records skipped", snapshot.Skipped)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&stageFlag, "stage", "s", "", "Stage bucket to export (fetch, assess, enhance)")
	cmd.Flags().IntVar(&daysBack, "days-back", 0, "Window size in days (default from configuration)")
	cmd.Flags().StringVarP(&dateFlag, "date", "d", "", "Window end date (YYYY-MM-DD, default today)")
	_ = cmd.MarkFlagRequired("stage")
	return cmd
}
