package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"happytube/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dateFlag string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline (fetch, assess, enhance, report) for a date",
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

			p, err := pipeline.New(cfg, logger)
			if err != nil {
				return err
			}
			results, err := p.Run(cmd.Context(), day)
			if len(results) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), renderResults(results))
			}
			if err != nil {
				return err
			}
			if failed := failedStages(results); len(failed) > 0 {
				return fmt.Errorf("pipeline finished with failed stages: %s", strings.Join(failed, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dateFlag, "date", "d", "", "Processing date (YYYY-MM-DD, default today)")
	return cmd
}
