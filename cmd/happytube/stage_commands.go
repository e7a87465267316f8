package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"happytube/internal/assess"
	"happytube/internal/config"
	"happytube/internal/enhance"
	"happytube/internal/fetch"
	"happytube/internal/report"
	"happytube/internal/stage"
)

type handlerFactory func(cfg *config.Config, logger *slog.Logger) stage.Handler

func newStageCommands(ctx *commandContext) []*cobra.Command {
	defs := []struct {
		use     string
		short   string
		factory handlerFactory
	}{
		{
			use:   "assess",
			short: "Rate fetched videos for happiness",
			factory: func(cfg *config.Config, logger *slog.Logger) stage.Handler {
				return assess.NewAssessor(cfg, logger)
			},
		},
		{
			use:   "enhance",
			short: "Rewrite descriptions of videos above the happiness threshold",
			factory: func(cfg *config.Config, logger *slog.Logger) stage.Handler {
				return enhance.NewEnhancer(cfg, logger)
			},
		},
		{
			use:   "report",
			short: "Render the daily HTML report and refresh analytics snapshots",
			factory: func(cfg *config.Config, logger *slog.Logger) stage.Handler {
				return report.NewReporter(cfg, logger)
			},
		},
	}

	commands := make([]*cobra.Command, 0, len(defs)+1)
	commands = append(commands, newFetchCommand(ctx))
	for _, def := range defs {
		commands = append(commands, newStageCommand(ctx, def.use, def.short, def.factory))
	}
	return commands
}

// Fetch gets its own command so the search profile is selectable per
// invocation; the other stages have no per-run parameters beyond the date.
func newFetchCommand(ctx *commandContext) *cobra.Command {
	var profileFlag string

	cmd := newStageCommand(ctx, "fetch", "Fetch candidate videos from YouTube for a date",
		func(cfg *config.Config, logger *slog.Logger) stage.Handler {
			fetcher := fetch.NewFetcher(cfg, logger)
			fetcher.SetProfile(profileFlag)
			return fetcher
		})
	cmd.Flags().StringVarP(&profileFlag, "profile", "p", "", "Named search profile (default from configuration)")
	return cmd
}

func newStageCommand(ctx *commandContext, use, short string, factory handlerFactory) *cobra.Command {
	var dateFlag string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
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

			handler := factory(cfg, logger)
			result, runErr := handler.Run(cmd.Context(), day)
			fmt.Fprintln(cmd.OutOrStdout(), renderResults([]stage.Result{result}))
			if result.Failed() {
				if runErr != nil {
					return fmt.Errorf("%s stage failed: %w", use, runErr)
				}
				return fmt.Errorf("%s stage failed: %s", use, result.Detail)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dateFlag, "date", "d", "", "Processing date (YYYY-MM-DD, default today)")
	return cmd
}
