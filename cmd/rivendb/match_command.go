package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"rivendb/internal/assetname"
	"rivendb/internal/faults"
	"rivendb/internal/match"
	"rivendb/internal/preflight"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var (
		island     string
		top        int
		plain      bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "match <screenshot>",
		Short: "Rank captures by visual similarity to a screenshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			if err := preflight.Require(cfg); err != nil {
				return err
			}
			overrides, err := assetname.LoadOverrides(cfg.Paths.GroupOverridesFile, cfg.Catalog.OverrideGroup)
			if err != nil {
				return faults.Wrap(faults.ErrConfiguration, "match", "load group overrides", cfg.Paths.GroupOverridesFile, err)
			}

			settings := match.SettingsFromConfig(cfg)
			if cmd.Flags().Changed("top") {
				settings.Top = top
			}
			var opts []match.Option
			if !noProgress {
				opts = append(opts, match.WithProgress(progressOptions(cmd, logger)))
			}
			matcher := match.New(newToolkit(cfg, logger), assetname.NewParser(overrides), settings, logger, opts...)

			runCtx, cancel := signalContext(cmd)
			defer cancel()

			report, err := matcher.Match(runCtx, match.Query{Probe: args[0], Group: island})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if plain {
				printMatchLines(out, report)
			} else {
				printMatchTable(out, report)
			}
			fmt.Fprintf(out, "Examined %s images using %d cores\n", humanize.Comma(int64(report.Examined)), report.Workers)
			return nil
		},
	}

	cmd.Flags().StringVarP(&island, "island", "i", "", "Restrict the search to one spatial group symbol")
	cmd.Flags().IntVarP(&top, "top", "n", 5, "Number of matches to print")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print \"score: path\" lines instead of a table")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress output")
	return cmd
}

func printMatchLines(out io.Writer, report *match.Report) {
	fmt.Fprintf(out, "Top %d matches\n", len(report.Matches))
	for _, result := range report.Matches {
		fmt.Fprintf(out, "%f: %s\n", result.Score, result.Path)
	}
}

func printMatchTable(out io.Writer, report *match.Report) {
	if len(report.Matches) == 0 {
		fmt.Fprintln(out, "No comparable captures found")
		return
	}
	rows := make([][]string, 0, len(report.Matches))
	for i, result := range report.Matches {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(result.Score, 'f', 6, 64),
			result.Info.Group + "/" + result.Info.Viewpoint,
			result.Path,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Score", "Viewpoint", "Path"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft},
	))
}
