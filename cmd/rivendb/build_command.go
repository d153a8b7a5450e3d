package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"rivendb/internal/catalog"
	"rivendb/internal/catalogdb"
	"rivendb/internal/preflight"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Scan the asset tree, generate derived media, and replace the catalog database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			if err := preflight.Require(cfg); err != nil {
				return err
			}

			runCtx, cancel := signalContext(cmd)
			defer cancel()

			var opts []catalog.Option
			if !noProgress {
				opts = append(opts, catalog.WithProgress(progressOptions(cmd, logger)))
			}
			writer := catalogdb.NewWriter(cfg.Paths.Database, logger)
			builder := catalog.NewBuilder(cfg, newToolkit(cfg, logger), writer, logger, opts...)

			summary, err := builder.Build(runCtx)
			if err != nil {
				return err
			}
			printBuildSummary(cmd.OutOrStdout(), writer.Path(), summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress output")
	return cmd
}

func printBuildSummary(out io.Writer, dbPath string, summary *catalog.Summary) {
	count := func(n int) string { return humanize.Comma(int64(n)) }
	rows := [][]string{
		{"Spatial groups", count(summary.Groups)},
		{"Positions", count(summary.Positions)},
		{"Viewpoints", count(summary.Viewpoints)},
		{"Edges", count(summary.Edges)},
		{"Images", count(summary.Images)},
		{"Movies", count(summary.Movies)},
		{"Objects", count(summary.Objects)},
		{"Transcodes written", count(summary.TranscodesWritten)},
		{"Transcodes reused", count(summary.TranscodesReused)},
		{"Thumbnails written", count(summary.Thumbnails.Written)},
		{"Thumbnails reused", count(summary.Thumbnails.Reused)},
		{"Viewpoints without source", count(summary.Thumbnails.WithoutSource)},
	}
	fmt.Fprintln(out, renderTable([]string{"Catalog", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

	size := "unknown size"
	if info, err := os.Stat(dbPath); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	fmt.Fprintf(out, "Wrote %s (%s) in %s\n", dbPath, size, summary.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "Run ID: %s\n", summary.RunID)
}
