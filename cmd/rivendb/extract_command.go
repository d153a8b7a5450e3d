package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rivendb/internal/fileutil"
	"rivendb/internal/mediapipe"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "extract [manifest]",
		Short: "Scale game images for the website from a JSON manifest",
		Long: "Reads a JSON array of {\"infile\", \"outfile\", \"scale\"} entries " +
			"(default extraction_data.json) and writes each scaled image, creating directories as needed.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			manifest := "extraction_data.json"
			if len(args) == 1 {
				manifest = args[0]
			}
			jobs, err := mediapipe.LoadExtractJobs(manifest)
			if err != nil {
				return err
			}
			root, err := fileutil.NewRoot(cfg.Paths.ProtectedDir)
			if err != nil {
				return err
			}

			var opts []mediapipe.Option
			if !noProgress {
				opts = append(opts, mediapipe.WithProgress(progressOptions(cmd, logger)))
			}
			pipe := mediapipe.New(newToolkit(cfg, logger), root, mediapipe.Settings{
				FullSizePixels:   cfg.FullSizePixels(),
				ThumbnailScale:   cfg.Media.ThumbnailScale,
				Thumbnail2xScale: cfg.Media.Thumbnail2xScale,
				Workers:          cfg.WorkerCount(),
			}, logger, opts...)

			runCtx, cancel := signalContext(cmd)
			defer cancel()
			if err := pipe.Extract(runCtx, jobs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d images\n", len(jobs))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress output")
	return cmd
}
