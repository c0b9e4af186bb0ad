package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/savegress/hl7kit/internal/batch"
)

var errVerifyFailed = errors.New("verification failed")

func newVerifyCommand(a *app) *cobra.Command {
	var (
		rewrite     bool
		workers     int
		metricsFile string
		quarantine  string
		extensions  []string
	)
	cmd := &cobra.Command{
		Use:   "verify PATH...",
		Short: "Check that message files survive a parse/serialize round trip",
		Long: `Verify parses every file with both the lazy parser and the builder and
checks that each reproduces the input with line endings normalized.
Directories are searched recursively for files with the configured
extensions. With --rewrite, files that pass and use other line endings
are rewritten with segment terminators.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bc := a.cfg.Batch
			opts := batch.Options{
				Workers:         bc.Workers,
				QueueSize:       bc.QueueSize,
				ShutdownTimeout: bc.ShutdownTimeout,
				MetricsFile:     bc.MetricsFile,
				QuarantineDir:   bc.QuarantineDir,
				Rewrite:         rewrite,
				Extensions:      extensions,
			}
			if workers > 0 {
				opts.Workers = workers
			}
			if metricsFile != "" {
				opts.MetricsFile = metricsFile
			}
			if quarantine != "" {
				opts.QuarantineDir = quarantine
			}

			runner, err := batch.NewRunner(opts, a.logger)
			if err != nil {
				return err
			}
			report, err := runner.Run(cmd.Context(), args)
			if report == nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, res := range report.Failures() {
				fmt.Fprintf(w, "FAIL\t%s\t%v\n", res.Path, res.Err)
				if res.Quarantined != "" {
					fmt.Fprintf(w, "QUARANTINED\t%s\t%s\n", res.Path, res.Quarantined)
				}
			}
			for _, res := range report.Results {
				if res.Rewritten {
					fmt.Fprintf(w, "FIXED\t%s\n", res.Path)
				}
			}
			fmt.Fprintf(w, "%d passed, %d failed in %s (run %s)\n",
				report.Passed, report.Failed, report.Duration.Round(time.Millisecond), report.RunID)

			if err != nil {
				return err
			}
			if report.Failed > 0 {
				return fmt.Errorf("%w: %d of %d files", errVerifyFailed, report.Failed, len(report.Results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&rewrite, "rewrite", false, "rewrite files with normalized segment terminators")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "override the configured worker count")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this file")
	cmd.Flags().StringVar(&quarantine, "quarantine", "", "copy failing files and their errors to this directory")
	cmd.Flags().StringSliceVar(&extensions, "ext", batch.DefaultExtensions, "file extensions collected from directories")
	return cmd
}
