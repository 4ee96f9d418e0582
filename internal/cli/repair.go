package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"snapcapsule/internal/repair"
)

func newRepairCmd(o *options) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "repair [file]...",
		Short: "Repair media saved under the wrong type",
		Long: `Repair media saved under the wrong type. Videos stored as images are
re-encoded to .mp4, audio-only files are extracted to .mp3 and corrupt
JPEGs are rewritten. Originals are moved to a repair_backups folder next
to them; use revert to restore them.

Without arguments both media folders are scanned. Interrupting finishes
the current file and stops.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			lib, err := o.openLibrary()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			onProgress := func(p repair.Progress) {
				fmt.Fprintf(out, "[%d/%d] %s\n", p.Done, p.Total, o.style.line(p.Record.Line()))
			}

			var tally repair.Tally
			if len(args) > 0 {
				if dryRun {
					return errors.New("--dry-run applies to folder scans only")
				}
				tally, err = lib.RepairFiles(ctx, args, onProgress)
			} else {
				tally, err = lib.Repair(ctx, dryRun, onProgress)
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "%s %s\n", o.style.section("Summary:"), tally)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return errors.New("repair interrupted")
				}
				return err
			}
			if tally.Failed > 0 {
				return fmt.Errorf("%d file(s) failed", tally.Failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Classify files and print the planned repairs without changing anything")
	return cmd
}

func newRevertCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "revert",
		Short: "Restore every original from repair_backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			lib, err := o.openLibrary()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			n, err := lib.Revert(ctx, func(line string) {
				fmt.Fprintln(out, o.style.line(line))
			})
			fmt.Fprintf(out, "%s %d file(s) restored\n", o.style.section("Summary:"), n)
			return err
		},
	}
}
