package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/ytpull/internal/cleanup"
	"github.com/tanq16/ytpull/internal/output"
	"github.com/tanq16/ytpull/internal/utils"
)

func newCleanCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "clean [PATH]",
		Short: "Remove partial files left by interrupted downloads",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			root := cfg.Output
			if len(args) > 0 {
				root = args[0]
			}
			report, err := cleanup.Clean(root, dryRun)
			if err != nil {
				output.PrintError(fmt.Sprintf("Error cleaning %s: %v", root, err))
				os.Exit(1)
			}
			verb := "Removed"
			if dryRun {
				verb = "Would remove"
			}
			for _, path := range report.Removed {
				fmt.Println(output.FDebug(fmt.Sprintf("  %s %s", verb, path)))
			}
			for path, ferr := range report.Failed {
				output.PrintWarning(fmt.Sprintf("  Could not remove %s: %v", path, ferr))
			}
			if len(report.Removed) == 0 {
				output.PrintSuccess("No temporary files found")
				return
			}
			output.PrintSuccess(fmt.Sprintf("%s %d temporary file(s), %s", verb, len(report.Removed), utils.FormatBytes(uint64(report.Bytes))))
			if len(report.Failed) > 0 {
				os.Exit(1)
			}
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List files without deleting them")
	return cmd
}
