package cli

import (
	"fmt"
	"io"

	"github.com/mgpai22/subtitler/internal/script"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [script_file]",
	Short: "Report marker order and reading speed problems",
	Long: `Check a timed script and print one line per diagnostic:

  talk.txt:12: error: timestamps out of order
  talk.txt:30: warning: reading speed too high

followed by the reading speed of every closed segment. Line numbers are
1-based. With --strict the command fails when any error is reported.

Examples:
  subtitler check talk.txt
  subtitler check talk.txt --strict --quiet`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().
		Bool("strict", false, "Exit with an error when error-level diagnostics exist")
	checkCmd.Flags().
		BoolP("quiet", "q", false, "Omit per-marker reading speeds")
}

func runCheck(cmd *cobra.Command, args []string) error {
	scriptPath := args[0]
	strict, _ := cmd.Flags().GetBool("strict")
	quiet, _ := cmd.Flags().GetBool("quiet")

	res, err := refreshFile(scriptPath)
	if err != nil {
		return err
	}

	errs := writeReport(cmd.OutOrStdout(), scriptPath, res, !quiet)
	currentLogger().Debugw("Checked script",
		"file", scriptPath,
		"segments", len(res.Segments),
		"diagnostics", len(res.Diagnostics),
	)

	if strict && errs > 0 {
		return fmt.Errorf("%s: %d error(s)", scriptPath, errs)
	}
	return nil
}

// writeReport prints diagnostics, then optional CPS labels, then a summary.
// It returns the number of error-level diagnostics.
func writeReport(w io.Writer, path string, res *script.Result, annotations bool) int {
	errs, warns := 0, 0
	for _, d := range res.Diagnostics {
		fmt.Fprintf(w, "%s:%d: %s: %s\n", path, d.Line+1, d.Severity, d.Message)
		if d.Severity == script.SeverityError {
			errs++
		} else {
			warns++
		}
	}

	if annotations {
		for _, a := range res.Annotations {
			if label := a.Label(); label != "" {
				fmt.Fprintf(w, "%s:%d: %s\n", path, a.Line+1, label)
			}
		}
	}

	fmt.Fprintf(w, "%d segment(s), %d error(s), %d warning(s)\n", len(res.Segments), errs, warns)
	return errs
}
