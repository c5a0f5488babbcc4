package cli

import (
	"fmt"
	"strings"

	"github.com/mgpai22/subtitler/internal/fsutil"
	"github.com/mgpai22/subtitler/internal/script"
	"github.com/spf13/cobra"
)

var markCmd = &cobra.Command{
	Use:   "mark [script_file]",
	Short: "Stamp the paragraph at a line with a time marker",
	Long: `Stamp the paragraph containing --line with a [time] marker.

An existing marker at the top of the paragraph is replaced; otherwise a new
marker line is inserted above it. The line of the next paragraph is printed
so that successive calls can step through the script.

Examples:
  subtitler mark talk.txt --line 12 --time 41.5`,
	Args: cobra.ExactArgs(1),
	RunE: runMark,
}

func init() {
	rootCmd.AddCommand(markCmd)

	markCmd.Flags().
		IntP("line", "n", 1, "1-based line inside the paragraph to stamp")
	markCmd.Flags().
		StringP("time", "t", "", "Marker time in seconds (e.g. 12.5)")
	_ = markCmd.MarkFlagRequired("time")
}

func runMark(cmd *cobra.Command, args []string) error {
	scriptPath := args[0]
	line, _ := cmd.Flags().GetInt("line")
	timeStr, _ := cmd.Flags().GetString("time")

	next, err := markFile(scriptPath, line-1, timeStr)
	if err != nil {
		return err
	}

	currentLogger().Debugw("Marked paragraph", "file", scriptPath, "line", line, "time", timeStr)
	fmt.Fprintf(cmd.OutOrStdout(), "%d\n", next+1)
	return nil
}

// markFile rewrites path with a marker for the paragraph at cursor and
// returns the 0-based cursor of the next paragraph.
func markFile(path string, cursor int, timeStr string) (int, error) {
	timeStr = strings.TrimSpace(timeStr)
	if m, ok := script.ParseMarker("[" + timeStr + "]"); !ok || !m.Valid() {
		return cursor, fmt.Errorf("invalid marker time %q: expected seconds such as 12.5", timeStr)
	}

	rows, err := fsutil.ReadLines(path)
	if err != nil {
		return cursor, fmt.Errorf("failed to read script: %w", err)
	}

	out, next, err := script.SetTime(rows, cursor, timeStr)
	if err != nil {
		return cursor, err
	}

	if err := fsutil.WriteFileAtomic(path, []byte(strings.Join(out, "\n")), 0o644); err != nil {
		return cursor, fmt.Errorf("failed to write script: %w", err)
	}
	return next, nil
}
