package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mgpai22/subtitler/internal/fsutil"
	"github.com/mgpai22/subtitler/internal/subtitle"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [subtitle_file]",
	Short: "Convert a SubRip or WebVTT file into a timed script",
	Long: `Convert an existing subtitle file into a timed script.

Each cue becomes a marker followed by its text. Gaps between cues are kept
as "-" placeholder segments unless --no-gaps is given. Italic tags become
backtick spans.

Examples:
  subtitler import talk.srt
  subtitler import talk.vtt -o draft.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().
		Bool("no-gaps", false, "Do not emit placeholder segments for gaps between cues")
}

func runImport(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	noGaps, _ := cmd.Flags().GetBool("no-gaps")

	if outputPath == "" {
		outputPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".txt"
	}

	count, err := importFile(inputPath, outputPath, !noGaps)
	if err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Script written successfully: %s\n", absOutput)
	fmt.Fprintf(cmd.OutOrStdout(), "  Cues: %d\n", count)
	return nil
}

func importFile(inputPath, outputPath string, markGaps bool) (int, error) {
	entries, format, err := subtitle.Open(inputPath)
	if err != nil {
		return 0, err
	}
	currentLogger().Infow("Importing subtitles",
		"input", inputPath,
		"format", format,
		"cues", len(entries),
	)

	gen := subtitle.NewScriptGenerator()
	gen.MarkGaps = markGaps
	text := gen.Generate(entries)

	if err := fsutil.WriteFileAtomic(outputPath, []byte(text), 0o644); err != nil {
		return 0, fmt.Errorf("failed to write script: %w", err)
	}
	return len(entries), nil
}
