package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mgpai22/subtitler/internal/batch"
	"github.com/mgpai22/subtitler/internal/clipboard"
	"github.com/mgpai22/subtitler/internal/fsutil"
	"github.com/mgpai22/subtitler/internal/script"
	"github.com/mgpai22/subtitler/internal/subtitle"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [script_file...]",
	Short: "Export a timed script as SubRip or WebVTT subtitles",
	Long: `Export the segments of a timed script as a subtitle file.

Segments without an end marker, without dialogue, or holding only the "-"
placeholder are left out. Backtick spans are rendered as italics.

SubRip output shifts every cue 0.1s earlier and shortens it by a further
0.067s unless --offset/--gap or the config file say otherwise. WebVTT is
not adjusted by default.

Several scripts can be exported at once; each is written next to its script
and --output, --stdout and --clipboard are not allowed.

Examples:
  subtitler export talk.txt
  subtitler export talk.txt -f vtt -o talk.vtt
  subtitler export talk.txt --offset 0 --gap 0.04
  subtitler export talk.txt --stdout --clipboard
  subtitler export ep*.txt -f vtt --concurrency 4`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().
		StringP("format", "f", "srt", "Output subtitle format (srt, vtt)")
	exportCmd.Flags().
		Float64("offset", 0, "Seconds subtracted from every cue time (format default when unset)")
	exportCmd.Flags().
		Float64("gap", 0, "Extra seconds subtracted from every cue end (format default when unset)")
	exportCmd.Flags().
		Bool("stdout", false, "Print the document instead of writing a file")
	exportCmd.Flags().
		Bool("clipboard", false, "Copy the document to the system clipboard")
	exportCmd.Flags().
		Bool("no-clobber", false, "Pick a new file name instead of overwriting")
	exportCmd.Flags().
		Int("concurrency", batch.DefaultConcurrency, "Number of scripts exported in parallel")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := currentLogger()

	formatStr, _ := cmd.Flags().GetString("format")
	toStdout, _ := cmd.Flags().GetBool("stdout")
	toClipboard, _ := cmd.Flags().GetBool("clipboard")
	noClobber, _ := cmd.Flags().GetBool("no-clobber")
	outputPath, _ := cmd.Flags().GetString("output")

	format, err := subtitle.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	timing, err := timingFromFlags(cmd, currentConfig().Timing(format))
	if err != nil {
		return err
	}

	if len(args) > 1 {
		if outputPath != "" || toStdout || toClipboard {
			return fmt.Errorf("--output, --stdout and --clipboard need a single script")
		}
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		return exportAll(cmd, args, format, timing, noClobber, concurrency)
	}

	scriptPath := args[0]
	doc, res, err := exportScript(scriptPath, format, timing)
	if err != nil {
		return err
	}
	logDiagnostics(scriptPath, res)

	if toClipboard {
		if err := copyDocument(doc); err != nil {
			return err
		}
	}

	if toStdout {
		fmt.Fprint(cmd.OutOrStdout(), doc.Text)
		return nil
	}

	if outputPath == "" {
		outputPath = subtitle.OutputPath(scriptPath, format)
	}
	written, err := writeDocument(doc, outputPath, noClobber)
	if err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(written)
	fmt.Fprintf(cmd.OutOrStdout(), "Subtitles exported successfully: %s\n", absOutput)
	fmt.Fprintf(cmd.OutOrStdout(), "  Entries: %d of %d segments\n", doc.Entries, len(res.Segments))
	return nil
}

type exportResult struct {
	Output   string
	Entries  int
	Segments int
}

// exportAll writes each script's subtitles next to it.
func exportAll(cmd *cobra.Command, scripts []string, format subtitle.Format, timing subtitle.Timing, noClobber bool, concurrency int) error {
	currentLogger().Infow("Exporting scripts",
		"count", len(scripts),
		"format", format,
		"concurrency", concurrency,
	)

	jobs, err := planExports(scripts, format, noClobber)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := batch.Run(ctx, jobs, concurrency,
		func(_ context.Context, job exportJob) (exportResult, error) {
			doc, res, err := exportScript(job.Script, format, timing)
			if err != nil {
				return exportResult{}, fmt.Errorf("%s: %w", job.Script, err)
			}
			logDiagnostics(job.Script, res)
			written, err := writeDocument(doc, job.Output, false)
			if err != nil {
				return exportResult{}, fmt.Errorf("%s: %w", job.Script, err)
			}
			return exportResult{Output: written, Entries: doc.Entries, Segments: len(res.Segments)}, nil
		})
	if err != nil {
		return err
	}

	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d of %d segments\n", r.Output, r.Entries, r.Segments)
	}
	return nil
}

type exportJob struct {
	Script string
	Output string
}

// planExports picks every output name up front, in argument order, so two
// scripts never write the same file.
func planExports(scripts []string, format subtitle.Format, noClobber bool) ([]exportJob, error) {
	jobs := make([]exportJob, 0, len(scripts))
	taken := make(map[string]bool, len(scripts))
	for _, scriptPath := range scripts {
		output := subtitle.OutputPath(scriptPath, format)
		if noClobber {
			var err error
			if output, err = fsutil.AvailablePathExcept(output, taken); err != nil {
				return nil, err
			}
		} else if taken[output] {
			return nil, fmt.Errorf("%s: output %s is shared with another script (use --no-clobber)", scriptPath, output)
		}
		taken[output] = true
		jobs = append(jobs, exportJob{Script: scriptPath, Output: output})
	}
	return jobs, nil
}

// copyDocument puts doc on the system clipboard. A document without entries
// leaves the clipboard untouched.
func copyDocument(doc *subtitle.Document) error {
	log := currentLogger()
	if doc.Entries == 0 {
		log.Warnw("No subtitle entries to copy; clipboard left unchanged")
		return nil
	}
	if !clipboard.Available() {
		return fmt.Errorf("no system clipboard available")
	}
	if clipboard.Equals(doc.Text) {
		log.Debugw("Clipboard already holds these subtitles")
		return nil
	}
	if err := clipboard.WriteAll(doc.Text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	log.Infow("Copied subtitles to clipboard", "entries", doc.Entries)
	return nil
}

// writeDocument writes doc to path, or to a free sibling name with noClobber.
func writeDocument(doc *subtitle.Document, path string, noClobber bool) (string, error) {
	if noClobber {
		var err error
		if path, err = fsutil.AvailablePath(path); err != nil {
			return "", err
		}
	}
	currentLogger().Debugw("Writing subtitles", "output", path, "format", doc.Format)
	if err := fsutil.WriteFileAtomic(path, []byte(doc.Text), 0o644); err != nil {
		return "", fmt.Errorf("failed to write subtitles: %w", err)
	}
	return path, nil
}

// exportScript reads, segments and serializes a script file.
func exportScript(path string, format subtitle.Format, timing subtitle.Timing) (*subtitle.Document, *script.Result, error) {
	res, err := refreshFile(path)
	if err != nil {
		return nil, nil, err
	}
	doc, err := subtitle.Export(res.Segments, format, timing)
	if err != nil {
		return nil, nil, err
	}
	return doc, res, nil
}

// timingFromFlags overrides base with --offset/--gap when they were given.
func timingFromFlags(cmd *cobra.Command, base subtitle.Timing) (subtitle.Timing, error) {
	timing := base
	if cmd.Flags().Changed("offset") {
		v, err := cmd.Flags().GetFloat64("offset")
		if err != nil {
			return timing, err
		}
		timing.Offset = v
	}
	if cmd.Flags().Changed("gap") {
		v, err := cmd.Flags().GetFloat64("gap")
		if err != nil {
			return timing, err
		}
		timing.Gap = v
	}
	return timing, nil
}

func refreshFile(path string) (*script.Result, error) {
	rows, err := fsutil.ReadLines(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return newEngine().Refresh(script.LinesOf(rows)), nil
}

func logDiagnostics(path string, res *script.Result) {
	log := currentLogger()
	for _, d := range res.Diagnostics {
		if d.Severity == script.SeverityError {
			log.Warnw(d.Message, "file", path, "line", d.Line+1)
		} else {
			log.Debugw(d.Message, "file", path, "line", d.Line+1)
		}
	}
}
