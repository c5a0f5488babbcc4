package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mgpai22/subtitler/internal/fsutil"
	"github.com/mgpai22/subtitler/internal/script"
	"github.com/mgpai22/subtitler/internal/session"
	"github.com/mgpai22/subtitler/internal/subtitle"
	"github.com/mgpai22/subtitler/internal/watcher"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [script_file]",
	Short: "Re-check (and optionally re-export) a script on every save",
	Long: `Watch a timed script and refresh its segments each time it is saved.

Diagnostics are logged after every refresh. With --export the subtitle file
is rewritten as well.

Examples:
  subtitler watch talk.txt
  subtitler watch talk.txt --export vtt -o talk.vtt`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().
		String("export", "", "Also write subtitles in this format (srt, vtt) after each refresh")
	watchCmd.Flags().
		Duration("debounce", watcher.DefaultDebounce, "Quiet period before a burst of writes triggers a refresh")
}

func runWatch(cmd *cobra.Command, args []string) error {
	scriptPath := args[0]
	exportStr, _ := cmd.Flags().GetString("export")
	debounce, _ := cmd.Flags().GetDuration("debounce")
	outputPath, _ := cmd.Flags().GetString("output")

	r := &refresher{session: session.New(newEngine())}
	if exportStr != "" {
		format, err := subtitle.ParseFormat(exportStr)
		if err != nil {
			return err
		}
		r.format = format
		r.timing = currentConfig().Timing(format)
		r.output = outputPath
		if r.output == "" {
			r.output = subtitle.OutputPath(scriptPath, format)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watchScript(ctx, scriptPath, debounce, r)
}

// watchScript refreshes once, then again after every settled edit, until ctx ends.
func watchScript(ctx context.Context, scriptPath string, debounce time.Duration, r *refresher) error {
	if err := r.handle(ctx, scriptPath); err != nil {
		return err
	}

	w, err := watcher.New(scriptPath, r.handle, currentLogger(), debounce)
	if err != nil {
		return fmt.Errorf("failed to watch script: %w", err)
	}
	defer w.Stop()

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// refresher republishes a script into a session and optionally re-exports it.
type refresher struct {
	session *session.Session
	format  subtitle.Format
	timing  subtitle.Timing
	output  string
}

func (r *refresher) handle(_ context.Context, path string) error {
	log := currentLogger()

	rows, err := fsutil.ReadLines(path)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	res, sum := r.session.Refresh(script.LinesOf(rows))
	log.Infow("Refreshed script",
		"id", sum.ID,
		"segments", len(res.Segments),
		"diagnostics", len(res.Diagnostics),
	)
	for _, d := range res.Diagnostics {
		log.Warnw(d.Message, "line", d.Line+1, "severity", d.Severity)
	}

	if r.format == "" {
		return nil
	}
	doc, err := r.session.Export(r.format, r.timing)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(r.output, []byte(doc.Text), 0o644); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}
	log.Debugw("Exported subtitles", "output", r.output, "entries", doc.Entries)
	return nil
}
