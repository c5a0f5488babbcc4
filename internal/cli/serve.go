package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mgpai22/subtitler/internal/server"
	"github.com/mgpai22/subtitler/internal/session"
	"github.com/mgpai22/subtitler/internal/watcher"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [script_file]",
	Short: "Serve segments of a script to a playback panel",
	Long: `Serve the segments of a timed script over HTTP for a playback panel.

The script is watched and republished on every save. Each publish gets a new
registration id; activation requests carrying an older id are rejected.

Endpoints:
  GET  /segments            registration id, start times and segments
  GET  /segments/active     the last activated segment
  POST /segments/active     {"id": 3, "index": 0} activates a segment
  GET  /diagnostics         diagnostics and per-marker reading speeds
  GET  /export/:format      srt or vtt document (?offset=&gap= override timing)
  GET  /jump?line=N         nearest marker at or above a 0-based line
  POST /refresh             republish from a document sent as the body

Examples:
  subtitler serve talk.txt
  subtitler serve talk.txt --addr :8080`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().
		String("addr", "", "Listen address (default from config, 127.0.0.1:7410)")
}

func runServe(cmd *cobra.Command, args []string) error {
	scriptPath := args[0]
	conf := currentConfig()
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = conf.Server.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := session.New(newEngine())
	r := &refresher{session: sess}

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- watchScript(ctx, scriptPath, watcher.DefaultDebounce, r)
	}()

	srv := server.New(sess, conf, currentLogger(), scriptPath)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Run(ctx, addr)
	}()

	// whichever side stops first takes the other down with it
	var err error
	select {
	case err = <-watchErr:
		stop()
		if serr := <-serveErr; err == nil {
			err = serr
		}
	case err = <-serveErr:
		stop()
		if werr := <-watchErr; err == nil {
			err = werr
		}
	}
	return err
}
