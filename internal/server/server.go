package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mgpai22/subtitler/internal/config"
	"github.com/mgpai22/subtitler/internal/logging"
	"github.com/mgpai22/subtitler/internal/script"
	"github.com/mgpai22/subtitler/internal/session"
	"github.com/mgpai22/subtitler/internal/subtitle"
)

const shutdownTimeout = 5 * time.Second

// Server exposes a session to a playback panel over HTTP.
type Server struct {
	session    *session.Session
	cfg        *config.Config
	log        *logging.Logger
	scriptPath string
	router     *gin.Engine
}

func New(sess *session.Session, cfg *config.Config, log *logging.Logger, scriptPath string) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.Nop()
	}
	s := &Server{session: sess, cfg: cfg, log: log, scriptPath: scriptPath}
	s.router = s.setupRouter()
	return s
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(
		gin.CustomRecovery(func(c *gin.Context, err any) {
			s.log.Errorw("panic", "path", c.Request.URL.Path, "err", err)
			c.AbortWithStatus(http.StatusInternalServerError)
		}),
		s.requestLogger(),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/refresh", s.refresh)
	r.GET("/segments", s.getSegments)
	r.GET("/segments/active", s.getActive)
	r.POST("/segments/active", s.setActive)
	r.GET("/diagnostics", s.getDiagnostics)
	r.GET("/export/:format", s.export)
	r.GET("/jump", s.jump)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"msg": "not found"})
	})
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("Panel API listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debugw("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start).String(),
		)
	}
}

// number encodes NaN and infinities as null
type number = *float64

func num(v float64) number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type segmentOutput struct {
	Index          int      `json:"index"`
	StartLine      int      `json:"start_line"`
	EndLine        int      `json:"end_line"`
	StartTime      number   `json:"start_time"`
	EndTime        number   `json:"end_time"`
	Lines          []string `json:"lines"`
	CharacterCount int      `json:"character_count"`
	CPS            number   `json:"cps"`
}

type segmentsOutput struct {
	ID       int             `json:"id"`
	Times    []number        `json:"times"`
	Segments []segmentOutput `json:"segments"`
}

func newSegmentsOutput(res *script.Result, sum session.Summary) segmentsOutput {
	out := segmentsOutput{
		ID:       sum.ID,
		Times:    make([]number, len(sum.Times)),
		Segments: make([]segmentOutput, len(res.Segments)),
	}
	for i, t := range sum.Times {
		out.Times[i] = num(t)
	}
	for i, seg := range res.Segments {
		o := segmentOutput{
			Index:          i,
			StartLine:      seg.StartLine,
			EndLine:        seg.EndLine,
			StartTime:      num(seg.StartTime),
			Lines:          seg.Lines,
			CharacterCount: seg.CharacterCount,
		}
		if o.Lines == nil {
			o.Lines = []string{}
		}
		if seg.HasEndTime {
			o.EndTime = num(seg.EndTime)
		}
		if cps, ok := seg.CPS(); ok {
			o.CPS = num(cps)
		}
		out.Segments[i] = o
	}
	return out
}

type annotationOutput struct {
	Line  int    `json:"line"`
	CPS   number `json:"cps"`
	Label string `json:"label"`
}

type diagnosticsOutput struct {
	ID          int                 `json:"id"`
	HasErrors   bool                `json:"has_errors"`
	Diagnostics []script.Diagnostic `json:"diagnostics"`
	Annotations []annotationOutput  `json:"annotations"`
}

type activeInput struct {
	ID    *int `json:"id" binding:"required"`
	Index *int `json:"index" binding:"required"`
}

type activeOutput struct {
	ID        int    `json:"id"`
	Index     int    `json:"index"`
	Line      int    `json:"line"`
	StartTime number `json:"start_time"`
}

func newActiveOutput(ev session.ActiveEvent) activeOutput {
	return activeOutput{ID: ev.ID, Index: ev.Index, Line: ev.Line, StartTime: num(ev.StartTime)}
}

// refresh accepts the full document text as the request body.
func (s *Server) refresh(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	res, sum := s.session.Refresh(script.Lines(string(body)))
	s.log.Debugw("Published segments", "id", sum.ID, "segments", len(res.Segments))
	c.JSON(http.StatusOK, newSegmentsOutput(res, sum))
}

func (s *Server) getSegments(c *gin.Context) {
	res, sum, err := s.session.Latest()
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, newSegmentsOutput(res, sum))
}

func (s *Server) getActive(c *gin.Context) {
	ev, ok := s.session.Active()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"msg": "no active segment"})
		return
	}
	c.JSON(http.StatusOK, newActiveOutput(ev))
}

func (s *Server) setActive(c *gin.Context) {
	var in activeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	ev, err := s.session.Activate(*in.ID, *in.Index)
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, newActiveOutput(ev))
}

func (s *Server) getDiagnostics(c *gin.Context) {
	res, sum, err := s.session.Latest()
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	out := diagnosticsOutput{
		ID:          sum.ID,
		HasErrors:   res.HasErrors(),
		Diagnostics: res.Diagnostics,
		Annotations: make([]annotationOutput, len(res.Annotations)),
	}
	if out.Diagnostics == nil {
		out.Diagnostics = []script.Diagnostic{}
	}
	for i, a := range res.Annotations {
		o := annotationOutput{Line: a.Line, Label: a.Label()}
		if a.HasCPS {
			o.CPS = num(a.CPS)
		}
		out.Annotations[i] = o
	}
	c.JSON(http.StatusOK, out)
}

// export renders the latest segments. offset and gap query parameters
// override the configured timing for the format.
func (s *Server) export(c *gin.Context) {
	format, err := subtitle.ParseFormat(c.Param("format"))
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	timing := s.cfg.Timing(format)
	if timing.Offset, err = floatQuery(c, "offset", timing.Offset); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	if timing.Gap, err = floatQuery(c, "gap", timing.Gap); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	doc, err := s.session.Export(format, timing)
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}

	name := "subtitles" + doc.Extension()
	if s.scriptPath != "" {
		name = filepath.Base(subtitle.OutputPath(s.scriptPath, format))
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("X-Subtitle-Entries", strconv.Itoa(doc.Entries))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(doc.Text))
}

func (s *Server) jump(c *gin.Context) {
	line, err := strconv.Atoi(c.Query("line"))
	if err != nil {
		s.fail(c, http.StatusBadRequest, fmt.Errorf("line must be an integer: %w", err))
		return
	}
	m, at, err := s.session.Jump(line)
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"line":    at,
		"raw":     m.Raw,
		"seconds": num(m.Seconds),
	})
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Errorw("Request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"msg": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNothingPublished):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrStaleRegistration):
		return http.StatusConflict
	case errors.Is(err, session.ErrSegmentOutOfRange), errors.Is(err, session.ErrNoMarker):
		return http.StatusNotFound
	case errors.Is(err, subtitle.ErrUnsupportedFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func floatQuery(c *gin.Context, key string, fallback float64) (float64, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a finite number, got %q", key, raw)
	}
	return v, nil
}
