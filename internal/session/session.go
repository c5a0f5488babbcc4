package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mgpai22/subtitler/internal/script"
	"github.com/mgpai22/subtitler/internal/subtitle"
)

var (
	ErrNothingPublished  = errors.New("no segments published yet")
	ErrStaleRegistration = errors.New("segment registration is stale")
	ErrSegmentOutOfRange = errors.New("segment index out of range")
	ErrNoMarker          = errors.New("no marker at or above line")
)

// what a playback panel needs to register segments
type Summary struct {
	ID    int
	Times []float64
}

// request for the host to highlight one segment
type ActiveEvent struct {
	ID        int
	Index     int
	Line      int
	StartTime float64
}

// Session keeps the most recently published refresh. Positions are only
// meaningful together with the registration id they were published under.
type Session struct {
	engine *script.Engine

	refreshMu sync.Mutex

	mu     sync.RWMutex
	result *script.Result
	rows   []string
	id     int
	nextID int
	active *ActiveEvent
}

func New(engine *script.Engine) *Session {
	if engine == nil {
		engine = script.NewEngine()
	}
	return &Session{engine: engine, nextID: 1}
}

// Refresh rebuilds segments from a document snapshot and publishes them.
// Refreshes are serialized; a later call never publishes before an earlier one.
func (s *Session) Refresh(lines []script.Line) (*script.Result, Summary) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	res := s.engine.Refresh(lines)
	rows := make([]string, len(lines))
	for i, l := range lines {
		rows[i] = l.Text
	}

	return res, s.publish(res, rows)
}

// publish replaces the current segments under a fresh registration id and
// clears the active segment.
func (s *Session) publish(res *script.Result, rows []string) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.result = res
	s.rows = rows
	s.id = s.nextID
	s.nextID++
	s.active = nil
	return Summary{ID: s.id, Times: res.StartTimes()}
}

// Latest returns the current result and its registration.
func (s *Session) Latest() (*script.Result, Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.result == nil {
		return nil, Summary{}, ErrNothingPublished
	}
	return s.result, Summary{ID: s.id, Times: s.result.StartTimes()}, nil
}

// Activate marks the segment at index of registration id as active. Requests
// carrying an older id are rejected, since positions shift between refreshes.
func (s *Session) Activate(id, index int) (ActiveEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result == nil {
		return ActiveEvent{}, ErrNothingPublished
	}
	if id != s.id {
		return ActiveEvent{}, fmt.Errorf("%w: got %d, current %d", ErrStaleRegistration, id, s.id)
	}
	if index < 0 || index >= len(s.result.Segments) {
		return ActiveEvent{}, fmt.Errorf("%w: %d of %d", ErrSegmentOutOfRange, index, len(s.result.Segments))
	}

	seg := s.result.Segments[index]
	ev := ActiveEvent{ID: id, Index: index, Line: seg.StartLine, StartTime: seg.StartTime}
	s.active = &ev
	return ev, nil
}

// Active returns the last activation for the current registration.
func (s *Session) Active() (ActiveEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == nil {
		return ActiveEvent{}, false
	}
	return *s.active, true
}

// Jump resolves the nearest marker at or above line in the latest snapshot.
func (s *Session) Jump(line int) (script.Marker, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.result == nil {
		return script.Marker{}, -1, ErrNothingPublished
	}
	m, at, ok := script.MarkerAbove(s.rows, line)
	if !ok {
		return script.Marker{}, -1, ErrNoMarker
	}
	return m, at, nil
}

// Export serializes the latest published segments.
func (s *Session) Export(format subtitle.Format, timing subtitle.Timing) (*subtitle.Document, error) {
	res, _, err := s.Latest()
	if err != nil {
		return nil, err
	}
	return subtitle.Export(res.Segments, format, timing)
}
