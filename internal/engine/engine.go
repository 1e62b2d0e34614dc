package engine

import (
	"bytes"
	"io"
	"log/slog"

	"github.com/linebaby/linebaby/internal/document"
	"github.com/linebaby/linebaby/internal/geom"
)

// Engine is one editing session: it owns the scene, the view, and the
// transient state of gestures in progress. It is not safe for concurrent use;
// callers serialize access.
type Engine struct {
	scene  *document.Scene
	logger *slog.Logger

	stamper Stamper
	stamps  []Stamp
	overlay []Polyline

	// View maps canvas to screen space. Viewport is the screen size in pixels.
	view     geom.Matrix2D
	viewport geom.Point

	drag      dragState
	trim      trimState
	capturing bool

	brush    TextureID
	brushFor Backend
}

type Option func(*Engine)

// WithLogger routes editor diagnostics to l. By default they are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithScene starts the session on an existing scene.
func WithScene(s *document.Scene) Option {
	return func(e *Engine) {
		if s != nil {
			e.scene = s
		}
	}
}

// New creates an engine on an empty scene.
func New(opts ...Option) *Engine {
	e := &Engine{
		scene:  document.NewScene(),
		logger: slog.New(slog.DiscardHandler),
		view:   geom.Identity(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scene returns the edited scene.
func (e *Engine) Scene() *document.Scene {
	return e.scene
}

// LoadSample replaces the scene with the built-in sample.
func (e *Engine) LoadSample() {
	e.scene = document.NewSampleScene()
	e.resetGestures()
}

// Load replaces the scene with a project file. On error the current scene is
// kept.
func (e *Engine) Load(r io.Reader) error {
	if err := e.scene.Load(r); err != nil {
		e.logger.Warn("project load failed", "error", err)
		return err
	}
	e.resetGestures()
	e.logger.Info("project loaded", "strokes", e.scene.Len(), "duration", e.scene.TimelineDuration)
	return nil
}

// LoadBytes is Load for an in-memory project file.
func (e *Engine) LoadBytes(data []byte) error {
	return e.Load(bytes.NewReader(data))
}

// Save writes the scene as a project file.
func (e *Engine) Save(w io.Writer) error {
	return e.scene.Save(w)
}

// Bytes returns the scene encoded as a project file.
func (e *Engine) Bytes() ([]byte, error) {
	return document.Marshal(e.scene)
}

func (e *Engine) resetGestures() {
	e.drag = dragState{}
	e.trim = trimState{}
	e.capturing = false
}

// --- Playback ---

// UpdateTimeline advances time by dt seconds. The playhead is clamped first,
// then moves only while playing and not scrubbing, wrapping to the start past
// the end.
func (e *Engine) UpdateTimeline(dt float32) {
	s := e.scene
	s.SetTimelinePosition(s.TimelinePosition)
	if !s.Playing || s.Scrubbing {
		return
	}
	t := s.TimelinePosition + dt
	if t > s.TimelineDuration {
		t = 0
	}
	s.SetTimelinePosition(t)
}

// SetPlayhead moves the playhead, clamped to the timeline.
func (e *Engine) SetPlayhead(t float32) {
	e.scene.SetTimelinePosition(t)
}

func (e *Engine) Play()       { e.scene.Playing = true }
func (e *Engine) Pause()      { e.scene.Playing = false }
func (e *Engine) TogglePlay() { e.scene.Playing = !e.scene.Playing }

// BeginScrub holds the playhead under the user's control; playback does not
// advance it until EndScrub.
func (e *Engine) BeginScrub(t float32) {
	e.scene.Scrubbing = true
	e.scene.SetTimelinePosition(t)
}

func (e *Engine) ScrubTo(t float32) {
	if e.scene.Scrubbing {
		e.scene.SetTimelinePosition(t)
	}
}

func (e *Engine) EndScrub() {
	e.scene.Scrubbing = false
}

// SetTimelineDuration changes the timeline length and clamps the playhead.
func (e *Engine) SetTimelineDuration(d float32) {
	if d <= 0 {
		return
	}
	e.scene.TimelineDuration = d
	e.scene.SetTimelinePosition(e.scene.TimelinePosition)
}

// --- View ---

// SetViewport sets the screen size used to map the timeline strip.
func (e *Engine) SetViewport(width, height float32) {
	e.viewport = geom.Pt(width, height)
}

// View returns the canvas-to-screen transform.
func (e *Engine) View() geom.Matrix2D {
	return e.view
}

// SetView replaces the canvas-to-screen transform. Non-invertible transforms
// are ignored.
func (e *Engine) SetView(m geom.Matrix2D) {
	if m.Determinant() == 0 {
		return
	}
	e.view = m
}

// --- Frames ---

// Frame evaluates every stroke at the current playhead. The returned slices
// are reused by the next call.
func (e *Engine) Frame() Frame {
	return e.FrameAt(e.scene.TimelinePosition)
}

// FrameAt evaluates the scene at time t without moving the playhead.
func (e *Engine) FrameAt(t float32) Frame {
	s := e.scene
	e.stamps = e.stamps[:0]
	for id, st := range s.Strokes() {
		f := EvaluateStroke(st, t)
		if !f.Visible() {
			continue
		}
		e.stamps = e.stamper.Stamps(e.stamps, st, f, strokeSeed(id))
	}

	e.overlay = e.overlay[:0]
	if e.overlayVisible() {
		e.overlay = e.buildOverlay(e.overlay)
	}

	return Frame{
		Time:    t,
		Clear:   s.ClearColor,
		View:    e.view,
		Stamps:  e.stamps,
		Overlay: e.overlay,
	}
}

// StrokeState pairs a stroke with its evaluated frame.
type StrokeState struct {
	ID    document.StrokeID `json:"id"`
	Frame StrokeFrame       `json:"frame"`
}

// StrokeStates evaluates each stroke at the current playhead, in draw order.
func (e *Engine) StrokeStates() []StrokeState {
	out := make([]StrokeState, 0, e.scene.Len())
	for id, st := range e.scene.Strokes() {
		out = append(out, StrokeState{ID: id, Frame: EvaluateStroke(st, e.scene.TimelinePosition)})
	}
	return out
}

func strokeSeed(id document.StrokeID) uint64 {
	return uint64(id.Slot)<<32 | uint64(id.Gen)
}

// PlaybackState is a snapshot of the transport for UIs.
type PlaybackState struct {
	Time      float32            `json:"time"`
	Duration  float32            `json:"duration"`
	Playing   bool               `json:"playing"`
	Scrubbing bool               `json:"scrubbing"`
	Mode      string             `json:"mode"`
	Drag      string             `json:"drag"`
	Strokes   int                `json:"strokes"`
	Selected  document.StrokeID  `json:"selected"`
	Vertex    document.VertexRef `json:"vertex"`
}

func (e *Engine) PlaybackState() PlaybackState {
	s := e.scene
	return PlaybackState{
		Time:      s.TimelinePosition,
		Duration:  s.TimelineDuration,
		Playing:   s.Playing,
		Scrubbing: s.Scrubbing,
		Mode:      s.InputMode.String(),
		Drag:      s.DragMode.String(),
		Strokes:   s.Len(),
		Selected:  s.Selected,
		Vertex:    s.SelectedVertex,
	}
}
