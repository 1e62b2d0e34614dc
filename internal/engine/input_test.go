package engine

import (
	"testing"

	"github.com/linebaby/linebaby/internal/document"
	"github.com/linebaby/linebaby/internal/geom"
)

func down(e *Engine, x, y float32, mods Modifiers) {
	e.HandlePointer(PointerEvent{Kind: PointerDown, Button: ButtonPrimary, Pos: geom.Pt(x, y), Mods: mods})
}

func move(e *Engine, x, y float32, mods Modifiers) {
	e.HandlePointer(PointerEvent{Kind: PointerMove, Pos: geom.Pt(x, y), Mods: mods})
}

func up(e *Engine, x, y float32) {
	e.HandlePointer(PointerEvent{Kind: PointerUp, Button: ButtonPrimary, Pos: geom.Pt(x, y)})
}

func press(e *Engine, k Key, mods Modifiers) {
	e.HandleKey(KeyEvent{Action: KeyDown, Key: k, Mods: mods})
}

func TestSelectStroke(t *testing.T) {
	e := New()
	id, _ := lineStroke(t, e.Scene(), geom.Pt(0, 0), geom.Pt(100, 0), geom.Pt(200, 0))

	down(e, 50, 30, 0)
	up(e, 50, 30)
	if !e.Scene().Selected.IsZero() {
		t.Fatal("click away from every stroke selected something")
	}

	down(e, 50, 5, 0)
	up(e, 50, 5)
	if e.Scene().Selected != id {
		t.Fatalf("Selected = %v, want %v", e.Scene().Selected, id)
	}

	down(e, 50, 60, 0)
	if !e.Scene().Selected.IsZero() {
		t.Error("click on empty canvas did not deselect")
	}
}

func TestSelectTopmost(t *testing.T) {
	e := New()
	lineStroke(t, e.Scene(), geom.Pt(0, 0), geom.Pt(100, 0))
	top, _ := lineStroke(t, e.Scene(), geom.Pt(0, 2), geom.Pt(100, 2))
	if got := e.HitTest(geom.Pt(50, 1)); got != top {
		t.Errorf("HitTest = %v, want the later stroke %v", got, top)
	}
}

func TestHandleDragMirrors(t *testing.T) {
	e := New()
	s := e.Scene()
	id, st := lineStroke(t, s, geom.Pt(0, 0), geom.Pt(100, 0), geom.Pt(200, 0))
	s.Selected = id

	v := &st.Vertices()[1]
	h0 := v.Handles[0]
	down(e, h0.X, h0.Y+2, 0)
	if s.DragMode != document.DragHandle {
		t.Fatalf("DragMode = %v, want handle", s.DragMode)
	}
	for _, p := range []geom.Point{geom.Pt(70, 20), geom.Pt(55, -13.5), geom.Pt(91.25, 40)} {
		move(e, p.X, p.Y, 0)
		if v.Handles[0] != p {
			t.Errorf("dragged handle = %v, want %v", v.Handles[0], p)
		}
		if want := v.Anchor.Mirror(v.Handles[0]); !nearPt(v.Handles[1], want, 1e-4) {
			t.Errorf("opposite handle = %v, want %v", v.Handles[1], want)
		}
	}

	before := v.Handles[1]
	move(e, 60, 60, ModFree)
	if v.Handles[1] != before {
		t.Errorf("free drag moved the opposite handle to %v", v.Handles[1])
	}
	up(e, 60, 60)
	if s.DragMode != document.DragNone {
		t.Errorf("DragMode after release = %v", s.DragMode)
	}
}

func TestAnchorDragIsRigid(t *testing.T) {
	e := New()
	s := e.Scene()
	id, st := lineStroke(t, s, geom.Pt(0, 0), geom.Pt(100, 0), geom.Pt(200, 0))
	s.Selected = id
	orig := st.Vertices()[1]

	down(e, 100, 1, 0)
	if s.DragMode != document.DragAnchor {
		t.Fatalf("DragMode = %v, want anchor", s.DragMode)
	}
	move(e, 110, 21, 0)
	move(e, 120, 41, 0)
	up(e, 120, 41)

	got := st.Vertices()[1]
	d := geom.Pt(20, 40)
	if !nearPt(got.Anchor, orig.Anchor.Add(d), 1e-4) ||
		!nearPt(got.Handles[0], orig.Handles[0].Add(d), 1e-4) ||
		!nearPt(got.Handles[1], orig.Handles[1].Add(d), 1e-4) {
		t.Errorf("vertex after drag = %+v, want %+v moved by %v", got, orig, d)
	}
}

func TestStrokeDragUsesCumulativeDelta(t *testing.T) {
	e := New()
	s := e.Scene()
	id, st := lineStroke(t, s, geom.Pt(0, 0), geom.Pt(100, 0), geom.Pt(200, 0))
	s.Selected = id
	orig := append([]document.BezierPoint(nil), st.Vertices()...)

	down(e, 150, 2, 0)
	if s.DragMode != document.DragStroke {
		t.Fatalf("DragMode = %v, want stroke", s.DragMode)
	}
	for i := 1; i <= 10; i++ {
		move(e, 150+float32(i)*3.3, 2+float32(i)*1.1, 0)
	}
	up(e, 183, 13)

	d := geom.Pt(33, 11)
	for i, v := range st.Vertices() {
		if !nearPt(v.Anchor, orig[i].Anchor.Add(d), 1e-3) {
			t.Errorf("vertex %d anchor = %v, want %v", i, v.Anchor, orig[i].Anchor.Add(d))
		}
	}
}

func TestInsertKnotKeepsShape(t *testing.T) {
	e := New()
	s := e.Scene()
	id, st, _ := s.CreateStroke()
	for _, v := range []document.BezierPoint{
		{Anchor: geom.Pt(0, 0), Handles: [2]geom.Point{geom.Pt(0, -50), geom.Pt(0, 50)}},
		{Anchor: geom.Pt(100, 0), Handles: [2]geom.Point{geom.Pt(100, 50), geom.Pt(100, -50)}},
	} {
		p, _, _ := s.AddVertex(id)
		*p = v
	}
	s.Selected = id
	before := make([]geom.Point, 0, 21)
	a, h1, h2, b := st.Segment(0, false)
	for i := 0; i <= 20; i++ {
		before = append(before, geom.BezierCubic(a, h1, h2, b, float32(i)/20))
	}

	mid := geom.BezierCubic(a, h1, h2, b, 0.5)
	down(e, mid.X, mid.Y, ModInsert)
	if st.Len() != 3 {
		t.Fatalf("vertex count after insert = %d, want 3", st.Len())
	}
	if s.Vertex(s.SelectedVertex) != &st.Vertices()[1] {
		t.Error("inserted knot is not selected")
	}

	// Every original sample must still lie on one of the two halves.
	for _, p := range before {
		best := float32(1e9)
		for seg := 0; seg < 2; seg++ {
			a, h1, h2, b := st.Segment(seg, false)
			q, _ := geom.ClosestPointOnCurve(a, h1, h2, b, 32, 6, p)
			best = min(best, q.Distance(p))
		}
		if best > 0.05 {
			t.Errorf("sample %v is %f off the split curve", p, best)
		}
	}
}

func TestDrawMode(t *testing.T) {
	e := New()
	s := e.Scene()
	s.SetTimelinePosition(1)
	press(e, KeyD, 0)
	if s.InputMode != document.InputDraw {
		t.Fatalf("InputMode = %v", s.InputMode)
	}

	down(e, 100, 100, 0)
	st := s.SelectedStroke()
	if st == nil {
		t.Fatal("draw click did not create a stroke")
	}
	if !near(st.GlobalStartTime, 0.65, 1e-6) {
		t.Errorf("GlobalStartTime = %f, want playhead - 0.35", st.GlobalStartTime)
	}
	if st.Enter.Method != document.AnimateDraw || st.Exit.Method != document.AnimateDraw {
		t.Errorf("transitions = %v/%v", st.Enter.Method, st.Exit.Method)
	}
	v := st.Vertices()[0]
	if v.Handles[0] != geom.Pt(80, 100) || v.Handles[1] != geom.Pt(120, 100) {
		t.Errorf("new knot handles = %v", v.Handles)
	}
	if s.DragMode != document.DragHandle {
		t.Fatalf("DragMode = %v, want handle", s.DragMode)
	}
	move(e, 70, 130, 0)
	if got := st.Vertices()[0]; got.Handles[0] != geom.Pt(70, 130) || got.Handles[1] != geom.Pt(130, 70) {
		t.Errorf("handles after drag = %v", got.Handles)
	}
	up(e, 70, 130)

	down(e, 200, 100, 0)
	up(e, 200, 100)
	if st.Len() != 2 || s.Len() != 1 {
		t.Errorf("second click: %d vertices, %d strokes", st.Len(), s.Len())
	}

	// Escape finishes the stroke; the next click starts another one.
	press(e, KeyEscape, 0)
	down(e, 300, 300, 0)
	up(e, 300, 300)
	if s.Len() != 2 {
		t.Fatalf("strokes = %d, want 2", s.Len())
	}

	// A one-vertex stroke is discarded when it is let go.
	press(e, KeyEscape, 0)
	if s.Len() != 1 {
		t.Errorf("unfinished stroke kept: %d strokes", s.Len())
	}
}

func TestDrawStartClampsAtZero(t *testing.T) {
	e := New()
	e.SetInputMode(document.InputDraw)
	e.SetPlayhead(0.1)
	down(e, 10, 10, 0)
	if st := e.Scene().SelectedStroke(); st == nil || st.GlobalStartTime != 0 {
		t.Errorf("stroke = %+v, want start 0", st)
	}
}

func TestDeleteKeyCascades(t *testing.T) {
	e := New()
	s := e.Scene()
	id, _ := lineStroke(t, s, geom.Pt(0, 0), geom.Pt(100, 0))
	s.Selected = id

	down(e, 100, 0, 0)
	up(e, 100, 0)
	if s.Vertex(s.SelectedVertex) == nil {
		t.Fatal("anchor click did not select the vertex")
	}
	press(e, KeyDelete, 0)

	if s.Len() != 0 {
		t.Errorf("stroke survived losing its second vertex")
	}
	if !s.Selected.IsZero() || !s.SelectedVertex.IsZero() {
		t.Errorf("selection not cleared: %v %v", s.Selected, s.SelectedVertex)
	}
}

func TestDeleteKeyRemovesStroke(t *testing.T) {
	e := New()
	s := e.Scene()
	id, _ := lineStroke(t, s, geom.Pt(0, 0), geom.Pt(100, 0), geom.Pt(200, 0))
	s.Selected = id
	press(e, KeyBackspace, 0)
	if s.Valid(id) || !s.Selected.IsZero() {
		t.Error("Backspace did not delete the selected stroke")
	}
}

func TestKeyboardTransport(t *testing.T) {
	e := New()
	s := e.Scene()
	s.TimelineDuration = 5

	press(e, KeyRight, 0)
	if !near(s.TimelinePosition, NudgeStep, 1e-6) {
		t.Errorf("position = %f after nudge", s.TimelinePosition)
	}
	press(e, KeyRight, ModFine)
	if !near(s.TimelinePosition, 11*NudgeStep, 1e-5) {
		t.Errorf("position = %f after fine nudge", s.TimelinePosition)
	}
	e.HandleKey(KeyEvent{Action: KeyRepeat, Key: KeyLeft})
	if !near(s.TimelinePosition, 10*NudgeStep, 1e-5) {
		t.Errorf("repeat did not nudge: %f", s.TimelinePosition)
	}
	press(e, KeyLeft, ModFine)
	press(e, KeyLeft, ModFine)
	if s.TimelinePosition != 0 {
		t.Errorf("position below zero: %f", s.TimelinePosition)
	}

	press(e, KeySpace, 0)
	if !s.Playing {
		t.Error("space did not start playback")
	}
	e.HandleKey(KeyEvent{Action: KeyRepeat, Key: KeySpace})
	if !s.Playing {
		t.Error("auto-repeat toggled playback")
	}

	press(e, KeyEnd, 0)
	if s.TimelinePosition != 5 {
		t.Errorf("End moved playhead to %f", s.TimelinePosition)
	}
}

func TestArtboardCapture(t *testing.T) {
	e := New()
	s := e.Scene()
	press(e, KeyA, 0)

	down(e, 300, 200, 0)
	up(e, 300, 200)
	move(e, 250, 260, 0)
	if s.Artboard[0] != geom.Pt(300, 200) || s.Artboard[1] != geom.Pt(250, 260) {
		t.Errorf("live preview = %v", s.Artboard)
	}
	down(e, 100, 400, 0)
	if s.InputMode != document.InputSelect {
		t.Errorf("InputMode = %v after second click", s.InputMode)
	}
	want := geom.RectFromCorners(geom.Pt(100, 200), geom.Pt(300, 400))
	if s.ArtboardRect() != want {
		t.Errorf("artboard = %+v, want %+v", s.ArtboardRect(), want)
	}
}

func TestTrimRangeCapture(t *testing.T) {
	e := New()
	s := e.Scene()
	s.TimelineDuration = 8
	e.SetViewport(800, 600)
	press(e, KeyT, 0)

	down(e, 600, 0, 0)
	down(e, 200, 0, 0)
	if s.ExportRange != [2]float32{2, 6} {
		t.Errorf("ExportRange = %v, want [2 6]", s.ExportRange)
	}
}

func TestPan(t *testing.T) {
	e := New()
	s := e.Scene()
	id, _ := lineStroke(t, s, geom.Pt(0, 0), geom.Pt(100, 0))

	e.HandlePointer(PointerEvent{Kind: PointerDown, Button: ButtonMiddle, Pos: geom.Pt(10, 10)})
	if s.DragMode != document.DragPan {
		t.Fatalf("DragMode = %v, want pan", s.DragMode)
	}
	move(e, 40, 60, 0)
	up(e, 40, 60)

	// The stroke now sits 30,50 further on screen.
	if got := e.HitTest(geom.Pt(80, 50)); got != id {
		t.Errorf("HitTest after pan = %v, want %v", got, id)
	}
	if got := e.HitTest(geom.Pt(50, 0)); !got.IsZero() {
		t.Errorf("old screen position still hits %v", got)
	}
}

func TestTrimHandles(t *testing.T) {
	e := New()
	s := e.Scene()
	s.TimelineDuration = 10
	id, st := lineStroke(t, s, geom.Pt(0, 0), geom.Pt(100, 0))
	st.GlobalStartTime = 1
	st.Enter = document.StrokeTransition{Method: document.AnimateDraw, Duration: 1}
	st.FullDuration = 2
	st.Exit = document.StrokeTransition{Method: document.AnimateFade, Duration: 1}
	s.Selected = id

	for _, tc := range []struct {
		t    float32
		want TrimHandle
	}{
		{0.95, TrimStart},
		{2.05, TrimEnter},
		{4, TrimExit},
		{5.1, TrimEnd},
		{3, TrimMove},
		{7, TrimNone},
	} {
		if got := e.TrimHandleAt(tc.t, 0.15); got != tc.want {
			t.Errorf("TrimHandleAt(%v) = %v, want %v", tc.t, got, tc.want)
		}
	}
}

func TestTrimKeepsOtherBoundaries(t *testing.T) {
	e := New()
	s := e.Scene()
	s.TimelineDuration = 10
	id, st := lineStroke(t, s, geom.Pt(0, 0), geom.Pt(100, 0))
	st.GlobalStartTime = 1
	st.Enter = document.StrokeTransition{Method: document.AnimateDraw, Duration: 1}
	st.FullDuration = 2
	st.Exit = document.StrokeTransition{Method: document.AnimateDraw, Duration: 1}
	s.Selected = id

	span := func() [4]float32 {
		a, b, c, d := st.Span()
		return [4]float32{a, b, c, d}
	}

	e.BeginTrim(TrimEnter, 2)
	if !e.TrimTo(2.5) {
		t.Fatal("valid trim rejected")
	}
	if got := span(); got != [4]float32{1, 2.5, 4, 5} {
		t.Errorf("span after enter trim = %v", got)
	}

	// Past the exit boundary the hold would go negative: roll back.
	if e.TrimTo(4.5) {
		t.Error("trim past the next boundary accepted")
	}
	if got := span(); got != [4]float32{1, 2.5, 4, 5} {
		t.Errorf("span after rejected trim = %v, want unchanged", got)
	}
	e.EndTrim()

	e.BeginTrim(TrimStart, 1)
	e.TrimTo(0.5)
	if got := span(); got != [4]float32{0.5, 2.5, 4, 5} {
		t.Errorf("span after start trim = %v", got)
	}
	e.EndTrim()

	e.BeginTrim(TrimEnd, 5)
	e.TrimTo(6)
	if got := span(); got != [4]float32{0.5, 2.5, 4, 6} {
		t.Errorf("span after end trim = %v", got)
	}
	e.EndTrim()

	e.BeginTrim(TrimExit, 4)
	e.TrimTo(3)
	if got := span(); got != [4]float32{0.5, 2.5, 3, 6} {
		t.Errorf("span after exit trim = %v", got)
	}
	e.EndTrim()
	if s.TimelinePosition != 0 {
		t.Errorf("trimming moved the playhead to %f", s.TimelinePosition)
	}
}

func TestTrimMoveStaysOnTimeline(t *testing.T) {
	e := New()
	s := e.Scene()
	s.TimelineDuration = 10
	id, st := lineStroke(t, s, geom.Pt(0, 0), geom.Pt(100, 0))
	st.GlobalStartTime = 1
	st.Enter = document.StrokeTransition{Method: document.AnimateDraw, Duration: 1}
	st.FullDuration = 2
	st.Exit = document.StrokeTransition{Method: document.AnimateDraw, Duration: 1}
	s.Selected = id

	e.BeginTrim(TrimMove, 2)
	if !e.TrimTo(4) || st.GlobalStartTime != 3 {
		t.Errorf("move to 4: start = %f, want 3", st.GlobalStartTime)
	}
	if e.TrimTo(9) {
		t.Error("move past the end of the timeline accepted")
	}
	if st.GlobalStartTime != 3 {
		t.Errorf("start after rejected move = %f, want 3", st.GlobalStartTime)
	}
	if e.TrimTo(0.5) {
		t.Error("move before zero accepted")
	}
	if st.FullDuration != 2 || st.Enter.Duration != 1 || st.Exit.Duration != 1 {
		t.Errorf("durations changed by a move: %f %f %f", st.Enter.Duration, st.FullDuration, st.Exit.Duration)
	}
	e.EndTrim()
	if e.Trimming() {
		t.Error("still trimming after EndTrim")
	}
}

func TestEndTrimDisablesEmptyTransition(t *testing.T) {
	e := New()
	s := e.Scene()
	id, st := lineStroke(t, s, geom.Pt(0, 0), geom.Pt(100, 0))
	st.GlobalStartTime = 1
	st.Enter = document.StrokeTransition{Method: document.AnimateDraw, Duration: 1}
	st.FullDuration = 2
	s.Selected = id

	e.BeginTrim(TrimEnter, 2)
	if !e.TrimTo(1) {
		t.Fatal("trimming the enter transition to zero rejected")
	}
	e.EndTrim()
	if st.Enter.Method != document.AnimateNone {
		t.Errorf("enter method = %v, want none", st.Enter.Method)
	}

	// Dragging it open again turns it back on.
	e.BeginTrim(TrimEnter, 1)
	e.TrimTo(1.5)
	e.EndTrim()
	if st.Enter.Method != document.AnimateDraw || st.Enter.Duration != 0.5 {
		t.Errorf("enter = %+v after reopening", st.Enter)
	}
}
