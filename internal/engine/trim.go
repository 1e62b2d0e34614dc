package engine

import (
	"github.com/linebaby/linebaby/internal/document"
	"github.com/linebaby/linebaby/internal/geom"
)

// TrimHandle is a draggable boundary of a stroke's span on the timeline.
type TrimHandle int

const (
	TrimNone TrimHandle = iota
	TrimStart
	TrimEnter
	TrimExit
	TrimEnd
	TrimMove
)

func (h TrimHandle) String() string {
	switch h {
	case TrimStart:
		return "start"
	case TrimEnter:
		return "enter"
	case TrimExit:
		return "exit"
	case TrimEnd:
		return "end"
	case TrimMove:
		return "move"
	default:
		return "none"
	}
}

// timing is the part of a stroke a trim gesture edits.
type timing struct {
	start float32
	enter document.StrokeTransition
	full  float32
	exit  document.StrokeTransition
}

func timingOf(st *document.Stroke) timing {
	return timing{start: st.GlobalStartTime, enter: st.Enter, full: st.FullDuration, exit: st.Exit}
}

func (tm timing) apply(st *document.Stroke) {
	st.GlobalStartTime = tm.start
	st.Enter = tm.enter
	st.FullDuration = tm.full
	st.Exit = tm.exit
}

type trimState struct {
	handle TrimHandle
	stroke document.StrokeID
	grab   float32
}

// TrimHandleAt returns the boundary of the selected stroke nearest to time t,
// within tol seconds. Inside the span away from any boundary it returns
// TrimMove.
func (e *Engine) TrimHandleAt(t, tol float32) TrimHandle {
	st := e.scene.SelectedStroke()
	if st == nil {
		return TrimNone
	}
	start, enterEnd, fullEnd, exitEnd := st.Span()
	best, bestDist := TrimNone, tol
	// Boundaries can coincide; the earlier one wins a tie.
	for _, c := range []struct {
		h TrimHandle
		t float32
	}{
		{TrimStart, start},
		{TrimEnter, enterEnd},
		{TrimExit, fullEnd},
		{TrimEnd, exitEnd},
	} {
		d := abs(t - c.t)
		if d < bestDist || (best == TrimNone && d <= tol) {
			best, bestDist = c.h, d
		}
	}
	if best == TrimNone && t > start && t < exitEnd {
		return TrimMove
	}
	return best
}

// BeginTrim starts dragging handle h of the selected stroke at time t.
func (e *Engine) BeginTrim(h TrimHandle, t float32) bool {
	if h == TrimNone || e.scene.SelectedStroke() == nil {
		return false
	}
	e.trim = trimState{
		handle: h,
		stroke: e.scene.Selected,
		grab:   t - e.scene.SelectedStroke().GlobalStartTime,
	}
	return true
}

// TrimTo moves the dragged boundary to time t. The other boundaries keep
// their absolute times by trading against the neighbouring durations. When the
// result would have a negative duration or leave the timeline, the stroke is
// left exactly as it was and TrimTo reports false.
func (e *Engine) TrimTo(t float32) bool {
	st := e.scene.Stroke(e.trim.stroke)
	if st == nil || e.trim.handle == TrimNone {
		return false
	}
	t = e.scene.ClampTime(t)

	prev := timingOf(st)
	next := prev
	start, enterEnd, fullEnd, exitEnd := st.Span()

	switch e.trim.handle {
	case TrimStart:
		next.start = t
		if next.enter.Method != document.AnimateNone {
			setDuration(&next.enter, enterEnd-t)
		} else {
			next.full = fullEnd - t
		}
	case TrimEnter:
		if t < start {
			return false
		}
		setDuration(&next.enter, t-start)
		next.full = fullEnd - t
	case TrimExit:
		if t > exitEnd {
			return false
		}
		next.full = t - enterEnd
		setDuration(&next.exit, exitEnd-t)
	case TrimEnd:
		if next.exit.Method != document.AnimateNone {
			setDuration(&next.exit, t-fullEnd)
		} else {
			next.full = t - enterEnd
		}
	case TrimMove:
		next.start = t - e.trim.grab
	}

	next.apply(st)
	if !e.validTiming(st) {
		prev.apply(st)
		return false
	}
	return true
}

// EndTrim finishes the gesture. A transition trimmed down to nothing is
// switched off.
func (e *Engine) EndTrim() {
	if st := e.scene.Stroke(e.trim.stroke); st != nil {
		for _, tr := range []*document.StrokeTransition{&st.Enter, &st.Exit} {
			if tr.Method != document.AnimateNone && tr.Duration <= 0 {
				tr.Method = document.AnimateNone
				tr.Duration = 0
			}
		}
	}
	e.trim = trimState{}
}

// Trimming reports whether a trim gesture is in progress.
func (e *Engine) Trimming() bool {
	return e.trim.handle != TrimNone
}

// setDuration sets a transition's duration, switching a disabled transition to
// a draw when it is dragged open.
func setDuration(tr *document.StrokeTransition, d float32) {
	if tr.Method == document.AnimateNone {
		if d <= 0 {
			return
		}
		tr.Method = document.AnimateDraw
	}
	tr.Duration = d
}

func (e *Engine) validTiming(st *document.Stroke) bool {
	const eps = 1e-5
	start, _, _, exitEnd := st.Span()
	switch {
	case st.GlobalStartTime < 0,
		st.FullDuration < 0,
		st.Enter.Duration < 0,
		st.Exit.Duration < 0,
		start < 0,
		exitEnd > e.scene.TimelineDuration+eps:
		return false
	}
	return !geom.Pt(start, exitEnd).IsNaN()
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
