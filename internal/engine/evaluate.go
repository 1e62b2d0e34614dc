package engine

import (
	"github.com/linebaby/linebaby/internal/document"
	"github.com/linebaby/linebaby/internal/geom"
)

// DrawState is where a stroke is in its timeline life at a given time.
type DrawState int

const (
	DrawNone DrawState = iota
	DrawEntering
	DrawFull
	DrawExiting
)

func (s DrawState) String() string {
	switch s {
	case DrawNone:
		return "none"
	case DrawEntering:
		return "entering"
	case DrawFull:
		return "full"
	case DrawExiting:
		return "exiting"
	default:
		return "unknown"
	}
}

// StrokeFrame is the evaluated visibility of one stroke.
//
// Reveal is the fraction of arc length to stamp and Alpha the opacity. A fade
// transition reveals the whole curve and carries its progress in Alpha; a draw
// transition keeps Alpha at 1. Reverse reports whether the active transition
// walks the vertices last to first.
type StrokeFrame struct {
	State   DrawState `json:"state"`
	Reveal  float32   `json:"reveal"`
	Alpha   float32   `json:"alpha"`
	Reverse bool      `json:"reverse"`
}

// Visible reports whether anything of the stroke should be drawn.
func (f StrokeFrame) Visible() bool {
	return f.State != DrawNone && f.Reveal > 0 && f.Alpha > 0
}

// EvaluateStroke computes the draw state of s at timeline time t.
func EvaluateStroke(s *document.Stroke, t float32) StrokeFrame {
	start, enterEnd, fullEnd, exitEnd := s.Span()

	switch {
	case t < start:
		return StrokeFrame{State: DrawNone}
	case t < enterEnd:
		f := s.Enter.Easing.Apply(geom.Map(t, start, enterEnd, 0, 1))
		return transitionFrame(DrawEntering, s.Enter, f)
	case t < fullEnd:
		return StrokeFrame{State: DrawFull, Reveal: 1, Alpha: 1}
	case t < exitEnd:
		f := s.Exit.Easing.Apply(geom.Map(t, fullEnd, exitEnd, 1, 0))
		return transitionFrame(DrawExiting, s.Exit, f)
	default:
		return StrokeFrame{State: DrawNone}
	}
}

func transitionFrame(state DrawState, tr document.StrokeTransition, f float32) StrokeFrame {
	// Back and Elastic overshoot the unit range.
	f = geom.Clamp01(f)
	if tr.Method == document.AnimateFade {
		return StrokeFrame{State: state, Reveal: 1, Alpha: f}
	}
	return StrokeFrame{State: state, Reveal: f, Alpha: 1, Reverse: tr.Reverse}
}
