package engine

import "github.com/linebaby/linebaby/internal/document"

type KeyAction int

const (
	KeyDown KeyAction = iota
	KeyUp
	KeyRepeat
)

type Key int

const (
	KeyUnknown Key = iota
	KeyLeft
	KeyRight
	KeySpace
	KeyEscape
	KeyDelete
	KeyBackspace
	KeyHome
	KeyEnd
	KeyS
	KeyD
	KeyA
	KeyT
)

var keyNames = map[string]Key{
	"ArrowLeft":  KeyLeft,
	"ArrowRight": KeyRight,
	" ":          KeySpace,
	"Space":      KeySpace,
	"Escape":     KeyEscape,
	"Delete":     KeyDelete,
	"Backspace":  KeyBackspace,
	"Home":       KeyHome,
	"End":        KeyEnd,
	"s":          KeyS,
	"d":          KeyD,
	"a":          KeyA,
	"t":          KeyT,
}

// ParseKey maps a DOM KeyboardEvent.key value to a Key.
func ParseKey(name string) Key {
	if k, ok := keyNames[name]; ok {
		return k
	}
	if len(name) == 1 && name[0] >= 'A' && name[0] <= 'Z' {
		return keyNames[string(name[0]+'a'-'A')]
	}
	return KeyUnknown
}

// KeyEvent is a keyboard action.
type KeyEvent struct {
	Action KeyAction `json:"action"`
	Key    Key       `json:"key"`
	Mods   Modifiers `json:"mods"`
}

// NudgeStep is the playhead step of the arrow keys, one frame at 60fps.
const NudgeStep = 1.0 / 60

// HandleKey feeds one keyboard event to the edit controller.
func (e *Engine) HandleKey(ev KeyEvent) {
	if ev.Action == KeyUp {
		return
	}
	s := e.scene

	// Only the nudge keys auto-repeat.
	switch ev.Key {
	case KeyLeft, KeyRight:
		step := float32(NudgeStep)
		if ev.Mods.Has(ModFine) {
			step *= 10
		}
		if ev.Key == KeyLeft {
			step = -step
		}
		s.SetTimelinePosition(s.TimelinePosition + step)
		return
	}
	if ev.Action == KeyRepeat {
		return
	}

	switch ev.Key {
	case KeySpace:
		s.Playing = !s.Playing
	case KeyEscape:
		e.capturing = false
		e.releaseSelection()
	case KeyDelete, KeyBackspace:
		e.deleteSelection()
	case KeyHome:
		s.SetTimelinePosition(0)
	case KeyEnd:
		s.SetTimelinePosition(s.TimelineDuration)
	case KeyS:
		e.SetInputMode(document.InputSelect)
	case KeyD:
		e.SetInputMode(document.InputDraw)
	case KeyA:
		e.SetInputMode(document.InputArtboard)
	case KeyT:
		e.SetInputMode(document.InputTrim)
	}
}

// deleteSelection removes the selected vertex, or the selected stroke when no
// vertex is selected. Both weak references are cleared as needed.
func (e *Engine) deleteSelection() {
	s := e.scene
	if s.Vertex(s.SelectedVertex) != nil {
		deleted, err := s.DeleteVertex(s.SelectedVertex)
		if err != nil {
			e.logger.Debug("delete vertex failed", "error", err)
			return
		}
		s.SelectedVertex = document.NoVertex
		if deleted {
			s.ClearSelection()
		}
		s.DragMode = document.DragNone
		return
	}
	if s.DeleteStroke(s.Selected) {
		e.logger.Debug("stroke deleted", "stroke", s.Selected)
	}
	s.ClearSelection()
	s.DragMode = document.DragNone
}

// SetInputMode switches the pointer tool. Leaving a tool cancels any capture
// in progress.
func (e *Engine) SetInputMode(m document.InputMode) {
	s := e.scene
	if s.InputMode == m {
		return
	}
	if s.InputMode == document.InputDraw {
		if st := s.Stroke(s.Selected); st != nil && !st.Renderable() {
			e.releaseSelection()
		}
	}
	e.capturing = false
	s.DragMode = document.DragNone
	s.InputMode = m
}
