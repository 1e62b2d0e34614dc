package collab

import (
	"encoding/json"

	"github.com/linebaby/linebaby/internal/document"
	"github.com/linebaby/linebaby/internal/engine"
	"github.com/linebaby/linebaby/internal/geom"
)

type Message struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	// Cursor is in canvas coordinates.
	Cursor      *geom.Point       `json:"cursor,omitempty"`
	Selected    document.StrokeID `json:"selected"`
	DisplayName string            `json:"displayName,omitempty"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
	CanEdit  bool   `json:"canEdit"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// PointerPayload is a pointer event in canvas coordinates. Kind is "down",
// "move" or "up"; Button is "primary", "middle" or "secondary".
type PointerPayload struct {
	Kind   string           `json:"kind"`
	Button string           `json:"button,omitempty"`
	X      float32          `json:"x"`
	Y      float32          `json:"y"`
	Mods   engine.Modifiers `json:"mods"`
}

// KeyPayload carries a DOM KeyboardEvent.key value.
type KeyPayload struct {
	Key    string           `json:"key"`
	Repeat bool             `json:"repeat,omitempty"`
	Mods   engine.Modifiers `json:"mods"`
}

type SeekPayload struct {
	Time    *float32 `json:"time,omitempty"`
	Playing *bool    `json:"playing,omitempty"`
}

type ModePayload struct {
	Mode string `json:"mode"`
}

type FrameRequestPayload struct {
	// Time defaults to the room's playhead.
	Time *float32 `json:"time,omitempty"`
}

// SceneSyncPayload carries the whole project file.
type SceneSyncPayload struct {
	File  []byte               `json:"file"`
	State engine.PlaybackState `json:"state"`
}

type SceneReplacePayload struct {
	File []byte `json:"file"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Editing input, client to server
	TypeInputPointer = "input.pointer"
	TypeInputKey     = "input.key"
	TypeInputMode    = "input.mode"
	TypeTimelineSeek = "timeline.seek"
	TypeFrameRequest = "frame.request"
	TypeSceneReplace = "scene.replace"

	// Server to client
	TypeSceneSync  = "scene.sync"
	TypeSceneState = "scene.state"
	TypeFrame      = "frame"
)

var inputModes = map[string]document.InputMode{
	"select":   document.InputSelect,
	"draw":     document.InputDraw,
	"artboard": document.InputArtboard,
	"trim":     document.InputTrim,
}

func (p PointerPayload) event() (engine.PointerEvent, bool) {
	ev := engine.PointerEvent{Pos: geom.Pt(p.X, p.Y), Mods: p.Mods}
	switch p.Kind {
	case "down":
		ev.Kind = engine.PointerDown
	case "move":
		ev.Kind = engine.PointerMove
	case "up":
		ev.Kind = engine.PointerUp
	default:
		return ev, false
	}
	switch p.Button {
	case "", "primary":
		ev.Button = engine.ButtonPrimary
	case "middle":
		ev.Button = engine.ButtonMiddle
	case "secondary":
		ev.Button = engine.ButtonSecondary
	default:
		return ev, false
	}
	return ev, true
}

func (p KeyPayload) event() (engine.KeyEvent, bool) {
	k := engine.ParseKey(p.Key)
	if k == engine.KeyUnknown {
		return engine.KeyEvent{}, false
	}
	action := engine.KeyDown
	if p.Repeat {
		action = engine.KeyRepeat
	}
	return engine.KeyEvent{Action: action, Key: k, Mods: p.Mods}, true
}

func newMessage(typ string, payload any) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("null")
	}
	return &Message{Type: typ, Payload: data}
}

func errorMessage(msg string) *Message {
	return newMessage(TypeError, ErrorPayload{Message: msg})
}
