//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/linebaby/linebaby/internal/document"
	"github.com/linebaby/linebaby/internal/engine"
	"github.com/linebaby/linebaby/internal/geom"
)

var eng *engine.Engine

var pointerKinds = map[string]engine.PointerKind{
	"down": engine.PointerDown,
	"move": engine.PointerMove,
	"up":   engine.PointerUp,
}

var inputModes = map[string]document.InputMode{
	"select":   document.InputSelect,
	"draw":     document.InputDraw,
	"artboard": document.InputArtboard,
	"trim":     document.InputTrim,
}

func main() {
	eng = engine.New()
	eng.LoadSample()

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("loadSample", js.FuncOf(loadSample))
	api.Set("load", js.FuncOf(load))
	api.Set("pointer", js.FuncOf(pointer))
	api.Set("key", js.FuncOf(key))
	api.Set("setInputMode", js.FuncOf(setInputMode))
	api.Set("setViewport", js.FuncOf(setViewport))
	api.Set("setView", js.FuncOf(setView))
	api.Set("setPlayhead", js.FuncOf(setPlayhead))
	api.Set("setTimelineDuration", js.FuncOf(setTimelineDuration))
	api.Set("play", js.FuncOf(play))
	api.Set("pause", js.FuncOf(pause))
	api.Set("togglePlay", js.FuncOf(togglePlay))
	api.Set("beginScrub", js.FuncOf(beginScrub))
	api.Set("scrubTo", js.FuncOf(scrubTo))
	api.Set("endScrub", js.FuncOf(endScrub))
	api.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← engine) ---
	api.Set("save", js.FuncOf(save))
	api.Set("render", js.FuncOf(render))
	api.Set("renderAt", js.FuncOf(renderAt))
	api.Set("brushTexture", js.FuncOf(brushTexture))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	api.Set("getPlaybackState", js.FuncOf(getPlaybackState))
	api.Set("getStrokeStates", js.FuncOf(getStrokeStates))
	api.Set("getView", js.FuncOf(getView))

	js.Global().Set("linebabyEngine", api)
	js.Global().Set("linebabyWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func ok() any {
	return js.ValueOf(map[string]any{"ok": true})
}

func fail(msg string) any {
	return js.ValueOf(map[string]any{"error": msg})
}

func jsonValue(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(string(data))
}

func float(args []js.Value, i int) float32 {
	if i >= len(args) {
		return 0
	}
	return float32(args[i].Float())
}

func mods(args []js.Value, i int) engine.Modifiers {
	if i >= len(args) {
		return 0
	}
	return engine.Modifiers(args[i].Int())
}

// --- Command Handlers ---

func loadSample(this js.Value, args []js.Value) any {
	eng.LoadSample()
	return ok()
}

// load takes a Uint8Array holding a project file.
func load(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("missing project file")
	}
	data := make([]byte, args[0].Get("length").Int())
	js.CopyBytesToGo(data, args[0])
	if err := eng.LoadBytes(data); err != nil {
		return fail(err.Error())
	}
	return ok()
}

// pointer(kind, button, x, y, mods) with x and y in canvas element pixels.
func pointer(this js.Value, args []js.Value) any {
	if len(args) < 4 {
		return fail("usage: pointer(kind, button, x, y, mods)")
	}
	kind, found := pointerKinds[args[0].String()]
	if !found {
		return fail("unknown pointer kind")
	}
	eng.HandlePointer(engine.PointerEvent{
		Kind:   kind,
		Button: engine.Button(args[1].Int()),
		Pos:    geom.Pt(float(args, 2), float(args, 3)),
		Mods:   mods(args, 4),
	})
	return ok()
}

// key(name, action, mods) takes a KeyboardEvent.key value and "down", "up"
// or "repeat".
func key(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("usage: key(name, action, mods)")
	}
	k := engine.ParseKey(args[0].String())
	if k == engine.KeyUnknown {
		return js.ValueOf(map[string]any{"handled": false})
	}
	action := engine.KeyDown
	if len(args) > 1 {
		switch args[1].String() {
		case "up":
			action = engine.KeyUp
		case "repeat":
			action = engine.KeyRepeat
		}
	}
	eng.HandleKey(engine.KeyEvent{Action: action, Key: k, Mods: mods(args, 2)})
	return js.ValueOf(map[string]any{"handled": true})
}

func setInputMode(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("missing input mode")
	}
	m, found := inputModes[args[0].String()]
	if !found {
		return fail("unknown input mode")
	}
	eng.SetInputMode(m)
	return ok()
}

func setViewport(this js.Value, args []js.Value) any {
	eng.SetViewport(float(args, 0), float(args, 1))
	return ok()
}

// setView(a, b, c, d, e, f) sets the canvas-to-screen transform.
func setView(this js.Value, args []js.Value) any {
	if len(args) < 6 {
		return fail("usage: setView(a, b, c, d, e, f)")
	}
	var m geom.Matrix2D
	for i := range m {
		m[i] = float(args, i)
	}
	eng.SetView(m)
	return ok()
}

func setPlayhead(this js.Value, args []js.Value) any {
	eng.SetPlayhead(float(args, 0))
	return ok()
}

func setTimelineDuration(this js.Value, args []js.Value) any {
	eng.SetTimelineDuration(float(args, 0))
	return ok()
}

func play(this js.Value, args []js.Value) any {
	eng.Play()
	return ok()
}

func pause(this js.Value, args []js.Value) any {
	eng.Pause()
	return ok()
}

func togglePlay(this js.Value, args []js.Value) any {
	eng.TogglePlay()
	return ok()
}

func beginScrub(this js.Value, args []js.Value) any {
	eng.BeginScrub(float(args, 0))
	return ok()
}

func scrubTo(this js.Value, args []js.Value) any {
	eng.ScrubTo(float(args, 0))
	return ok()
}

func endScrub(this js.Value, args []js.Value) any {
	eng.EndScrub()
	return ok()
}

// tick(dt) advances playback by dt seconds.
func tick(this js.Value, args []js.Value) any {
	eng.UpdateTimeline(float(args, 0))
	return js.ValueOf(float64(eng.Scene().TimelinePosition))
}

// --- Query Handlers ---

// save returns the project file as a Uint8Array.
func save(this js.Value, args []js.Value) any {
	data, err := eng.Bytes()
	if err != nil {
		return fail(err.Error())
	}
	out := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(out, data)
	return out
}

func render(this js.Value, args []js.Value) any {
	f := eng.Frame()
	s, _ := engine.FrameToJSON(&f)
	return js.ValueOf(s)
}

func renderAt(this js.Value, args []js.Value) any {
	f := eng.FrameAt(float(args, 0))
	s, _ := engine.FrameToJSON(&f)
	return js.ValueOf(s)
}

// brushTexture(size) returns size×size RGBA pixels for the stamp texture.
func brushTexture(this js.Value, args []js.Value) any {
	size := 64
	if len(args) > 0 {
		size = args[0].Int()
	}
	data := engine.BrushTexture(size)
	out := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(out, data)
	return out
}

func hitTest(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return js.ValueOf("null")
	}
	id := eng.HitTest(geom.Pt(float(args, 0), float(args, 1)))
	if id == document.NoStroke {
		return js.ValueOf("null")
	}
	return jsonValue(id)
}

func getSelectionBounds(this js.Value, args []js.Value) any {
	return js.ValueOf(engine.RectToJSON(eng.SelectionBounds()))
}

func getPlaybackState(this js.Value, args []js.Value) any {
	return jsonValue(eng.PlaybackState())
}

func getStrokeStates(this js.Value, args []js.Value) any {
	return jsonValue(eng.StrokeStates())
}

func getView(this js.Value, args []js.Value) any {
	return jsonValue(eng.View())
}
