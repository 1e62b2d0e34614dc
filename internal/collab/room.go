package collab

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/linebaby/linebaby/internal/document"
	"github.com/linebaby/linebaby/internal/engine"
)

// Room is one shared editing session. Every client in the room drives the
// same engine, so selection and transport are shared. Clients keep their own
// view and send pointer positions in canvas coordinates; in trim mode X is a
// fraction of the timeline strip.
type Room struct {
	projectID string
	clients   map[string]*Client // clientID -> client, guarded by Hub.mu
	presence  *Presence

	// persist is false for rooms that are never written back.
	persist bool

	mu     sync.Mutex
	engine *engine.Engine
	file   []byte
	seq    int64
	dirty  bool
}

func NewRoom(projectID string, scene *document.Scene, persist bool) (*Room, error) {
	e := engine.New(
		engine.WithScene(scene),
		engine.WithLogger(slog.With("project", projectID)),
	)
	e.SetViewport(1, 1)
	file, err := e.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode scene: %w", err)
	}
	return &Room{
		projectID: projectID,
		clients:   make(map[string]*Client),
		presence:  NewPresence(),
		persist:   persist,
		engine:    e,
		file:      file,
	}, nil
}

// editResult reports what an edit did to the room.
type editResult struct {
	changed bool
	seq     int64
	file    []byte
	state   engine.PlaybackState
}

// apply runs fn against the engine and re-encodes the scene to detect
// changes to the document itself.
func (r *Room) apply(fn func(e *engine.Engine) error) (editResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := fn(r.engine); err != nil {
		return editResult{}, err
	}
	r.seq++
	res := editResult{seq: r.seq, state: r.engine.PlaybackState()}

	file, err := r.engine.Bytes()
	if err != nil {
		return res, fmt.Errorf("encode scene: %w", err)
	}
	if !bytes.Equal(file, r.file) {
		r.file = file
		r.dirty = r.persist
		res.changed = true
		res.file = file
	}
	return res, nil
}

func (r *Room) syncMessage() *Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := newMessage(TypeSceneSync, SceneSyncPayload{File: r.file, State: r.engine.PlaybackState()})
	msg.Seq = r.seq
	return msg
}

// frameMessage evaluates the scene at t, or at the playhead when t is nil.
func (r *Room) frameMessage(t *float32) *Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var f engine.Frame
	if t != nil {
		f = r.engine.FrameAt(*t)
	} else {
		f = r.engine.Frame()
	}
	// The frame's slices belong to the engine; encode before unlocking.
	msg := newMessage(TypeFrame, &f)
	msg.Seq = r.seq
	return msg
}

// advance moves a playing room's playhead. It reports whether the room was
// playing.
func (r *Room) advance(dt float32) (engine.PlaybackState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.engine.Scene().Playing {
		return engine.PlaybackState{}, false
	}
	r.engine.UpdateTimeline(dt)
	return r.engine.PlaybackState(), true
}

// save writes the scene back if it changed since the last save.
func (r *Room) save(ctx context.Context, store SceneStore) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.dirty {
		return nil
	}
	snap, err := store.SaveScene(ctx, r.projectID, r.engine.Scene())
	if err != nil {
		return fmt.Errorf("save scene: %w", err)
	}
	r.dirty = false
	slog.Info("room saved", "project", r.projectID, "version", snap.Version, "bytes", snap.Size)
	return nil
}

func (r *Room) Dirty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirty
}
