// Package collab runs shared editing rooms over websockets. Each project with
// connected clients gets a room holding one editor engine; edits are applied
// in arrival order and the resulting scene is broadcast back to the room.
package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/linebaby/linebaby/internal/document"
	"github.com/linebaby/linebaby/internal/engine"
	"github.com/linebaby/linebaby/internal/project"
)

// PlaygroundProjectID is open to anonymous users. Its room starts from the
// sample scene and is never saved.
const PlaygroundProjectID = "proj_playground"

const (
	playbackTick = 100 * time.Millisecond
	storeTimeout = 10 * time.Second
)

var (
	ErrStopped  = errors.New("hub stopped")
	errReadOnly = errors.New("read-only access")
)

// SceneStore loads and persists the scenes rooms edit.
type SceneStore interface {
	LoadScene(ctx context.Context, projectID string) (*document.Scene, error)
	SaveScene(ctx context.Context, projectID string, scene *document.Scene) (*project.Snapshot, error)
}

type Hub struct {
	store    SceneStore
	autosave time.Duration

	mu         sync.RWMutex
	rooms      map[string]*Room // projectID -> room
	register   chan *Client
	unregister chan *Client

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a hub that saves changed rooms every autosave interval.
// A zero interval saves only when a room empties or the hub stops.
func NewHub(store SceneStore, autosave time.Duration) *Hub {
	return &Hub{
		store:      store,
		autosave:   autosave,
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	var saveC <-chan time.Time
	if h.autosave > 0 {
		t := time.NewTicker(h.autosave)
		defer t.Stop()
		saveC = t.C
	}
	play := time.NewTicker(playbackTick)
	defer play.Stop()

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-saveC:
			h.saveAll()
		case <-play.C:
			h.advance(float32(playbackTick.Seconds()))
		case <-h.quit:
			h.saveAll()
			return
		}
	}
}

// Stop saves every changed room and stops Run. It blocks until Run returns.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.done
}

func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrStopped
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) room(projectID string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[projectID]
}

func (h *Hub) openRoom(projectID string) (*Room, error) {
	if projectID == PlaygroundProjectID {
		return NewRoom(projectID, document.NewSampleScene(), false)
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	scene, err := h.store.LoadScene(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	return NewRoom(projectID, scene, true)
}

func (h *Hub) addClient(client *Client) {
	room := h.room(client.ProjectID)
	if room == nil {
		r, err := h.openRoom(client.ProjectID)
		if err != nil {
			slog.Error("open room", "error", err, "project", client.ProjectID)
			client.Send(errorMessage("project unavailable"))
			client.closeSend()
			return
		}
		room = r
	}

	h.mu.Lock()
	h.rooms[client.ProjectID] = room
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	client.Send(newMessage(TypeWelcome, WelcomePayload{
		ClientID: client.ClientID,
		UserID:   client.UserID,
		CanEdit:  client.CanEdit,
	}))
	client.Send(room.syncMessage())
	client.Send(room.presence.StateMessage())

	joinMsg := newMessage(TypePresenceJoin, PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg.UserID = client.UserID
	h.broadcastToRoom(client.ProjectID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "project", client.ProjectID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ProjectID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.closeSend()
	room.presence.Remove(client.UserID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.ProjectID)
	}
	h.mu.Unlock()

	slog.Info("client left", "user", client.UserID, "project", client.ProjectID)

	if empty {
		h.saveRoom(room)
		return
	}
	leaveMsg := newMessage(TypePresenceLeave, PresenceLeavePayload{UserID: client.UserID})
	leaveMsg.UserID = client.UserID
	h.broadcastToRoom(client.ProjectID, leaveMsg, "")
}

func (h *Hub) saveRoom(room *Room) {
	if !room.persist {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := room.save(ctx, h.store); err != nil {
		slog.Error("autosave failed", "error", err, "project", room.projectID)
	}
}

func (h *Hub) roomList() []*Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		out = append(out, r)
	}
	return out
}

func (h *Hub) saveAll() {
	for _, r := range h.roomList() {
		h.saveRoom(r)
	}
}

func (h *Hub) advance(dt float32) {
	for _, r := range h.roomList() {
		if state, ok := r.advance(dt); ok {
			h.broadcastToRoom(r.projectID, newMessage(TypeSceneState, state), "")
		}
	}
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	room := h.room(sender.ProjectID)
	if room == nil {
		return
	}

	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(room, sender, msg)
	case TypeFrameRequest:
		var req FrameRequestPayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				sender.Send(errorMessage("invalid frame request"))
				return
			}
		}
		sender.Send(room.frameMessage(req.Time))
	case TypeInputPointer, TypeInputKey, TypeInputMode, TypeTimelineSeek, TypeSceneReplace:
		h.handleEdit(room, sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handleEdit(room *Room, sender *Client, msg *Message) {
	fn, err := editFunc(sender, msg)
	if err != nil {
		sender.Send(errorMessage(err.Error()))
		return
	}
	res, err := room.apply(fn)
	if err != nil {
		slog.Warn("edit rejected", "error", err, "type", msg.Type, "user", sender.UserID)
		sender.Send(errorMessage(err.Error()))
		return
	}

	room.presence.Select(sender.UserID, sender.DisplayName, res.state.Selected)

	var out *Message
	if res.changed {
		out = newMessage(TypeSceneSync, SceneSyncPayload{File: res.file, State: res.state})
	} else {
		out = newMessage(TypeSceneState, res.state)
	}
	out.Seq = res.seq
	out.UserID = sender.UserID
	h.broadcastToRoom(room.projectID, out, "")
}

// editFunc decodes an editing message into the engine call it makes.
func editFunc(sender *Client, msg *Message) (func(e *engine.Engine) error, error) {
	if !sender.CanEdit {
		return nil, errReadOnly
	}
	switch msg.Type {
	case TypeInputPointer:
		var p PointerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, errors.New("invalid pointer payload")
		}
		ev, ok := p.event()
		if !ok {
			return nil, errors.New("unknown pointer event")
		}
		return func(e *engine.Engine) error {
			// Panning is local to each client.
			if ev.Button != engine.ButtonMiddle {
				e.HandlePointer(ev)
			}
			return nil
		}, nil

	case TypeInputKey:
		var p KeyPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, errors.New("invalid key payload")
		}
		ev, ok := p.event()
		if !ok {
			return nil, fmt.Errorf("unknown key %q", p.Key)
		}
		return func(e *engine.Engine) error {
			e.HandleKey(ev)
			return nil
		}, nil

	case TypeInputMode:
		var p ModePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, errors.New("invalid mode payload")
		}
		mode, ok := inputModes[p.Mode]
		if !ok {
			return nil, fmt.Errorf("unknown input mode %q", p.Mode)
		}
		return func(e *engine.Engine) error {
			e.SetInputMode(mode)
			return nil
		}, nil

	case TypeTimelineSeek:
		var p SeekPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, errors.New("invalid seek payload")
		}
		return func(e *engine.Engine) error {
			if p.Time != nil {
				e.SetPlayhead(*p.Time)
			}
			if p.Playing != nil {
				if *p.Playing {
					e.Play()
				} else {
					e.Pause()
				}
			}
			return nil
		}, nil

	case TypeSceneReplace:
		var p SceneReplacePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, errors.New("invalid scene payload")
		}
		return func(e *engine.Engine) error {
			if err := e.LoadBytes(p.File); err != nil {
				return fmt.Errorf("load scene: %w", err)
			}
			return nil
		}, nil
	}
	return nil, fmt.Errorf("unknown message type %q", msg.Type)
}

func (h *Hub) handlePresenceUpdate(room *Room, sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}
	presence.DisplayName = sender.DisplayName
	room.presence.Update(sender.UserID, &presence)

	outMsg := newMessage(TypePresenceUpdate, presence)
	outMsg.UserID = sender.UserID
	h.broadcastToRoom(sender.ProjectID, outMsg, sender.ClientID)
}

func (h *Hub) broadcastToRoom(projectID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[projectID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
