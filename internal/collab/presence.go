package collab

import (
	"maps"
	"sync"

	"github.com/linebaby/linebaby/internal/document"
)

// Presence tracks where each user in a room is pointing and which stroke
// they last had selected.
type Presence struct {
	mu    sync.RWMutex
	users map[string]*PresencePayload // userID -> presence
}

func NewPresence() *Presence {
	return &Presence{users: make(map[string]*PresencePayload)}
}

func (p *Presence) Update(userID string, v *PresencePayload) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[userID] = v
}

// Select records the stroke a user's last edit left selected.
func (p *Presence) Select(userID, displayName string, id document.StrokeID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := PresencePayload{DisplayName: displayName}
	if cur, ok := p.users[userID]; ok {
		next = *cur
	}
	next.Selected = id
	p.users[userID] = &next
}

func (p *Presence) Remove(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.users, userID)
}

func (p *Presence) All() map[string]*PresencePayload {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return maps.Clone(p.users)
}

func (p *Presence) StateMessage() *Message {
	return newMessage(TypePresenceState, PresenceStatePayload{Presences: p.All()})
}
