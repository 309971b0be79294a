package collab

import (
	"cmp"
	"slices"
	"sync"
)

type presence struct {
	Participant
	conns int
}

// PresenceManager tracks who is in a room. A user with several open
// connections is listed once and leaves when the last one closes.
type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]*presence // userID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*presence),
	}
}

// Add registers a connection for p and reports whether the user is new to
// the room.
func (pm *PresenceManager) Add(p Participant) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if existing, ok := pm.presences[p.UserID]; ok {
		existing.conns++
		existing.Username = p.Username
		return false
	}
	pm.presences[p.UserID] = &presence{Participant: p, conns: 1}
	return true
}

// Remove drops a connection for userID and reports whether the user has
// left the room.
func (pm *PresenceManager) Remove(userID string) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	p, ok := pm.presences[userID]
	if !ok {
		return false
	}
	p.conns--
	if p.conns > 0 {
		return false
	}
	delete(pm.presences, userID)
	return true
}

// Participants returns the users in the room ordered by name.
func (pm *PresenceManager) Participants() []Participant {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	result := make([]Participant, 0, len(pm.presences))
	for _, p := range pm.presences {
		result = append(result, p.Participant)
	}
	slices.SortFunc(result, func(a, b Participant) int {
		return cmp.Or(cmp.Compare(a.Username, b.Username), cmp.Compare(a.UserID, b.UserID))
	})
	return result
}
