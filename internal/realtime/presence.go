package realtime

import (
	"sort"

	"taskpulse/internal/models"
)

// presenceLocked derives the de-duplicated list of users visible in a room.
// It is recomputed from connection membership on every change rather than
// cached, so it can never drift from the registry. Connections are ordered
// by registration sequence, and when a user holds several connections the
// earliest-registered one's identity snapshot wins. Callers must hold h.mu.
func (h *Hub) presenceLocked(roomKey string) []models.User {
	members := h.rooms.members(roomKey)
	sort.Slice(members, func(i, j int) bool {
		return members[i].seq < members[j].seq
	})

	users := make([]models.User, 0, len(members))
	seen := make(map[string]bool, len(members))
	for _, c := range members {
		if c.user == nil || seen[c.user.ID] {
			continue
		}
		seen[c.user.ID] = true
		users = append(users, *c.user)
	}
	return users
}

// Presence returns the current presence list for a project room
func (h *Hub) Presence(projectID string) []models.User {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.presenceLocked(ProjectRoom(projectID))
}

// broadcastPresence fans the full replacement presence list out to every
// connection in the project room, including whoever triggered the change.
// The list itself is derived on the loop goroutine when the message is
// delivered, so overlapping membership changes can never leave the room on
// a stale list.
func (h *Hub) broadcastPresence(roomKey string) {
	h.enqueue(&broadcastMessage{presenceOf: roomKey})
}
