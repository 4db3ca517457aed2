package realtime

// Room keys. A room is a named broadcast group; the key encodes what the
// group is scoped to.
func ProjectRoom(projectID string) string { return "project:" + projectID }
func TaskRoom(taskID string) string      { return "task:" + taskID }
func UserRoom(userID string) string      { return "user:" + userID }

// roomRouter maps room keys to the set of connections joined to them.
// Rooms are created lazily on first join and dropped when the last member
// leaves. All access is guarded by the owning Hub's mutex.
type roomRouter struct {
	rooms map[string]map[*Client]bool
}

func newRoomRouter() *roomRouter {
	return &roomRouter{rooms: make(map[string]map[*Client]bool)}
}

// join adds the connection to the room, creating the room if needed.
// Joining a room twice leaves membership unchanged.
func (rr *roomRouter) join(c *Client, roomKey string) {
	if rr.rooms[roomKey] == nil {
		rr.rooms[roomKey] = make(map[*Client]bool)
	}
	rr.rooms[roomKey][c] = true
	c.rooms[roomKey] = struct{}{}
}

// leave removes the connection from the room and drops the room once empty
func (rr *roomRouter) leave(c *Client, roomKey string) {
	if members, ok := rr.rooms[roomKey]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(rr.rooms, roomKey)
		}
	}
	delete(c.rooms, roomKey)
}

// leaveAll removes the connection from every room it had joined
func (rr *roomRouter) leaveAll(c *Client) {
	for key := range c.rooms {
		rr.leave(c, key)
	}
}

// members returns the connections currently joined to the room
func (rr *roomRouter) members(roomKey string) []*Client {
	room := rr.rooms[roomKey]
	result := make([]*Client, 0, len(room))
	for c := range room {
		result = append(result, c)
	}
	return result
}

func (rr *roomRouter) size(roomKey string) int {
	return len(rr.rooms[roomKey])
}
