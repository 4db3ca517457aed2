package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomKeys(t *testing.T) {
	assert.Equal(t, "project:p1", ProjectRoom("p1"))
	assert.Equal(t, "task:t1", TaskRoom("t1"))
	assert.Equal(t, "user:u1", UserRoom("u1"))
}

func TestRoomRouterJoinCreatesRoomLazily(t *testing.T) {
	rr := newRoomRouter()
	c := &Client{ID: "c1", rooms: make(map[string]struct{})}

	assert.Equal(t, 0, rr.size("project:p1"))

	rr.join(c, "project:p1")

	assert.Equal(t, 1, rr.size("project:p1"))
	assert.Contains(t, c.rooms, "project:p1")
}

func TestRoomRouterJoinIsIdempotent(t *testing.T) {
	rr := newRoomRouter()
	c := &Client{ID: "c1", rooms: make(map[string]struct{})}

	rr.join(c, "project:p1")
	rr.join(c, "project:p1")

	assert.Equal(t, 1, rr.size("project:p1"))
}

func TestRoomRouterLeaveDropsEmptyRoom(t *testing.T) {
	rr := newRoomRouter()
	c := &Client{ID: "c1", rooms: make(map[string]struct{})}

	rr.join(c, "project:p1")
	rr.leave(c, "project:p1")

	assert.Equal(t, 0, rr.size("project:p1"))
	assert.NotContains(t, c.rooms, "project:p1")
	assert.Empty(t, rr.rooms)
}

func TestRoomRouterLeaveUnknownRoomIsNoOp(t *testing.T) {
	rr := newRoomRouter()
	c := &Client{ID: "c1", rooms: make(map[string]struct{})}

	rr.leave(c, "project:ghost")

	assert.Empty(t, rr.rooms)
}

func TestRoomRouterLeaveAll(t *testing.T) {
	rr := newRoomRouter()
	c1 := &Client{ID: "c1", rooms: make(map[string]struct{})}
	c2 := &Client{ID: "c2", rooms: make(map[string]struct{})}

	rr.join(c1, "project:p1")
	rr.join(c1, "task:t1")
	rr.join(c2, "project:p1")

	rr.leaveAll(c1)

	assert.Empty(t, c1.rooms)
	assert.Equal(t, 0, rr.size("task:t1"))
	assert.Equal(t, 1, rr.size("project:p1"), "other members stay joined")
}

func TestRoomRouterMembersAreIsolatedPerRoom(t *testing.T) {
	rr := newRoomRouter()
	c1 := &Client{ID: "c1", rooms: make(map[string]struct{})}
	c2 := &Client{ID: "c2", rooms: make(map[string]struct{})}

	rr.join(c1, "project:a")
	rr.join(c2, "project:b")

	members := rr.members("project:a")
	assert.Len(t, members, 1)
	assert.Equal(t, "c1", members[0].ID)
}
