package realtime

import "taskpulse/internal/models"

// registry tracks every live connection by its transport-assigned id.
// All access is guarded by the owning Hub's mutex.
type registry struct {
	conns   map[string]*Client
	nextSeq uint64
}

func newRegistry() *registry {
	return &registry{conns: make(map[string]*Client)}
}

// register records a new connection. Re-registering a known id is a no-op.
func (r *registry) register(c *Client) {
	if _, ok := r.conns[c.ID]; ok {
		return
	}
	r.nextSeq++
	c.seq = r.nextSeq
	r.conns[c.ID] = c
}

// attachIdentity associates a user with a connection. Idempotent, last call
// wins, except that a bare-id identity never overwrites a full one already
// attached for the same user (joinUserRoom only carries the id).
func (r *registry) attachIdentity(connID string, user models.User) {
	c, ok := r.conns[connID]
	if !ok {
		return
	}
	if c.user != nil && c.user.ID == user.ID && user.Name == "" {
		return
	}
	u := user
	c.user = &u
}

// unregister removes a connection and reports the rooms it was in so the
// caller can recompute presence for each. Unknown ids report nothing.
func (r *registry) unregister(connID string) ([]string, bool) {
	c, ok := r.conns[connID]
	if !ok {
		return nil, false
	}
	delete(r.conns, connID)

	keys := make([]string, 0, len(c.rooms))
	for key := range c.rooms {
		keys = append(keys, key)
	}
	return keys, true
}

func (r *registry) get(connID string) (*Client, bool) {
	c, ok := r.conns[connID]
	return c, ok
}

func (r *registry) len() int {
	return len(r.conns)
}
