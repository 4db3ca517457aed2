package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"taskpulse/internal/models"

	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T, times TaskTimes) *Hub {
	t.Helper()
	h := NewHub(times)
	h.Start()
	t.Cleanup(h.Shutdown)
	return h
}

// newTestClient registers a connection with no underlying websocket; frames
// land in its send channel where tests can read them
func newTestClient(t *testing.T, h *Hub, id string) *Client {
	t.Helper()
	c := NewClient(id, h, nil)
	h.Register(c)
	return c
}

func emit(t *testing.T, h *Hub, c *Client, event string, payload any) {
	t.Helper()
	frame, err := models.NewEnvelope(event, payload)
	require.NoError(t, err)
	h.route(context.Background(), c, frame)
}

func waitFrame(t *testing.T, c *Client) models.Envelope {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		require.True(t, ok, "send channel closed while waiting for frame")
		var env models.Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return models.Envelope{}
	}
}

// waitEvent skips frames until one with the wanted event name arrives
func waitEvent(t *testing.T, c *Client, event string) models.Envelope {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case raw, ok := <-c.send:
			require.True(t, ok, "send channel closed while waiting for %s", event)
			var env models.Envelope
			require.NoError(t, json.Unmarshal(raw, &env))
			if env.Event == event {
				return env
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s frame", event)
			return models.Envelope{}
		}
	}
}

// assertNoEvent drains the client's queue for a short window and fails if a
// frame with the given event name shows up; other frames (pending presence
// refreshes and the like) are ignored
func assertNoEvent(t *testing.T, c *Client, event string) {
	t.Helper()
	deadline := time.After(100 * time.Millisecond)
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				return
			}
			var env models.Envelope
			require.NoError(t, json.Unmarshal(raw, &env))
			if env.Event == event {
				t.Fatalf("unexpected %s frame: %s", event, raw)
			}
		case <-deadline:
			return
		}
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		if ok {
			t.Fatalf("unexpected frame: %s", raw)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func decode[T any](t *testing.T, env models.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func alice() models.User {
	return models.User{ID: "u1", Name: "Alice", Email: "alice@example.com"}
}

func bob() models.User {
	return models.User{ID: "u2", Name: "Bob", Email: "bob@example.com"}
}
