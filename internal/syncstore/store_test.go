package syncstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"taskpulse/internal/models"
	"taskpulse/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTaskTimes struct {
	mu    sync.Mutex
	hours map[string]float64
}

func (r *recordingTaskTimes) IncrementActualTime(ctx context.Context, taskID string, minutes float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hours == nil {
		r.hours = make(map[string]float64)
	}
	r.hours[taskID] += minutes / 60
	return r.hours[taskID], nil
}

// newTestServer stands up a real hub behind an httptest server and returns
// the hub plus a ws:// URL for Dial
func newTestServer(t *testing.T) (*realtime.Hub, string) {
	t.Helper()

	hub := realtime.NewHub(&recordingTaskTimes{})
	hub.Start()

	wsHandler := realtime.NewHandler(hub, "*")
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		hub.Shutdown()
	})

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dialStore(t *testing.T, url string, user models.User, projectID string, opts ...StoreOption) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := Dial(ctx, url, user, projectID, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func eventually(t *testing.T, condition func() bool, msg string) {
	t.Helper()
	require.Eventually(t, condition, 2*time.Second, 10*time.Millisecond, msg)
}

func TestBothClientsSeeFullPresenceList(t *testing.T) {
	_, url := newTestServer(t)

	x := dialStore(t, url, models.User{ID: "u1", Name: "Alice"}, "p1")
	y := dialStore(t, url, models.User{ID: "u2", Name: "Bob"}, "p1")

	for _, s := range []*Store{x, y} {
		eventually(t, func() bool { return len(s.OnlineUsers()) == 2 }, "presence list never reached both users")
	}

	ids := make(map[string]bool)
	for _, u := range x.OnlineUsers() {
		ids[u.ID] = true
	}
	assert.True(t, ids["u1"])
	assert.True(t, ids["u2"])
}

func TestPresenceShrinksWhenPeerCloses(t *testing.T) {
	_, url := newTestServer(t)

	x := dialStore(t, url, models.User{ID: "u1", Name: "Alice"}, "p1")
	y := dialStore(t, url, models.User{ID: "u2", Name: "Bob"}, "p1")

	eventually(t, func() bool { return len(x.OnlineUsers()) == 2 }, "never saw peer arrive")

	require.NoError(t, y.Close())

	eventually(t, func() bool {
		users := x.OnlineUsers()
		return len(users) == 1 && users[0].ID == "u1"
	}, "departed peer still present")
}

func TestEditingBroadcastSkipsTheEditor(t *testing.T) {
	_, url := newTestServer(t)

	x := dialStore(t, url, models.User{ID: "u1", Name: "Alice"}, "p1")
	y := dialStore(t, url, models.User{ID: "u2", Name: "Bob"}, "p1")
	eventually(t, func() bool { return len(y.OnlineUsers()) == 2 }, "peers never saw each other")

	require.NoError(t, x.StartEditing("t1"))

	eventually(t, func() bool {
		mark, ok := y.EditingTasks()["t1"]
		return ok && mark.IsEditing && mark.User.ID == "u1"
	}, "peer never learned about the edit")

	assert.Empty(t, x.EditingTasks(), "editor should not receive its own editing echo")

	require.NoError(t, x.StopEditing("t1"))
	eventually(t, func() bool {
		mark, ok := y.EditingTasks()["t1"]
		return ok && !mark.IsEditing
	}, "peer never saw the edit end")
}

func TestTimeUpdateReachesEveryoneIncludingSender(t *testing.T) {
	_, url := newTestServer(t)

	x := dialStore(t, url, models.User{ID: "u1", Name: "Alice"}, "p1")
	y := dialStore(t, url, models.User{ID: "u2", Name: "Bob"}, "p1")
	eventually(t, func() bool { return len(y.OnlineUsers()) == 2 }, "peers never saw each other")

	require.NoError(t, x.EmitTaskTimeUpdate("t1", 5))

	for _, s := range []*Store{x, y} {
		eventually(t, func() bool {
			signal := s.LastMoved()
			return signal != nil && signal.TaskID == "t1" && signal.ToColumnID == HintTimeUpdated
		}, "time update signal missing")
	}
}

func TestTaskMovedSignalCarriesDestination(t *testing.T) {
	_, url := newTestServer(t)

	x := dialStore(t, url, models.User{ID: "u1", Name: "Alice"}, "p1")
	y := dialStore(t, url, models.User{ID: "u2", Name: "Bob"}, "p1")
	eventually(t, func() bool { return len(y.OnlineUsers()) == 2 }, "peers never saw each other")

	require.NoError(t, x.EmitTaskMoved("t1", "col1", "col2"))

	eventually(t, func() bool {
		signal := y.LastMoved()
		return signal != nil && signal.TaskID == "t1" && signal.ToColumnID == "col2"
	}, "move signal missing")

	assert.Nil(t, x.LastMoved(), "mover should not receive its own move")
}

func TestColumnMovedDegradesToRefreshHint(t *testing.T) {
	_, url := newTestServer(t)

	x := dialStore(t, url, models.User{ID: "u1", Name: "Alice"}, "p1")
	y := dialStore(t, url, models.User{ID: "u2", Name: "Bob"}, "p1")
	eventually(t, func() bool { return len(y.OnlineUsers()) == 2 }, "peers never saw each other")

	require.NoError(t, x.EmitColumnMoved("col1", 0, 2))

	eventually(t, func() bool {
		signal := y.LastMoved()
		return signal != nil && signal.TaskID == HintRefresh && signal.ToColumnID == HintRefresh
	}, "refresh hint missing")
}

func TestNotificationsDedupByIDAndTrackUnread(t *testing.T) {
	hub, url := newTestServer(t)

	var delivered []string
	var mu sync.Mutex
	s := dialStore(t, url, models.User{ID: "u1", Name: "Alice"}, "",
		WithNotificationHandler(func(n *models.Notification) {
			mu.Lock()
			delivered = append(delivered, n.ID)
			mu.Unlock()
		}))

	// the private room join races the server-side broadcast; wait for it
	eventually(t, func() bool { return hub.RoomSize(realtime.UserRoom("u1")) == 1 }, "user room never formed")

	n := &models.Notification{ID: "n1", UserID: "u1", Message: "You have been assigned to task: Fix login"}
	hub.SendNotification("u1", n)
	hub.SendNotification("u1", n)

	eventually(t, func() bool { return len(s.Notifications()) > 0 }, "notification never arrived")

	// the duplicate has had time to flow through by the time the next
	// distinct notification is observed
	hub.SendNotification("u1", &models.Notification{ID: "n2", UserID: "u1", Message: "You have been assigned to task: Fix logout"})
	eventually(t, func() bool { return len(s.Notifications()) == 2 }, "second notification never arrived")

	list := s.Notifications()
	assert.Equal(t, "n2", list[0].ID, "newest notification should be first")
	assert.Equal(t, "n1", list[1].ID)
	assert.Equal(t, 2, s.UnreadCount())

	mu.Lock()
	assert.Equal(t, []string{"n1", "n2"}, delivered)
	mu.Unlock()

	s.MarkAllSeen()
	assert.Zero(t, s.UnreadCount())
	assert.Len(t, s.Notifications(), 2, "marking seen keeps the list")
}

func TestCommentFanoutToTaskRoomMembers(t *testing.T) {
	hub, url := newTestServer(t)

	comments := make(chan *models.Comment, 1)
	s := dialStore(t, url, models.User{ID: "u1", Name: "Alice"}, "p1",
		WithCommentHandler(func(c *models.Comment) { comments <- c }))

	require.NoError(t, s.JoinTask("t1"))
	eventually(t, func() bool { return hub.RoomSize(realtime.TaskRoom("t1")) == 1 }, "task room never formed")

	hub.BroadcastCommentCreated("t1", &models.Comment{ID: "cm1", TaskID: "t1", UserID: "u2", Text: "ship it"})

	select {
	case c := <-comments:
		assert.Equal(t, "cm1", c.ID)
		assert.Equal(t, "ship it", c.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("comment never arrived")
	}

	require.NoError(t, s.LeaveTask("t1"))
	eventually(t, func() bool { return hub.RoomSize(realtime.TaskRoom("t1")) == 0 }, "task room never emptied")

	hub.BroadcastCommentCreated("t1", &models.Comment{ID: "cm2", TaskID: "t1", UserID: "u2", Text: "actually wait"})
	select {
	case c := <-comments:
		t.Fatalf("received comment %s after leaving the task room", c.ID)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDoneClosesWhenServerDrops(t *testing.T) {
	hub, url := newTestServer(t)

	s := dialStore(t, url, models.User{ID: "u1", Name: "Alice"}, "p1")
	eventually(t, func() bool { return len(s.OnlineUsers()) == 1 }, "never joined")

	hub.Shutdown()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not exit after hub shutdown")
	}
}
