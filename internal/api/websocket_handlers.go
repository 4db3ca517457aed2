package api

import (
	"net/http"
)

// WebSocket endpoint

// HandleWebSocket hands the connection to the realtime hub. A single
// endpoint serves all rooms; clients join project, task and user rooms by
// sending join events after connecting.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.ws.ServeWS(w, r)
}
