package api

import (
	"net/http"

	"taskpulse/internal/middleware"

	"github.com/gorilla/mux"
)

func SetupRoutes(h *Handler) *mux.Router {
	r := mux.NewRouter()

	// Middleware runs in order: tracing first, then recovery, then CORS
	r.Use(middleware.TracingMiddleware)
	r.Use(middleware.ErrorRecoveryMiddleware)
	r.Use(middleware.CORSMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	// Comment endpoints
	api.HandleFunc("/comments", h.CreateComment).Methods("POST")
	api.HandleFunc("/tasks/{id}/comments", h.ListTaskComments).Methods("GET")

	// Task endpoints
	api.HandleFunc("/tasks/{id}", h.GetTask).Methods("GET")
	api.HandleFunc("/tasks/{id}/time", h.IncrementTaskTime).Methods("POST")
	api.HandleFunc("/tasks/{id}/move", h.MoveTask).Methods("POST")
	api.HandleFunc("/tasks/{id}/assignee", h.UpdateTaskAssignee).Methods("PATCH")

	// Notification endpoints
	api.HandleFunc("/notifications", h.ListNotifications).Methods("GET")
	api.HandleFunc("/notifications/read-all", h.MarkAllNotificationsRead).Methods("POST")
	api.HandleFunc("/notifications/{id}/read", h.MarkNotificationRead).Methods("POST")

	// Presence endpoint
	api.HandleFunc("/projects/{id}/presence", h.GetProjectPresence).Methods("GET")

	// WebSocket route
	r.HandleFunc("/ws", h.HandleWebSocket)

	// Health check endpoint
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	return r
}
