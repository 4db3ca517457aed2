package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskpulse/internal/api"
	"taskpulse/internal/config"
	"taskpulse/internal/db"
	"taskpulse/internal/realtime"
	"taskpulse/internal/repository"
	"taskpulse/internal/services"
	"taskpulse/internal/telemetry"
)

func main() {
	log.Println("🚀 Starting TaskPulse collaboration server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Initialize Jaeger tracing first so all operations are traced
	jaegerShutdown, err := telemetry.InitJaeger("taskpulse", cfg.JaegerEndpoint)
	if err != nil {
		log.Printf("⚠️  Failed to initialize Jaeger: %v (continuing without tracing)", err)
		jaegerShutdown = func(ctx context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := jaegerShutdown(ctx); err != nil {
			log.Printf("⚠️  Failed to shutdown Jaeger: %v", err)
		}
	}()

	// Initialize GORM database
	database, err := db.NewGorm(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Initialize repositories
	taskRepo := repository.NewTaskRepository(database.DB)
	commentRepo := repository.NewCommentRepository(database.DB)
	notificationRepo := repository.NewNotificationRepository(database.DB)

	// Initialize the realtime hub; time increments reported over the socket
	// are persisted through the task repository before being broadcast
	hub := realtime.NewHub(taskRepo,
		realtime.WithSendBuffer(cfg.ClientSendBuffer),
		realtime.WithBroadcastQueue(cfg.BroadcastQueueSize),
	)
	hub.Start()

	wsHandler := realtime.NewHandler(hub, cfg.AllowedOrigin)

	// Notifier persists notifications and pushes them into user rooms
	notifier := services.NewNotifier(notificationRepo, taskRepo, hub)

	// Initialize handlers with dependency injection
	handler := api.NewHandler(commentRepo, hub, taskRepo, notificationRepo, notifier, hub, wsHandler)

	// Setup routes
	router := api.SetupRoutes(handler)

	// Configure HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine so shutdown signals can be handled
	go func() {
		log.Printf("🌐 Server listening on http://%s", addr)
		log.Printf("   WS     /ws                                - Realtime hub")
		log.Printf("   POST   /api/comments                      - Create comment")
		log.Printf("   GET    /api/tasks/:id/comments            - List task comments")
		log.Printf("   POST   /api/tasks/:id/time                - Increment tracked time")
		log.Printf("   POST   /api/tasks/:id/move                - Move task to column")
		log.Printf("   PATCH  /api/tasks/:id/assignee            - Reassign task")
		log.Printf("   GET    /api/notifications                 - List notifications")
		log.Printf("   GET    /api/projects/:id/presence         - Who is online")
		log.Println()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	// Close all active WebSocket connections
	hub.Shutdown()

	log.Println("✓ Server shutdown complete")
}
