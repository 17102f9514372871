package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hostelhub-backend/internal/config"
	"hostelhub-backend/internal/database"
	"hostelhub-backend/internal/handler"
	"hostelhub-backend/internal/middleware"
	"hostelhub-backend/internal/repository"
	"hostelhub-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()

	// Database
	db, err := database.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations applied successfully")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret)
	presence := service.NewPresenceRegistry()
	hub := service.NewHub(presence)
	chatSvc := service.NewChatService(messageRepo, hub, presence)

	// Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BodyLimit:    1 * 1024 * 1024, // 1MB
	})

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// Health
	healthH := handler.NewHealthHandler(db, presence)
	app.Get("/health", healthH.Health)
	app.Get("/ready", healthH.Ready)

	// API v1
	v1 := app.Group("/api/v1")

	// Auth (public)
	authH := handler.NewAuthHandler(authSvc)
	auth := v1.Group("/auth")
	auth.Post("/register", middleware.RateLimit(5, time.Minute), authH.Register)
	auth.Post("/login", middleware.RateLimit(10, time.Minute), authH.Login)

	// JWT-protected routes
	protected := v1.Group("", middleware.Auth(cfg.JWTSecret))

	// Messages
	messageH := handler.NewMessageHandler(messageRepo)
	messages := protected.Group("/messages")
	messages.Post("/send", messageH.Send)
	messages.Get("/", messageH.History)
	messages.Get("/conversations", messageH.Conversations)
	messages.Get("/unread", messageH.Unread)
	messages.Put("/read", messageH.MarkRead)
	messages.Delete("/conversation", messageH.DeleteConversation)

	// WebSocket
	wsH := handler.NewWSHandler(chatSvc, authSvc)
	app.Get("/ws", wsH.Upgrade)

	// Start hub
	go hub.Run()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Printf("HostelHub backend running on :%s (%s)", cfg.Port, cfg.Env)

	<-quit
	log.Println("Shutting down...")
	_ = app.ShutdownWithTimeout(5 * time.Second)
	hub.Shutdown()
	log.Println("Server stopped")
}
