package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plantlog/plantlog-server/internal/api"
	"github.com/plantlog/plantlog-server/internal/config"
	"github.com/plantlog/plantlog-server/internal/repository"
	"github.com/plantlog/plantlog-server/internal/service"
	"github.com/plantlog/plantlog-server/internal/utils"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	logger := utils.NewLogger()

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to set up database: %v", err)
	}
	defer db.Close()

	// Create repository
	repo := repository.NewPostgresRepository(db)

	// Create service
	svc := service.NewDefaultService(repo, cfg.Auth, logger)

	// Sweep expired sessions in the background. Expired tokens are
	// rejected on resolve regardless; this just keeps the table small.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := repo.DeleteExpiredSessions(context.Background(), time.Now().UTC()); err != nil {
				logger.Error("failed to sweep expired sessions: %v", err)
			}
		}
	}()

	// Create API handler
	handler := api.NewHandler(svc, logger)

	// Set up Gin router
	router := gin.Default()

	// Set up routes
	handler.SetupRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", serverAddr)
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
