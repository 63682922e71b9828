package main

import (
	"github.com/codehivehq/codehive/backend/internal/chat"
	"github.com/codehivehq/codehive/backend/internal/config"
	"github.com/codehivehq/codehive/backend/internal/handlers"
	"github.com/codehivehq/codehive/backend/internal/models"
	"github.com/codehivehq/codehive/backend/internal/services"
	"github.com/codehivehq/codehive/backend/internal/utils"
	"github.com/codehivehq/codehive/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the
// application.
type appServices struct {
	cfg *config.Config

	authHandler          *handlers.AuthHandler
	userHandler          *handlers.UserHandler
	projectHandler       *handlers.ProjectHandler
	projectMemberHandler *handlers.ProjectMemberHandler
	wsHandler            *handlers.WSHandler
}

// bootstrap initializes all application dependencies: database, services,
// the chat hub, and the background schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	db := models.GetDB()

	userService := services.NewUserService(db)
	authService := services.NewAuthService(db, userService, &cfg.JWT)
	projectService := services.NewProjectService(db, userService)

	authService.StartCleanupScheduler()

	hub := chat.NewHub(cfg.Chat.SendBuffer)

	return &appServices{
		cfg:                  cfg,
		authHandler:          handlers.NewAuthHandler(authService, userService),
		userHandler:          handlers.NewUserHandler(userService),
		projectHandler:       handlers.NewProjectHandler(projectService),
		projectMemberHandler: handlers.NewProjectMemberHandler(projectService),
		wsHandler:            handlers.NewWSHandler(hub, projectService, cfg.Chat),
	}
}
