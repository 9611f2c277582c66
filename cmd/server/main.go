package main

import (
	"log"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/konbon-dev/konbon-api/internal/config"
	"github.com/konbon-dev/konbon-api/internal/constants"
	"github.com/konbon-dev/konbon-api/internal/database"
	"github.com/konbon-dev/konbon-api/internal/handlers"
	"github.com/konbon-dev/konbon-api/internal/middleware"
	"github.com/konbon-dev/konbon-api/internal/repository"
	"github.com/konbon-dev/konbon-api/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.AddIndexes(database.GetDB()); err != nil {
		log.Fatalf("Failed to add indexes: %v", err)
	}

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction, // true in production (HTTPS), false in development
		SameSite: 2,            // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Initialize repositories
	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	columnRepo := repository.NewColumnRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo)
	accessService := services.NewAccessService(boardRepo, taskRepo)
	boardService := services.NewBoardService(boardRepo, taskRepo, userRepo)
	columnService := services.NewColumnService(columnRepo, boardRepo)
	taskService := services.NewTaskService(taskRepo, columnRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(authService)
	boardHandler := handlers.NewBoardHandler(boardService, accessService)
	columnHandler := handlers.NewColumnHandler(columnService, accessService)
	taskHandler := handlers.NewTaskHandler(taskService, columnService, accessService, authService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Konbon API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// User directory (protected)
		api.GET("/users", middleware.RequireAuth(), userHandler.ListUsers)

		// Board routes (protected)
		boards := api.Group("/boards")
		boards.Use(middleware.RequireAuth())
		{
			boards.POST("", boardHandler.CreateBoard)
			boards.GET("", boardHandler.ListBoards)
			boards.GET("/:id", boardHandler.GetBoard)
			boards.DELETE("/:id", middleware.RequireBoardMember(), middleware.RequireBoardOwner(), boardHandler.DeleteBoard)
			boards.GET("/:id/members", middleware.RequireBoardMember(), boardHandler.ListMembers)
			boards.POST("/:id/members", middleware.RequireBoardMember(), boardHandler.AddMember)
			boards.DELETE("/:id/members", middleware.RequireBoardMember(), boardHandler.RemoveMember)
			boards.GET("/:id/members/available", middleware.RequireBoardMember(), boardHandler.AvailableUsers)
		}

		// Column routes (protected)
		columns := api.Group("/columns")
		columns.Use(middleware.RequireAuth())
		{
			columns.GET("", columnHandler.ListColumns)
			columns.POST("", columnHandler.CreateColumn)
			columns.PATCH("/:id", columnHandler.UpdateColumn)
			columns.DELETE("/:id", columnHandler.DeleteColumn)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", middleware.RequireTaskAccess(), taskHandler.GetTask)
			tasks.PATCH("/:id", middleware.RequireTaskAccess(), middleware.RequireTaskMutation(), taskHandler.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireTaskAccess(), middleware.RequireTaskMutation(), taskHandler.DeleteTask)
		}
	}

	// Start server
	log.Println("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
