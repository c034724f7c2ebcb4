package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dbnavigator/backend/internal/application/services"
	"github.com/dbnavigator/backend/internal/bootstrap"
	"github.com/dbnavigator/backend/internal/infrastructure/database"
	"github.com/dbnavigator/backend/internal/interfaces/middleware"
	"github.com/dbnavigator/backend/internal/interfaces/rest"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Optional .env next to the binary; real env wins
	if err := godotenv.Load(); err == nil {
		log.Println("📄 Loaded environment from .env")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3400"
	}

	// Initialize the local metadata store
	store, err := database.GetInstance()
	if err != nil {
		log.Fatalf("Failed to open metadata store: %v", err)
	}
	log.Println("✅ Metadata store opened")

	if err := bootstrap.InitializeSchema(store); err != nil {
		log.Fatalf("Failed to initialize metadata schema: %v", err)
	}

	// Initialize service manager
	svcMgr := services.NewServiceManager(store)
	log.Println("🔧 Service manager initialized")

	// Create Gin router
	router := gin.Default()

	// CORS middleware - the desktop shell calls from a webview origin
	router.Use(middleware.Cors())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"server": "golang",
		})
	})

	// Initialize handlers
	connectionHandler := rest.NewConnectionHandler(svcMgr)
	diffHandler := rest.NewDiffHandler(svcMgr)
	syncHandler := rest.NewSyncHandler(svcMgr)
	historyHandler := rest.NewHistoryHandler(svcMgr)
	scheduleHandler := rest.NewScheduleHandler(svcMgr)

	// API routes
	api := router.Group("/api")
	{
		connections := api.Group("/connections")
		{
			connections.GET("", connectionHandler.GetConnections)
			connections.POST("", connectionHandler.CreateConnection)
			connections.GET("/:id", connectionHandler.GetConnection)
			connections.PUT("/:id", connectionHandler.UpdateConnection)
			connections.DELETE("/:id", connectionHandler.DeleteConnection)
			connections.POST("/:id/test", connectionHandler.TestConnection)

			// Live schema browsing
			connections.GET("/:id/version", connectionHandler.GetServerVersion)
			connections.GET("/:id/schemas", connectionHandler.GetSchemas)
			connections.GET("/:id/schemas/:schema/tables", connectionHandler.GetTables)
			connections.GET("/:id/schemas/:schema/tables/:table", connectionHandler.GetTableSchema)
		}

		diff := api.Group("/diff")
		{
			diff.POST("/schema", diffHandler.CompareSchemas)
			diff.POST("/sql", diffHandler.GetMigrationSQL)
			diff.POST("/apply", diffHandler.ApplyMigration)
		}

		sync := api.Group("/sync")
		{
			sync.POST("/counts", syncHandler.GetTableRowCounts)
			sync.POST("/diff", syncHandler.GetTableDataDiff)
			sync.POST("/table", syncHandler.SyncTable)
			sync.POST("/rows", syncHandler.SyncRows)
			sync.POST("/dump", syncHandler.DumpAndRestore)
		}

		history := api.Group("/history")
		{
			history.GET("/migrations", historyHandler.GetMigrations)
			history.GET("/syncs", historyHandler.GetSyncRuns)
		}

		schedules := api.Group("/schedules")
		{
			schedules.GET("", scheduleHandler.GetSchedules)
			schedules.POST("", scheduleHandler.CreateSchedule)
			schedules.DELETE("/:id", scheduleHandler.DeleteSchedule)
			schedules.PUT("/:id/enabled", scheduleHandler.SetScheduleEnabled)
		}
	}

	// Start the sync scheduler
	if err := svcMgr.StartScheduler(context.Background()); err != nil {
		log.Printf("⚠️  Warning: Failed to start scheduler: %v", err)
	} else {
		log.Println("⏰ Sync scheduler started")
	}

	// Start server
	log.Println("🚀 DBNavigator Backend Started Successfully")
	log.Printf("📍 Server:          http://localhost:%s", port)
	log.Printf("🔌 Connections API: http://localhost:%s/api/connections", port)
	log.Printf("🧮 Diff API:        http://localhost:%s/api/diff", port)
	log.Printf("🔄 Sync API:        http://localhost:%s/api/sync", port)
	log.Printf("💚 Health check:    http://localhost:%s/health", port)

	srv := &http.Server{
		Addr:    "127.0.0.1:" + port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop the scheduler and close cached connections
	svcMgr.Shutdown()
	log.Println("🛑 Scheduler stopped, connections closed")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	if err := store.Close(); err != nil {
		log.Printf("⚠️  Warning: Failed to close metadata store: %v", err)
	}

	log.Println("Server exiting")
}
