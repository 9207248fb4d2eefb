package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/reelmates/reelmates/pkg/reelmates/auth"
	"github.com/reelmates/reelmates/pkg/reelmates/database"
	"github.com/reelmates/reelmates/pkg/reelmates/directory"
	"github.com/reelmates/reelmates/pkg/reelmates/enrichment"
	"github.com/reelmates/reelmates/pkg/reelmates/events"
	"github.com/reelmates/reelmates/pkg/reelmates/groups"
	"github.com/reelmates/reelmates/pkg/reelmates/logging"
	"github.com/reelmates/reelmates/pkg/reelmates/matching"
	"github.com/reelmates/reelmates/pkg/reelmates/memberships"
	"github.com/reelmates/reelmates/pkg/reelmates/metrics"
	"github.com/reelmates/reelmates/pkg/reelmates/models"
	"github.com/reelmates/reelmates/pkg/reelmates/store"
	"github.com/reelmates/reelmates/pkg/reelmates/watchlist"
)

func main() {
	logging.Setup()

	// Get database path from environment or use default
	dbPath := os.Getenv("REELMATES_DB_PATH")
	if dbPath == "" {
		dbPath = "reelmates.db"
	}

	// Connect to database
	if err := database.Connect(dbPath); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := models.AutoMigrate(database.GetDB()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	db := database.GetDB()
	groupStore := store.NewGormStore(db)
	users := directory.NewGormDirectory(db)
	sink := events.NewActivitySink(db)
	watchlists := watchlist.NewStore(db)

	// Metadata enrichment is optional: without a catalog URL, matches are
	// returned undecorated.
	var describer enrichment.Describer
	if catalogURL := os.Getenv("REELMATES_METADATA_URL"); catalogURL != "" {
		describer = enrichment.NewClient(catalogURL)
	}

	groupService := groups.NewService(groupStore, users, sink)
	membershipService := memberships.NewService(groupStore, sink)
	matcher := matching.NewMatcher(groupStore, watchlists, describer)

	// Set up Gin router
	r := gin.Default()
	r.Use(metrics.Middleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Prometheus metrics
	r.GET("/metrics", metrics.Handler())

	// API routes
	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "ok",
				"service": "reelmates",
			})
		})

		// Auth routes (public)
		authHandler := auth.NewHandler(db)
		authHandler.RegisterRoutes(api.Group("/auth"))

		// Protected routes
		protected := api.Group("", auth.AuthMiddleware())

		groupsHandler := groups.NewHandler(groupService)
		groupsHandler.RegisterRoutes(protected)

		membershipsHandler := memberships.NewHandler(membershipService)
		membershipsHandler.RegisterRoutes(protected)

		matchingHandler := matching.NewHandler(matcher)
		matchingHandler.RegisterRoutes(protected)

		watchlistHandler := watchlist.NewHandler(watchlists)
		watchlistHandler.RegisterRoutes(protected)
	}

	// Start server
	addr := os.Getenv("REELMATES_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("Starting server on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
