package main

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"condo-tracker/internal/buildings"
	"condo-tracker/internal/config"
	"condo-tracker/internal/database"
	"condo-tracker/internal/handlers"
	"condo-tracker/internal/logger"
	"condo-tracker/internal/photos"
	"condo-tracker/internal/ratelimit"
	"condo-tracker/internal/sales"
	"condo-tracker/internal/scheduler"
	"condo-tracker/internal/search"
	"condo-tracker/internal/tracker"
)

func main() {
	// Load configuration
	configPath := getEnv("CONFIG_PATH", "config/tracker.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		cfg = config.DefaultConfig()
	}

	if err := logger.Initialize(cfg.Logging.Debug); err != nil {
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("Loaded configuration", zap.String("path", configPath))

	// Database
	gormDB, err := database.NewGormDB(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer gormDB.Close()

	if err := gormDB.InitSchema(); err != nil {
		logger.Fatal("Failed to initialize schema", zap.Error(err))
	}
	db := gormDB.DB()

	// Search (optional)
	var searchClient *search.SearchClient
	if cfg.Search.Meilisearch.Enabled {
		searchClient = search.NewSearchClient(cfg.Search.Meilisearch.Host, cfg.Search.Meilisearch.APIKey)
		if err := searchClient.InitIndex(); err != nil {
			logger.Warn("Failed to initialize search index", zap.Error(err))
		}
	}
	indexer := search.NewIndexer(db, searchClient)

	// Outbound photo fetch rate limiter
	rateLimiter := ratelimit.NewRateLimiter(
		cfg.RateLimit.RequestsPerMinute,
		cfg.RateLimit.RequestsPerHour,
		cfg.RateLimit.Enabled,
	)

	// Services
	photoSvc, err := photos.NewService(db, cfg.Photos, rateLimiter)
	if err != nil {
		logger.Fatal("Failed to initialize photo storage", zap.Error(err))
	}

	resolver := buildings.NewResolver(db)
	trackerSvc := tracker.NewService(db, resolver, photoSvc)
	saleSvc := sales.NewService(db, resolver)

	// Background jobs
	sched := scheduler.NewScheduler(photoSvc, cfg)
	if err := sched.Start(); err != nil {
		logger.Warn("Failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	queueWorker := scheduler.NewPhotoQueueWorker(db, photoSvc)
	queueWorker.Start()
	defer queueWorker.Stop()

	// Handlers
	listingHandler := handlers.NewListingHandler(trackerSvc, photoSvc, indexer, cfg.Photos.UpsertWait())
	saleHandler := handlers.NewSaleHandler(saleSvc, photoSvc, cfg.Photos.UpsertWait())
	buildingHandler := handlers.NewBuildingHandler(resolver)
	adminHandler := handlers.NewAdminHandler(db, photoSvc, queueWorker, indexer, rateLimiter)

	// Gin router
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/health", healthCheck)

	// Stored photo files, addressed by their DB-recorded relative paths
	r.Static("/photos", cfg.Photos.StoragePath)

	api := r.Group("/api")
	{
		api.PUT("/listings", listingHandler.UpsertListing)
		api.GET("/listings", listingHandler.ListListings)
		api.GET("/listings/:mls", listingHandler.GetListing)
		api.PATCH("/listings/:mls", listingHandler.PatchListing)
		api.PATCH("/listings/:mls/status", listingHandler.UpdateStatus)
		api.GET("/listings/:mls/prices", listingHandler.GetPriceHistory)
		api.POST("/listings/:mls/prices", listingHandler.RecordPrice)
		api.DELETE("/listings/:mls", listingHandler.DeleteListing)
		api.DELETE("/listings/:mls/photos", listingHandler.PurgePhotos)

		api.POST("/sales", saleHandler.CreateSale)
		api.GET("/sales", saleHandler.ListSales)
		api.POST("/sales/import", saleHandler.ImportCSV)

		api.GET("/buildings", buildingHandler.ListBuildings)
		api.GET("/buildings/:id", buildingHandler.GetBuilding)
		api.GET("/buildings/:id/stats", buildingHandler.GetBuildingStats)
		api.GET("/neighborhoods", buildingHandler.ListNeighborhoods)

		api.GET("/search", listingHandler.SearchListings)
	}

	admin := r.Group("/api/admin")
	{
		admin.GET("/stats", adminHandler.GetStats)
		admin.GET("/events", adminHandler.GetRecentEvents)
		admin.POST("/reconcile", adminHandler.RunReconcile)
		admin.POST("/reindex", adminHandler.Reindex)
	}

	port := getEnv("PORT", "8084")
	if cfg.Server.Port > 0 {
		port = getEnv("PORT", strconv.Itoa(cfg.Server.Port))
	}
	logger.Info("Server starting", zap.String("port", port))
	if err := r.Run(":" + port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
