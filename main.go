package main

import (
	"log"
	"time"

	"folio-tracker-service/cache"
	"folio-tracker-service/config"
	"folio-tracker-service/database"
	"folio-tracker-service/dataprovider"
	"folio-tracker-service/handlers"
	"folio-tracker-service/middleware"
	"folio-tracker-service/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Initialize database
	if err := database.InitDB(config.AppConfig.DBPath); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Statistics cache: Redis when configured, in-memory otherwise
	var store cache.Store
	if config.AppConfig.RedisAddr != "" {
		store = cache.NewRedisStore(config.AppConfig.RedisAddr, config.AppConfig.RedisPassword, config.AppConfig.RedisDB)
		log.Printf("Using Redis cache at %s", config.AppConfig.RedisAddr)
	} else {
		store = cache.NewMemoryStore()
		log.Println("REDIS_ADDR not set, using in-memory cache")
	}

	provider := dataprovider.NewYahooService(config.AppConfig.DataProviderBaseURL)

	services.SetGlobalImportService(services.NewImportService(database.GetDB(), provider))
	services.SetGlobalInfoService(services.NewInfoService(database.GetDB(), store))

	// Start rate limit cleanup goroutine
	go middleware.CleanupRateLimitStore()

	// Setup Gin router
	router := gin.Default()

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public routes
	public := router.Group("/api")
	{
		public.POST("/users", handlers.CreateAnonymousUser)
		public.POST("/auth/anonymous", handlers.AnonymousLogin)
		public.GET("/info", handlers.GetInfo)
	}

	// Protected routes (require authentication)
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.POST("/import",
			middleware.RateLimitMiddleware(10, 1*time.Minute, 5*time.Minute),
			handlers.ImportOrders)
	}

	// Start server
	log.Printf("Server starting on port %s", config.AppConfig.Port)
	if err := router.Run(":" + config.AppConfig.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
