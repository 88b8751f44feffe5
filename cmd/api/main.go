package main

import (
	"context"
	"log"

	_ "stocksync/api/swagger" // swagger docs
	"stocksync/internal/config"
	"stocksync/internal/database"
	"stocksync/internal/handler"
	"stocksync/internal/repository"
	"stocksync/internal/service"
	"stocksync/internal/sheets"
	"stocksync/internal/shopify"
	"stocksync/internal/syncer"
	"stocksync/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Stock Sync Ops API
// @version         1.0
// @description     Operations API for the order-to-inventory reconciliation engine.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	db, err := database.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	report, err := sheets.NewClient(context.Background(), cfg.GoogleCredentialsJSON, cfg.SpreadsheetID)
	if err != nil {
		log.Fatalf("Sheets client failed: %v", err)
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	master := shopify.NewClientWithPacing(cfg.Master.Domain, cfg.Master.Token, cfg.Pace, cfg.RetryDelay)
	var secondary service.OrderSource
	var stockSync service.StockSyncer
	if cfg.MultiStore() {
		secondaryClient := shopify.NewClientWithPacing(cfg.Secondary.Domain, cfg.Secondary.Token, cfg.Pace, cfg.RetryDelay)
		secondary = secondaryClient
		stockSync = syncer.New(master, secondaryClient, cfg.LocationID)
	}

	ledgerRepo := repository.NewLedgerRepository(db)
	importRepo := repository.NewImportRepository(db)
	runRepo := repository.NewRunRepository(db)
	txManager := repository.NewTransactionManager(db)

	syncService := service.NewSyncService(cfg, master, secondary, stockSync, report, ledgerRepo, importRepo, runRepo, txManager, wsHub)
	authService := service.NewAuthService(cfg)

	// Initialize Handlers
	syncHandler := handler.NewSyncHandler(syncService, []byte(cfg.JWTSecret))
	authHandler := handler.NewAuthHandler(authService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint: live run events
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, []byte(cfg.JWTSecret))
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	syncHandler.RegisterRoutes(router.Group(""))

	log.Printf("Server listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
