package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/styleswipe/backend/internal/db"
	"github.com/styleswipe/backend/internal/handlers"
	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/observability"
	"github.com/styleswipe/backend/internal/repos"
	"github.com/styleswipe/backend/internal/server"
	"github.com/styleswipe/backend/internal/services"
	"github.com/styleswipe/backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	port := utils.GetEnv("PORT", "8080", log)
	deckSize := utils.GetEnvAsInt("DECK_SIZE", 5, log)
	workerConcurrency := utils.GetEnvAsInt("IMAGE_WORKER_CONCURRENCY", 3, log)
	generationTimeout := utils.GetEnvAsInt("IMAGE_GENERATION_TIMEOUT_SECONDS", 120, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Metrics
	metrics := observability.Init(log)
	metrics.StartDomainCollector(context.Background(), log, thePG)
	metrics.StartPostgresCollector(context.Background(), log, thePG)
	metrics.StartRedisCollector(context.Background(), log, os.Getenv("METRICS_REDIS_ADDR"))

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userPhotoRepo := repos.NewUserPhotoRepo(thePG, log)
	preferenceRepo := repos.NewPreferenceRepo(thePG, log)
	productRepo := repos.NewProductRepo(thePG, log)
	productImageRepo := repos.NewProductImageRepo(thePG, log)
	swipeSessionRepo := repos.NewSwipeSessionRepo(thePG, log)
	swipeRepo := repos.NewSwipeRepo(thePG, log)
	engagementEventRepo := repos.NewEngagementEventRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Error("Could not init BucketService", "error", err)
		os.Exit(1)
	}
	searchClient, err := services.NewSerpClient(log)
	if err != nil {
		log.Warn("Could not init SerpClient, decks will be empty", "error", err)
	}
	imageGenClient, err := services.NewImageGenClient(log)
	if err != nil {
		log.Warn("Could not init ImageGenClient, views will stay pending", "error", err)
	}
	placeholderService, err := services.NewPlaceholderService(log)
	if err != nil {
		log.Warn("Could not init PlaceholderService", "error", err)
	}

	var taxonomy *services.Taxonomy
	if path := os.Getenv("CATALOG_TAXONOMY_PATH"); path != "" {
		taxonomy, err = services.LoadTaxonomy(path)
		if err != nil {
			log.Warn("Could not load catalog taxonomy", "error", err)
		}
	}

	userService := services.NewUserService(log, userRepo)
	photoService := services.NewPhotoService(log, userPhotoRepo, bucketService)
	preferenceService := services.NewPreferenceService(log, preferenceRepo)
	sourcingService := services.NewSourcingService(log, searchClient, bucketService, placeholderService, taxonomy, deckSize)
	enrichmentService := services.NewEnrichmentService(
		log, photoService, bucketService, imageGenClient, productImageRepo,
		workerConcurrency, time.Duration(generationTimeout)*time.Second,
	)
	deckService := services.NewDeckService(
		thePG, log, sourcingService, enrichmentService, bucketService,
		productRepo, productImageRepo, swipeSessionRepo, swipeRepo,
	)
	engagementService := services.NewEngagementService(log, engagementEventRepo)
	sessionService := services.NewSessionService(
		thePG, log, deckService, engagementService,
		productRepo, swipeSessionRepo, swipeRepo,
	)

	// Handlers
	log.Info("Setting up Handlers from main...")
	photoHandler := handlers.NewPhotoHandler(userService, photoService, bucketService)
	preferenceHandler := handlers.NewPreferenceHandler(userService, preferenceService, deckService)
	swipeHandler := handlers.NewSwipeHandler(userService, deckService, sessionService)
	clickHandler := handlers.NewClickHandler(userService, engagementService, productRepo)
	imageHandler := handlers.NewImageHandler(bucketService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		PhotoHandler:      photoHandler,
		PreferenceHandler: preferenceHandler,
		SwipeHandler:      swipeHandler,
		ClickHandler:      clickHandler,
		ImageHandler:      imageHandler,
	})

	log.Info("Starting server...", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
