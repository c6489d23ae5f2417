package server

import (
	"github.com/gin-gonic/gin"

	"github.com/styleswipe/backend/internal/handlers"
	"github.com/styleswipe/backend/internal/logger"
	"github.com/styleswipe/backend/internal/middleware"
	"github.com/styleswipe/backend/internal/observability"
)

type RouterConfig struct {
	Log               *logger.Logger
	Metrics           *observability.Metrics
	PhotoHandler      *handlers.PhotoHandler
	PreferenceHandler *handlers.PreferenceHandler
	SwipeHandler      *handlers.SwipeHandler
	ClickHandler      *handlers.ClickHandler
	ImageHandler      *handlers.ImageHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(middleware.Metrics(cfg.Metrics))

	router.GET("/", handlers.Root)
	router.GET("/healthcheck", handlers.HealthCheck)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	router.POST("/upload-images", cfg.PhotoHandler.Upload)
	router.POST("/save-preferences", cfg.PreferenceHandler.Save)

	api := router.Group("/api")
	{
		swipe := api.Group("/swipe/:userFolder")
		{
			swipe.GET("/products", cfg.SwipeHandler.Products)
			swipe.GET("/next", cfg.SwipeHandler.Next)
			swipe.POST("/action", cfg.SwipeHandler.Action)
			swipe.GET("/status", cfg.SwipeHandler.Status)
			swipe.GET("/liked", cfg.SwipeHandler.Liked)
			swipe.POST("/reset", cfg.SwipeHandler.Reset)
		}
		api.POST("/product/click", cfg.ClickHandler.Track)
		api.GET("/image/*key", cfg.ImageHandler.Serve)
	}

	return router
}
