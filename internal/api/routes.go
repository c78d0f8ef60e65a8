package api

import (
	"log/slog"
	"net/http"
	"time"

	"autodealer/inventory/internal/config"
	"autodealer/inventory/internal/logging"
	"autodealer/inventory/internal/metrics"
	"autodealer/inventory/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles what the HTTP layer depends on.
type Services struct {
	Auth   service.AuthService
	Admins service.AdminService
	Cars   service.CarService
	Parts  service.PartService
	Images service.ImageService
	// Ping checks the database for /api/health.
	Ping PingFunc
	// Metrics and Gatherer may be nil; /metrics is only mounted with a Gatherer.
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// NewRouter builds the engine with recovery, request logging and CORS, then
// mounts every route.
func NewRouter(cfg config.ServerConfig, svc Services, logger *slog.Logger) *gin.Engine {
	logger = logging.OrDiscard(logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger.With("component", "http"), svc.Metrics))
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	SetupRoutes(router, cfg, svc, logger)
	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

func SetupRoutes(router *gin.Engine, cfg config.ServerConfig, svc Services, logger *slog.Logger) {
	authHandler := NewAuthHandler(svc.Auth, logger.With("component", "auth"))
	adminHandler := NewAdminHandler(svc.Admins, logger.With("component", "admins"))
	carHandler := NewCarHandler(svc.Cars, logger.With("component", "cars"))
	partHandler := NewPartHandler(svc.Parts, logger.With("component", "parts"))
	imageHandler := NewImageHandler(svc.Images, logger.With("component", "images"))
	healthHandler := NewHealthHandler(svc.Ping, cfg.Environment, logger.With("component", "health"))

	authMiddleware := AuthMiddleware(svc.Auth)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if svc.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(svc.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	api.GET("/health", healthHandler.Health)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", RateLimit(cfg.LoginRatePerMinute), authHandler.Login)
	}

	// --- Image Routes ---
	// get and signed-url are public; the storefront renders photos through them.
	imageGroup := api.Group("/images")
	{
		imageGroup.GET("/get", imageHandler.Get)
		imageGroup.POST("/signed-url", imageHandler.SignedURL)

		imageGroup.POST("/commit", authMiddleware, imageHandler.Commit)
		imageGroup.POST("/cleanup", authMiddleware, imageHandler.Cleanup)
		imageGroup.POST("/upload", authMiddleware, imageHandler.Upload)
		imageGroup.POST("/presign", authMiddleware, imageHandler.Presign)
		imageGroup.DELETE("/delete", authMiddleware, imageHandler.Delete)
		imageGroup.POST("/delete", authMiddleware, imageHandler.DeleteMany)
	}

	api.GET("/admins", authMiddleware, adminHandler.ListAdmins)

	// --- Listing Routes ---
	// Reads are public, writes need an admin token.
	carGroup := api.Group("/cars")
	{
		carGroup.GET("", carHandler.ListCars)
		carGroup.GET("/:id", carHandler.GetCar)
		carGroup.POST("", authMiddleware, carHandler.CreateCar)
		carGroup.PUT("/:id", authMiddleware, carHandler.UpdateCar)
		carGroup.DELETE("/:id", authMiddleware, carHandler.DeleteCar)
	}

	partGroup := api.Group("/parts")
	{
		partGroup.GET("", partHandler.ListParts)
		partGroup.GET("/:id", partHandler.GetPart)
		partGroup.POST("", authMiddleware, partHandler.CreatePart)
		partGroup.PUT("/:id", authMiddleware, partHandler.UpdatePart)
		partGroup.DELETE("/:id", authMiddleware, partHandler.DeletePart)
	}
}
