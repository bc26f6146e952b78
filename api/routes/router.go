package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gatepass/internal/auth"
	"gatepass/internal/bookings"
	"gatepass/internal/passes"
	"gatepass/internal/places"
	"gatepass/internal/settlement"
	"gatepass/internal/shared/config"
	"gatepass/internal/shared/database"
	"gatepass/internal/users"
	"gatepass/pkg/cache"
)

// Notifier is the fan-out sink wired into booking confirmations and refund
// settlements. nil disables outbound notifications without touching the
// request path.
type Notifier interface {
	settlement.Notifier
	bookings.Notifier
}

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	notifier Notifier
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, notifier Notifier) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		notifier: notifier,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	pg := r.db.GetPostgreSQL()
	cacheService := cache.NewService(r.db.GetRedisClient())

	// Repositories are shared across features; the settlement engine
	// mutates through the same CAS methods the feature services read with.
	userRepo := users.NewRepository(pg)
	placeRepo := places.NewRepository(pg)
	bookingRepo := bookings.NewRepository(pg)
	passRepo := passes.NewRepository(pg)

	placeService := places.NewService(placeRepo, userRepo)
	placeService.SetCacheService(cacheService)

	passService := passes.NewService(passRepo)
	passService.SetCacheService(cacheService)

	bookingService := bookings.NewService(bookingRepo, placeRepo, userRepo)

	engineCore := settlement.NewEngine(passRepo, bookingRepo, placeRepo, r.config.Settlement.ProcessingEstimate)
	settlementService := settlement.NewService(engineCore, passRepo, bookingRepo, placeRepo, userRepo)
	settlementService.SetCacheService(cacheService)

	if r.notifier != nil {
		bookingService.SetNotifier(r.notifier)
		settlementService.SetNotifier(r.notifier)
	}

	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)

		places.SetupPlaceRoutes(api, places.NewController(placeService))
		bookings.SetupBookingRoutes(api, bookings.NewController(bookingService))
		passes.SetupPassRoutes(api, passes.NewController(passService))
		settlement.SetupSettlementRoutes(api, settlement.NewController(settlementService))
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "gatepass-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "gatepass-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, r.config)

	auth.SetupAuthRoutes(rg, auth.NewController(authService), r.config)
}
