package handlers

import (
	"fan_controller/internal/broadcast"
	"fan_controller/internal/logger"
	"fan_controller/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Hub tracks live event subscribers.
type Hub interface {
	Connect(s broadcast.Subscriber)
	Disconnect(s broadcast.Subscriber)
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	hub      Hub
	gatherer prometheus.Gatherer
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
// A nil gatherer serves the default Prometheus registry.
func NewHandler(services *service.Service, hub Hub, gatherer prometheus.Gatherer, log *logger.Logger) *Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{services: services, hub: hub, gatherer: gatherer, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	router.GET("/health", h.health)

	h.registerAPIRoutes(router)

	// live events, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		h.registerDashboardRoutes(api)
		h.registerCurveRoutes(api)
		h.registerSettingsRoutes(api)
	}
}

func (h *Handler) registerDashboardRoutes(api *gin.RouterGroup) {
	dashboard := api.Group("/dashboard")
	{
		dashboard.GET("/status", h.getStatus)
		dashboard.GET("/history", h.getHistory)
		dashboard.POST("/restore-auto", h.restoreAuto)
	}
}

func (h *Handler) registerCurveRoutes(api *gin.RouterGroup) {
	curve := api.Group("/curve")
	{
		curve.GET("", h.getCurve)
		// Body example: {"points":[{"temp":50,"speed":15},{"temp":80,"speed":40}]}
		curve.PUT("", h.putCurve)
	}
}

func (h *Handler) registerSettingsRoutes(api *gin.RouterGroup) {
	settings := api.Group("/settings")
	{
		settings.GET("", h.getSettings)
		settings.PUT("", h.putSettings)
		settings.GET("/retention", h.getRetention)
		settings.PUT("/retention", h.putRetention)
	}
}
