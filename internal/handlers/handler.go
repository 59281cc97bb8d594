package handlers

import (
	"net/http"

	"jacuzzi_controller/internal/config"
	"jacuzzi_controller/internal/logger"
	"jacuzzi_controller/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires the HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	cfg      *config.Config
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{services: services, cfg: cfg, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Device-cloud webhook: telemetry pushes
	router.POST("/data", h.telemetry)

	// Chat command endpoint; the command segment is optional
	router.GET("/device/:deviceTag", h.deviceCommand)
	router.GET("/device/:deviceTag/:command", h.deviceCommand)

	// Audit log
	router.GET("/logs", h.getLogs)

	// Live status stream (HTTP upgrade) — same port
	router.GET("/ws", h.wsConnect)

	return router
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
