package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "docparse/internal/apidocs"
	"docparse/internal/config"
	"docparse/internal/handler"
	"docparse/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware. metricsHandler
// may be nil to leave /metrics unrouted.
func Setup(
	cfg *config.Config,
	log *zap.Logger,
	parseH *handler.ParseHandler,
	healthH *handler.HealthHandler,
	metricsHandler http.Handler,
) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health and metrics
	r.GET("/healthz", healthH.Liveness)
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	parse := v1.Group("/parse")
	parse.POST("/text", parseH.ParseText)
	parse.POST("/image", parseH.ParseImage)
	parse.POST("/batch", parseH.ParseBatch)

	v1.POST("/classify", parseH.Classify)

	return r
}
