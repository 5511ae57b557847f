package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/lawflow-backend/internal/http/handlers"
	httpMW "github.com/yungbote/lawflow-backend/internal/http/middleware"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string

	CatalogHandler    *httpH.CatalogHandler
	ContentHandler    *httpH.ContentHandler
	GenerationHandler *httpH.GenerationHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Modules and topics
		if cfg.CatalogHandler != nil {
			api.GET("/modules", cfg.CatalogHandler.ListModules)
			api.POST("/modules", cfg.CatalogHandler.CreateModule)
			api.GET("/modules/:id", cfg.CatalogHandler.GetModule)
			api.PATCH("/modules/:id", cfg.CatalogHandler.UpdateModule)
			api.DELETE("/modules/:id", cfg.CatalogHandler.DeleteModule)
			api.GET("/modules/:id/topics", cfg.CatalogHandler.ListTopics)
			api.POST("/modules/:id/topics", cfg.CatalogHandler.CreateTopic)

			api.GET("/topics/:id", cfg.CatalogHandler.GetTopic)
			api.PATCH("/topics/:id", cfg.CatalogHandler.RenameTopic)
			api.DELETE("/topics/:id", cfg.CatalogHandler.DeleteTopic)
		}

		// Content
		if cfg.ContentHandler != nil {
			api.GET("/topics/:id/content", cfg.ContentHandler.ListContent)
			api.POST("/topics/:id/content", cfg.ContentHandler.UploadContent)
			api.DELETE("/content/:id", cfg.ContentHandler.RemoveContent)
		}

		// Generations
		if cfg.GenerationHandler != nil {
			api.GET("/topics/:id/stages", cfg.GenerationHandler.StageOverview)
			api.GET("/topics/:id/generations", cfg.GenerationHandler.ListGenerations)
			api.POST("/topics/:id/generations", cfg.GenerationHandler.StartGeneration)
			api.GET("/generations/:id", cfg.GenerationHandler.GetGeneration)
			api.DELETE("/generations/:id", cfg.GenerationHandler.DeleteGeneration)
			api.POST("/generations/:id/publish", cfg.GenerationHandler.Publish)
			api.POST("/generations/:id/response", cfg.GenerationHandler.SaveResponse)
			api.POST("/generations/:id/fail", cfg.GenerationHandler.MarkFailed)
		}
	}

	return r
}
