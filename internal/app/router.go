package app

import (
	httpserver "github.com/yungbote/lawflow-backend/internal/http"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, h Handlers) *httpserver.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return httpserver.NewServer(":"+cfg.Port, httpserver.RouterConfig{
		Log:               log,
		ServiceName:       serviceName,
		CORSOrigins:       cfg.CORSOrigins,
		CatalogHandler:    h.Catalog,
		ContentHandler:    h.Content,
		GenerationHandler: h.Generation,
		HealthHandler:     h.Health,
	})
}
