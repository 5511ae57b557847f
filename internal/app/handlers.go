package app

import (
	"context"

	httpH "github.com/yungbote/lawflow-backend/internal/http/handlers"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

type Handlers struct {
	Catalog    *httpH.CatalogHandler
	Content    *httpH.ContentHandler
	Generation *httpH.GenerationHandler
	Health     *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, s Services, ping func(ctx context.Context) error) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Catalog:    httpH.NewCatalogHandler(log, s.Catalog),
		Content:    httpH.NewContentHandler(log, s.Content),
		Generation: httpH.NewGenerationHandler(log, s.Generations, s.Publish),
		Health:     httpH.NewHealthHandler(ping),
	}
}
