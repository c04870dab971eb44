package restapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"github.com/vitrina-app/media-service/config"
	v1 "github.com/vitrina-app/media-service/internal/controller/restapi/v1"
	"github.com/vitrina-app/media-service/internal/usecase"
	"github.com/vitrina-app/media-service/pkg/logger"
)

// @title Media service
// @version 1.0.0
// @host localhost:8080
// @BasePath /v1
func NewRouter(app *fiber.App, cfg *config.Config, media usecase.MediaUseCase, l logger.Interface) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewMediaRoutes(apiV1Group, media, cfg.Media.CompleteTimeout, l)
	}
}
