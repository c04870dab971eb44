package v1

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vitrina-app/media-service/internal/usecase"
	"github.com/vitrina-app/media-service/pkg/logger"
)

func NewMediaRoutes(apiV1Group fiber.Router, media usecase.MediaUseCase, completeTimeout time.Duration, l logger.Interface) {
	r := &V1{media: media, completeTimeout: completeTimeout, logger: l}

	{
		apiV1Group.Post("/media/sign", r.signUpload)
		apiV1Group.Post("/media/complete", r.completeUpload)
		apiV1Group.Get("/media/asset/:id", r.getAsset)
		apiV1Group.Delete("/media/asset", r.deleteAsset)
	}
}
