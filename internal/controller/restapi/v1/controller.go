package v1

import (
	"time"

	"github.com/vitrina-app/media-service/internal/usecase"
	"github.com/vitrina-app/media-service/pkg/logger"
)

type V1 struct {
	media           usecase.MediaUseCase
	completeTimeout time.Duration
	logger          logger.Interface
}
