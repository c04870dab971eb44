package infrastructure

import (
	"context"

	"github.com/vitrina-app/media-service/internal/entity"
)

type (
	EventsSender interface {
		SendEvents(ctx context.Context, events []*entity.OutboxEvent) error
		Close() error
	}

	ImageProcessor interface {
		Process(ctx context.Context, data []byte, entitySlug string, kind entity.Kind) (*entity.ProcessedImage, error)
		BrandAdvisory(averageHex string) (string, bool)
	}
)
