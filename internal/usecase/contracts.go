package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/vitrina-app/media-service/internal/dto"
	"github.com/vitrina-app/media-service/internal/entity"
)

type (
	// MediaUseCase is the storage transaction coordinator: signed-slot
	// issuance, the complete pipeline and fan-out deletion.
	MediaUseCase interface {
		Sign(ctx context.Context, in dto.SignInput) (*entity.UploadSlot, error)
		Complete(ctx context.Context, tempKey, altText string) (*dto.CompleteResult, error)
		GetAsset(ctx context.Context, id uuid.UUID) (*entity.ImageAsset, error)
		Delete(ctx context.Context, id uuid.UUID) ([]string, error)
	}

	// EventsOutboxUseCase is the relay worker's view of the outbox.
	EventsOutboxUseCase interface {
		GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error)
		MarkAsProcessingBatch(ctx context.Context, events []*entity.OutboxEvent) error
		MarkAsProcessedBatch(ctx context.Context, events []*entity.OutboxEvent) error
		IncrementRetryCountBatch(ctx context.Context, events []*entity.OutboxEvent) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		CleanupOutbox(ctx context.Context) error
	}
)
