package media

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vitrina-app/media-service/internal/entity"
)

// The relay worker drives the outbox through the usecase layer rather
// than touching the repo directly.

func (uc *MediaUseCase) GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error) {
	events, err := uc.outboxRepo.GetPendingEvents(ctx, maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - GetPendingEvents - uc.outboxRepo.GetPendingEvents: %w", err)
	}

	return events, nil
}

func (uc *MediaUseCase) MarkAsProcessingBatch(ctx context.Context, events []*entity.OutboxEvent) error {
	err := uc.outboxRepo.MarkAsProcessingBatch(ctx, eventIDs(events))
	if err != nil {
		return fmt.Errorf("MediaUseCase - MarkAsProcessingBatch - uc.outboxRepo.MarkAsProcessingBatch: %w", err)
	}

	return nil
}

func (uc *MediaUseCase) MarkAsProcessedBatch(ctx context.Context, events []*entity.OutboxEvent) error {
	err := uc.outboxRepo.MarkAsProcessedBatch(ctx, eventIDs(events))
	if err != nil {
		return fmt.Errorf("MediaUseCase - MarkAsProcessedBatch - uc.outboxRepo.MarkAsProcessedBatch: %w", err)
	}

	return nil
}

func (uc *MediaUseCase) IncrementRetryCountBatch(ctx context.Context, events []*entity.OutboxEvent) error {
	err := uc.outboxRepo.IncrementRetryCountBatch(ctx, eventIDs(events))
	if err != nil {
		return fmt.Errorf("MediaUseCase - IncrementRetryCountBatch - uc.outboxRepo.IncrementRetryCountBatch: %w", err)
	}

	return nil
}

func (uc *MediaUseCase) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error {
	err := uc.outboxRepo.MarkMaxRetriesAsFailed(ctx, maxRetries)
	if err != nil {
		return fmt.Errorf("MediaUseCase - MarkMaxRetriesAsFailed - uc.outboxRepo.MarkMaxRetriesAsFailed: %w", err)
	}

	return nil
}

func (uc *MediaUseCase) CleanupOutbox(ctx context.Context) error {
	count, err := uc.outboxRepo.DeleteOldProcessedAndFailed(ctx)
	if err != nil {
		return fmt.Errorf("MediaUseCase - CleanupOutbox - uc.outboxRepo.DeleteOldProcessedAndFailed: %w", err)
	}

	if count > 0 {
		uc.logger.Info("deleted old events, count = %d", count)
	}

	return nil
}

func eventIDs(events []*entity.OutboxEvent) uuid.UUIDs {
	ids := make(uuid.UUIDs, 0, len(events))
	for _, event := range events {
		ids = append(ids, event.ID)
	}

	return ids
}
