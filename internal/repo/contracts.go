package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vitrina-app/media-service/internal/entity"
)

type (
	BlobRepo interface {
		Upload(ctx context.Context, key string, data []byte, contentType string) error
		Download(ctx context.Context, key string) ([]byte, error)
		Delete(ctx context.Context, key string) error
		PresignPut(ctx context.Context, key string, contentType string, ttl time.Duration) (string, error)
	}

	AssetRepo interface {
		Create(ctx context.Context, asset *entity.ImageAsset) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.ImageAsset, error)
		Delete(ctx context.Context, id uuid.UUID) error
		// UsageCounts returns, per referencing relation, how many rows
		// still point at the asset.
		UsageCounts(ctx context.Context, id uuid.UUID) (map[string]int, error)
	}

	OutboxRepo interface {
		Create(ctx context.Context, event *entity.OutboxEvent) error
		GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error)
		MarkAsProcessingBatch(ctx context.Context, ids uuid.UUIDs) error
		MarkAsProcessedBatch(ctx context.Context, ids uuid.UUIDs) error
		IncrementRetryCountBatch(ctx context.Context, ids uuid.UUIDs) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		DeleteOldProcessedAndFailed(ctx context.Context) (int64, error)
	}

	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}
)
