package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/vitrina-app/media-service/internal/entity"
	"github.com/vitrina-app/media-service/pkg/postgres"
)

const (
	// Table
	outboxTable = "media_events_outbox"

	// Columns
	outboxIDColumn          = "id"
	outboxAggregateIDColumn = "aggregate_id"
	outboxTypeColumn        = "event_type"
	outboxPayloadColumn     = "payload"
	outboxStatusColumn      = "status"
	outboxCreatedAtColumn   = "created_at"
	outboxProcessedAtColumn = "processed_at"
	outboxRetryCountColumn  = "retry_count"

	_outboxRetentionPeriod = 7 * 24 * time.Hour
)

type OutboxRepo struct {
	*postgres.Postgres
}

func NewOutboxRepo(pg *postgres.Postgres) *OutboxRepo {
	return &OutboxRepo{pg}
}

func (r *OutboxRepo) Create(ctx context.Context, event *entity.OutboxEvent) error {
	sql, args, err := r.Builder.
		Insert(outboxTable).
		Columns(
			outboxIDColumn,
			outboxAggregateIDColumn,
			outboxTypeColumn,
			outboxPayloadColumn,
			outboxStatusColumn,
			outboxCreatedAtColumn,
			outboxRetryCountColumn,
		).
		Values(
			event.ID,
			event.AggregateID,
			event.Type,
			event.Payload,
			event.Status,
			event.CreatedAt,
			event.RetryCount,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *OutboxRepo) GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error) {
	sql, args, err := r.Builder.
		Select(
			outboxIDColumn,
			outboxAggregateIDColumn,
			outboxTypeColumn,
			outboxPayloadColumn,
			outboxStatusColumn,
			outboxCreatedAtColumn,
			outboxProcessedAtColumn,
			outboxRetryCountColumn,
		).
		From(outboxTable).
		Where(squirrel.And{
			squirrel.Eq{outboxStatusColumn: entity.EventPending},
			squirrel.Lt{outboxRetryCountColumn: maxRetries},
		}).
		OrderBy(outboxCreatedAtColumn + " ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - GetPendingEvents - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - GetPendingEvents - executor.Query: %w", err)
	}
	defer rows.Close()

	events := make([]*entity.OutboxEvent, 0, limit)
	for rows.Next() {
		var event entity.OutboxEvent
		err = rows.Scan(
			&event.ID,
			&event.AggregateID,
			&event.Type,
			&event.Payload,
			&event.Status,
			&event.CreatedAt,
			&event.ProcessedAt,
			&event.RetryCount,
		)
		if err != nil {
			return nil, fmt.Errorf("OutboxRepo - GetPendingEvents - rows.Scan: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("OutboxRepo - GetPendingEvents - rows.Err: %w", err)
	}

	return events, nil
}

func (r *OutboxRepo) MarkAsProcessingBatch(ctx context.Context, ids uuid.UUIDs) error {
	return r.setStatusBatch(ctx, ids, entity.EventProcessing, false)
}

func (r *OutboxRepo) MarkAsProcessedBatch(ctx context.Context, ids uuid.UUIDs) error {
	return r.setStatusBatch(ctx, ids, entity.EventProcessed, true)
}

func (r *OutboxRepo) setStatusBatch(ctx context.Context, ids uuid.UUIDs, status entity.EventStatus, stamp bool) error {
	if len(ids) == 0 {
		return nil
	}

	builder := r.Builder.
		Update(outboxTable).
		Set(outboxStatusColumn, status).
		Where(squirrel.Eq{outboxIDColumn: ids})

	if stamp {
		builder = builder.Set(outboxProcessedAtColumn, time.Now())
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - setStatusBatch - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - setStatusBatch - executor.Exec: %w", err)
	}

	return nil
}

func (r *OutboxRepo) IncrementRetryCountBatch(ctx context.Context, ids uuid.UUIDs) error {
	if len(ids) == 0 {
		return nil
	}

	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxStatusColumn, entity.EventPending).
		Set(outboxRetryCountColumn, squirrel.Expr(outboxRetryCountColumn+" + 1")).
		Where(squirrel.Eq{outboxIDColumn: ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - IncrementRetryCountBatch - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - IncrementRetryCountBatch - executor.Exec: %w", err)
	}

	return nil
}

func (r *OutboxRepo) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error {
	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxStatusColumn, entity.EventFailed).
		Where(squirrel.And{
			squirrel.Eq{outboxStatusColumn: entity.EventPending},
			squirrel.GtOrEq{outboxRetryCountColumn: maxRetries},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - MarkMaxRetriesAsFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - MarkMaxRetriesAsFailed - executor.Exec: %w", err)
	}

	return nil
}

func (r *OutboxRepo) DeleteOldProcessedAndFailed(ctx context.Context) (int64, error) {
	sql, args, err := r.Builder.
		Delete(outboxTable).
		Where(squirrel.And{
			squirrel.Eq{outboxStatusColumn: []entity.EventStatus{entity.EventProcessed, entity.EventFailed}},
			squirrel.Lt{outboxCreatedAtColumn: time.Now().Add(-_outboxRetentionPeriod)},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - DeleteOldProcessedAndFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - DeleteOldProcessedAndFailed - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}
