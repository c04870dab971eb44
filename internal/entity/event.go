package entity

import (
	"time"

	"github.com/google/uuid"
)

// Asset lifecycle event types relayed to Kafka through the outbox.
const (
	EventAssetCreated = "media.asset.created"
	EventAssetDeleted = "media.asset.deleted"
)

type EventStatus string

const (
	EventPending    EventStatus = "pending"
	EventProcessing EventStatus = "processing"
	EventProcessed  EventStatus = "processed"
	EventFailed     EventStatus = "failed"
)

// OutboxEvent is written in the same transaction as the asset record
// and shipped to Kafka by the relay worker.
type OutboxEvent struct {
	ID          uuid.UUID   `json:"id"`
	AggregateID uuid.UUID   `json:"aggregate_id"`
	Type        string      `json:"type"`
	Payload     []byte      `json:"payload"`
	Status      EventStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	ProcessedAt *time.Time  `json:"processed_at,omitempty"`
	RetryCount  int         `json:"retry_count"`
}
