package media

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vitrina-app/media-service/internal/entity"
)

func newOutboxEvent(eventType string, asset *entity.ImageAsset) (*entity.OutboxEvent, error) {
	payload := map[string]interface{}{
		"id":           asset.ID,
		"bucket":       asset.Bucket,
		"key":          asset.Key,
		"mime":         asset.MIME,
		"bytes":        asset.Bytes,
		"content_hash": asset.Derivatives.ContentHash,
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	return &entity.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: asset.ID,
		Type:        eventType,
		Payload:     b,
		Status:      entity.EventPending,
		CreatedAt:   time.Now(),
		RetryCount:  0,
	}, nil
}

// mimeForTempExt recovers the content type a temp key was signed
// with from its extension segment.
func mimeForTempExt(ext string) (string, bool) {
	switch ext {
	case "jpg", "jpeg":
		return "image/jpeg", true
	case "png":
		return "image/png", true
	case "webp":
		return "image/webp", true
	case "gif":
		return "image/gif", true
	case "mp4":
		return "video/mp4", true
	case "webm":
		return "video/webm", true
	case "mov":
		return "video/quicktime", true
	}
	return "", false
}

func isImageMime(mime string) bool {
	return strings.HasPrefix(mime, "image/")
}
