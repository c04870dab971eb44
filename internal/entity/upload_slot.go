package entity

import "time"

// UploadSlot is the ephemeral result of the sign step: a temp key
// under the upload/ namespace plus a write-only presigned URL. It is
// consumed exactly once by the complete step and never persisted.
type UploadSlot struct {
	TempKey             string    `json:"temp_key"`
	UploadURL           string    `json:"upload_url"`
	DeclaredContentType string    `json:"declared_content_type"`
	DeclaredSize        int64     `json:"declared_size"`
	Kind                Kind      `json:"kind"`
	EntitySlug          string    `json:"entity_slug"`
	ExpiresAt           time.Time `json:"expires_at"`
}
