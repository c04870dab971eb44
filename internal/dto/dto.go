package dto

import "github.com/vitrina-app/media-service/internal/entity"

// SignInput carries the declared upload metadata from the route layer.
type SignInput struct {
	Filename    string
	ContentType string
	SizeBytes   int64
	Kind        string
	EntitySlug  string
}

// CompleteResult is the successful outcome of the complete step: the
// persisted asset plus any non-fatal advisory warnings.
type CompleteResult struct {
	Asset    *entity.ImageAsset
	Warnings []string
}
