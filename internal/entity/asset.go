package entity

import (
	"time"

	"github.com/google/uuid"
)

// ImageAsset is the persisted record of one completed upload: the
// normalized original plus the full derivative manifest.
type ImageAsset struct {
	ID uuid.UUID `json:"id"`

	Bucket string `json:"bucket"`
	Key    string `json:"key"`

	MIME   string `json:"mime"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Bytes  int64  `json:"bytes"`
	Format string `json:"format"`

	PlaceholderHash string `json:"placeholder_hash"`
	AverageColor    string `json:"average_color"`
	AltText         string `json:"alt_text,omitempty"`

	Derivatives DerivativeManifest `json:"derivatives"`

	CreatedAt time.Time `json:"created_at"`
}

// Keys returns every blob key owned by the asset, original first.
func (a *ImageAsset) Keys() []string {
	keys := make([]string, 0, len(a.Derivatives.Sizes)+1)
	keys = append(keys, a.Key)
	for _, d := range a.Derivatives.Sizes {
		keys = append(keys, d.Key)
	}
	return keys
}

// DerivativeManifest is stored as a JSONB column alongside the scalar
// asset fields.
type DerivativeManifest struct {
	Original    Derivative   `json:"original"`
	Sizes       []Derivative `json:"sizes"`
	ContentHash string       `json:"content_hash"`
}

type Derivative struct {
	Key       string `json:"key"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int64  `json:"size_bytes"`
	Format    string `json:"format"`
}
