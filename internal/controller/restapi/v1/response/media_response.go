package response

import "github.com/vitrina-app/media-service/internal/entity"

type Sign struct {
	UploadID  string `json:"uploadId"`
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	ExpiresIn int64  `json:"expiresIn"`
}

type Complete struct {
	ImageAsset *entity.ImageAsset `json:"imageAsset"`
	Warnings   []string           `json:"warnings,omitempty"`
}

type Asset struct {
	ImageAsset *entity.ImageAsset `json:"imageAsset"`
}

type Delete struct {
	Success     bool     `json:"success"`
	DeletedKeys []string `json:"deletedKeys"`
}
