package request

type Sign struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
	Kind        string `json:"kind"`
	EntitySlug  string `json:"entitySlug"`
}

type Complete struct {
	UploadID string `json:"uploadId"`
	Alt      string `json:"alt"`
}

type Delete struct {
	AssetID string `json:"assetId"`
	Type    string `json:"type"`
}
