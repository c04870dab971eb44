package entity

// ProcessedImage is the in-memory result of the derivative pipeline
// for one upload. It is never persisted as its own record; the
// coordinator folds it into an ImageAsset after all blobs land.
type ProcessedImage struct {
	Original     Derivative
	OriginalData []byte

	// Derivatives are ordered: ascending width, webp before jpeg for
	// each width. Never contains an entry whose long edge exceeds the
	// source long edge.
	Derivatives     []Derivative
	DerivativeData  [][]byte
	PlaceholderHash string
	AverageColor    string
	ContentHash     string

	MIME   string
	Format string
}
