package media_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrina-app/media-service/internal/dto"
	"github.com/vitrina-app/media-service/internal/entity"
	"github.com/vitrina-app/media-service/internal/infrastructure/validate"
	"github.com/vitrina-app/media-service/internal/usecase/media"
	"github.com/vitrina-app/media-service/pkg/logger"
	"github.com/vitrina-app/media-service/pkg/types/errs"
)

// ---- test doubles ----

type fakeBlobRepo struct {
	mu            sync.Mutex
	objects       map[string][]byte
	contentTypes  map[string]string
	failUploadKey string
	failDeleteKey string
}

func newFakeBlobRepo() *fakeBlobRepo {
	return &fakeBlobRepo{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (f *fakeBlobRepo) Upload(_ context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if key == f.failUploadKey {
		return &errs.TransientStorageError{Op: "upload", Key: key, Err: errors.New("connection reset")}
	}

	f.objects[key] = data
	f.contentTypes[key] = contentType
	return nil
}

func (f *fakeBlobRepo) Download(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("BlobRepo - Download: %w", errs.ErrUploadNotFound)
	}
	return data, nil
}

func (f *fakeBlobRepo) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if key == f.failDeleteKey {
		return &errs.TransientStorageError{Op: "delete", Key: key, Err: errors.New("connection reset")}
	}

	delete(f.objects, key)
	return nil
}

func (f *fakeBlobRepo) PresignPut(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://blob.test/" + key, nil
}

func (f *fakeBlobRepo) keysWithPrefix(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys
}

func (f *fakeBlobRepo) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.objects[key]
	return ok
}

type fakeAssetRepo struct {
	assets    map[uuid.UUID]*entity.ImageAsset
	createErr error
	usage     map[string]int
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{assets: map[uuid.UUID]*entity.ImageAsset{}}
}

func (f *fakeAssetRepo) Create(_ context.Context, asset *entity.ImageAsset) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.assets[asset.ID] = asset
	return nil
}

func (f *fakeAssetRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.ImageAsset, error) {
	asset, ok := f.assets[id]
	if !ok {
		return nil, fmt.Errorf("AssetRepo - GetByID: %w", errs.ErrRecordNotFound)
	}
	return asset, nil
}

func (f *fakeAssetRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.assets[id]; !ok {
		return fmt.Errorf("AssetRepo - Delete: %w", errs.ErrRecordNotFound)
	}
	delete(f.assets, id)
	return nil
}

func (f *fakeAssetRepo) UsageCounts(_ context.Context, _ uuid.UUID) (map[string]int, error) {
	return f.usage, nil
}

type fakeOutboxRepo struct {
	events []*entity.OutboxEvent
}

func (f *fakeOutboxRepo) Create(_ context.Context, event *entity.OutboxEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutboxRepo) GetPendingEvents(context.Context, int, int) ([]*entity.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeOutboxRepo) MarkAsProcessingBatch(context.Context, uuid.UUIDs) error    { return nil }
func (f *fakeOutboxRepo) MarkAsProcessedBatch(context.Context, uuid.UUIDs) error     { return nil }
func (f *fakeOutboxRepo) IncrementRetryCountBatch(context.Context, uuid.UUIDs) error { return nil }
func (f *fakeOutboxRepo) MarkMaxRetriesAsFailed(context.Context, int) error          { return nil }
func (f *fakeOutboxRepo) DeleteOldProcessedAndFailed(context.Context) (int64, error) { return 0, nil }

type fakeTransactor struct{}

func (fakeTransactor) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	return f(ctx)
}

type fakeProcessor struct {
	warning string
	err     error
}

func (f *fakeProcessor) Process(_ context.Context, data []byte, entitySlug string, kind entity.Kind) (*entity.ProcessedImage, error) {
	if f.err != nil {
		return nil, f.err
	}

	original := entity.Derivative{
		Key:       entity.BuildKey(entitySlug, kind, entity.SizeTokenOriginal, "png"),
		Width:     320,
		Height:    320,
		SizeBytes: int64(len(data)),
		Format:    "png",
	}

	return &entity.ProcessedImage{
		Original:     original,
		OriginalData: data,
		Derivatives: []entity.Derivative{
			{Key: entity.BuildKey(entitySlug, kind, entity.SizeToken(320), "webp"), Width: 320, Height: 320, SizeBytes: 100, Format: "webp"},
			{Key: entity.BuildKey(entitySlug, kind, entity.SizeToken(320), "jpg"), Width: 320, Height: 320, SizeBytes: 200, Format: "jpeg"},
		},
		DerivativeData:  [][]byte{bytes.Repeat([]byte{1}, 100), bytes.Repeat([]byte{2}, 200)},
		PlaceholderHash: "LEHV6nWB2yk8pyo0adR*.7kCMdnj",
		AverageColor:    "#808080",
		ContentHash:     strings.Repeat("ab", 32),
		MIME:            "image/png",
		Format:          "png",
	}, nil
}

func (f *fakeProcessor) BrandAdvisory(string) (string, bool) {
	return f.warning, f.warning != ""
}

// ---- fixture ----

type fixture struct {
	uc     *media.MediaUseCase
	blob   *fakeBlobRepo
	assets *fakeAssetRepo
	outbox *fakeOutboxRepo
	proc   *fakeProcessor
}

func newFixture() *fixture {
	f := &fixture{
		blob:   newFakeBlobRepo(),
		assets: newFakeAssetRepo(),
		outbox: &fakeOutboxRepo{},
		proc:   &fakeProcessor{},
	}

	f.uc = media.New(
		f.blob,
		f.assets,
		f.outbox,
		fakeTransactor{},
		validate.New(10<<20, 100<<20),
		f.proc,
		"media-bucket",
		600*time.Second,
		4,
		logger.New("error"),
	)

	return f
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}))
	return buf.Bytes()
}

// seedUpload places a finished client upload into the fake blob store
// and returns its temp key.
func (f *fixture) seedUpload(t *testing.T, slug string, kind entity.Kind, ext string, data []byte) string {
	t.Helper()

	tempKey := entity.BuildTempKey(slug, kind, ext)
	require.NoError(t, f.blob.Upload(context.Background(), tempKey, data, "image/png"))
	return tempKey
}

// ---- sign ----

func TestSign(t *testing.T) {
	f := newFixture()

	slot, err := f.uc.Sign(context.Background(), dto.SignInput{
		Filename:    "photo.png",
		ContentType: "image/png",
		SizeBytes:   1 << 20,
		Kind:        "gallery",
		EntitySlug:  "tea-set",
	})
	require.NoError(t, err)

	slug, kind, err := entity.ParseTempKey(slot.TempKey)
	require.NoError(t, err)
	assert.Equal(t, "tea-set", slug)
	assert.Equal(t, entity.KindGallery, kind)
	assert.Equal(t, "https://blob.test/"+slot.TempKey, slot.UploadURL)
	assert.True(t, slot.ExpiresAt.After(time.Now()))
}

func TestSignValidation(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name string
		in   dto.SignInput
	}{
		{"unknown kind", dto.SignInput{ContentType: "image/png", SizeBytes: 10, Kind: "hero", EntitySlug: "tea-set"}},
		{"bad slug", dto.SignInput{ContentType: "image/png", SizeBytes: 10, Kind: "cover", EntitySlug: "Tea Set"}},
		{"oversize image", dto.SignInput{ContentType: "image/png", SizeBytes: 11 << 20, Kind: "cover", EntitySlug: "tea-set"}},
		{"denied mime", dto.SignInput{ContentType: "text/html", SizeBytes: 10, Kind: "cover", EntitySlug: "tea-set"}},
		{"empty file", dto.SignInput{ContentType: "image/png", SizeBytes: 0, Kind: "cover", EntitySlug: "tea-set"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Sign(context.Background(), tt.in)

			var verr *errs.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestSignAcceptsVideo(t *testing.T) {
	f := newFixture()

	slot, err := f.uc.Sign(context.Background(), dto.SignInput{
		Filename:    "promo.mp4",
		ContentType: "video/mp4",
		SizeBytes:   50 << 20,
		Kind:        "gallery",
		EntitySlug:  "tea-set",
	})
	require.NoError(t, err)
	assert.Equal(t, "mp4", entity.TempKeyExt(slot.TempKey))
}

// ---- complete ----

func TestCompleteHappyPath(t *testing.T) {
	f := newFixture()
	f.proc.warning = "image tone #808080 deviates from the brand palette (distance 200)"

	tempKey := f.seedUpload(t, "tea-set", entity.KindGallery, "png", pngBytes(t, 320, 320))

	result, err := f.uc.Complete(context.Background(), tempKey, "a teapot on linen")
	require.NoError(t, err)

	asset := result.Asset
	require.NotNil(t, asset)
	assert.Equal(t, "media-bucket", asset.Bucket)
	assert.Equal(t, "tea-set__gallery__original.png", asset.Key)
	assert.Equal(t, "image/png", asset.MIME)
	assert.Equal(t, "a teapot on linen", asset.AltText)
	assert.Len(t, asset.Derivatives.Sizes, 2)
	assert.Equal(t, strings.Repeat("ab", 32), asset.Derivatives.ContentHash)

	// all final blobs present, temp object gone
	for _, key := range asset.Keys() {
		assert.True(t, f.blob.has(key), key)
	}
	assert.False(t, f.blob.has(tempKey))

	// each blob carries the content type of its own format
	assert.Equal(t, "image/png", f.blob.contentTypes[asset.Key])
	assert.Equal(t, "image/webp", f.blob.contentTypes["tea-set__gallery__320w.webp"])
	assert.Equal(t, "image/jpeg", f.blob.contentTypes["tea-set__gallery__320w.jpg"])

	// record persisted together with the lifecycle event
	_, ok := f.assets.assets[asset.ID]
	assert.True(t, ok)
	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, entity.EventAssetCreated, f.outbox.events[0].Type)
	assert.Equal(t, asset.ID, f.outbox.events[0].AggregateID)

	assert.Equal(t, []string{f.proc.warning}, result.Warnings)
}

func TestCompleteCameraFrameCover(t *testing.T) {
	f := newFixture()

	// 3:2 camera output must clear the cover aspect band and reach
	// derivative generation
	tempKey := f.seedUpload(t, "tea-set", entity.KindCover, "jpg", jpegBytes(t, 3000, 2000))

	result, err := f.uc.Complete(context.Background(), tempKey, "")
	require.NoError(t, err)

	assert.Equal(t, "tea-set__cover__original.png", result.Asset.Key)
	assert.False(t, f.blob.has(tempKey))
	assert.Len(t, f.assets.assets, 1)
}

func TestCompleteIsNotRepeatable(t *testing.T) {
	f := newFixture()
	tempKey := f.seedUpload(t, "tea-set", entity.KindGallery, "png", pngBytes(t, 320, 320))

	_, err := f.uc.Complete(context.Background(), tempKey, "")
	require.NoError(t, err)

	// temp object is gone, so the second call fails cleanly without
	// minting a duplicate asset
	_, err = f.uc.Complete(context.Background(), tempKey, "")
	assert.ErrorIs(t, err, errs.ErrUploadNotFound)
	assert.Len(t, f.assets.assets, 1)
	assert.Len(t, f.outbox.events, 1)
}

func TestCompleteMimeMismatch(t *testing.T) {
	f := newFixture()

	// declared jpg at sign time, actual bytes are png
	tempKey := f.seedUpload(t, "tea-set", entity.KindGallery, "jpg", pngBytes(t, 320, 320))

	_, err := f.uc.Complete(context.Background(), tempKey, "")
	assert.ErrorIs(t, err, errs.ErrMimeMismatch)

	// the object is discarded, never processed
	assert.False(t, f.blob.has(tempKey))
	assert.Empty(t, f.blob.keysWithPrefix("tea-set__"))
	assert.Empty(t, f.assets.assets)
}

func TestCompleteMalformedTempKey(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Complete(context.Background(), "upload/whatever.jpg", "")
	assert.ErrorIs(t, err, errs.ErrInvalidUploadID)
}

func TestCompleteAltTextTooLong(t *testing.T) {
	f := newFixture()
	tempKey := f.seedUpload(t, "tea-set", entity.KindGallery, "png", pngBytes(t, 320, 320))

	_, err := f.uc.Complete(context.Background(), tempKey, strings.Repeat("a", 141))

	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields[0].Message, "140")

	// rejected before any blob traffic
	assert.True(t, f.blob.has(tempKey))
}

func TestCompleteDimensionFailure(t *testing.T) {
	f := newFixture()
	tempKey := f.seedUpload(t, "tea-set", entity.KindGallery, "png", pngBytes(t, 100, 100))

	_, err := f.uc.Complete(context.Background(), tempKey, "")

	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)

	assert.False(t, f.blob.has(tempKey))
	assert.Empty(t, f.assets.assets)
}

func TestCompleteVideoRejected(t *testing.T) {
	f := newFixture()
	tempKey := f.seedUpload(t, "tea-set", entity.KindGallery, "mp4", []byte("ftyp"))

	_, err := f.uc.Complete(context.Background(), tempKey, "")

	var verr *errs.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCompletePartialUploadCleanup(t *testing.T) {
	f := newFixture()
	tempKey := f.seedUpload(t, "tea-set", entity.KindGallery, "png", pngBytes(t, 320, 320))

	f.blob.failUploadKey = "tea-set__gallery__320w.jpg"

	_, err := f.uc.Complete(context.Background(), tempKey, "")
	require.Error(t, err)

	var terr *errs.TransientStorageError
	assert.ErrorAs(t, err, &terr)

	// every blob that made it up was compensated away
	assert.Empty(t, f.blob.keysWithPrefix("tea-set__"))
	assert.Empty(t, f.assets.assets)
	assert.Empty(t, f.outbox.events)

	// the temp object survives, so the caller may retry the complete
	assert.True(t, f.blob.has(tempKey))
}

func TestCompleteRecordFailureCleansBlobs(t *testing.T) {
	f := newFixture()
	tempKey := f.seedUpload(t, "tea-set", entity.KindGallery, "png", pngBytes(t, 320, 320))

	f.assets.createErr = errors.New("db down")

	_, err := f.uc.Complete(context.Background(), tempKey, "")
	require.Error(t, err)

	// no orphaned unreferenced storage
	assert.Empty(t, f.blob.keysWithPrefix("tea-set__"))
	assert.Empty(t, f.outbox.events)
}

// ---- delete ----

func seedAsset(t *testing.T, f *fixture) *entity.ImageAsset {
	t.Helper()

	tempKey := f.seedUpload(t, "tea-set", entity.KindGallery, "png", pngBytes(t, 320, 320))
	result, err := f.uc.Complete(context.Background(), tempKey, "")
	require.NoError(t, err)

	f.outbox.events = nil
	return result.Asset
}

func TestDelete(t *testing.T) {
	f := newFixture()
	asset := seedAsset(t, f)

	deletedKeys, err := f.uc.Delete(context.Background(), asset.ID)
	require.NoError(t, err)

	assert.Equal(t, asset.Keys(), deletedKeys)
	assert.Empty(t, f.blob.keysWithPrefix("tea-set__"))
	assert.Empty(t, f.assets.assets)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, entity.EventAssetDeleted, f.outbox.events[0].Type)
}

func TestDeleteRefusedWhileInUse(t *testing.T) {
	f := newFixture()
	asset := seedAsset(t, f)

	f.assets.usage = map[string]int{"products": 1, "product_gallery": 1}

	_, err := f.uc.Delete(context.Background(), asset.ID)

	var cerr *errs.ConflictError
	require.ErrorAs(t, err, &cerr)

	total := 0
	for _, n := range cerr.Usage {
		total += n
	}
	assert.Equal(t, 2, total)

	// nothing was touched
	for _, key := range asset.Keys() {
		assert.True(t, f.blob.has(key), key)
	}
	assert.Len(t, f.assets.assets, 1)
}

func TestDeleteKeepsRecordOnBlobFailure(t *testing.T) {
	f := newFixture()
	asset := seedAsset(t, f)

	f.blob.failDeleteKey = asset.Derivatives.Sizes[0].Key

	_, err := f.uc.Delete(context.Background(), asset.ID)
	require.Error(t, err)

	// the record stays so an operator can retry deletion
	_, getErr := f.uc.GetAsset(context.Background(), asset.ID)
	assert.NoError(t, getErr)
	assert.Empty(t, f.outbox.events)
}

func TestDeleteNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestGetAsset(t *testing.T) {
	f := newFixture()
	asset := seedAsset(t, f)

	got, err := f.uc.GetAsset(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Equal(t, asset.ID, got.ID)

	_, err = f.uc.GetAsset(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errs.ErrRecordNotFound)
}
