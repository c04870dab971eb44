// Package media implements the storage transaction coordinator:
// presigned upload slots, the complete pipeline that turns a raw
// upload into a persisted asset with derivatives, and fan-out
// deletion guarded by usage checks.
package media

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vitrina-app/media-service/internal/dto"
	"github.com/vitrina-app/media-service/internal/entity"
	"github.com/vitrina-app/media-service/internal/infrastructure"
	"github.com/vitrina-app/media-service/internal/infrastructure/processor"
	"github.com/vitrina-app/media-service/internal/infrastructure/validate"
	"github.com/vitrina-app/media-service/internal/repo"
	"github.com/vitrina-app/media-service/pkg/logger"
	"github.com/vitrina-app/media-service/pkg/types/errs"
)

type MediaUseCase struct {
	blobRepo   repo.BlobRepo
	assetRepo  repo.AssetRepo
	outboxRepo repo.OutboxRepo
	transactor repo.Transactor

	validator *validate.Validator
	processor infrastructure.ImageProcessor

	bucket        string
	presignTTL    time.Duration
	uploadWorkers int

	logger logger.Interface
}

func New(
	blobRepo repo.BlobRepo,
	assetRepo repo.AssetRepo,
	outboxRepo repo.OutboxRepo,
	transactor repo.Transactor,
	validator *validate.Validator,
	imgProcessor infrastructure.ImageProcessor,
	bucket string,
	presignTTL time.Duration,
	uploadWorkers int,
	l logger.Interface,
) *MediaUseCase {
	return &MediaUseCase{
		blobRepo:      blobRepo,
		assetRepo:     assetRepo,
		outboxRepo:    outboxRepo,
		transactor:    transactor,
		validator:     validator,
		processor:     imgProcessor,
		bucket:        bucket,
		presignTTL:    presignTTL,
		uploadWorkers: uploadWorkers,
		logger:        l,
	}
}

// Sign validates the declared upload metadata and issues a single-use
// presigned PUT slot under the upload/ namespace. Nothing is persisted;
// an abandoned slot simply expires.
func (uc *MediaUseCase) Sign(ctx context.Context, in dto.SignInput) (*entity.UploadSlot, error) {
	kind, err := entity.ParseKind(in.Kind)
	if err != nil {
		return nil, errs.NewValidationError("kind", err.Error())
	}

	if !entity.ValidSlug(in.EntitySlug) {
		return nil, errs.NewValidationError("entitySlug",
			fmt.Sprintf("slug %q must be lowercase alphanumeric with hyphens", in.EntitySlug))
	}

	if err := uc.validator.ValidateUpload(in.SizeBytes, in.ContentType); err != nil {
		return nil, fmt.Errorf("MediaUseCase - Sign - uc.validator.ValidateUpload: %w", err)
	}

	ext, ok := validate.MimeExt(in.ContentType)
	if !ok {
		return nil, errs.NewValidationError("contentType", fmt.Sprintf("unsupported type %s", in.ContentType))
	}

	contentType := validate.NormalizeMime(in.ContentType)
	tempKey := entity.BuildTempKey(in.EntitySlug, kind, ext)

	url, err := uc.blobRepo.PresignPut(ctx, tempKey, contentType, uc.presignTTL)
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - Sign - uc.blobRepo.PresignPut: %w", err)
	}

	return &entity.UploadSlot{
		TempKey:             tempKey,
		UploadURL:           url,
		DeclaredContentType: contentType,
		DeclaredSize:        in.SizeBytes,
		Kind:                kind,
		EntitySlug:          in.EntitySlug,
		ExpiresAt:           time.Now().Add(uc.presignTTL),
	}, nil
}

// Complete turns a finished temp upload into a persisted asset. The
// object is verified byte-for-byte against its declared type, checked
// against the kind's dimension rules, processed into the derivative
// matrix, uploaded under content-addressed keys and recorded together
// with a lifecycle event in one transaction. Every failure path leaves
// zero final objects behind.
func (uc *MediaUseCase) Complete(ctx context.Context, tempKey, altText string) (*dto.CompleteResult, error) {
	if err := uc.validator.ValidateAltText(altText); err != nil {
		return nil, fmt.Errorf("MediaUseCase - Complete - uc.validator.ValidateAltText: %w", err)
	}

	entitySlug, kind, err := entity.ParseTempKey(tempKey)
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - Complete - entity.ParseTempKey: %w: %w", errs.ErrInvalidUploadID, err)
	}

	declaredMime, ok := mimeForTempExt(entity.TempKeyExt(tempKey))
	if !ok {
		return nil, fmt.Errorf("MediaUseCase - Complete: %w", errs.ErrInvalidUploadID)
	}
	if !isImageMime(declaredMime) {
		return nil, errs.NewValidationError("uploadId", "only image uploads can be completed; videos are served as uploaded")
	}

	data, err := uc.blobRepo.Download(ctx, tempKey)
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - Complete - uc.blobRepo.Download: %w", err)
	}

	// A mismatch here means the bytes are not what was declared at
	// sign time. The object is discarded, never processed.
	if !uc.validator.VerifyMagicBytes(data, declaredMime) {
		uc.deleteTempObject(ctx, tempKey)
		return nil, fmt.Errorf("MediaUseCase - Complete - uc.validator.VerifyMagicBytes: %w", errs.ErrMimeMismatch)
	}

	if err := uc.validator.ValidateDimensions(data, kind); err != nil {
		uc.deleteTempObject(ctx, tempKey)
		return nil, fmt.Errorf("MediaUseCase - Complete - uc.validator.ValidateDimensions: %w", err)
	}

	processed, err := uc.processor.Process(ctx, data, entitySlug, kind)
	if err != nil {
		uc.deleteTempObject(ctx, tempKey)
		return nil, fmt.Errorf("MediaUseCase - Complete - uc.processor.Process: %w", err)
	}

	var warnings []string
	if warning, ok := uc.processor.BrandAdvisory(processed.AverageColor); ok {
		warnings = append(warnings, warning)
	}

	uploaded, err := uc.uploadAll(ctx, processed)
	if err != nil {
		uc.deleteKeys(ctx, uploaded)
		return nil, fmt.Errorf("MediaUseCase - Complete - uc.uploadAll: %w", err)
	}

	uc.deleteTempObject(ctx, tempKey)

	asset := &entity.ImageAsset{
		ID:              uuid.New(),
		Bucket:          uc.bucket,
		Key:             processed.Original.Key,
		MIME:            processed.MIME,
		Width:           processed.Original.Width,
		Height:          processed.Original.Height,
		Bytes:           processed.Original.SizeBytes,
		Format:          processed.Format,
		PlaceholderHash: processed.PlaceholderHash,
		AverageColor:    processed.AverageColor,
		AltText:         altText,
		Derivatives: entity.DerivativeManifest{
			Original:    processed.Original,
			Sizes:       processed.Derivatives,
			ContentHash: processed.ContentHash,
		},
		CreatedAt: time.Now(),
	}

	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.assetRepo.Create(ctx, asset); err != nil {
			return fmt.Errorf("MediaUseCase - Complete - uc.assetRepo.Create: %w", err)
		}

		event, err := newOutboxEvent(entity.EventAssetCreated, asset)
		if err != nil {
			return fmt.Errorf("MediaUseCase - Complete - newOutboxEvent: %w", err)
		}
		if err := uc.outboxRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("MediaUseCase - Complete - uc.outboxRepo.Create: %w", err)
		}

		return nil
	})
	if err != nil {
		uc.deleteKeys(ctx, asset.Keys())
		return nil, fmt.Errorf("MediaUseCase - Complete - uc.transactor.WithinTransaction: %w", err)
	}

	return &dto.CompleteResult{Asset: asset, Warnings: warnings}, nil
}

func (uc *MediaUseCase) GetAsset(ctx context.Context, id uuid.UUID) (*entity.ImageAsset, error) {
	asset, err := uc.assetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - GetAsset - uc.assetRepo.GetByID: %w", err)
	}

	return asset, nil
}

// Delete removes the asset and all of its blobs, refusing while any
// relation still references it. Blobs go first: a blob-side failure
// keeps the record so the operation can be retried, while a leftover
// record without blobs could never be.
func (uc *MediaUseCase) Delete(ctx context.Context, id uuid.UUID) ([]string, error) {
	asset, err := uc.assetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - Delete - uc.assetRepo.GetByID: %w", err)
	}

	usage, err := uc.assetRepo.UsageCounts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - Delete - uc.assetRepo.UsageCounts: %w", err)
	}
	if len(usage) > 0 {
		return nil, &errs.ConflictError{Usage: usage}
	}

	keys := asset.Keys()
	for _, key := range keys {
		if err := uc.blobRepo.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("MediaUseCase - Delete - uc.blobRepo.Delete: %w", err)
		}
	}

	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := uc.assetRepo.Delete(ctx, id); err != nil {
			return fmt.Errorf("MediaUseCase - Delete - uc.assetRepo.Delete: %w", err)
		}

		event, err := newOutboxEvent(entity.EventAssetDeleted, asset)
		if err != nil {
			return fmt.Errorf("MediaUseCase - Delete - newOutboxEvent: %w", err)
		}
		if err := uc.outboxRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("MediaUseCase - Delete - uc.outboxRepo.Create: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("MediaUseCase - Delete - uc.transactor.WithinTransaction: %w", err)
	}

	return keys, nil
}

// uploadAll pushes the original and every derivative concurrently,
// bounded by uploadWorkers. It returns the keys that made it to
// storage so the caller can compensate on failure.
func (uc *MediaUseCase) uploadAll(ctx context.Context, processed *entity.ProcessedImage) ([]string, error) {
	type blob struct {
		key         string
		data        []byte
		contentType string
	}

	blobs := make([]blob, 0, len(processed.Derivatives)+1)
	blobs = append(blobs, blob{
		key:         processed.Original.Key,
		data:        processed.OriginalData,
		contentType: processed.MIME,
	})
	for i, d := range processed.Derivatives {
		blobs = append(blobs, blob{
			key:         d.Key,
			data:        processed.DerivativeData[i],
			contentType: processor.MimeForExt(d.Format),
		})
	}

	var (
		mu       sync.Mutex
		uploaded []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.uploadWorkers)

	for _, b := range blobs {
		b := b
		g.Go(func() error {
			if err := uc.blobRepo.Upload(gctx, b.key, b.data, b.contentType); err != nil {
				return fmt.Errorf("upload %s: %w", b.key, err)
			}

			mu.Lock()
			uploaded = append(uploaded, b.key)
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return uploaded, err
	}

	return uploaded, nil
}

// deleteKeys is the compensation path: remove whatever subset of
// final objects exists so a failed complete leaves nothing behind.
func (uc *MediaUseCase) deleteKeys(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := uc.blobRepo.Delete(ctx, key); err != nil {
			uc.logger.Error(err, "MediaUseCase - deleteKeys - uc.blobRepo.Delete")
		}
	}
}

func (uc *MediaUseCase) deleteTempObject(ctx context.Context, tempKey string) {
	if err := uc.blobRepo.Delete(ctx, tempKey); err != nil {
		uc.logger.Warn("failed to delete temp key=%s, error=%v", tempKey, err)
	}
}
