package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/vitrina-app/media-service/internal/controller/restapi/v1/request"
	"github.com/vitrina-app/media-service/internal/controller/restapi/v1/response"
	"github.com/vitrina-app/media-service/internal/dto"
	"github.com/vitrina-app/media-service/pkg/types/errs"
)

// @Summary  	Sign upload
// @Description Validates declared metadata and issues a time-boxed presigned PUT URL for direct client upload
// @Tags 		media
// @Accept 		json
// @Produce 	json
// @Param 		request body request.Sign true "Declared upload metadata"
// @Success 	200 {object} response.Sign
// @Failure 	400 {object} response.Error "Field-level validation errors"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/media/sign [post]
func (r *V1) signUpload(ctx *fiber.Ctx) error {
	var req request.Sign
	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	slot, err := r.media.Sign(ctx.UserContext(), dto.SignInput{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		Kind:        req.Kind,
		EntitySlug:  req.EntitySlug,
	})
	if err != nil {
		var verr *errs.ValidationError
		if errors.As(err, &verr) {
			return validationResponse(ctx, verr)
		}
		r.logger.Error(err, "restapi - v1 - signUpload")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusOK).JSON(response.Sign{
		UploadID:  slot.TempKey,
		UploadURL: slot.UploadURL,
		Key:       slot.TempKey,
		ExpiresIn: int64(time.Until(slot.ExpiresAt).Seconds()),
	})
}

// @Summary  	Complete upload
// @Description Verifies the uploaded object, generates derivatives, persists the asset record and emits a lifecycle event
// @Tags 		media
// @Accept 		json
// @Produce 	json
// @Param 		request body request.Complete true "Upload id from the sign step plus optional alt text"
// @Success 	201 {object} response.Complete
// @Failure 	400 {object} response.Error "Validation failure or content mismatch"
// @Failure 	404 {object} response.Error "Upload not found or already completed"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/media/complete [post]
func (r *V1) completeUpload(ctx *fiber.Ctx) error {
	var req request.Complete
	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if req.UploadID == "" {
		return errorResponse(ctx, http.StatusBadRequest, "uploadId is required")
	}

	// Hard wall-clock budget for the whole download-process-upload
	// sequence; past it the cleanup paths inside the pipeline are the
	// only recovery.
	tctx, cancel := context.WithTimeout(ctx.UserContext(), r.completeTimeout)
	defer cancel()

	result, err := r.media.Complete(tctx, req.UploadID, req.Alt)
	if err != nil {
		return r.completeError(ctx, err)
	}

	return ctx.Status(http.StatusCreated).JSON(response.Complete{
		ImageAsset: result.Asset,
		Warnings:   result.Warnings,
	})
}

func (r *V1) completeError(ctx *fiber.Ctx, err error) error {
	var verr *errs.ValidationError
	if errors.As(err, &verr) {
		return validationResponse(ctx, verr)
	}

	switch {
	case errors.Is(err, errs.ErrUploadNotFound):
		return errorResponse(ctx, http.StatusNotFound, "upload not found")
	case errors.Is(err, errs.ErrInvalidUploadID):
		return errorResponse(ctx, http.StatusBadRequest, "malformed upload id")
	case errors.Is(err, errs.ErrMimeMismatch):
		// Deliberately generic: the object has been discarded.
		return errorResponse(ctx, http.StatusBadRequest, "upload content does not match its declared type")
	case errors.Is(err, errs.ErrUnreadableImage):
		return errorResponse(ctx, http.StatusBadRequest, "image could not be decoded")
	}

	r.logger.Error(err, "restapi - v1 - completeUpload")

	return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
}

// @Summary  	Get asset
// @Description Returns the persisted asset record with its derivative manifest
// @Tags 		media
// @Produce 	json
// @Param 		id path string true "Asset ID(uuid)"
// @Success 	200 {object} response.Asset
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Asset not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/media/asset/{id} [get]
func (r *V1) getAsset(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	asset, err := r.media.GetAsset(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "asset not found")
		}
		r.logger.Error(err, "restapi - v1 - getAsset")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusOK).JSON(response.Asset{ImageAsset: asset})
}

// @Summary  	Delete asset
// @Description Deletes the asset record and every blob it owns, refusing while references remain
// @Tags 		media
// @Accept 		json
// @Produce 	json
// @Param 		request body request.Delete true "Asset to delete"
// @Success 	200 {object} response.Delete
// @Failure 	400 {object} response.Error "Asset still referenced (usage breakdown included)"
// @Failure 	404 {object} response.Error "Asset not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/v1/media/asset [delete]
func (r *V1) deleteAsset(ctx *fiber.Ctx) error {
	var req request.Delete
	if err := ctx.BodyParser(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	id, err := uuid.Parse(req.AssetID)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid assetId")
	}

	deletedKeys, err := r.media.Delete(ctx.UserContext(), id)
	if err != nil {
		var cerr *errs.ConflictError
		if errors.As(err, &cerr) {
			return ctx.Status(http.StatusBadRequest).JSON(response.Error{
				Error: "asset is still referenced",
				Usage: cerr.Usage,
			})
		}
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "asset not found")
		}
		r.logger.Error(err, "restapi - v1 - deleteAsset")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusOK).JSON(response.Delete{
		Success:     true,
		DeletedKeys: deletedKeys,
	})
}
