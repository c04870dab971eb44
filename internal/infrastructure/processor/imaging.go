package processor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp"

	"github.com/vitrina-app/media-service/internal/entity"
	"github.com/vitrina-app/media-service/pkg/types/errs"
)

const _originalJPEGQuality = 95

// Every retained width is rendered in both formats, webp first.
var derivativeFormats = []string{"webp", "jpg"}

type ImageProcessor struct {
	widths           []int
	webpQuality      float32
	jpegQuality      int
	brandPalette     []string
	brandMaxDistance float64
}

func New(widths []int, webpQuality, jpegQuality int, brandPalette []string, brandMaxDistance float64) *ImageProcessor {
	return &ImageProcessor{
		widths:           widths,
		webpQuality:      float32(webpQuality),
		jpegQuality:      jpegQuality,
		brandPalette:     brandPalette,
		brandMaxDistance: brandMaxDistance,
	}
}

// BrandAdvisory checks the given average color against the configured
// brand palette. The returned warning is advisory only.
func (p *ImageProcessor) BrandAdvisory(averageHex string) (string, bool) {
	return BrandAdvisory(averageHex, p.brandPalette, p.brandMaxDistance)
}

// Process decodes the upload once, bakes EXIF orientation into pixel
// order, renders the (width x format) derivative matrix without ever
// upscaling, and computes the placeholder hash, average color and
// content hash from the normalized pixels.
func (p *ImageProcessor) Process(ctx context.Context, data []byte, entitySlug string, kind entity.Kind) (*entity.ProcessedImage, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Process - image.DecodeConfig: %w", errs.ErrUnreadableImage)
	}

	// AutoOrientation rotates pixels per EXIF; re-encoding below strips
	// the tags, so downstream readers never apply rotation twice.
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Process - imaging.Decode: %w", errs.ErrUnreadableImage)
	}

	original, err := p.encodeOriginal(img, format)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Process - p.encodeOriginal: %w", err)
	}

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	longEdge := srcW
	if srcH > longEdge {
		longEdge = srcH
	}

	sum := sha256.Sum256(original)

	result := &entity.ProcessedImage{
		Original: entity.Derivative{
			Key:       entity.BuildKey(entitySlug, kind, entity.SizeTokenOriginal, formatExt(format)),
			Width:     srcW,
			Height:    srcH,
			SizeBytes: int64(len(original)),
			Format:    format,
		},
		OriginalData: original,
		ContentHash:  hex.EncodeToString(sum[:]),
		MIME:         formatMime(format),
		Format:       format,
	}

	for _, width := range p.widths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("ImageProcessor - Process: %w", err)
		}

		// Never upscale: widths beyond the source long edge are skipped
		// entirely, not clamped.
		if width > longEdge {
			continue
		}

		dstW, dstH := scaleDims(srcW, srcH, width)
		resized := imaging.Resize(img, dstW, dstH, imaging.Lanczos)

		for _, ext := range derivativeFormats {
			encoded, err := p.encodeDerivative(resized, ext)
			if err != nil {
				return nil, fmt.Errorf("ImageProcessor - Process - p.encodeDerivative: %w", err)
			}

			result.Derivatives = append(result.Derivatives, entity.Derivative{
				Key:       entity.BuildKey(entitySlug, kind, entity.SizeToken(width), ext),
				Width:     dstW,
				Height:    dstH,
				SizeBytes: int64(len(encoded)),
				Format:    extFormat(ext),
			})
			result.DerivativeData = append(result.DerivativeData, encoded)
		}
	}

	placeholder, err := EncodePlaceholder(img)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Process - EncodePlaceholder: %w", err)
	}
	result.PlaceholderHash = placeholder
	result.AverageColor = AverageColor(img)

	return result, nil
}

func (p *ImageProcessor) encodeOriginal(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case "png":
		err = imaging.Encode(&buf, img, imaging.PNG)
	case "gif":
		err = imaging.Encode(&buf, img, imaging.GIF)
	case "webp":
		err = webp.Encode(&buf, img, &webp.Options{Quality: 90})
	default:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(_originalJPEGQuality))
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}

	return buf.Bytes(), nil
}

func (p *ImageProcessor) encodeDerivative(img image.Image, ext string) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch ext {
	case "webp":
		err = webp.Encode(&buf, img, &webp.Options{Quality: p.webpQuality})
	default:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.jpegQuality))
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ext, err)
	}

	return buf.Bytes(), nil
}

// scaleDims fits the source into the target long edge preserving the
// aspect ratio, integer-rounded, both axes at least 1.
func scaleDims(srcW, srcH, size int) (int, int) {
	var w, h int
	if srcW >= srcH {
		w = size
		h = (size*srcH + srcW/2) / srcW
	} else {
		h = size
		w = (size*srcW + srcH/2) / srcH
	}

	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	return w, h
}

func formatExt(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}

func extFormat(ext string) string {
	if ext == "jpg" {
		return "jpeg"
	}
	return ext
}

func formatMime(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// MimeForExt is the content type derivative blobs are uploaded with.
// Accepts either the key extension or the format name.
func MimeForExt(ext string) string {
	switch ext {
	case "webp":
		return "image/webp"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
