// Package validate holds the pure upload checks: declared-size and
// mime ceilings, magic-byte sniffing, header-only dimension rules and
// alt-text constraints. No side effects; callers decide what to delete.
package validate

import (
	"bytes"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/gabriel-vasile/mimetype"

	"github.com/vitrina-app/media-service/internal/entity"
	"github.com/vitrina-app/media-service/pkg/types/errs"
)

const MaxAltTextLen = 140

var allowedImageMimes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// Video is stored as-is, never transcoded; only the sign step checks it.
var allowedVideoMimes = map[string]bool{
	"video/mp4":       true,
	"video/webm":      true,
	"video/quicktime": true,
}

// Always denied, regardless of any allow-list.
var deniedMimes = map[string]bool{
	"application/x-msdownload":      true,
	"application/x-executable":      true,
	"application/x-sh":              true,
	"application/x-csh":             true,
	"application/x-php":             true,
	"application/vnd.microsoft.portable-executable": true,
	"application/javascript":                        true,
	"text/javascript":                               true,
	"text/html":                                     true,
}

// kindRule is the fixed aspect/dimension policy for one usage kind.
// Aspect 0 means unconstrained.
type kindRule struct {
	aspect    float64
	tolerance float64
	minWidth  int
	minHeight int
}

var kindRules = map[entity.Kind]kindRule{
	// Tolerance wide enough to admit 3:2 camera output alongside 16:9.
	entity.KindCover:   {aspect: 16.0 / 9.0, tolerance: 0.20, minWidth: 640, minHeight: 360},
	entity.KindBanner:  {aspect: 3.0, tolerance: 0.10, minWidth: 960, minHeight: 320},
	entity.KindGallery: {minWidth: 320, minHeight: 320},
	entity.KindLogo:    {aspect: 1.0, tolerance: 0.10, minWidth: 256, minHeight: 256},
}

type Validator struct {
	maxImageBytes int64
	maxVideoBytes int64
}

func New(maxImageBytes, maxVideoBytes int64) *Validator {
	return &Validator{
		maxImageBytes: maxImageBytes,
		maxVideoBytes: maxVideoBytes,
	}
}

// ValidateUpload checks the declared size and mime against the
// per-media-type ceiling and allow-list before any bytes move.
func (v *Validator) ValidateUpload(declaredSize int64, declaredMime string) error {
	mime := NormalizeMime(declaredMime)

	if deniedMimes[mime] {
		return errs.NewValidationError("contentType", fmt.Sprintf("type %s is not allowed", declaredMime))
	}

	switch {
	case allowedImageMimes[mime]:
		if declaredSize > v.maxImageBytes {
			return errs.NewValidationError("sizeBytes",
				fmt.Sprintf("image size %d exceeds limit of %d bytes", declaredSize, v.maxImageBytes))
		}
	case allowedVideoMimes[mime]:
		if declaredSize > v.maxVideoBytes {
			return errs.NewValidationError("sizeBytes",
				fmt.Sprintf("video size %d exceeds limit of %d bytes", declaredSize, v.maxVideoBytes))
		}
	default:
		return errs.NewValidationError("contentType", fmt.Sprintf("unsupported type %s", declaredMime))
	}

	if declaredSize <= 0 {
		return errs.NewValidationError("sizeBytes", "file is empty")
	}

	return nil
}

// VerifyMagicBytes reports whether the buffer's leading bytes match
// the declared type. A false result is security-relevant: the caller
// must delete the object, never reprocess it.
func (v *Validator) VerifyMagicBytes(data []byte, declaredMime string) bool {
	return mimetype.Detect(data).Is(NormalizeMime(declaredMime))
}

// ValidateDimensions reads only the image header and applies the
// kind's aspect band and minimum dimensions. Returns ErrUnreadableImage
// when no header can be parsed at all.
func (v *Validator) ValidateDimensions(data []byte, kind entity.Kind) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("Validator - ValidateDimensions - image.DecodeConfig: %w", errs.ErrUnreadableImage)
	}

	rule, ok := kindRules[kind]
	if !ok {
		return errs.NewValidationError("kind", fmt.Sprintf("unknown kind %q", kind))
	}

	verr := &errs.ValidationError{}

	if cfg.Width < rule.minWidth || cfg.Height < rule.minHeight {
		verr.Add("dimensions", fmt.Sprintf("image is %dx%d, kind %s requires at least %dx%d",
			cfg.Width, cfg.Height, kind, rule.minWidth, rule.minHeight))
	}

	if rule.aspect > 0 {
		ratio := float64(cfg.Width) / float64(cfg.Height)
		lo := rule.aspect * (1 - rule.tolerance)
		hi := rule.aspect * (1 + rule.tolerance)
		if ratio < lo || ratio > hi {
			verr.Add("aspectRatio", fmt.Sprintf("aspect ratio %.3f outside allowed band [%.3f, %.3f] for kind %s",
				ratio, lo, hi, kind))
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}

	return nil
}

// ValidateAltText allows absent alt text but rejects blank-after-trim
// values and anything over MaxAltTextLen characters.
func (v *Validator) ValidateAltText(alt string) error {
	if alt == "" {
		return nil
	}

	if strings.TrimSpace(alt) == "" {
		return errs.NewValidationError("alt", "alt text must not be blank")
	}

	if n := utf8.RuneCountInString(alt); n > MaxAltTextLen {
		return errs.NewValidationError("alt",
			fmt.Sprintf("alt text is %d characters, maximum is %d", n, MaxAltTextLen))
	}

	return nil
}

// NormalizeMime folds common aliases onto their canonical form.
func NormalizeMime(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "image/jpg" {
		return "image/jpeg"
	}
	return mime
}

// MimeExt maps an allowed mime to the extension used in blob keys.
func MimeExt(mime string) (string, bool) {
	switch NormalizeMime(mime) {
	case "image/jpeg":
		return "jpg", true
	case "image/png":
		return "png", true
	case "image/webp":
		return "webp", true
	case "image/gif":
		return "gif", true
	case "video/mp4":
		return "mp4", true
	case "video/webm":
		return "webm", true
	case "video/quicktime":
		return "mov", true
	}
	return "", false
}
