package entity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Blob key layout, bit-exact for the CDN layer on top:
//
//	{entitySlug}__{kind}__{sizeToken}.{ext}
//
// where sizeToken is "original" or "{N}w". Temp uploads live under the
// upload/ namespace with a uuid in place of the size token.
const (
	uploadNamespace = "upload/"
	keySeparator    = "__"

	SizeTokenOriginal = "original"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

// BuildKey assembles a final blob key for one derivative or the
// original. sizeToken must be SizeTokenOriginal or SizeToken(width).
func BuildKey(entitySlug string, kind Kind, sizeToken, ext string) string {
	return fmt.Sprintf("%s%s%s%s%s.%s", entitySlug, keySeparator, kind, keySeparator, sizeToken, ext)
}

func SizeToken(width int) string {
	return fmt.Sprintf("%dw", width)
}

// BuildTempKey creates the upload-slot key consumed later by complete.
func BuildTempKey(entitySlug string, kind Kind, ext string) string {
	return uploadNamespace + entitySlug + keySeparator + string(kind) + keySeparator + uuid.New().String() + "." + ext
}

// ParseTempKey recovers the entity slug and kind baked into a temp
// key. Any structural deviation is fatal for the upload.
func ParseTempKey(tempKey string) (entitySlug string, kind Kind, err error) {
	name, ok := strings.CutPrefix(tempKey, uploadNamespace)
	if !ok {
		return "", "", fmt.Errorf("temp key %q outside upload namespace", tempKey)
	}

	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}

	parts := strings.Split(name, keySeparator)
	if len(parts) != 3 {
		return "", "", fmt.Errorf("temp key %q has %d segments, want 3", tempKey, len(parts))
	}

	if !ValidSlug(parts[0]) {
		return "", "", fmt.Errorf("temp key %q carries invalid slug", tempKey)
	}

	k, err := ParseKind(parts[1])
	if err != nil {
		return "", "", fmt.Errorf("temp key %q: %w", tempKey, err)
	}

	if _, err := uuid.Parse(parts[2]); err != nil {
		return "", "", fmt.Errorf("temp key %q carries invalid upload id", tempKey)
	}

	return parts[0], k, nil
}

// TempKeyExt returns the extension segment of a temp key, empty when
// absent.
func TempKeyExt(tempKey string) string {
	if i := strings.LastIndexByte(tempKey, '.'); i >= 0 {
		return tempKey[i+1:]
	}
	return ""
}
