package processor

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/buckket/go-blurhash"
	"github.com/disintegration/imaging"
)

const (
	_placeholderComponentsX = 4
	_placeholderComponentsY = 3

	// Placeholder math is O(w*h*cx*cy); a small working copy keeps it
	// cheap without changing the visual summary.
	_placeholderWorkSize = 64
)

// EncodePlaceholder returns the compact blurred-preview encoding of
// the image. Deterministic: identical pixels yield identical strings.
func EncodePlaceholder(img image.Image) (string, error) {
	return encodePlaceholder(img, _placeholderComponentsX, _placeholderComponentsY)
}

// EncodePlaceholderFast trades fidelity for speed with fewer
// components, for contexts like list thumbnails.
func EncodePlaceholderFast(img image.Image) (string, error) {
	return encodePlaceholder(img, 3, 2)
}

func encodePlaceholder(img image.Image, cx, cy int) (string, error) {
	work := workingCopy(img)

	hash, err := blurhash.Encode(cx, cy, work)
	if err != nil {
		return "", fmt.Errorf("blurhash.Encode: %w", err)
	}

	return hash, nil
}

// AverageColor computes the mean color of the image as #rrggbb.
func AverageColor(img image.Image) string {
	work := workingCopy(img)
	bounds := work.Bounds()

	var rSum, gSum, bSum, n uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := work.NRGBAAt(x, y)
			rSum += uint64(c.R)
			gSum += uint64(c.G)
			bSum += uint64(c.B)
			n++
		}
	}

	if n == 0 {
		return "#000000"
	}

	return fmt.Sprintf("#%02x%02x%02x", uint8(rSum/n), uint8(gSum/n), uint8(bSum/n))
}

// BrandAdvisory reports a human-readable warning when the image's
// average color sits further than maxDistance (RGB euclidean) from
// every palette entry. Informational only: it never blocks an upload.
// An empty palette disables the check.
func BrandAdvisory(averageHex string, palette []string, maxDistance float64) (string, bool) {
	if len(palette) == 0 {
		return "", false
	}

	r, g, b, err := parseHexColor(averageHex)
	if err != nil {
		return "", false
	}

	best := math.MaxFloat64
	for _, p := range palette {
		pr, pg, pb, err := parseHexColor(p)
		if err != nil {
			continue
		}

		d := math.Sqrt(float64((r-pr)*(r-pr) + (g-pg)*(g-pg) + (b-pb)*(b-pb)))
		if d < best {
			best = d
		}
	}

	if best == math.MaxFloat64 || best <= maxDistance {
		return "", false
	}

	return fmt.Sprintf("image tone %s deviates from the brand palette (distance %.0f)", averageHex, best), true
}

func workingCopy(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	if bounds.Dx() <= _placeholderWorkSize && bounds.Dy() <= _placeholderWorkSize {
		return imaging.Clone(img)
	}

	if bounds.Dx() >= bounds.Dy() {
		return imaging.Resize(img, _placeholderWorkSize, 0, imaging.Box)
	}
	return imaging.Resize(img, 0, _placeholderWorkSize, imaging.Box)
}

func parseHexColor(s string) (int, int, int, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q", s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q", s)
	}

	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), nil
}
