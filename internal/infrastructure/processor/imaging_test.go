package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrina-app/media-service/internal/entity"
	"github.com/vitrina-app/media-service/pkg/types/errs"
)

var testWidths = []int{320, 640, 1280, 1920}

func newTestProcessor() *ImageProcessor {
	return New(testWidths, 72, 85, nil, 120)
}

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	return img
}

func encodeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	err := jpeg.Encode(&buf, testImage(w, h), &jpeg.Options{Quality: 90})
	require.NoError(t, err)

	return buf.Bytes()
}

func encodeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	err := png.Encode(&buf, testImage(w, h))
	require.NoError(t, err)

	return buf.Bytes()
}

func TestProcessCoverMatrix(t *testing.T) {
	p := newTestProcessor()

	result, err := p.Process(context.Background(), encodeTestJPEG(t, 3000, 2000), "tea-set", entity.KindCover)
	require.NoError(t, err)

	assert.Equal(t, "jpeg", result.Format)
	assert.Equal(t, "image/jpeg", result.MIME)
	assert.Equal(t, "tea-set__cover__original.jpg", result.Original.Key)
	assert.Equal(t, 3000, result.Original.Width)
	assert.Equal(t, 2000, result.Original.Height)
	assert.Equal(t, int64(len(result.OriginalData)), result.Original.SizeBytes)

	// 4 widths x 2 formats
	require.Len(t, result.Derivatives, 8)
	require.Len(t, result.DerivativeData, 8)

	wantKeys := []string{
		"tea-set__cover__320w.webp", "tea-set__cover__320w.jpg",
		"tea-set__cover__640w.webp", "tea-set__cover__640w.jpg",
		"tea-set__cover__1280w.webp", "tea-set__cover__1280w.jpg",
		"tea-set__cover__1920w.webp", "tea-set__cover__1920w.jpg",
	}
	for i, d := range result.Derivatives {
		assert.Equal(t, wantKeys[i], d.Key)
		assert.Equal(t, int64(len(result.DerivativeData[i])), d.SizeBytes)

		long := d.Width
		if d.Height > long {
			long = d.Height
		}
		assert.LessOrEqual(t, long, 3000)

		// landscape source: the long edge is the width and must hit
		// the requested size exactly
		assert.Equal(t, testWidths[i/2], d.Width)

		wantH := (d.Width*2000 + 1500) / 3000
		assert.InDelta(t, wantH, d.Height, 1)
	}

	assert.Len(t, result.ContentHash, 64)
	assert.NotEmpty(t, result.PlaceholderHash)
	assert.Regexp(t, `^#[0-9a-f]{6}$`, result.AverageColor)
}

func TestProcessNeverUpscales(t *testing.T) {
	p := newTestProcessor()

	result, err := p.Process(context.Background(), encodeTestPNG(t, 200, 200), "sticker", entity.KindGallery)
	require.NoError(t, err)

	// every configured width exceeds the 200px long edge
	assert.Empty(t, result.Derivatives)
	assert.Equal(t, "png", result.Format)
	assert.Equal(t, "image/png", result.MIME)
	assert.Equal(t, "sticker__gallery__original.png", result.Original.Key)
}

func TestProcessPortrait(t *testing.T) {
	p := newTestProcessor()

	result, err := p.Process(context.Background(), encodeTestJPEG(t, 1000, 1500), "poster", entity.KindGallery)
	require.NoError(t, err)

	// widths up to the 1500px long edge survive: 320, 640, 1280
	require.Len(t, result.Derivatives, 6)

	for i, d := range result.Derivatives {
		size := testWidths[i/2]
		assert.Equal(t, size, d.Height, d.Key)
		assert.Contains(t, d.Key, fmt.Sprintf("__%dw.", size))
	}
}

func TestProcessExactEdge(t *testing.T) {
	p := newTestProcessor()

	result, err := p.Process(context.Background(), encodeTestJPEG(t, 640, 640), "logo-tile", entity.KindLogo)
	require.NoError(t, err)

	// a width equal to the source long edge is retained, larger ones
	// are skipped
	require.Len(t, result.Derivatives, 4)
	assert.Equal(t, 320, result.Derivatives[0].Width)
	assert.Equal(t, 640, result.Derivatives[2].Width)
	assert.Equal(t, 640, result.Derivatives[2].Height)
}

func TestProcessUnreadable(t *testing.T) {
	p := newTestProcessor()

	_, err := p.Process(context.Background(), []byte("definitely not pixels"), "x", entity.KindGallery)
	assert.True(t, errors.Is(err, errs.ErrUnreadableImage))
}

func TestProcessContentHashDeterministic(t *testing.T) {
	p := newTestProcessor()
	data := encodeTestPNG(t, 400, 400)

	first, err := p.Process(context.Background(), data, "a", entity.KindGallery)
	require.NoError(t, err)
	second, err := p.Process(context.Background(), data, "a", entity.KindGallery)
	require.NoError(t, err)

	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.Equal(t, first.PlaceholderHash, second.PlaceholderHash)
}

func TestMimeForExt(t *testing.T) {
	assert.Equal(t, "image/webp", MimeForExt("webp"))
	assert.Equal(t, "image/png", MimeForExt("png"))
	assert.Equal(t, "image/gif", MimeForExt("gif"))
	assert.Equal(t, "image/jpeg", MimeForExt("jpg"))
	assert.Equal(t, "image/jpeg", MimeForExt("jpeg"))
}

func TestScaleDims(t *testing.T) {
	tests := []struct {
		srcW, srcH, size int
		wantW, wantH     int
	}{
		{3000, 2000, 320, 320, 213},
		{3000, 2000, 1920, 1920, 1280},
		{2000, 3000, 320, 213, 320},
		{10000, 10, 320, 320, 1},
		{10, 10000, 320, 1, 320},
	}

	for _, tt := range tests {
		w, h := scaleDims(tt.srcW, tt.srcH, tt.size)
		assert.Equal(t, tt.wantW, w)
		assert.Equal(t, tt.wantH, h)
	}
}
