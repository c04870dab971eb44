package processor

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestEncodePlaceholderDeterministic(t *testing.T) {
	img := testImage(300, 200)

	first, err := EncodePlaceholder(img)
	require.NoError(t, err)
	second, err := EncodePlaceholder(img)
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestEncodePlaceholderFast(t *testing.T) {
	img := testImage(300, 200)

	full, err := EncodePlaceholder(img)
	require.NoError(t, err)
	fast, err := EncodePlaceholderFast(img)
	require.NoError(t, err)

	assert.NotEmpty(t, fast)
	// fewer components encode to a shorter string
	assert.Less(t, len(fast), len(full))
}

func TestAverageColorUniform(t *testing.T) {
	img := uniformImage(100, 100, color.NRGBA{R: 0xff, A: 255})
	assert.Equal(t, "#ff0000", AverageColor(img))

	img = uniformImage(10, 10, color.NRGBA{R: 0x12, G: 0x34, B: 0x56, A: 255})
	assert.Equal(t, "#123456", AverageColor(img))
}

func TestBrandAdvisory(t *testing.T) {
	palette := []string{"#ff0000", "#00ff00"}

	// close to a palette entry: silent
	warning, ok := BrandAdvisory("#f40b05", palette, 120)
	assert.False(t, ok)
	assert.Empty(t, warning)

	// far from every entry: advisory, never an error
	warning, ok = BrandAdvisory("#0000ff", palette, 120)
	assert.True(t, ok)
	assert.Contains(t, warning, "#0000ff")

	// empty palette disables the check entirely
	_, ok = BrandAdvisory("#0000ff", nil, 120)
	assert.False(t, ok)

	// unparseable inputs are silent, not fatal
	_, ok = BrandAdvisory("not-a-color", palette, 120)
	assert.False(t, ok)
	_, ok = BrandAdvisory("#0000ff", []string{"bogus"}, 120)
	assert.False(t, ok)
}
