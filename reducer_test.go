package svgico

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ImgWidth = 24
const ImgHeight = 20

// noisyImage returns a deterministic image with many colors and a few
// partially transparent pixels.
func noisyImage(seed int64) *image.NRGBA {
	rnd := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, ImgWidth, ImgHeight))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = uint8(rnd.Intn(256))
		img.Pix[i+1] = uint8(rnd.Intn(256))
		img.Pix[i+2] = uint8(rnd.Intn(256))
		img.Pix[i+3] = []uint8{0, 60, 127, 128, 200, 255, 255, 255}[rnd.Intn(8)]
	}
	return img
}

func TestReducer_Idempotent(t *testing.T) {
	for _, d := range []Depth{DepthNative, Depth1, Depth4, Depth8, Depth24, Depth32} {
		img := noisyImage(int64(d) + 1)

		once, err := Reduce(img, d)
		require.NoError(t, err)
		twice, err := Reduce(once, d)
		require.NoError(t, err)

		assert.Equal(t, once.Bounds(), img.Bounds(), "depth %d", d)
		assert.Equal(t, once.Pix, twice.Pix, "depth %d", d)
	}
}

func TestReducer_Deterministic(t *testing.T) {
	img := noisyImage(42)
	a, err := Reduce(img, Depth4)
	require.NoError(t, err)
	b, err := Reduce(img, Depth4)
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestReducer_PaletteSize(t *testing.T) {
	img := noisyImage(7)
	for _, d := range []Depth{Depth1, Depth4, Depth8} {
		res, err := Reduce(img, d)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(Palette(res)), d.Colors(), "depth %d", d)

		for i := 3; i < len(res.Pix); i += 4 {
			require.Contains(t, []uint8{0, 0xff}, res.Pix[i])
		}
	}
}

func TestReducer_ExactPalette(t *testing.T) {
	red := color.NRGBA{R: 0xff, A: 0xff}
	blue := color.NRGBA{B: 0xff, A: 0xff}

	img := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	img.SetNRGBA(0, 0, red)
	img.SetNRGBA(1, 0, blue)
	img.SetNRGBA(2, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 10})
	img.SetNRGBA(3, 0, color.NRGBA{R: 0xff, A: 200})

	res, err := Reduce(img, Depth4)
	require.NoError(t, err)

	assert.Equal(t, red, res.NRGBAAt(0, 0))
	assert.Equal(t, blue, res.NRGBAAt(1, 0))
	// Transparent pixels take the first palette color.
	assert.Equal(t, color.NRGBA{B: 0xff}, res.NRGBAAt(2, 0))
	assert.Equal(t, red, res.NRGBAAt(3, 0))
	assert.Equal(t, []color.NRGBA{blue, red}, Palette(res))
}

func TestReducer_Monochrome(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 177, G: 177, B: 177, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 40, G: 60, B: 200, A: 255})
	img.SetNRGBA(2, 0, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0})

	res, err := Reduce(img, Depth1)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, res.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{A: 0xff}, res.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{}, res.NRGBAAt(2, 0))
}

func TestReducer_Depth24(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: MaskThreshold})
	img.SetNRGBA(1, 0, color.NRGBA{R: 1, G: 2, B: 3, A: MaskThreshold - 1})

	res, err := Reduce(img, Depth24)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 0xff}, res.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{}, res.NRGBAAt(1, 0))
}

func TestReducer_Transparent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 5, 5))
	for _, d := range []Depth{Depth1, Depth8} {
		res, err := Reduce(img, d)
		require.NoError(t, err)
		assert.Equal(t, make([]uint8, len(img.Pix)), res.Pix)
	}
}

func TestReducer_UnsupportedDepth(t *testing.T) {
	_, err := Reduce(noisyImage(1), Depth(2))
	var depthErr *UnsupportedDepthError
	require.ErrorAs(t, err, &depthErr)
	assert.Equal(t, 2, depthErr.Depth)
}
