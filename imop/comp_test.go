package imop

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComp_Basic(t *testing.T) {
	assert := assert.New(t)

	op := InitOp()
	assert.Equal(SrcOver, op.Get())

	op.Set(Clear)
	assert.Equal(Clear, op.Get())

	op.Set(Op("unsupported_composite_operation"))
	assert.Equal(Clear, op.Get())

	op.Set(Dst)
	assert.Equal(Dst, op.Get())
}

func TestComp_Ops(t *testing.T) {
	transparent := color.NRGBA{}
	cyan := color.NRGBA{R: 33, G: 150, B: 243, A: 255}
	magenta := color.NRGBA{R: 233, G: 30, B: 99, A: 255}

	rect := image.Rect(0, 0, 10, 10)
	source := image.NewNRGBA(rect)
	backdrop := image.NewNRGBA(rect)
	draw.Draw(source, image.Rect(0, 4, 6, 10), &image.Uniform{cyan}, image.Point{}, draw.Src)
	draw.Draw(backdrop, image.Rect(4, 0, 10, 6), &image.Uniform{magenta}, image.Point{}, draw.Src)

	// Depending on the operation the three representative pixels hold
	// the source color, the backdrop color or nothing.
	tests := []struct {
		op                          Op
		topRight, bottomLeft, center color.NRGBA
	}{
		{Clear, transparent, transparent, transparent},
		{Copy, transparent, cyan, cyan},
		{Dst, magenta, transparent, magenta},
		{SrcOver, magenta, cyan, cyan},
		{DstOver, magenta, cyan, magenta},
		{SrcIn, transparent, transparent, cyan},
		{DstIn, transparent, transparent, magenta},
		{SrcOut, transparent, cyan, transparent},
		{DstOut, magenta, transparent, transparent},
		{SrcAtop, magenta, transparent, cyan},
		{DstAtop, transparent, cyan, magenta},
		{Xor, magenta, cyan, transparent},
	}

	op := InitOp()
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			op.Set(tt.op)
			res := op.Draw(source, backdrop)

			assert.Equal(t, tt.topRight, res.NRGBAAt(9, 0))
			assert.Equal(t, tt.bottomLeft, res.NRGBAAt(0, 9))
			assert.Equal(t, tt.center, res.NRGBAAt(5, 5))
		})
	}
}

func TestComp_Flatten(t *testing.T) {
	assert := assert.New(t)

	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 255, A: 0})

	res := Flatten(img, color.White)
	assert.Equal(color.NRGBA{R: 255, A: 255}, res.NRGBAAt(0, 0))
	assert.Equal(color.NRGBA{R: 255, G: 255, B: 255, A: 255}, res.NRGBAAt(1, 0))

	// Half transparent red over white.
	img.SetNRGBA(1, 0, color.NRGBA{R: 255, A: 128})
	res = Flatten(img, color.White)
	assert.Equal(color.NRGBA{R: 255, G: 127, B: 127, A: 255}, res.NRGBAAt(1, 0))
}

func TestComp_FlattenOp(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})

	op := InitOp()
	op.Set(DstOver)
	res := op.Flatten(img, color.White)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, res.NRGBAAt(0, 0))

	op.Set(SrcIn)
	res = op.Flatten(img, color.White)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, res.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{}, res.NRGBAAt(1, 0))

	assert.True(t, Xor.Valid())
	assert.False(t, Op("multiply").Valid())
	assert.Len(t, Ops(), 12)
}
