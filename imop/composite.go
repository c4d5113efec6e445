// Package imop implements the Porter-Duff composition operations
// used for mixing a graphic element with its backdrop.
// The image/draw package only implements source and source-over-destination;
// this package covers the remaining ones on non-premultiplied images.
//
// It is used to compose the entries of a decoded icon with a solid
// background, which makes the effect of the AND mask visible.
package imop

import (
	"image"
	"image/color"

	"github.com/esimov/svgico/utils"
)

// Op is a Porter-Duff composition operation.
type Op string

const (
	Clear   Op = "clear"
	Copy    Op = "copy"
	Dst     Op = "dst"
	SrcOver Op = "src_over"
	DstOver Op = "dst_over"
	SrcIn   Op = "src_in"
	DstIn   Op = "dst_in"
	SrcOut  Op = "src_out"
	DstOut  Op = "dst_out"
	SrcAtop Op = "src_atop"
	DstAtop Op = "dst_atop"
	Xor     Op = "xor"
)

var ops = []Op{Clear, Copy, Dst, SrcOver, DstOver, SrcIn, DstIn, SrcOut, DstOut, SrcAtop, DstAtop, Xor}

// Composite holds the currently active composition operation.
type Composite struct {
	current Op
}

// InitOp returns a Composite applying SrcOver.
func InitOp() *Composite {
	return &Composite{current: SrcOver}
}

// Ops returns the supported operations.
func Ops() []Op {
	return append([]Op(nil), ops...)
}

// Valid reports whether op is a supported operation.
func (op Op) Valid() bool {
	return utils.Contains(ops, op)
}

// Set activates op. Unknown operations are ignored.
func (c *Composite) Set(op Op) {
	if op.Valid() {
		c.current = op
	}
}

// Get returns the active operation.
func (c *Composite) Get() Op {
	return c.current
}

// Draw composes src over backdrop and returns the result. Both images must
// have the same size; the result covers their intersection.
func (c *Composite) Draw(src, backdrop *image.NRGBA) *image.NRGBA {
	rect := src.Bounds().Intersect(backdrop.Bounds())
	dst := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))

	for y := 0; y < rect.Dy(); y++ {
		si := src.PixOffset(rect.Min.X, rect.Min.Y+y)
		bi := backdrop.PixOffset(rect.Min.X, rect.Min.Y+y)
		di := dst.PixOffset(0, y)
		for x := 0; x < rect.Dx(); x++ {
			s := src.Pix[si : si+4 : si+4]
			b := backdrop.Pix[bi : bi+4 : bi+4]
			res := c.apply(
				[3]float64{norm(s[0]), norm(s[1]), norm(s[2])}, norm(s[3]),
				[3]float64{norm(b[0]), norm(b[1]), norm(b[2])}, norm(b[3]),
			)
			copy(dst.Pix[di:di+4], []uint8{res.R, res.G, res.B, res.A})
			si += 4
			bi += 4
			di += 4
		}
	}
	return dst
}

// apply evaluates the composition formula of a single pixel.
// The color channels are premultiplied internally.
func (c *Composite) apply(cs [3]float64, as float64, cb [3]float64, ab float64) color.NRGBA {
	var fs, fb float64
	switch c.current {
	case Clear:
	case Copy:
		fs = 1
	case Dst:
		fb = 1
	case SrcOver:
		fs, fb = 1, 1-as
	case DstOver:
		fs, fb = 1-ab, 1
	case SrcIn:
		fs = ab
	case DstIn:
		fb = as
	case SrcOut:
		fs = 1 - ab
	case DstOut:
		fb = 1 - as
	case SrcAtop:
		fs, fb = ab, 1-as
	case DstAtop:
		fs, fb = 1-ab, as
	case Xor:
		fs, fb = 1-ab, 1-as
	}

	ao := as*fs + ab*fb
	if ao <= 0 {
		return color.NRGBA{}
	}
	var out [3]uint8
	for i := range out {
		v := (as*fs*cs[i] + ab*fb*cb[i]) / ao
		out[i] = denorm(v)
	}
	return color.NRGBA{R: out[0], G: out[1], B: out[2], A: denorm(ao)}
}

// Flatten composes img over a uniform background color.
func Flatten(img *image.NRGBA, bg color.Color) *image.NRGBA {
	return InitOp().Flatten(img, bg)
}

// Flatten composes img with a uniform background color using the active operation.
func (c *Composite) Flatten(img *image.NRGBA, bg color.Color) *image.NRGBA {
	backdrop := image.NewNRGBA(img.Bounds())
	nc := color.NRGBAModel.Convert(bg).(color.NRGBA)
	for i := 0; i < len(backdrop.Pix); i += 4 {
		backdrop.Pix[i], backdrop.Pix[i+1], backdrop.Pix[i+2], backdrop.Pix[i+3] = nc.R, nc.G, nc.B, nc.A
	}
	return c.Draw(img, backdrop)
}

func norm(v uint8) float64 { return float64(v) / 255 }

func denorm(v float64) uint8 {
	return uint8(utils.Clamp(v*255+0.5, 0, 255))
}
