package svgico

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
	"github.com/esimov/svgico/utils"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
)

// Rasterizer turns a source document into a width x height pixel buffer.
// Implementations must be deterministic: identical input produces identical pixels.
type Rasterizer interface {
	// Rasterize renders src at the requested size. The stylesheet is optional
	// and nil when the entry has none.
	Rasterize(src []byte, width, height float64, stylesheet []byte) (*image.NRGBA, error)
}

// rasterTypes lists the content types rendered by resampling instead of vector rendering.
var rasterTypes = []string{"image/png", "image/jpeg", "image/gif", "image/bmp"}

// SVGRasterizer renders SVG documents with the oksvg parser and the rasterx
// anti-aliased scanline rasterizer. Bitmap sources (PNG, JPEG, GIF, BMP) are
// accepted as well and resampled with a bicubic filter.
type SVGRasterizer struct {
	// Stretch disables the aspect ratio preservation (xMidYMid meet) and scales
	// the view box to the whole target area.
	Stretch bool
}

var _ Rasterizer = (*SVGRasterizer)(nil)

// Rasterize implements the Rasterizer interface.
func (r *SVGRasterizer) Rasterize(src []byte, width, height float64, stylesheet []byte) (img *image.NRGBA, err error) {
	w, h := pixels(width), pixels(height)
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("invalid target size %vx%v", width, height)
	}

	// The renderer is not hardened against every malformed input.
	defer func() {
		if e := recover(); e != nil {
			img, err = nil, fmt.Errorf("renderer failure: %v", e)
		}
	}()

	if utils.Contains(rasterTypes, utils.DetectContentType(src)) {
		return r.resample(src, w, h)
	}

	var sheet *Stylesheet
	if stylesheet != nil {
		sheet, err = ParseStylesheet(bytes.NewReader(stylesheet))
		if err != nil {
			return nil, err
		}
	}

	doc, err := prepareDocument(src, sheet)
	if err != nil {
		return nil, err
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("could not parse the SVG document: %w", err)
	}

	x, y, tw, th := r.fit(icon.ViewBox.W, icon.ViewBox.H, width, height)
	icon.SetTarget(x, y, tw, th)

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	return imaging.Clone(rgba), nil
}

// fit computes the target rectangle of the view box inside the requested area.
func (r *SVGRasterizer) fit(vw, vh, width, height float64) (x, y, w, h float64) {
	if r.Stretch || vw <= 0 || vh <= 0 {
		return 0, 0, width, height
	}
	scale := math.Min(width/vw, height/vh)
	w, h = vw*scale, vh*scale
	return (width - w) / 2, (height - h) / 2, w, h
}

// resample scales a bitmap source into a w x h transparent canvas,
// preserving its aspect ratio unless stretching is requested.
func (r *SVGRasterizer) resample(src []byte, w, h int) (*image.NRGBA, error) {
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("could not decode the source image: %w", err)
	}
	if r.Stretch {
		return imaging.Resize(img, w, h, imaging.CatmullRom), nil
	}

	b := img.Bounds()
	_, _, fw, fh := r.fit(float64(b.Dx()), float64(b.Dy()), float64(w), float64(h))
	tw := utils.Clamp(int(math.Round(fw)), 1, w)
	th := utils.Clamp(int(math.Round(fh)), 1, h)

	resized := imaging.Resize(img, tw, th, imaging.CatmullRom)
	canvas := imaging.New(w, h, color.NRGBA{})
	return imaging.PasteCenter(canvas, resized), nil
}
