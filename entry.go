package svgico

import (
	"fmt"
	"math"
)

// MaxDimension is the largest width or height a directory record can describe.
// A value of 256 is stored as 0 in the directory.
const MaxDimension = 256

// Depth is the number of bits used to represent the color of one pixel.
type Depth uint8

// Supported color depths. DepthNative keeps the rasterizer output as 32 bit RGBA.
const (
	DepthNative Depth = 0
	Depth1      Depth = 1
	Depth4      Depth = 4
	Depth8      Depth = 8
	Depth24     Depth = 24
	Depth32     Depth = 32
)

// Valid reports whether d is absent or one of the supported depths.
func (d Depth) Valid() bool {
	switch d {
	case DepthNative, Depth1, Depth4, Depth8, Depth24, Depth32:
		return true
	}
	return false
}

// Bits returns the effective bits per pixel, resolving DepthNative to 32.
func (d Depth) Bits() int {
	if d == DepthNative {
		return 32
	}
	return int(d)
}

// Indexed reports whether the depth requires a color palette.
func (d Depth) Indexed() bool {
	return d == Depth1 || d == Depth4 || d == Depth8
}

// Colors returns the palette size of an indexed depth and 0 otherwise.
func (d Depth) Colors() int {
	if !d.Indexed() {
		return 0
	}
	return 1 << d
}

// ParseDepth converts a user supplied bit count into a Depth.
// Zero means no reduction.
func ParseDepth(bits int) (Depth, error) {
	if bits < 0 || bits > math.MaxUint8 || !Depth(bits).Valid() {
		return 0, &UnsupportedDepthError{Depth: bits}
	}
	return Depth(bits), nil
}

// EntrySpec describes one raster variant of the icon.
// It is immutable once constructed; use NewEntrySpec to obtain a validated value.
type EntrySpec struct {
	source     Source
	width      float64
	height     float64
	depth      Depth
	compress   bool
	stylesheet Source
}

// EntryOption configures the optional fields of an EntrySpec.
type EntryOption func(*EntrySpec)

// WithDepth reduces the rendered image to the given color depth.
func WithDepth(d Depth) EntryOption {
	return func(e *EntrySpec) {
		e.depth = d
	}
}

// WithCompression stores the entry as a PNG stream instead of a bitmap.
func WithCompression(compress bool) EntryOption {
	return func(e *EntrySpec) {
		e.compress = compress
	}
}

// WithStylesheet applies a user stylesheet to the vector source before rendering.
func WithStylesheet(css Source) EntryOption {
	return func(e *EntrySpec) {
		e.stylesheet = css
	}
}

// NewEntrySpec creates an entry rendering src at width x height pixels.
// Absent options default to native depth, no compression and no stylesheet.
func NewEntrySpec(src Source, width, height float64, opts ...EntryOption) (EntrySpec, error) {
	e := EntrySpec{
		source: src,
		width:  width,
		height: height,
	}
	for _, opt := range opts {
		opt(&e)
	}
	if err := e.Validate(); err != nil {
		return EntrySpec{}, err
	}
	return e, nil
}

// MustEntrySpec is like NewEntrySpec but panics on invalid input.
func MustEntrySpec(src Source, width, height float64, opts ...EntryOption) EntrySpec {
	e, err := NewEntrySpec(src, width, height, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Validate checks the invariants of the entry. The size is only bounded
// when the entry is packed into an icon, see ValidateIcon.
func (e EntrySpec) Validate() error {
	if e.source == nil {
		return &ValidationError{Field: "source", Reason: "is missing"}
	}
	if err := validateDimension("width", e.width); err != nil {
		return err
	}
	if err := validateDimension("height", e.height); err != nil {
		return err
	}
	if !e.depth.Valid() {
		return &UnsupportedDepthError{Depth: int(e.depth)}
	}
	return nil
}

// ValidateIcon is like Validate and additionally checks that the entry
// can be described by an icon directory record.
func (e EntrySpec) ValidateIcon() error {
	if err := e.Validate(); err != nil {
		return err
	}
	w, h := e.PixelSize()
	for _, d := range []struct {
		field string
		v     float64
		px    int
	}{{"width", e.width, w}, {"height", e.height, h}} {
		if d.px > MaxDimension {
			return &ValidationError{
				Field:  d.field,
				Reason: fmt.Sprintf("%v rounds to %d pixels, an icon entry holds at most %d", d.v, d.px, MaxDimension),
			}
		}
	}
	return nil
}

func validateDimension(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must be positive, got %v", v)}
	}
	if px := pixels(v); px < 1 {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("%v rounds to %d pixels", v, px)}
	}
	return nil
}

// pixels rounds a rasterization target to the size of the pixel buffer.
func pixels(v float64) int {
	return int(v + 0.5)
}

func (e EntrySpec) Source() Source     { return e.source }
func (e EntrySpec) Width() float64     { return e.width }
func (e EntrySpec) Height() float64    { return e.height }
func (e EntrySpec) Depth() Depth       { return e.depth }
func (e EntrySpec) Compress() bool     { return e.compress }
func (e EntrySpec) Stylesheet() Source { return e.stylesheet }

// PixelSize returns the dimensions of the rendered raster.
func (e EntrySpec) PixelSize() (int, int) {
	return pixels(e.width), pixels(e.height)
}

func (e EntrySpec) String() string {
	name := "<nil>"
	if e.source != nil {
		name = e.source.Name()
	}
	return fmt.Sprintf("%s@%vx%v", name, e.width, e.height)
}
