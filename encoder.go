package svgico

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
)

// pngSignature opens every PNG stream. Icon readers use it to tell
// compressed entries apart from bitmap ones.
var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// Codec is a lossless still image codec used for compressed entries.
type Codec interface {
	Encode(w io.Writer, img *image.NRGBA) error
	Decode(r io.Reader) (image.Image, error)
}

// PNGCodec stores the entries as PNG streams with the best compression level.
type PNGCodec struct{}

var _ Codec = PNGCodec{}

// Encode implements the Codec interface.
func (PNGCodec) Encode(w io.Writer, img *image.NRGBA) error {
	return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
}

// Decode implements the Codec interface.
func (PNGCodec) Decode(r io.Reader) (image.Image, error) {
	return imaging.Decode(r)
}

// IsCompressed reports whether an entry payload is a PNG stream.
func IsCompressed(payload []byte) bool {
	return bytes.HasPrefix(payload, pngSignature)
}

// EncodedEntry is the final byte representation of one icon image.
type EncodedEntry struct {
	Width      int
	Height     int
	Depth      Depth
	Compressed bool
	Payload    []byte
}

// Len returns the payload length in bytes.
func (e *EncodedEntry) Len() int { return len(e.Payload) }

// Encoder produces the payload of a rendered entry.
type Encoder struct {
	// Codec compresses the entries requesting it. PNGCodec is used when nil.
	Codec Codec
}

// Encode stores img either as a device independent bitmap followed by its
// AND mask or, if compress is set, as a codec stream. An indexed depth
// requires img to be already reduced to that depth.
func (e *Encoder) Encode(img *image.NRGBA, d Depth, compress bool) (*EncodedEntry, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 1 || h < 1 {
		return nil, &EncodingError{Width: w, Height: h, Err: errors.New("empty image")}
	}
	if !d.Valid() {
		return nil, &UnsupportedDepthError{Depth: int(d)}
	}

	if compress {
		codec := e.Codec
		if codec == nil {
			codec = PNGCodec{}
		}
		var buf bytes.Buffer
		if err := codec.Encode(&buf, img); err != nil {
			return nil, &EncodingError{Width: w, Height: h, Err: err}
		}
		return &EncodedEntry{
			Width:      w,
			Height:     h,
			Depth:      Depth32,
			Compressed: true,
			Payload:    buf.Bytes(),
		}, nil
	}

	payload, err := encodeBitmap(img, d)
	if err != nil {
		return nil, &EncodingError{Width: w, Height: h, Err: err}
	}
	return &EncodedEntry{
		Width:   w,
		Height:  h,
		Depth:   Depth(d.Bits()),
		Payload: payload,
	}, nil
}

// bitmapSize returns the length of an uncompressed payload, which starts
// with the 40 byte info header followed by the palette, the XOR bitmap and the AND mask.
func bitmapSize(w, h int, d Depth) int {
	bits := d.Bits()
	return bitmapInfoHeaderLen + 4*d.Colors() + rowStride(w, bits)*h + rowStride(w, 1)*h
}

// rowStride is the length of a bitmap row padded to 32 bits.
func rowStride(w, bits int) int {
	return (w*bits + 31) / 32 * 4
}

func (e *EncodedEntry) String() string {
	kind := "bmp"
	if e.Compressed {
		kind = "png"
	}
	return fmt.Sprintf("%dx%d %dbpp %s (%d bytes)", e.Width, e.Height, e.Depth.Bits(), kind, e.Len())
}
