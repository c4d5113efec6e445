package svgico

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
)

const (
	bitmapInfoHeaderLen = 40
	biRGB               = 0
)

// bitmapInfoHeader is the BITMAPINFOHEADER heading every uncompressed entry.
// The height covers both the XOR bitmap and the AND mask.
type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// encodeBitmap writes the info header, the palette, the XOR bitmap and the
// AND mask of img. Rows are stored bottom-up and padded to 32 bits.
func encodeBitmap(img *image.NRGBA, d Depth) ([]byte, error) {
	var (
		b    = img.Bounds()
		w, h = b.Dx(), b.Dy()
		bits = d.Bits()
		pal  []color.NRGBA
	)

	if d.Indexed() {
		pal = Palette(img)
		if len(pal) > d.Colors() {
			return nil, fmt.Errorf("image has %d colors, a %d bit palette holds %d", len(pal), bits, d.Colors())
		}
	}

	xorStride, andStride := rowStride(w, bits), rowStride(w, 1)
	buf := make([]byte, bitmapSize(w, h, d))

	hdr := bitmapInfoHeader{
		Size:        bitmapInfoHeaderLen,
		Width:       int32(w),
		Height:      int32(2 * h),
		Planes:      1,
		BitCount:    uint16(bits),
		Compression: biRGB,
		SizeImage:   uint32((xorStride + andStride) * h),
	}
	if d.Indexed() {
		hdr.ClrUsed = uint32(d.Colors())
	}
	putInfoHeader(buf, hdr)

	off := bitmapInfoHeaderLen
	index := make(map[uint32]int, len(pal))
	for i := 0; i < d.Colors(); i++ {
		if i < len(pal) {
			c := pal[i]
			buf[off], buf[off+1], buf[off+2] = c.B, c.G, c.R
			index[pack(c)] = i
		}
		off += 4
	}

	xor := buf[off : off+xorStride*h]
	and := buf[off+xorStride*h:]
	for y := 0; y < h; y++ {
		// Bottom-up: the last image row comes first.
		xrow := xor[(h-1-y)*xorStride:]
		arow := and[(h-1-y)*andStride:]
		si := img.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			p := img.Pix[si : si+4 : si+4]
			si += 4

			if !opaque(p[3]) {
				arow[x/8] |= 0x80 >> uint(x%8)
			}

			switch bits {
			case 32:
				xrow[4*x], xrow[4*x+1], xrow[4*x+2], xrow[4*x+3] = p[2], p[1], p[0], p[3]
			case 24:
				xrow[3*x], xrow[3*x+1], xrow[3*x+2] = p[2], p[1], p[0]
			default:
				i := index[pack(color.NRGBA{R: p[0], G: p[1], B: p[2]})]
				setIndex(xrow, x, bits, i)
			}
		}
	}
	return buf, nil
}

func putInfoHeader(buf []byte, hdr bitmapInfoHeader) {
	le := binary.LittleEndian
	le.PutUint32(buf[0:], hdr.Size)
	le.PutUint32(buf[4:], uint32(hdr.Width))
	le.PutUint32(buf[8:], uint32(hdr.Height))
	le.PutUint16(buf[12:], hdr.Planes)
	le.PutUint16(buf[14:], hdr.BitCount)
	le.PutUint32(buf[16:], hdr.Compression)
	le.PutUint32(buf[20:], hdr.SizeImage)
	le.PutUint32(buf[24:], uint32(hdr.XPelsPerMeter))
	le.PutUint32(buf[28:], uint32(hdr.YPelsPerMeter))
	le.PutUint32(buf[32:], hdr.ClrUsed)
	le.PutUint32(buf[36:], hdr.ClrImportant)
}

func readInfoHeader(buf []byte) bitmapInfoHeader {
	le := binary.LittleEndian
	return bitmapInfoHeader{
		Size:          le.Uint32(buf[0:]),
		Width:         int32(le.Uint32(buf[4:])),
		Height:        int32(le.Uint32(buf[8:])),
		Planes:        le.Uint16(buf[12:]),
		BitCount:      le.Uint16(buf[14:]),
		Compression:   le.Uint32(buf[16:]),
		SizeImage:     le.Uint32(buf[20:]),
		XPelsPerMeter: int32(le.Uint32(buf[24:])),
		YPelsPerMeter: int32(le.Uint32(buf[28:])),
		ClrUsed:       le.Uint32(buf[32:]),
		ClrImportant:  le.Uint32(buf[36:]),
	}
}

// setIndex stores a palette index into a packed row, most significant bits first.
func setIndex(row []byte, x, bits, i int) {
	perByte := 8 / bits
	shift := uint(8 - bits*(x%perByte+1))
	row[x/perByte] |= byte(i << shift)
}
