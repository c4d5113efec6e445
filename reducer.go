package svgico

import (
	"image"
	"image/color"
	"sort"

	"github.com/esimov/svgico/utils"
)

// MaskThreshold is the smallest alpha value treated as opaque.
// Pixels below it are excluded through the AND mask of bitmap entries.
const MaskThreshold = 128

// Reduce quantizes img to the color depth d.
// DepthNative and Depth32 return img unchanged. Depth24 drops the partial
// transparency. The indexed depths map every opaque pixel to a palette of at
// most 2^d colors chosen by a deterministic median cut, transparent pixels
// take the first palette color with zero alpha. The result of Reduce is a
// fixed point: reducing it again to the same depth yields identical pixels.
func Reduce(img *image.NRGBA, d Depth) (*image.NRGBA, error) {
	if !d.Valid() {
		return nil, &UnsupportedDepthError{Depth: int(d)}
	}

	switch d {
	case DepthNative, Depth32:
		return img, nil
	case Depth24:
		return binarizeAlpha(img), nil
	case Depth1:
		return remap(img, monochrome), nil
	}

	pal := medianCut(histogram(img), d.Colors())
	if len(pal) == 0 {
		// Nothing is opaque: the whole image turns into transparent black.
		return image.NewNRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy())), nil
	}
	return remap(img, func(c color.NRGBA) color.NRGBA {
		return pal[nearest(pal, c)]
	}), nil
}

// Palette returns the sorted set of colors used by a reduced image.
// The alpha channel is ignored.
func Palette(img *image.NRGBA) []color.NRGBA {
	seen := make(map[uint32]struct{})
	forEachPixel(img, func(c color.NRGBA) {
		seen[pack(c)] = struct{}{}
	})

	keys := make([]uint32, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	pal := make([]color.NRGBA, len(keys))
	for i, k := range keys {
		pal[i] = unpack(k)
	}
	return pal
}

func opaque(a uint8) bool { return a >= MaskThreshold }

func pack(c color.NRGBA) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func unpack(k uint32) color.NRGBA {
	return color.NRGBA{R: uint8(k >> 16), G: uint8(k >> 8), B: uint8(k), A: 0xff}
}

func forEachPixel(img *image.NRGBA, fn func(color.NRGBA)) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			p := img.Pix[i : i+4 : i+4]
			fn(color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]})
			i += 4
		}
	}
}

// binarizeAlpha makes every pixel either fully opaque or fully transparent black.
func binarizeAlpha(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		si := img.PixOffset(b.Min.X, b.Min.Y+y)
		di := dst.PixOffset(0, y)
		for x := 0; x < b.Dx(); x++ {
			if opaque(img.Pix[si+3]) {
				copy(dst.Pix[di:di+3], img.Pix[si:si+3])
				dst.Pix[di+3] = 0xff
			}
			si += 4
			di += 4
		}
	}
	return dst
}

type colorCount struct {
	key   uint32
	count int
}

// histogram counts the opaque colors of img sorted by their packed value.
func histogram(img *image.NRGBA) []colorCount {
	counts := make(map[uint32]int)
	forEachPixel(img, func(c color.NRGBA) {
		if opaque(c.A) {
			counts[pack(c)]++
		}
	})

	hist := make([]colorCount, 0, len(counts))
	for k, n := range counts {
		hist = append(hist, colorCount{key: k, count: n})
	}
	sort.Slice(hist, func(i, j int) bool { return hist[i].key < hist[j].key })
	return hist
}

// monochrome maps a color to black or white depending on its luminance.
func monochrome(c color.NRGBA) color.NRGBA {
	lum := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	if lum < 128 {
		return color.NRGBA{A: 0xff}
	}
	return color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
}

func channel(k uint32, ch int) int {
	return int(k>>(16-8*ch)) & 0xff
}

// medianCut selects at most n colors representing hist. When the histogram
// already fits into the palette its colors are used as they are.
func medianCut(hist []colorCount, n int) []color.NRGBA {
	if len(hist) <= n {
		pal := make([]color.NRGBA, len(hist))
		for i, c := range hist {
			pal[i] = unpack(c.key)
		}
		return pal
	}

	boxes := [][]colorCount{hist}
	for len(boxes) < n {
		// Split the box having the widest channel range; ties go to the first one.
		target, axis, widest := -1, 0, 0
		for i, box := range boxes {
			if len(box) < 2 {
				continue
			}
			for ch := 0; ch < 3; ch++ {
				lo, hi := 255, 0
				for _, c := range box {
					v := channel(c.key, ch)
					lo, hi = utils.Min(lo, v), utils.Max(hi, v)
				}
				if hi-lo > widest || target < 0 {
					target, axis, widest = i, ch, hi-lo
				}
			}
		}
		if target < 0 {
			break
		}

		box := append([]colorCount(nil), boxes[target]...)
		sort.SliceStable(box, func(i, j int) bool {
			vi, vj := channel(box[i].key, axis), channel(box[j].key, axis)
			if vi != vj {
				return vi < vj
			}
			return box[i].key < box[j].key
		})

		total := 0
		for _, c := range box {
			total += c.count
		}
		split, acc := 1, 0
		for i, c := range box {
			acc += c.count
			if acc*2 >= total {
				split = i + 1
				break
			}
		}
		split = utils.Clamp(split, 1, len(box)-1)

		boxes[target] = box[:split]
		boxes = append(boxes, box[split:])
	}

	seen := make(map[uint32]struct{})
	pal := make([]color.NRGBA, 0, len(boxes))
	for _, box := range boxes {
		var r, g, b, total int
		for _, c := range box {
			r += channel(c.key, 0) * c.count
			g += channel(c.key, 1) * c.count
			b += channel(c.key, 2) * c.count
			total += c.count
		}
		avg := color.NRGBA{
			R: uint8((r + total/2) / total),
			G: uint8((g + total/2) / total),
			B: uint8((b + total/2) / total),
			A: 0xff,
		}
		if _, ok := seen[pack(avg)]; ok {
			continue
		}
		seen[pack(avg)] = struct{}{}
		pal = append(pal, avg)
	}
	sort.Slice(pal, func(i, j int) bool { return pack(pal[i]) < pack(pal[j]) })
	return pal
}

// nearest returns the index of the palette color closest to c.
func nearest(pal []color.NRGBA, c color.NRGBA) int {
	best, bestDist := 0, -1
	for i, p := range pal {
		dr := int(p.R) - int(c.R)
		dg := int(p.G) - int(c.G)
		db := int(p.B) - int(c.B)
		if d := dr*dr + dg*dg + db*db; bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// remap replaces every opaque pixel with the color chosen by fn and
// clears the transparent ones to the first color actually in use.
func remap(img *image.NRGBA, fn func(color.NRGBA) color.NRGBA) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	cache := make(map[uint32]color.NRGBA)
	used := make(map[uint32]struct{})
	for y := 0; y < b.Dy(); y++ {
		si := img.PixOffset(b.Min.X, b.Min.Y+y)
		di := dst.PixOffset(0, y)
		for x := 0; x < b.Dx(); x++ {
			src := color.NRGBA{R: img.Pix[si], G: img.Pix[si+1], B: img.Pix[si+2], A: img.Pix[si+3]}
			if opaque(src.A) {
				k := pack(src)
				c, ok := cache[k]
				if !ok {
					c = fn(src)
					cache[k] = c
				}
				used[pack(c)] = struct{}{}
				dst.Pix[di+0] = c.R
				dst.Pix[di+1] = c.G
				dst.Pix[di+2] = c.B
				dst.Pix[di+3] = 0xff
			}
			si += 4
			di += 4
		}
	}

	if len(used) == 0 {
		return dst
	}
	first := ^uint32(0)
	for k := range used {
		if k < first {
			first = k
		}
	}
	bg := unpack(first)
	for i := 0; i < len(dst.Pix); i += 4 {
		if dst.Pix[i+3] == 0 {
			dst.Pix[i+0] = bg.R
			dst.Pix[i+1] = bg.G
			dst.Pix[i+2] = bg.B
		}
	}
	return dst
}
