package svgico

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/sergeymakinen/go-ico"
)

var errFormat = errors.New("not an icon container")

// Icon is a decoded icon container.
type Icon struct {
	Entries []*Entry
}

// Entry is one image of a decoded container, as described by its directory record.
type Entry struct {
	Width      int
	Height     int
	ColorCount int
	BitCount   int
	Offset     uint32
	Compressed bool
	Payload    []byte

	img image.Image
}

// Decode reads a complete icon container. The directory records are kept as
// they are, the images are decoded by go-ico: pixels excluded by the AND mask
// of a bitmap entry are fully transparent.
func Decode(r io.Reader) (*Icon, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	dir, err := readDirectory(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	icon := &Icon{Entries: make([]*Entry, len(dir))}
	for i, rec := range dir {
		end := uint64(rec.Offset) + uint64(rec.Size)
		if end > uint64(len(data)) {
			return nil, fmt.Errorf("entry %d: payload [%d, %d) is out of bounds", i, rec.Offset, end)
		}
		e := newEntry(rec)
		e.Payload = data[rec.Offset:end]
		e.Compressed = IsCompressed(e.Payload)
		icon.Entries[i] = e
	}

	imgs, err := ico.DecodeAll(bytes.NewReader(withMaskOnlyAlpha(data, icon.Entries)))
	if err != nil {
		return nil, fmt.Errorf("decoding entries: %w", err)
	}
	if len(imgs) != len(icon.Entries) {
		return nil, fmt.Errorf("decoded %d images out of %d entries", len(imgs), len(icon.Entries))
	}
	for i, img := range imgs {
		icon.Entries[i].img = img
	}
	return icon, nil
}

// DecodeConfig reads the header and the directory only.
func DecodeConfig(r io.Reader) ([]*Entry, error) {
	dir, err := readDirectory(r)
	if err != nil {
		return nil, err
	}
	entries := make([]*Entry, len(dir))
	for i, rec := range dir {
		entries[i] = newEntry(rec)
	}
	return entries, nil
}

func readDirectory(r io.Reader) ([]iconDirEntry, error) {
	var hdr iconDir
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if hdr.Reserved != 0 || hdr.Type != iconType {
		return nil, errFormat
	}
	if hdr.Count == 0 {
		return nil, fmt.Errorf("%w: empty directory", errFormat)
	}

	dir := make([]iconDirEntry, hdr.Count)
	if err := binary.Read(r, binary.LittleEndian, dir); err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	return dir, nil
}

func newEntry(rec iconDirEntry) *Entry {
	return &Entry{
		Width:      dimension(rec.Width),
		Height:     dimension(rec.Height),
		ColorCount: int(rec.ColorCount),
		BitCount:   int(rec.BitCount),
		Offset:     rec.Offset,
	}
}

// dimension reads a directory size byte, where 0 stands for 256.
func dimension(b uint8) int {
	if b == 0 {
		return MaxDimension
	}
	return int(b)
}

// Image returns the decoded pixels of the entry.
func (e *Entry) Image() (*image.NRGBA, error) {
	if e.img == nil {
		return nil, errors.New("entry has no decoded image")
	}
	return imaging.Clone(e.img), nil
}

// withMaskOnlyAlpha returns data with an opaque alpha channel for the 32 bit
// bitmaps whose alpha is entirely zero. Such bitmaps rely on the AND mask
// alone and would otherwise decode as fully transparent.
func withMaskOnlyAlpha(data []byte, entries []*Entry) []byte {
	var patched []byte
	for _, e := range entries {
		if e.Compressed || e.BitCount != 32 || len(e.Payload) < bitmapInfoHeaderLen {
			continue
		}
		hdr := readInfoHeader(e.Payload)
		w, h := int(hdr.Width), int(hdr.Height)/2
		if hdr.BitCount != 32 || hdr.Compression != biRGB || w <= 0 || h <= 0 {
			continue
		}
		start, end := int(hdr.Size), int(hdr.Size)+4*w*h
		if hdr.Size < bitmapInfoHeaderLen || end > len(e.Payload) || !alphaUnused(e.Payload[start:end]) {
			continue
		}

		if patched == nil {
			patched = append([]byte(nil), data...)
		}
		xor := patched[int(e.Offset)+start : int(e.Offset)+end]
		for i := 3; i < len(xor); i += 4 {
			xor[i] = 0xff
		}
	}
	if patched == nil {
		return data
	}
	return patched
}

func alphaUnused(bgra []byte) bool {
	for i := 3; i < len(bgra); i += 4 {
		if bgra[i] != 0 {
			return false
		}
	}
	return true
}
