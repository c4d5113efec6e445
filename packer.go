package svgico

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const (
	iconType       = 1
	headerLen      = 6
	dirEntryLen    = 16
	maxEntries     = math.MaxUint16
	maxPayloadSize = math.MaxUint32
)

// iconDir is the container header.
type iconDir struct {
	Reserved uint16
	Type     uint16
	Count    uint16
}

// iconDirEntry is one directory record. Width and Height hold 0 for 256.
type iconDirEntry struct {
	Width      uint8
	Height     uint8
	ColorCount uint8
	Reserved   uint8
	Planes     uint16
	BitCount   uint16
	Size       uint32
	Offset     uint32
}

// Pack assembles the header, the directory and the payloads of entries
// into an icon container.
func Pack(entries []*EncodedEntry) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := PackTo(&buf, entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PackTo writes the icon container to w and returns the number of bytes written.
// The directory is validated completely before anything is written.
func PackTo(w io.Writer, entries []*EncodedEntry) (int64, error) {
	dir, err := directory(entries)
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	hdr := iconDir{Type: iconType, Count: uint16(len(entries))}
	if err := binary.Write(cw, binary.LittleEndian, hdr); err != nil {
		return cw.n, err
	}
	if err := binary.Write(cw, binary.LittleEndian, dir); err != nil {
		return cw.n, err
	}
	for _, e := range entries {
		if _, err := cw.Write(e.Payload); err != nil {
			return cw.n, err
		}
	}
	return cw.n, nil
}

// directory computes the records of entries. Payloads follow the directory
// in input order without padding.
func directory(entries []*EncodedEntry) ([]iconDirEntry, error) {
	if len(entries) == 0 {
		return nil, &PackingError{Reason: "no entries"}
	}
	if len(entries) > maxEntries {
		return nil, &PackingError{Reason: fmt.Sprintf("%d entries exceed the directory limit of %d", len(entries), maxEntries)}
	}

	dir := make([]iconDirEntry, len(entries))
	offset := uint64(headerLen + dirEntryLen*len(entries))
	for i, e := range entries {
		if e == nil {
			return nil, &PackingError{Reason: fmt.Sprintf("entry %d is nil", i)}
		}
		if e.Width < 1 || e.Width > MaxDimension || e.Height < 1 || e.Height > MaxDimension {
			return nil, &PackingError{Reason: fmt.Sprintf("entry %d: %dx%d is outside of the directory range", i, e.Width, e.Height)}
		}
		size := uint64(e.Len())
		if size > maxPayloadSize || offset+size > maxPayloadSize {
			return nil, &PackingError{Reason: fmt.Sprintf("entry %d: payload offset overflows 32 bits", i)}
		}

		dir[i] = iconDirEntry{
			Width:      dimensionByte(e.Width),
			Height:     dimensionByte(e.Height),
			ColorCount: paletteSize(e),
			Planes:     1,
			BitCount:   uint16(e.Depth.Bits()),
			Size:       uint32(size),
			Offset:     uint32(offset),
		}
		offset += size
	}
	return dir, nil
}

// dimensionByte stores 256 as 0.
func dimensionByte(v int) uint8 {
	if v == MaxDimension {
		return 0
	}
	return uint8(v)
}

// paletteSize is the palette size of the entry, 0 when it has 256 colors
// or more, or when the payload is compressed.
func paletteSize(e *EncodedEntry) uint8 {
	if e.Compressed || e.Depth.Colors() >= 256 {
		return 0
	}
	return uint8(e.Depth.Colors())
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
