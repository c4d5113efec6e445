package svgico

import (
	"fmt"
)

// ValidationError reports an entry list or an entry specification
// which cannot be compiled.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid entry: " + e.Reason
	}
	return fmt.Sprintf("invalid entry: %s %s", e.Field, e.Reason)
}

// RasterizationError is returned when a vector source cannot be turned into pixels:
// malformed data, an unreachable stylesheet or a renderer failure.
type RasterizationError struct {
	Source string
	Err    error
}

func (e *RasterizationError) Error() string {
	return fmt.Sprintf("rasterizing %s: %v", e.Source, e.Err)
}

func (e *RasterizationError) Unwrap() error { return e.Err }

// UnsupportedDepthError is returned for a color depth outside of 1, 4, 8, 24 and 32 bits.
type UnsupportedDepthError struct {
	Depth int
}

func (e *UnsupportedDepthError) Error() string {
	return fmt.Sprintf("unsupported color depth: %d bits per pixel (must be one of 1, 4, 8, 24, 32)", e.Depth)
}

// EncodingError is returned when the still image codec rejects a pixel buffer.
type EncodingError struct {
	Width, Height int
	Err           error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding %dx%d image: %v", e.Width, e.Height, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// PackingError is returned when the entries cannot be addressed
// by the fixed width fields of the icon directory.
type PackingError struct {
	Reason string
}

func (e *PackingError) Error() string {
	return "packing icon container: " + e.Reason
}

// EntryError identifies the entry which aborted a compilation.
// The underlying stage error is reachable through errors.As.
type EntryError struct {
	Index  int
	Source string
	Err    error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry #%d (%s): %v", e.Index, e.Source, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }
