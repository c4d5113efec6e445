package svgico

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/charmbracelet/log"
)

// Compiler renders entry specifications and packs them into an icon container.
// A Compiler holds no per compilation state and may be shared between goroutines.
type Compiler struct {
	Rasterizer Rasterizer
	Encoder    *Encoder
	Logger     *log.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithRasterizer replaces the default SVG rasterizer.
func WithRasterizer(r Rasterizer) Option {
	return func(c *Compiler) {
		c.Rasterizer = r
	}
}

// WithCodec sets the codec of compressed entries.
func WithCodec(codec Codec) Option {
	return func(c *Compiler) {
		c.Encoder = &Encoder{Codec: codec}
	}
}

// WithLogger reports the progress of the compilation to l.
func WithLogger(l *log.Logger) Option {
	return func(c *Compiler) {
		c.Logger = l
	}
}

// NewCompiler returns a Compiler using the oksvg rasterizer, the PNG codec and a silent logger.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		Rasterizer: &SVGRasterizer{},
		Encoder:    &Encoder{Codec: PNGCodec{}},
		Logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile renders every entry in order and returns the icon container.
// The first failing entry aborts the compilation with an *EntryError;
// no bytes are returned in that case.
func (c *Compiler) Compile(specs []EntrySpec) ([]byte, error) {
	entries, err := c.encodeAll(specs)
	if err != nil {
		return nil, err
	}
	return Pack(entries)
}

// CompileTo is like Compile but writes the container to w. Nothing is
// written unless every entry was encoded successfully.
func (c *Compiler) CompileTo(w io.Writer, specs []EntrySpec) (int64, error) {
	entries, err := c.encodeAll(specs)
	if err != nil {
		return 0, err
	}
	return PackTo(w, entries)
}

// RenderPNG rasterizes and reduces a single entry and writes it as a PNG image.
func (c *Compiler) RenderPNG(w io.Writer, spec EntrySpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	img, err := c.render(spec)
	if err != nil {
		return &EntryError{Source: spec.Source().Name(), Err: err}
	}

	var buf bytes.Buffer
	if err := c.codec().Encode(&buf, img); err != nil {
		b := img.Bounds()
		return &EncodingError{Width: b.Dx(), Height: b.Dy(), Err: err}
	}
	_, err = buf.WriteTo(w)
	return err
}

func (c *Compiler) encodeAll(specs []EntrySpec) ([]*EncodedEntry, error) {
	if len(specs) == 0 {
		return nil, &ValidationError{Reason: "at least one entry is required"}
	}
	for i, spec := range specs {
		if err := spec.ValidateIcon(); err != nil {
			return nil, &EntryError{Index: i, Source: sourceName(spec), Err: err}
		}
	}

	entries := make([]*EncodedEntry, 0, len(specs))
	for i, spec := range specs {
		e, err := c.encode(spec)
		if err != nil {
			c.logger().Debug("entry failed", "index", i, "source", spec.Source().Name(), "err", err)
			return nil, &EntryError{Index: i, Source: spec.Source().Name(), Err: err}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// encode runs the pipeline of one entry.
func (c *Compiler) encode(spec EntrySpec) (*EncodedEntry, error) {
	w, h := spec.PixelSize()
	c.logger().Infof("including %dx%d image from %s", w, h, spec.Source().Name())

	img, err := c.render(spec)
	if err != nil {
		return nil, err
	}

	enc := c.Encoder
	if enc == nil {
		enc = &Encoder{}
	}
	e, err := enc.Encode(img, spec.Depth(), spec.Compress())
	if err != nil {
		return nil, err
	}
	c.logger().Debug("encoded entry", "entry", e)
	return e, nil
}

// render rasterizes and reduces one entry. The source and the stylesheet
// are only open while they are read.
func (c *Compiler) render(spec EntrySpec) (*image.NRGBA, error) {
	name := spec.Source().Name()

	src, err := readAll(spec.Source())
	if err != nil {
		return nil, &RasterizationError{Source: name, Err: err}
	}

	var css []byte
	if sheet := spec.Stylesheet(); sheet != nil {
		c.logger().Debug("applying stylesheet", "source", name, "stylesheet", sheet.Name())
		if css, err = readAll(sheet); err != nil {
			return nil, &RasterizationError{Source: name, Err: fmt.Errorf("stylesheet %s: %w", sheet.Name(), err)}
		}
	}

	rast := c.Rasterizer
	if rast == nil {
		rast = &SVGRasterizer{}
	}
	img, err := rast.Rasterize(src, spec.Width(), spec.Height(), css)
	if err != nil {
		return nil, &RasterizationError{Source: name, Err: err}
	}
	if w, h := spec.PixelSize(); img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		return nil, &RasterizationError{
			Source: name,
			Err:    fmt.Errorf("rasterizer returned %v, expected %dx%d", img.Bounds().Size(), w, h),
		}
	}

	return Reduce(img, spec.Depth())
}

// readAll reads the whole content of s and releases it on every path.
func readAll(s Source) (data []byte, err error) {
	rc, err := s.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rc.Close(); err == nil {
			err = cerr
		}
	}()
	return io.ReadAll(rc)
}

func (c *Compiler) codec() Codec {
	if c.Encoder != nil && c.Encoder.Codec != nil {
		return c.Encoder.Codec
	}
	return PNGCodec{}
}

func (c *Compiler) logger() *log.Logger {
	if c.Logger == nil {
		return log.New(io.Discard)
	}
	return c.Logger
}

func sourceName(spec EntrySpec) string {
	if spec.Source() == nil {
		return "<nil>"
	}
	return spec.Source().Name()
}
