package svgico

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackedSource records how many of its readers are still open.
type trackedSource struct {
	*BytesSource
	mu     sync.Mutex
	opened int
	closed int
}

func track(name, data string) *trackedSource {
	return &trackedSource{BytesSource: NewBytesSource(name, []byte(data))}
}

func (s *trackedSource) Open() (io.ReadCloser, error) {
	rc, _ := s.BytesSource.Open()
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
	return &trackedReader{ReadCloser: rc, src: s}, nil
}

type trackedReader struct {
	io.ReadCloser
	src *trackedSource
}

func (r *trackedReader) Close() error {
	r.src.mu.Lock()
	r.src.closed++
	r.src.mu.Unlock()
	return r.ReadCloser.Close()
}

// failingSource cannot be opened.
type failingSource string

func (f failingSource) Name() string                 { return string(f) }
func (f failingSource) Open() (io.ReadCloser, error) { return nil, errors.New("connection refused") }

func TestCompiler_SingleNativeEntry(t *testing.T) {
	spec := MustEntrySpec(NewBytesSource("square.svg", []byte(squareSVG)), 32, 32)

	data, err := NewCompiler().Compile([]EntrySpec{spec})
	require.NoError(t, err)

	hdr, dir := readDir(t, data)
	require.Equal(t, uint16(1), hdr.Count)
	assert.Equal(t, uint16(32), dir[0].BitCount)
	assert.Equal(t, uint8(32), dir[0].Width)
	assert.Equal(t, uint32(40+32*32*4+4*32), dir[0].Size)
	assert.Equal(t, uint32(6+16), dir[0].Offset)
	assert.Len(t, data, 6+16+40+32*32*4+4*32)
}

func TestCompiler_IndexedEntries(t *testing.T) {
	src := NewBytesSource("square.svg", []byte(squareSVG))
	specs := []EntrySpec{
		MustEntrySpec(src, 16, 16, WithDepth(Depth8)),
		MustEntrySpec(src, 32, 32, WithDepth(Depth8)),
	}

	data, err := NewCompiler().Compile(specs)
	require.NoError(t, err)

	_, dir := readDir(t, data)
	require.Len(t, dir, 2)
	for i, size := range []int{16, 32} {
		assert.Equal(t, uint8(size), dir[i].Width)
		assert.Equal(t, uint8(0), dir[i].ColorCount)
		assert.Equal(t, uint16(8), dir[i].BitCount)
		assert.Equal(t, uint32(bitmapSize(size, size, Depth8)), dir[i].Size)
	}
	assert.Equal(t, uint32(6+2*16), dir[0].Offset)
	assert.Equal(t, dir[0].Offset+dir[0].Size, dir[1].Offset)
	assert.Equal(t, len(data), int(dir[1].Offset+dir[1].Size))
}

func TestCompiler_CompressedEntry(t *testing.T) {
	spec := MustEntrySpec(NewBytesSource("square.svg", []byte(squareSVG)), 256, 256, WithCompression(true))

	data, err := NewCompiler().Compile([]EntrySpec{spec})
	require.NoError(t, err)

	_, dir := readDir(t, data)
	assert.Equal(t, uint8(0), dir[0].Width)
	assert.Equal(t, uint8(0), dir[0].Height)
	assert.Equal(t, len(data)-22, int(dir[0].Size))
	assert.True(t, IsCompressed(data[dir[0].Offset:]))

	ico, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	img, err := ico.Entries[0].Image()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 256, 256), img.Bounds())
	assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, img.NRGBAAt(128, 128))
}

func TestCompiler_MalformedSourceReleasesResources(t *testing.T) {
	good := track("good.svg", squareSVG)
	css := track("user.css", "rect { fill: blue }")
	bad := track("bad.svg", "<svg><rect></svg>")
	never := track("never.svg", squareSVG)

	specs := []EntrySpec{
		MustEntrySpec(good, 16, 16, WithStylesheet(css)),
		MustEntrySpec(good, 32, 32),
		MustEntrySpec(bad, 16, 16, WithStylesheet(css)),
		MustEntrySpec(never, 16, 16),
	}

	var out bytes.Buffer
	n, err := NewCompiler().CompileTo(&out, specs)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Zero(t, out.Len())

	var entryErr *EntryError
	require.ErrorAs(t, err, &entryErr)
	assert.Equal(t, 2, entryErr.Index)
	assert.Equal(t, "bad.svg", entryErr.Source)

	var rastErr *RasterizationError
	require.ErrorAs(t, err, &rastErr)
	assert.Equal(t, "bad.svg", rastErr.Source)

	data, err := NewCompiler().Compile(specs)
	assert.Error(t, err)
	assert.Nil(t, data)

	for _, s := range []*trackedSource{good, css, bad, never} {
		assert.Equal(t, s.opened, s.closed, "%s leaked a reader", s.Name())
	}
	assert.Zero(t, never.opened)
}

func TestCompiler_UnreachableStylesheet(t *testing.T) {
	spec := MustEntrySpec(NewBytesSource("square.svg", []byte(squareSVG)), 16, 16,
		WithStylesheet(failingSource("https://example.com/user.css")))

	_, err := NewCompiler().Compile([]EntrySpec{spec})
	var rastErr *RasterizationError
	require.ErrorAs(t, err, &rastErr)
	assert.Contains(t, rastErr.Error(), "connection refused")
}

func TestCompiler_Validation(t *testing.T) {
	_, err := NewCompiler().Compile(nil)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	// A zero EntrySpec was never validated.
	_, err = NewCompiler().Compile([]EntrySpec{{}})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "source", valErr.Field)
}

type stubRasterizer struct {
	img *image.NRGBA
	err error
}

func (s *stubRasterizer) Rasterize([]byte, float64, float64, []byte) (*image.NRGBA, error) {
	return s.img, s.err
}

func TestCompiler_CustomCollaborators(t *testing.T) {
	var logs bytes.Buffer
	logger := log.NewWithOptions(&logs, log.Options{Level: log.DebugLevel})

	c := NewCompiler(
		WithRasterizer(&stubRasterizer{img: uniformImage(16, 16, color.NRGBA{G: 0xff, A: 0xff})}),
		WithCodec(failingCodec{}),
		WithLogger(logger),
	)
	src := NewBytesSource("any", nil)

	data, err := c.Compile([]EntrySpec{MustEntrySpec(src, 16, 16, WithDepth(Depth4))})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Contains(t, logs.String(), "including 16x16 image from any")

	_, err = c.Compile([]EntrySpec{MustEntrySpec(src, 16, 16, WithCompression(true))})
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)

	// The rasterizer must honour the requested size.
	_, err = c.Compile([]EntrySpec{MustEntrySpec(src, 32, 32)})
	var rastErr *RasterizationError
	require.ErrorAs(t, err, &rastErr)

	c.Rasterizer = &stubRasterizer{err: errors.New("renderer crashed")}
	_, err = c.Compile([]EntrySpec{MustEntrySpec(src, 16, 16)})
	require.ErrorAs(t, err, &rastErr)
	assert.True(t, strings.HasSuffix(err.Error(), "renderer crashed"))
}

func TestCompiler_RenderPNG(t *testing.T) {
	var buf bytes.Buffer
	spec := MustEntrySpec(NewBytesSource("wide.svg", []byte(wideSVG)), 40, 20, WithDepth(Depth4))
	require.NoError(t, NewCompiler().RenderPNG(&buf, spec))

	img, err := PNGCodec{}.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 20), img.Bounds())
}

func TestCompiler_RenderLargePNG(t *testing.T) {
	src := NewBytesSource("square.svg", []byte(squareSVG))
	spec := MustEntrySpec(src, 512, 512)

	var buf bytes.Buffer
	require.NoError(t, NewCompiler().RenderPNG(&buf, spec))
	img, err := PNGCodec{}.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 512, 512), img.Bounds())

	// The same entry cannot be described by an icon directory.
	_, err = NewCompiler().Compile([]EntrySpec{MustEntrySpec(src, 16, 16), spec})
	var entryErr *EntryError
	require.ErrorAs(t, err, &entryErr)
	assert.Equal(t, 1, entryErr.Index)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "width", valErr.Field)
}

func TestCompiler_Concurrent(t *testing.T) {
	c := NewCompiler()
	spec := MustEntrySpec(NewBytesSource("square.svg", []byte(squareSVG)), 24, 24, WithDepth(Depth8))

	want, err := c.Compile([]EntrySpec{spec})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Compile([]EntrySpec{spec})
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
