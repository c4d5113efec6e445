// Package manifest loads the TOML build descriptions of icons.
//
// A manifest names the icon destination and the vector sources to render,
// each with its own list of outputs:
//
//	destination = "app.ico"
//
//	[[source]]
//	path = "icon.svg"
//	stylesheet = "dark.css"
//
//	[[source.output]]
//	width = 32
//	height = 32
//	depth = 8
//
// A source without outputs is rendered at 64, 48, 32, 24 and 16 pixels.
// Standalone PNG renderings are listed as [[png]] tables.
// Relative paths are resolved against the directory of the manifest.
package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/esimov/svgico"
)

// DefaultSizes are the square outputs of a source listing none.
var DefaultSizes = []float64{64, 48, 32, 24, 16}

// Manifest is a parsed build description.
type Manifest struct {
	Destination string   `toml:"destination"`
	Sources     []Source `toml:"source"`
	PNGs        []PNG    `toml:"png"`

	dir string
}

// Source is a vector image rendered into one or more icon entries.
type Source struct {
	Path       string   `toml:"path"`
	Stylesheet string   `toml:"stylesheet"`
	Outputs    []Output `toml:"output"`
}

// Output is one entry of the icon.
type Output struct {
	Width    float64 `toml:"width"`
	Height   float64 `toml:"height"`
	Depth    int     `toml:"depth"`
	Compress bool    `toml:"compress"`
}

// PNG is a single rendering written as a PNG image.
type PNG struct {
	Path        string  `toml:"path"`
	Stylesheet  string  `toml:"stylesheet"`
	Destination string  `toml:"destination"`
	Width       float64 `toml:"width"`
	Height      float64 `toml:"height"`
	Depth       int     `toml:"depth"`
}

// Load reads the manifest stored at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// Parse decodes a manifest. Relative paths are kept relative to the working directory.
func Parse(r io.Reader) (*Manifest, error) {
	var m Manifest
	md, err := toml.NewDecoder(r).Decode(&m)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown manifest key %q", undecoded[0].String())
	}
	if len(m.Sources) == 0 && len(m.PNGs) == 0 {
		return nil, errors.New("manifest lists no source")
	}
	if len(m.Sources) > 0 && m.Destination == "" {
		return nil, errors.New("manifest has sources but no destination")
	}
	return &m, nil
}

// Resolve returns path relative to the manifest directory. URIs are kept as they are.
func (m *Manifest) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || m.dir == "" || strings.Contains(path, "://") {
		return path
	}
	return filepath.Join(m.dir, path)
}

// Specs expands the sources into the ordered entries of the icon.
func (m *Manifest) Specs() ([]svgico.EntrySpec, error) {
	var specs []svgico.EntrySpec
	for i, src := range m.Sources {
		if src.Path == "" {
			return nil, fmt.Errorf("source #%d has no path", i)
		}
		outputs := src.Outputs
		if len(outputs) == 0 {
			for _, size := range DefaultSizes {
				outputs = append(outputs, Output{Width: size, Height: size})
			}
		}

		for _, out := range outputs {
			spec, err := m.spec(src.Path, src.Stylesheet, out)
			if err != nil {
				return nil, fmt.Errorf("source %s: %w", src.Path, err)
			}
			specs = append(specs, spec)
		}
	}
	return specs, nil
}

// PNGSpecs returns the standalone renderings with their resolved destinations.
func (m *Manifest) PNGSpecs() ([]svgico.EntrySpec, []string, error) {
	specs := make([]svgico.EntrySpec, 0, len(m.PNGs))
	dests := make([]string, 0, len(m.PNGs))
	for _, p := range m.PNGs {
		if p.Path == "" || p.Destination == "" {
			return nil, nil, errors.New("png rendering requires a path and a destination")
		}
		spec, err := m.spec(p.Path, p.Stylesheet, Output{Width: p.Width, Height: p.Height, Depth: p.Depth})
		if err != nil {
			return nil, nil, fmt.Errorf("png %s: %w", p.Destination, err)
		}
		specs = append(specs, spec)
		dests = append(dests, m.Resolve(p.Destination))
	}
	return specs, dests, nil
}

// DestinationPath returns the resolved destination of the icon.
func (m *Manifest) DestinationPath() string {
	return m.Resolve(m.Destination)
}

func (m *Manifest) spec(path, stylesheet string, out Output) (svgico.EntrySpec, error) {
	depth, err := svgico.ParseDepth(out.Depth)
	if err != nil {
		return svgico.EntrySpec{}, err
	}
	opts := []svgico.EntryOption{
		svgico.WithDepth(depth),
		svgico.WithCompression(out.Compress),
	}
	if stylesheet != "" {
		opts = append(opts, svgico.WithStylesheet(svgico.SourceFromURI(m.Resolve(stylesheet))))
	}
	return svgico.NewEntrySpec(svgico.SourceFromURI(m.Resolve(path)), out.Width, out.Height, opts...)
}
