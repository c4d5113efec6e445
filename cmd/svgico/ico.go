package main

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/esimov/svgico"
	"github.com/esimov/svgico/manifest"
	"github.com/spf13/cobra"
)

// entryFlags are the flags describing the rendering of a single source.
type entryFlags struct {
	src        string
	dest       string
	width      float64
	height     float64
	depth      int
	stylesheet string
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.src, "src", "s", "", "source SVG file, URL or - for stdin")
	cmd.Flags().StringVarP(&f.dest, "dest", "o", "", "destination file or - for stdout")
	cmd.Flags().Float64Var(&f.width, "width", 0, "rendered width in pixels")
	cmd.Flags().Float64Var(&f.height, "height", 0, "rendered height in pixels")
	cmd.Flags().IntVar(&f.depth, "depth", 0, "color depth in bits per pixel (1, 4, 8, 24 or 32)")
	cmd.Flags().StringVar(&f.stylesheet, "stylesheet", "", "user CSS stylesheet applied to the source")
}

// options converts the flags shared by every entry.
func (f *entryFlags) options(compress bool) ([]svgico.EntryOption, error) {
	depth, err := svgico.ParseDepth(f.depth)
	if err != nil {
		return nil, err
	}
	opts := []svgico.EntryOption{svgico.WithDepth(depth), svgico.WithCompression(compress)}
	if f.stylesheet != "" {
		opts = append(opts, svgico.WithStylesheet(svgico.SourceFromURI(f.stylesheet)))
	}
	return opts, nil
}

func newIcoCmd() *cobra.Command {
	var (
		flags    entryFlags
		compress bool
		sizes    []string
	)

	cmd := &cobra.Command{
		Use:   "ico",
		Short: "Render an SVG image into an ICO file",
		Example: `  svgico ico --src icon.svg --dest icon.ico --width 32 --height 32
  svgico ico -s icon.svg -o icon.ico --size 16x16 --size 32x32 --size 256x256 --compress
  cat icon.svg | svgico ico -s - -o - --width 48 --height 48 --depth 8 > icon.ico`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.src == "" || flags.dest == "" {
				return errors.New("both --src and --dest are required")
			}
			opts, err := flags.options(compress)
			if err != nil {
				return err
			}

			dims, err := parseSizes(flags.width, flags.height, sizes)
			if err != nil {
				return err
			}

			// Standard input can be consumed only once: buffer it for every size.
			src, err := openSource(cmd, flags.src)
			if err != nil {
				return err
			}

			specs := make([]svgico.EntrySpec, 0, len(dims))
			for _, d := range dims {
				spec, err := svgico.NewEntrySpec(src, d[0], d[1], opts...)
				if err != nil {
					return err
				}
				specs = append(specs, spec)
			}
			return compileIcon(cmd, specs, flags.dest)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&compress, "compress", false, "store the entries as PNG streams")
	cmd.Flags().StringArrayVar(&sizes, "size", nil, "additional WIDTHxHEIGHT entry, may be repeated")
	return cmd
}

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build manifest.toml",
		Short: "Build the icons and images described by a TOML manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			logger := loggerFrom(cmd)

			if len(m.Sources) > 0 {
				specs, err := m.Specs()
				if err != nil {
					return err
				}
				if err := compileIcon(cmd, specs, m.DestinationPath()); err != nil {
					return err
				}
				logger.Info("icon written", "path", m.DestinationPath(), "entries", len(specs))
			}

			pngs, dests, err := m.PNGSpecs()
			if err != nil {
				return err
			}
			for i, spec := range pngs {
				if err := renderPNG(cmd, spec, dests[i]); err != nil {
					return err
				}
				logger.Info("image written", "path", dests[i])
			}
			return nil
		},
	}
}

// compileIcon compiles specs and writes the container to dest.
func compileIcon(cmd *cobra.Command, specs []svgico.EntrySpec, dest string) error {
	var buf bytes.Buffer
	err := withSpinner(cmd, "is compiling the icon...", func() error {
		_, err := newCompiler(cmd).CompileTo(&buf, specs)
		return err
	})
	if err != nil {
		return err
	}
	return writeOutput(cmd, dest, buf.Bytes())
}

// parseSizes returns the entry dimensions given by --width/--height and --size.
func parseSizes(width, height float64, sizes []string) ([][2]float64, error) {
	var dims [][2]float64
	if width != 0 || height != 0 {
		dims = append(dims, [2]float64{width, height})
	}
	for _, s := range sizes {
		w, h, ok := strings.Cut(strings.ToLower(s), "x")
		if !ok {
			return nil, fmt.Errorf("invalid size %q, expected WIDTHxHEIGHT", s)
		}
		fw, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid size %q: %w", s, err)
		}
		fh, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid size %q: %w", s, err)
		}
		dims = append(dims, [2]float64{fw, fh})
	}
	if len(dims) == 0 {
		return nil, errors.New("provide --width and --height or at least one --size")
	}
	return dims, nil
}
