package main

import (
	"bytes"
	"errors"

	"github.com/esimov/svgico"
	"github.com/spf13/cobra"
)

func newPngCmd() *cobra.Command {
	var flags entryFlags

	cmd := &cobra.Command{
		Use:     "png",
		Short:   "Render an SVG image into a PNG file",
		Example: `  svgico png --src icon.svg --dest icon.png --width 512 --height 512`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.src == "" || flags.dest == "" {
				return errors.New("both --src and --dest are required")
			}
			opts, err := flags.options(false)
			if err != nil {
				return err
			}
			src, err := openSource(cmd, flags.src)
			if err != nil {
				return err
			}
			spec, err := svgico.NewEntrySpec(src, flags.width, flags.height, opts...)
			if err != nil {
				return err
			}
			return renderPNG(cmd, spec, flags.dest)
		},
	}
	flags.register(cmd)
	return cmd
}

func renderPNG(cmd *cobra.Command, spec svgico.EntrySpec, dest string) error {
	var buf bytes.Buffer
	err := withSpinner(cmd, "is rendering the image...", func() error {
		return newCompiler(cmd).RenderPNG(&buf, spec)
	})
	if err != nil {
		return err
	}
	return writeOutput(cmd, dest, buf.Bytes())
}
