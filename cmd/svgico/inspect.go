package main

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/esimov/svgico"
	"github.com/esimov/svgico/imop"
	"github.com/esimov/svgico/utils"
	"github.com/spf13/cobra"
)

var (
	colorCyan = lipgloss.Color("36")
	colorGray = lipgloss.Color("245")
	colorDim  = lipgloss.Color("240")

	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Padding(0, 1)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
	styleBorder = lipgloss.NewStyle().Foreground(colorDim)
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim    = lipgloss.NewStyle().Foreground(colorGray)
)

func newInspectCmd() *cobra.Command {
	var (
		extract    string
		background string
		op         string
	)

	cmd := &cobra.Command{
		Use:   "inspect icon.ico",
		Short: "List the entries of an ICO file",
		Example: `  svgico inspect icon.ico
  svgico inspect icon.ico --extract out --background white
  svgico inspect icon.ico --extract out --background red --op dst_over`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			ico, err := svgico.Decode(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), styleTitle.Render(filepath.Base(args[0]))+
				styleDim.Render(fmt.Sprintf(" %d entries", len(ico.Entries))))
			fmt.Fprintln(cmd.OutOrStdout(), renderDirectory(ico))

			if extract == "" {
				return nil
			}
			var bg *color.NRGBA
			if background != "" {
				c, err := utils.ParseColor(background)
				if err != nil {
					return err
				}
				bg = &c
			}
			comp := imop.InitOp()
			if o := imop.Op(op); o.Valid() {
				comp.Set(o)
			} else {
				return fmt.Errorf("unknown composition operation %q (one of %s)", op, joinOps(imop.Ops()))
			}
			return extractEntries(cmd, ico, args[0], extract, bg, comp)
		},
	}
	cmd.Flags().StringVar(&extract, "extract", "", "write every entry as a PNG image into this directory")
	cmd.Flags().StringVar(&background, "background", "", "flatten the extracted entries over this color (name or #rrggbb)")
	cmd.Flags().StringVar(&op, "op", string(imop.SrcOver), "composition operation applied with --background")
	return cmd
}

// renderDirectory formats the directory records as a table.
func renderDirectory(ico *svgico.Icon) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		}).
		Headers("#", "SIZE", "BPP", "COLORS", "FORMAT", "BYTES", "OFFSET")

	for i, e := range ico.Entries {
		format := "bmp"
		if e.Compressed {
			format = "png"
		}
		t.Row(
			strconv.Itoa(i),
			fmt.Sprintf("%dx%d", e.Width, e.Height),
			strconv.Itoa(e.BitCount),
			strconv.Itoa(e.ColorCount),
			format,
			strconv.Itoa(len(e.Payload)),
			strconv.FormatUint(uint64(e.Offset), 10),
		)
	}
	return t.String()
}

func joinOps(ops []imop.Op) string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}

func extractEntries(cmd *cobra.Command, ico *svgico.Icon, name, dir string, bg *color.NRGBA, comp *imop.Composite) error {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	logger := loggerFrom(cmd)

	for i, e := range ico.Entries {
		img, err := e.Image()
		if err != nil {
			return fmt.Errorf("entry #%d: %w", i, err)
		}
		if bg != nil {
			img = comp.Flatten(img, *bg)
		}

		var buf bytes.Buffer
		if err := (svgico.PNGCodec{}).Encode(&buf, img); err != nil {
			return fmt.Errorf("entry #%d: %w", i, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("%s-%d-%dx%d-%d.png", base, i, e.Width, e.Height, e.BitCount))
		if err := writeFileAtomic(path, buf.Bytes(), 0o644); err != nil {
			return err
		}
		logger.Info("extracted entry", "index", i, "path", path)
	}
	return nil
}
