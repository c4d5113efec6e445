package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/esimov/svgico"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// openSource resolves the --src flag. The standard input is read at once
// so that every entry can render it.
func openSource(cmd *cobra.Command, src string) (svgico.Source, error) {
	if src != pipeName {
		return svgico.SourceFromURI(src), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return nil, errors.New("`-` should be used with a pipe for stdin")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("unable to read the standard input: %w", err)
	}
	return svgico.NewBytesSource("stdin", data), nil
}

// writeOutput stores data at dest. Files are written atomically through
// a temporary file renamed into place; a failure leaves no partial output.
func writeOutput(cmd *cobra.Command, dest string, data []byte) error {
	if dest == pipeName {
		out := cmd.OutOrStdout()
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return errors.New("`-` should be used with a pipe for stdout")
		}
		_, err := out.Write(data)
		return err
	}
	return writeFileAtomic(dest, data, 0o644)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("unable to create the destination directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("unable to create the destination file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// errorKind names the pipeline stage which failed.
func errorKind(err error) string {
	var (
		validation *svgico.ValidationError
		raster     *svgico.RasterizationError
		depth      *svgico.UnsupportedDepthError
		encoding   *svgico.EncodingError
		packing    *svgico.PackingError
		entry      *svgico.EntryError
	)

	kind := "command failed"
	switch {
	case errors.As(err, &validation):
		kind = "invalid entry"
	case errors.As(err, &raster):
		kind = "rasterization failed"
	case errors.As(err, &depth):
		kind = "unsupported color depth"
	case errors.As(err, &encoding):
		kind = "encoding failed"
	case errors.As(err, &packing):
		kind = "packing failed"
	}
	if errors.As(err, &entry) {
		return fmt.Sprintf("%s (%s)", kind, entry.Source)
	}
	return kind
}
