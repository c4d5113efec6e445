/*
Package svgico is an icon compiler, which rasterizes SVG documents at several sizes
and color depths and packs the resulting images into a single Windows icon (ICO) container.

Every image of the container is described by an EntrySpec: the source document, the target
size, the color depth, an optional user stylesheet and whether the image is stored as a
compressed (PNG) payload instead of an uncompressed bitmap with a transparency mask.

The package provides a command line interface, supporting various flags for building
icons, rendering single images and inspecting existing containers.
To check the supported commands type:

	$ svgico --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"os"

		"github.com/esimov/svgico"
	)

	func main() {
		src := svgico.FileSource("logo.svg")
		specs := []svgico.EntrySpec{
			svgico.MustEntrySpec(src, 16, 16, svgico.WithDepth(svgico.Depth8)),
			svgico.MustEntrySpec(src, 32, 32),
			svgico.MustEntrySpec(src, 256, 256, svgico.WithCompression(true)),
		}

		data, err := svgico.NewCompiler().Compile(specs)
		if err != nil {
			fmt.Printf("Error compiling the icon: %s", err.Error())
			return
		}
		os.WriteFile("logo.ico", data, 0o644)
	}

Importing the package also registers the "ico" format with the image package,
so that image.Decode returns the largest image of a container.
*/
package svgico
