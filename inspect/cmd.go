package inspect

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/crazy3lf/colorconv"

	"bmp24/bmp"
	"bmp24/raster"
)

type CLICmd struct {
	Files     []string `arg:"" help:"Bitmaps to describe" type:"existingfile"`
	Headers   bool     `help:"Print headers only, without reading pixels" default:"false"`
	MaxPixels int      `help:"Skip pixel statistics for bitmaps with more pixels than this; 0 for no limit" default:"0"`
}

func (c *CLICmd) Run() error {
	var errCount int
	for _, name := range c.Files {
		if err := c.describe(os.Stdout, name); err != nil {
			errCount++
			slog.Error("could not describe bitmap", "file", name, "error", err)
		}
	}
	if errCount > 0 {
		return fmt.Errorf("error describing %d files", errCount)
	}
	return nil
}

func (c *CLICmd) describe(w io.Writer, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("could not open bitmap: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("could not close bitmap", "file", name, "error", closeErr)
		}
	}()

	hdr, err := bmp.DecodeConfig(f)
	if err != nil {
		return err
	}
	printHeader(w, name, hdr)
	if c.Headers {
		return nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("could not rewind bitmap: %w", err)
	}
	img, err := bmp.Decoder{MaxPixels: c.MaxPixels}.Decode(f)
	if err != nil {
		var ue bmp.UnsupportedError
		if errors.As(err, &ue) {
			slog.Warn("skipping pixel statistics", "file", name, "reason", err)
			return nil
		}
		return err
	}
	printStats(w, img)
	return nil
}

func printHeader(w io.Writer, name string, h bmp.Header) {
	fmt.Fprintf(w, "Filename: \t%v\n", name)
	fmt.Fprintf(w, "Filesize: \t%v bytes\n", h.File.Size)
	fmt.Fprintf(w, "Reserved: \t%#x\n", h.File.Reserved)
	fmt.Fprintf(w, "PixelOffset: \t%v bytes\n", h.File.DataOffset)
	fmt.Fprintf(w, "HeaderSize: \t%v bytes\n", h.Info.Size)
	fmt.Fprintf(w, "Width: \t\t%v px\n", h.Info.Width)
	fmt.Fprintf(w, "Height: \t%v px\n", h.Info.Height)
	fmt.Fprintf(w, "Planes: \t%v\n", h.Info.Planes)
	fmt.Fprintf(w, "BitCount: \t%vbits\n", h.Info.BitCount)
	fmt.Fprintf(w, "DataSize: \t%v bytes\n", h.Info.DataSize)
	fmt.Fprintf(w, "Resolution: \t%vx%v px/m\n", h.Info.XPixelsPerMeter, h.Info.YPixelsPerMeter)
	fmt.Fprintf(w, "Colors: \t%v used, %v important\n", h.Info.PaletteColors, h.Info.ImportantColors)
	fmt.Fprintf(w, "PixelCount: \t%v pixels\n", h.Width()*h.Height())
	fmt.Fprintf(w, "Stride: \t%v bytes\n", h.Stride())
	fmt.Fprintf(w, "Padding: \t%v bytes\n", h.Padding())
}

func printStats(w io.Writer, img *raster.Image) {
	mean, ok := meanColor(img)
	if !ok {
		fmt.Fprintf(w, "MeanColor: \tn/a\n")
		return
	}
	h, s, v := colorconv.RGBToHSV(mean.R, mean.G, mean.B)
	fmt.Fprintf(w, "MeanColor: \t#%02x%02x%02x hsv(%.0f, %.0f%%, %.0f%%)\n",
		mean.R, mean.G, mean.B, h, s*100, v*100)
}

// meanColor averages every channel over the image, rounding to nearest.
func meanColor(img *raster.Image) (raster.Color, bool) {
	n := uint64(img.Width() * img.Height())
	if n == 0 {
		return raster.Color{}, false
	}
	var r, g, b uint64
	for y := range img.Height() {
		for _, c := range img.Row(y) {
			r += uint64(c.R)
			g += uint64(c.G)
			b += uint64(c.B)
		}
	}
	return raster.Color{
		R: uint8((r + n/2) / n),
		G: uint8((g + n/2) / n),
		B: uint8((b + n/2) / n),
	}, true
}
