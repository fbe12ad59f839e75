package bmp

import (
	"bufio"
	"image"
	"io"
	"strconv"

	"bmp24/raster"
)

// Source is the image side of Encode: rows are read by index from the top.
type Source interface {
	Width() int
	Height() int
	Row(y int) []raster.Color
}

// Encode writes img to w as a bottom-up 24-bit BMP. The first failed write
// aborts the encoding and is returned as a *WriteError. Images whose size
// the headers cannot hold are refused with an UnsupportedError before
// anything is written.
func Encode(w io.Writer, img Source) error {
	width, height := img.Width(), img.Height()
	if err := checkEncodable(width, height); err != nil {
		return err
	}
	stride := Stride(width)

	bw := bufio.NewWriter(w)

	hdr, _ := NewHeader(width, height).MarshalBinary()
	if _, err := bw.Write(hdr[:FileHeaderSize]); err != nil {
		return &WriteError{Section: "file header", Err: err}
	}
	if _, err := bw.Write(hdr[FileHeaderSize:]); err != nil {
		return &WriteError{Section: "info header", Err: err}
	}

	buf := make([]byte, stride)
	for y := height - 1; y >= 0; y-- {
		line := img.Row(y)
		for x := range width {
			buf[x*3+0] = line[x].B
			buf[x*3+1] = line[x].G
			buf[x*3+2] = line[x].R
		}
		clear(buf[width*bytesPerPixel:])
		if _, err := bw.Write(buf); err != nil {
			return &WriteError{Section: "row " + strconv.Itoa(y), Err: err}
		}
	}

	if err := bw.Flush(); err != nil {
		return &WriteError{Section: "pixel data", Err: err}
	}
	return nil
}

// EncodeImage converts any image to 24-bit color and encodes it.
func EncodeImage(w io.Writer, img image.Image) error {
	if src, ok := img.(Source); ok {
		return Encode(w, src)
	}
	return Encode(w, raster.FromImage(img))
}
