package bmp

import (
	"io"
	"strconv"

	"bmp24/raster"
)

// Decoder reads 24-bit bottom-up bitmaps.
type Decoder struct {
	// MaxPixels caps width*height of the images it will allocate.
	// Zero means no limit: a corrupt header can then request an
	// allocation of any size.
	MaxPixels int
}

// Decode reads a BMP image from r with no size limit.
func Decode(r io.Reader) (*raster.Image, error) {
	var d Decoder
	return d.Decode(r)
}

// DecodeConfig reads and checks both headers without reading any pixels.
func DecodeConfig(r io.Reader) (Header, error) {
	var d Decoder
	return d.DecodeConfig(r)
}

func (d Decoder) DecodeConfig(r io.Reader) (Header, error) {
	var (
		h   Header
		buf [PixelDataOffset]byte
	)

	if _, err := io.ReadFull(r, buf[:FileHeaderSize]); err != nil {
		return Header{}, &ReadError{Section: "file header", Err: noEOF(err)}
	}
	_ = h.File.UnmarshalBinary(buf[:FileHeaderSize])
	if h.File.Signature != signature {
		return Header{}, FormatError("bad signature")
	}

	if _, err := io.ReadFull(r, buf[FileHeaderSize:]); err != nil {
		return Header{}, &ReadError{Section: "info header", Err: noEOF(err)}
	}
	_ = h.Info.UnmarshalBinary(buf[FileHeaderSize:])

	switch {
	case h.Info.Height < 0:
		return Header{}, UnsupportedError("top-down row order")
	case h.Info.Width < 0:
		return Header{}, UnsupportedError("negative width")
	case h.Info.BitCount != BitsPerPixel:
		return Header{}, UnsupportedError("bit depth " + strconv.Itoa(int(h.Info.BitCount)))
	case h.Info.Compression != 0:
		return Header{}, UnsupportedError("compression method " + strconv.Itoa(int(h.Info.Compression)))
	}
	if err := checkDecodable(h.Width(), h.Height()); err != nil {
		return Header{}, err
	}
	if d.MaxPixels > 0 && int64(h.Width())*int64(h.Height()) > int64(d.MaxPixels) {
		return Header{}, UnsupportedError("image of " + strconv.Itoa(h.Width()) + "x" + strconv.Itoa(h.Height()) +
			" exceeds " + strconv.Itoa(d.MaxPixels) + " pixels")
	}

	return h, nil
}

// Decode reads a complete image. On any error the returned image is nil;
// partially read images are never returned.
func (d Decoder) Decode(r io.Reader) (*raster.Image, error) {
	var start int64
	seeker, canSeek := r.(io.Seeker)
	if canSeek {
		var err error
		if start, err = seeker.Seek(0, io.SeekCurrent); err != nil {
			canSeek = false
		}
	}

	h, err := d.DecodeConfig(r)
	if err != nil {
		return nil, err
	}

	width, height := h.Width(), h.Height()
	stride := h.Stride()
	img := raster.New(width, height, raster.Black)

	if err := skipTo(r, seeker, canSeek, start, int64(h.File.DataOffset)); err != nil {
		return nil, err
	}

	buf := make([]byte, stride)
	for y := height - 1; y >= 0; y-- {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, &ReadError{Section: "row " + strconv.Itoa(y), Err: noEOF(err)}
		}
		line := img.Row(y)
		for x := range line {
			line[x].B = buf[x*3+0]
			line[x].G = buf[x*3+1]
			line[x].R = buf[x*3+2]
		}
	}

	return img, nil
}

// skipTo moves r from just past the headers to offset bytes after start.
func skipTo(r io.Reader, seeker io.Seeker, canSeek bool, start, offset int64) error {
	if offset == PixelDataOffset {
		return nil
	}
	if canSeek {
		if _, err := seeker.Seek(start+offset, io.SeekStart); err != nil {
			return &ReadError{Section: "pixel data offset", Err: err}
		}
		return nil
	}
	if offset < PixelDataOffset {
		return FormatError("pixel data offset inside headers")
	}
	if _, err := io.CopyN(io.Discard, r, offset-PixelDataOffset); err != nil {
		return &ReadError{Section: "pixel data offset", Err: noEOF(err)}
	}
	return nil
}

// noEOF turns a clean EOF into ErrUnexpectedEOF: every read here expects data.
func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
