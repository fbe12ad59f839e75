package bmp

import (
	"bytes"
	"errors"
	"io"
	"math/rand/v2"
	"testing"

	"bmp24/raster"
)

var (
	red   = raster.Color{R: 0xff}
	green = raster.Color{G: 0xff}
	blue  = raster.Color{B: 0xff}
)

func twoByTwo() *raster.Image {
	img := raster.New(2, 2, raster.Black)
	copy(img.Row(0), []raster.Color{red, green})
	copy(img.Row(1), []raster.Color{blue, raster.White})
	return img
}

func randomImage(seed uint64, width, height int) *raster.Image {
	rnd := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	img := raster.New(width, height, raster.Black)
	for y := range height {
		for x := range img.Row(y) {
			v := rnd.Uint32()
			img.Row(y)[x] = raster.Color{R: uint8(v), G: uint8(v >> 8), B: uint8(v >> 16)}
		}
	}
	return img
}

func encode(t *testing.T, img Source) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestEncodeTwoByTwo(t *testing.T) {
	data := encode(t, twoByTwo())

	if len(data) != 70 {
		t.Fatalf("encoded %d bytes, want 70", len(data))
	}
	want := []byte{
		0xff, 0x00, 0x00, 0xff, 0xff, 0xff, 0, 0, // bottom row: blue, white
		0x00, 0x00, 0xff, 0x00, 0xff, 0x00, 0, 0, // top row: red, green
	}
	if got := data[PixelDataOffset:]; !bytes.Equal(got, want) {
		t.Errorf("pixel data:\n got % x\nwant % x", got, want)
	}
}

func TestEncodePadding(t *testing.T) {
	for _, width := range []int{1, 2, 3, 5, 7, 101} {
		data := encode(t, randomImage(uint64(width), width, 3))
		stride := Stride(width)
		if len(data) != PixelDataOffset+3*stride {
			t.Fatalf("width %d: %d bytes", width, len(data))
		}
		for row := range 3 {
			line := data[PixelDataOffset+row*stride : PixelDataOffset+(row+1)*stride]
			for i, b := range line[width*3:] {
				if b != 0 {
					t.Errorf("width %d row %d: padding byte %d is %#x", width, row, i, b)
				}
			}
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	for _, dim := range [][2]int{{0, 0}, {0, 5}, {5, 0}} {
		data := encode(t, raster.New(dim[0], dim[1], raster.Black))
		if len(data) != PixelDataOffset {
			t.Errorf("%dx%d: %d bytes, want headers only", dim[0], dim[1], len(data))
		}
	}
}

type failWriter struct {
	n int
}

func (w *failWriter) Write(p []byte) (int, error) {
	if len(p) > w.n {
		n := w.n
		w.n = 0
		return n, errors.New("disk full")
	}
	w.n -= len(p)
	return len(p), nil
}

func TestEncodeWriteError(t *testing.T) {
	for _, limit := range []int{0, 10, PixelDataOffset, PixelDataOffset + 100} {
		err := Encode(&failWriter{n: limit}, randomImage(1, 300, 300))
		var we *WriteError
		if !errors.As(err, &we) {
			t.Errorf("limit %d: got %v, want *WriteError", limit, err)
		}
	}
}

func TestDecodeTwoByTwo(t *testing.T) {
	data := encode(t, twoByTwo())
	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if !img.Equal(twoByTwo()) {
		t.Errorf("decoded %v", img.Pix)
	}
}

func TestRoundTrip(t *testing.T) {
	sizes := [][2]int{{1, 1}, {1, 7}, {2, 2}, {3, 1}, {4, 4}, {5, 3}, {17, 9}, {100, 2}, {101, 5}}
	for i, size := range sizes {
		src := randomImage(uint64(i), size[0], size[1])
		got, err := Decode(bytes.NewReader(encode(t, src)))
		if err != nil {
			t.Fatalf("%dx%d: %v", size[0], size[1], err)
		}
		if !got.Equal(src) {
			t.Errorf("%dx%d: round trip changed pixels", size[0], size[1])
		}
	}
}

func TestDecodeBadSignature(t *testing.T) {
	data := encode(t, twoByTwo())
	data[0], data[1] = 'P', 'K'

	img, err := Decode(bytes.NewReader(data))
	var fe FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("got %v, want FormatError", err)
	}
	if img != nil {
		t.Errorf("got an image with a format error")
	}
}

func TestDecodeTruncated(t *testing.T) {
	data := encode(t, twoByTwo())
	for _, n := range []int{0, 1, 13, 14, 30, 53, 54, 61, 69} {
		img, err := Decode(bytes.NewReader(data[:n]))
		var re *ReadError
		if !errors.As(err, &re) {
			t.Errorf("%d bytes: got %v, want *ReadError", n, err)
			continue
		}
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("%d bytes: %v does not wrap ErrUnexpectedEOF", n, err)
		}
		if img != nil {
			t.Errorf("%d bytes: got a partial image", n)
		}
	}
}

func TestDecodeUnsupported(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Header)
	}{
		{"top-down", func(h *Header) { h.Info.Height = -h.Info.Height }},
		{"negative width", func(h *Header) { h.Info.Width = -1 }},
		{"32 bits", func(h *Header) { h.Info.BitCount = 32 }},
		{"rle", func(h *Header) { h.Info.Compression = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHeader(2, 2)
			tt.mutate(&h)
			data, _ := h.MarshalBinary()
			data = append(data, make([]byte, 16)...)

			_, err := Decode(bytes.NewReader(data))
			var ue UnsupportedError
			if !errors.As(err, &ue) {
				t.Errorf("got %v, want UnsupportedError", err)
			}
		})
	}
}

func TestDecodeMaxPixels(t *testing.T) {
	data := encode(t, randomImage(3, 10, 10))

	_, err := (Decoder{MaxPixels: 99}).Decode(bytes.NewReader(data))
	var ue UnsupportedError
	if !errors.As(err, &ue) {
		t.Errorf("above the pixel limit: got %v, want UnsupportedError", err)
	}
	if _, err := (Decoder{MaxPixels: 100}).Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("limit equal to size: %v", err)
	}
}

func TestDecodeUnallocatable(t *testing.T) {
	tests := []struct {
		name          string
		width, height int32
	}{
		{"both max", 0x7fffffff, 0x7fffffff},
		{"square", 0x1000000, 0x1000000},
		{"wide", 0x7fffffff, 0x10000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHeader(2, 2)
			h.Info.Width, h.Info.Height = tt.width, tt.height
			data, _ := h.MarshalBinary()

			img, err := Decode(bytes.NewReader(data))
			var ue UnsupportedError
			if !errors.As(err, &ue) {
				t.Errorf("got %v, want UnsupportedError", err)
			}
			if img != nil {
				t.Error("got an image for unallocatable dimensions")
			}
		})
	}
}

type sizeOnly struct {
	width, height int
}

func (s sizeOnly) Width() int  { return s.width }
func (s sizeOnly) Height() int { return s.height }

func (s sizeOnly) Row(int) []raster.Color {
	panic("rows read from an image that should have been refused")
}

func TestEncodeOversized(t *testing.T) {
	for _, size := range []sizeOnly{
		{70000, 70000},
		{0x10000000, 8},
		{0x7fffffff, 0x7fffffff},
		{-1, 2},
	} {
		var buf bytes.Buffer
		err := Encode(&buf, size)
		var ue UnsupportedError
		if !errors.As(err, &ue) {
			t.Errorf("%dx%d: got %v, want UnsupportedError", size.width, size.height, err)
		}
		if buf.Len() != 0 {
			t.Errorf("%dx%d: wrote %d bytes", size.width, size.height, buf.Len())
		}
	}
}

// withGap moves the pixel data of an encoded file gap bytes further.
func withGap(data []byte, gap int) []byte {
	var h FileHeader
	_ = h.UnmarshalBinary(data)
	h.DataOffset += uint32(gap)
	h.Size += uint32(gap)

	out, _ := h.MarshalBinary()
	out = append(out, data[FileHeaderSize:PixelDataOffset]...)
	out = append(out, bytes.Repeat([]byte{0xaa}, gap)...)
	return append(out, data[PixelDataOffset:]...)
}

func TestDecodeDataOffset(t *testing.T) {
	src := randomImage(4, 5, 4)
	data := withGap(encode(t, src), 84)

	t.Run("seeker", func(t *testing.T) {
		img, err := Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatal(err)
		}
		if !img.Equal(src) {
			t.Error("pixels differ")
		}
	})

	t.Run("stream", func(t *testing.T) {
		img, err := Decode(struct{ io.Reader }{bytes.NewReader(data)})
		if err != nil {
			t.Fatal(err)
		}
		if !img.Equal(src) {
			t.Error("pixels differ")
		}
	})

	t.Run("mid-stream seeker", func(t *testing.T) {
		r := bytes.NewReader(append([]byte("prefix"), data...))
		if _, err := r.Seek(6, io.SeekStart); err != nil {
			t.Fatal(err)
		}
		img, err := Decode(r)
		if err != nil {
			t.Fatal(err)
		}
		if !img.Equal(src) {
			t.Error("pixels differ")
		}
	})
}

func TestDecodeOffsetInsideHeaders(t *testing.T) {
	data := encode(t, twoByTwo())
	var h FileHeader
	_ = h.UnmarshalBinary(data)
	h.DataOffset = 20
	fb, _ := h.MarshalBinary()
	copy(data, fb)

	_, err := Decode(struct{ io.Reader }{bytes.NewReader(data)})
	var fe FormatError
	if !errors.As(err, &fe) {
		t.Errorf("stream: got %v, want FormatError", err)
	}

	// A seekable source honors the offset as written.
	if _, err := Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("seeker: %v", err)
	}
}

func TestDecodeConfig(t *testing.T) {
	h, err := DecodeConfig(bytes.NewReader(encode(t, randomImage(5, 7, 3))))
	if err != nil {
		t.Fatal(err)
	}
	if h.Width() != 7 || h.Height() != 3 || h.Stride() != 24 {
		t.Errorf("got %dx%d stride %d", h.Width(), h.Height(), h.Stride())
	}
	if h != NewHeader(7, 3) {
		t.Errorf("header %+v", h)
	}
}
