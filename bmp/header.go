package bmp

import (
	"encoding/binary"
	"io"
	"math"
	"strconv"
)

const (
	FileHeaderSize  = 14
	InfoHeaderSize  = 40
	PixelDataOffset = FileHeaderSize + InfoHeaderSize

	BitsPerPixel   = 24
	bytesPerPixel  = BitsPerPixel / 8
	PixelsPerMeter = 11811 // 300 DPI

	// ImportantColors is written verbatim into every info header. Most
	// writers use 0 here; readers ignore the field for 24-bit images.
	ImportantColors = 0x1000000

	// maxAlloc bounds any buffer sized from header fields; the runtime
	// refuses slices much larger than this outright.
	maxAlloc = min(1<<47, math.MaxInt)
)

var signature = [2]byte{'B', 'M'}

// Stride returns the size in bytes of one stored row, padded to 4 bytes.
func Stride(width int) int {
	return int(stride64(width))
}

func stride64(width int) int64 {
	return 4 * ((int64(width)*bytesPerPixel + 3) / 4)
}

// checkDecodable fails when the pixels of a width x height image could not
// be held in memory.
func checkDecodable(width, height int) error {
	if int64(width)*int64(height) > maxAlloc/bytesPerPixel || stride64(width) > maxAlloc {
		return UnsupportedError("image of " + strconv.Itoa(width) + "x" + strconv.Itoa(height) + " pixels cannot be allocated")
	}
	return nil
}

// checkEncodable fails when a width x height image overflows the header
// fields: 32-bit signed dimensions and a 32-bit unsigned file size.
func checkEncodable(width, height int) error {
	switch {
	case width < 0 || height < 0:
		return UnsupportedError("negative dimensions")
	case int64(width) > math.MaxInt32 || int64(height) > math.MaxInt32:
		return UnsupportedError("dimensions above " + strconv.Itoa(math.MaxInt32))
	case height > 0 && stride64(width) > (math.MaxUint32-PixelDataOffset)/int64(height):
		return UnsupportedError("image of " + strconv.Itoa(width) + "x" + strconv.Itoa(height) + " exceeds the 4GiB file size limit")
	}
	return nil
}

// FileHeader is BITMAPFILEHEADER.
//
//	offset size field
//	0      2    Signature
//	2      4    Size
//	6      4    Reserved
//	10     4    DataOffset
type FileHeader struct {
	Signature  [2]byte
	Size       uint32 // Whole file, in bytes.
	Reserved   uint32
	DataOffset uint32 // From the start of the file to the first pixel row.
}

// InfoHeader is BITMAPINFOHEADER.
//
//	offset size field
//	0      4    Size
//	4      4    Width
//	8      4    Height
//	12     2    Planes
//	14     2    BitCount
//	16     4    Compression
//	20     4    DataSize
//	24     4    XPixelsPerMeter
//	28     4    YPixelsPerMeter
//	32     4    PaletteColors
//	36     4    ImportantColors
type InfoHeader struct {
	Size            uint32
	Width           int32
	Height          int32 // Positive: rows are stored bottom-up.
	Planes          uint16
	BitCount        uint16
	Compression     uint32
	DataSize        uint32
	XPixelsPerMeter int32
	YPixelsPerMeter int32
	PaletteColors   int32
	ImportantColors int32
}

// NewFileHeader and NewInfoHeader truncate sizes that do not fit their
// fields; Encode rejects such images before building headers.
func NewFileHeader(width, height int) FileHeader {
	return FileHeader{
		Signature:  signature,
		Size:       uint32(Stride(width)*height + PixelDataOffset),
		DataOffset: PixelDataOffset,
	}
}

func NewInfoHeader(width, height int) InfoHeader {
	return InfoHeader{
		Size:            InfoHeaderSize,
		Width:           int32(width),
		Height:          int32(height),
		Planes:          1,
		BitCount:        BitsPerPixel,
		DataSize:        uint32(Stride(width) * height),
		XPixelsPerMeter: PixelsPerMeter,
		YPixelsPerMeter: PixelsPerMeter,
		ImportantColors: ImportantColors,
	}
}

func (h FileHeader) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, h.Signature[:]...)
	b = binary.LittleEndian.AppendUint32(b, h.Size)
	b = binary.LittleEndian.AppendUint32(b, h.Reserved)
	b = binary.LittleEndian.AppendUint32(b, h.DataOffset)
	return b, nil
}

func (h FileHeader) MarshalBinary() ([]byte, error) {
	return h.AppendBinary(make([]byte, 0, FileHeaderSize))
}

func (h *FileHeader) UnmarshalBinary(b []byte) error {
	if len(b) < FileHeaderSize {
		return io.ErrUnexpectedEOF
	}
	copy(h.Signature[:], b[0:2])
	h.Size = binary.LittleEndian.Uint32(b[2:6])
	h.Reserved = binary.LittleEndian.Uint32(b[6:10])
	h.DataOffset = binary.LittleEndian.Uint32(b[10:14])
	return nil
}

func (h InfoHeader) AppendBinary(b []byte) ([]byte, error) {
	le := binary.LittleEndian
	b = le.AppendUint32(b, h.Size)
	b = le.AppendUint32(b, uint32(h.Width))
	b = le.AppendUint32(b, uint32(h.Height))
	b = le.AppendUint16(b, h.Planes)
	b = le.AppendUint16(b, h.BitCount)
	b = le.AppendUint32(b, h.Compression)
	b = le.AppendUint32(b, h.DataSize)
	b = le.AppendUint32(b, uint32(h.XPixelsPerMeter))
	b = le.AppendUint32(b, uint32(h.YPixelsPerMeter))
	b = le.AppendUint32(b, uint32(h.PaletteColors))
	b = le.AppendUint32(b, uint32(h.ImportantColors))
	return b, nil
}

func (h InfoHeader) MarshalBinary() ([]byte, error) {
	return h.AppendBinary(make([]byte, 0, InfoHeaderSize))
}

func (h *InfoHeader) UnmarshalBinary(b []byte) error {
	if len(b) < InfoHeaderSize {
		return io.ErrUnexpectedEOF
	}
	le := binary.LittleEndian
	h.Size = le.Uint32(b[0:4])
	h.Width = int32(le.Uint32(b[4:8]))
	h.Height = int32(le.Uint32(b[8:12]))
	h.Planes = le.Uint16(b[12:14])
	h.BitCount = le.Uint16(b[14:16])
	h.Compression = le.Uint32(b[16:20])
	h.DataSize = le.Uint32(b[20:24])
	h.XPixelsPerMeter = int32(le.Uint32(b[24:28]))
	h.YPixelsPerMeter = int32(le.Uint32(b[28:32]))
	h.PaletteColors = int32(le.Uint32(b[32:36]))
	h.ImportantColors = int32(le.Uint32(b[36:40]))
	return nil
}

// Header is everything that precedes the pixel rows.
type Header struct {
	File FileHeader
	Info InfoHeader
}

func NewHeader(width, height int) Header {
	return Header{
		File: NewFileHeader(width, height),
		Info: NewInfoHeader(width, height),
	}
}

func (h Header) Width() int  { return int(h.Info.Width) }
func (h Header) Height() int { return int(h.Info.Height) }
func (h Header) Stride() int { return Stride(h.Width()) }

// Padding is the number of zero bytes closing every stored row.
func (h Header) Padding() int { return h.Stride() - h.Width()*bytesPerPixel }

func (h Header) AppendBinary(b []byte) ([]byte, error) {
	b, _ = h.File.AppendBinary(b)
	return h.Info.AppendBinary(b)
}

func (h Header) MarshalBinary() ([]byte, error) {
	return h.AppendBinary(make([]byte, 0, PixelDataOffset))
}
