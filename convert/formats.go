package convert

import (
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"sync"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"

	"bmp24/bmp"
)

type encodeFunc func(io.Writer, image.Image) error

// encoders are keyed by output format, which is also the file extension.
var encoders = map[string]encodeFunc{
	"bmp": bmp.EncodeImage,
	"gif": func(w io.Writer, m image.Image) error {
		return gif.Encode(w, m, nil)
	},
	"jpeg": func(w io.Writer, m image.Image) error {
		return jpeg.Encode(w, m, &jpeg.Options{Quality: 100})
	},
	"png": func(w io.Writer, m image.Image) error {
		enc := png.Encoder{
			CompressionLevel: png.BestCompression,
			BufferPool:       pngPool,
		}
		return enc.Encode(w, m)
	},
	"tiff": func(w io.Writer, m image.Image) error {
		return tiff.Encode(w, m, nil)
	},
}

type pngEncoderBufferPool struct {
	pool sync.Pool
}

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	return p.pool.Get().(*png.EncoderBuffer)
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	p.pool.Put(buf)
}

var pngPool = &pngEncoderBufferPool{
	pool: sync.Pool{
		New: func() any {
			return &png.EncoderBuffer{}
		},
	},
}
