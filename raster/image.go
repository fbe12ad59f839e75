package raster

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

type Color struct {
	R, G, B uint8
}

var (
	Black = Color{}
	White = Color{0xff, 0xff, 0xff}
)

func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{c.R, c.G, c.B, 0xff}.RGBA()
}

type Image struct {
	// Pix holds the image's pixels, row by row from the top. The pixel at
	// (x, y) is Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)].
	Pix []Color
	// Stride is the Pix stride (in pixels) between vertically adjacent pixels.
	Stride int
	// Rect is the image's bounds.
	Rect image.Rectangle
}

var _ draw.Image = &Image{}

// New returns a width x height image with every pixel set to fill.
func New(width, height int, fill Color) *Image {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	pix := make([]Color, width*height)
	if fill != Black {
		for i := range pix {
			pix[i] = fill
		}
	}
	return &Image{
		Pix:    pix,
		Stride: width,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// FromImage copies any image into a new Image. Alpha is dropped.
func FromImage(src image.Image) *Image {
	if img, ok := src.(*Image); ok {
		return img.Clone()
	}
	b := src.Bounds()
	dst := New(b.Dx(), b.Dy(), Black)
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	return dst
}

func (p *Image) Width() int  { return p.Rect.Dx() }
func (p *Image) Height() int { return p.Rect.Dy() }

// Row returns row y counted from the top of the image, that is the pixels at
// Rect.Min.Y+y. The slice aliases Pix.
func (p *Image) Row(y int) []Color {
	i := p.PixOffset(p.Rect.Min.X, p.Rect.Min.Y+y)
	return p.Pix[i : i+p.Rect.Dx() : i+p.Rect.Dx()]
}

// Empty reports whether the image holds no pixels.
func (p *Image) Empty() bool {
	return p == nil || p.Rect.Empty()
}

func (p *Image) Bounds() image.Rectangle { return p.Rect }

func (p *Image) ColorModel() color.Model { return color.RGBAModel }

func (p *Image) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA{}
	}
	return p.Pix[p.PixOffset(x, y)]
}

func (p *Image) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	p.Pix[p.PixOffset(x, y)] = Color{rgba.R, rgba.G, rgba.B}
}

func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x - p.Rect.Min.X)
}

func (p *Image) Opaque() bool { return true }

func (p *Image) Clone() *Image {
	pix := make([]Color, len(p.Pix))
	copy(pix, p.Pix)
	return &Image{Pix: pix, Stride: p.Stride, Rect: p.Rect}
}

// Equal reports whether both images have the same size and pixels.
func (p *Image) Equal(o *Image) bool {
	if p.Empty() || o.Empty() {
		return p.Empty() && o.Empty()
	}
	if p.Width() != o.Width() || p.Height() != o.Height() {
		return false
	}
	for y := range p.Height() {
		a, b := p.Row(y), o.Row(y)
		for x := range a {
			if a[x] != b[x] {
				return false
			}
		}
	}
	return true
}
