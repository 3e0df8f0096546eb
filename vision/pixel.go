// MODUL: pixel
// ZWECK: Pixel-Puffer mit festem Layout (RGBA8 oder Gray8) fuer die Tensor-Pipeline
// INPUT: Breite, Hoehe, Pixel-Format oder beliebiges image.Image
// OUTPUT: PixelImage mit zusammenhaengendem Byte-Puffer
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: golang.org/x/image/draw (extern), image (stdlib)
// HINWEISE: Pufferlaenge ist immer Width*Height*BytesPerPixel, nie in-place vergroessert

package vision

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// PixelFormat beschreibt das Byte-Layout eines Pixels.
type PixelFormat int

const (
	// FormatRGBA8 sind gepackte R,G,B,A Bytes pro Pixel
	FormatRGBA8 PixelFormat = iota
	// FormatGray8 ist ein einzelnes Luma-Byte pro Pixel
	FormatGray8
)

// ErrPixelBuffer wird zurueckgegeben wenn Puffer und Dimensionen nicht passen
var ErrPixelBuffer = errors.New("vision: pixel buffer does not match dimensions")

// BytesPerPixel gibt die Anzahl Bytes pro Pixel zurueck.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatGray8:
		return 1
	default:
		return 4
	}
}

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA8:
		return "rgba8"
	case FormatGray8:
		return "gray8"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// PixelImage besitzt einen zusammenhaengenden Pixel-Puffer.
type PixelImage struct {
	Width  int
	Height int
	Format PixelFormat
	Pix    []byte
}

// NewPixelImage alloziert ein leeres Bild. Negative Groessen sind ein Programmierfehler.
func NewPixelImage(width, height int, format PixelFormat) *PixelImage {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("vision: invalid image size %dx%d", width, height))
	}
	return &PixelImage{
		Width:  width,
		Height: height,
		Format: format,
		Pix:    make([]byte, width*height*format.BytesPerPixel()),
	}
}

// Validate prueft die Invariante Pufferlaenge == Dimensionen * Format.
func (p *PixelImage) Validate() error {
	want := p.Width * p.Height * p.Format.BytesPerPixel()
	if len(p.Pix) != want {
		return fmt.Errorf("%w: %dx%d %s needs %d bytes, got %d", ErrPixelBuffer, p.Width, p.Height, p.Format, want, len(p.Pix))
	}
	return nil
}

// RGBAAt liest ein Pixel. Gray8 wird auf R=G=B erweitert.
func (p *PixelImage) RGBAAt(x, y int) (r, g, b, a uint8) {
	switch p.Format {
	case FormatGray8:
		v := p.Pix[y*p.Width+x]
		return v, v, v, 0xFF
	default:
		i := (y*p.Width + x) * 4
		s := p.Pix[i : i+4 : i+4]
		return s[0], s[1], s[2], s[3]
	}
}

// SetRGBA schreibt ein Pixel. Bei Gray8 wird nur R uebernommen.
func (p *PixelImage) SetRGBA(x, y int, r, g, b, a uint8) {
	switch p.Format {
	case FormatGray8:
		p.Pix[y*p.Width+x] = r
	default:
		i := (y*p.Width + x) * 4
		s := p.Pix[i : i+4 : i+4]
		s[0], s[1], s[2], s[3] = r, g, b, a
	}
}

// ARGB gibt das Pixel als gepackten 0xAARRGGBB Wert zurueck.
func (p *PixelImage) ARGB(x, y int) uint32 {
	r, g, b, a := p.RGBAAt(x, y)
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Clone erstellt eine tiefe Kopie.
func (p *PixelImage) Clone() *PixelImage {
	pix := make([]byte, len(p.Pix))
	copy(pix, p.Pix)
	return &PixelImage{Width: p.Width, Height: p.Height, Format: p.Format, Pix: pix}
}

// RGBA gibt eine *image.RGBA Sicht zurueck.
// Fuer RGBA8 teilt sie den Puffer, Gray8 wird kopiert.
func (p *PixelImage) RGBA() *image.RGBA {
	rect := image.Rect(0, 0, p.Width, p.Height)
	if p.Format == FormatRGBA8 {
		return &image.RGBA{Pix: p.Pix, Stride: p.Width * 4, Rect: rect}
	}

	dst := image.NewRGBA(rect)
	for i, v := range p.Pix {
		o := i * 4
		dst.Pix[o], dst.Pix[o+1], dst.Pix[o+2], dst.Pix[o+3] = v, v, v, 0xFF
	}
	return dst
}

// Image gibt das Bild als image.Image zurueck (ohne Kopie wenn moeglich).
func (p *PixelImage) Image() image.Image {
	if p.Format == FormatGray8 {
		return &image.Gray{Pix: p.Pix, Stride: p.Width, Rect: image.Rect(0, 0, p.Width, p.Height)}
	}
	return p.RGBA()
}

// FromImage konvertiert ein beliebiges image.Image nach RGBA8.
func FromImage(img image.Image) *PixelImage {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// Kompakte RGBA-Bilder mit Ursprung (0,0) direkt uebernehmen
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == w*4 && len(rgba.Pix) == w*h*4 {
		return &PixelImage{Width: w, Height: h, Format: FormatRGBA8, Pix: rgba.Pix}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return &PixelImage{Width: w, Height: h, Format: FormatRGBA8, Pix: dst.Pix}
}
