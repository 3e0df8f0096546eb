// MODUL: encode
// ZWECK: PixelImage in den Eingabe-Puffer der Engine schreiben
// INPUT: PixelImage (size x size), Eingabe-Spec, EncodeOptions (mean, std, Normalize)
// OUTPUT: Byte-Puffer in nativer Byte-Reihenfolge
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: github.com/x448/float16 (extern), encoding/binary
// HINWEISE: Zeilenweise (i = Zeile, j = Spalte), R,G,B pro Pixel oder ein Luma-Byte.
//           uint8 wird immer roh geschrieben; float-Normalisierung ist explizit schaltbar.

package tensor

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"

	"github.com/tflitebridge/tflite/vision"
)

// EncodeOptions steuert die Umrechnung von Kanalwerten in float-Elemente.
type EncodeOptions struct {
	Mean float32
	Std  float32

	// Normalize schreibt (v - Mean) / Std statt des rohen Kanalwerts.
	// Wirkt nur auf float-Tensoren.
	Normalize bool
}

// Encode schreibt img in einen neuen Puffer fuer spec.
// Das Bild muss bereits auf spec.ImageSize() im Quadrat gebracht sein.
func Encode(img *vision.PixelImage, spec Spec, opts EncodeOptions) ([]byte, error) {
	if err := spec.ValidateImage(); err != nil {
		return nil, err
	}

	size := spec.ImageSize()
	if img.Width != size || img.Height != size {
		return nil, fmt.Errorf("%w: image %dx%d, tensor expects %dx%d", ErrShapeMismatch, img.Width, img.Height, size, size)
	}
	if opts.Normalize && opts.Std == 0 {
		return nil, fmt.Errorf("tensor: normalization needs a non-zero std")
	}

	channels := spec.Channels()
	width := spec.Type.Width()
	buf := make([]byte, spec.ByteSize())
	put := elementWriter(spec.Type, opts)

	o := 0
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			r, g, b, _ := img.RGBAAt(j, i)
			if channels > 1 {
				put(buf[o:], r)
				put(buf[o+width:], g)
				put(buf[o+2*width:], b)
				o += 3 * width
			} else {
				put(buf[o:], r|g|b)
				o += width
			}
		}
	}

	return buf, nil
}

// elementWriter liefert die Schreibfunktion fuer einen Kanalwert
func elementWriter(t ElementType, opts EncodeOptions) func([]byte, uint8) {
	value := func(v uint8) float32 {
		if opts.Normalize {
			return (float32(v) - opts.Mean) / opts.Std
		}
		return float32(v)
	}

	switch t {
	case Float32:
		return func(dst []byte, v uint8) {
			binary.NativeEndian.PutUint32(dst, math.Float32bits(value(v)))
		}
	case Float16:
		return func(dst []byte, v uint8) {
			binary.NativeEndian.PutUint16(dst, float16.Fromfloat32(value(v)).Bits())
		}
	default:
		return func(dst []byte, v uint8) {
			dst[0] = v
		}
	}
}
