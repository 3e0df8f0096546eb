// MODUL: decode
// ZWECK: Engine-Ausgaben zurueck in Vektoren oder RGBA-Bilder wandeln
// INPUT: Ausgabe-Puffer, Ausgabe-Spec, optional mean/std
// OUTPUT: []float32 oder PixelImage (RGBA8, Alpha 0xFF)
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: github.com/x448/float16 (extern), encoding/binary
// HINWEISE: Rundung ist floor(x + 0.5), danach werden nur die unteren 8 Bit uebernommen

package tensor

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/x448/float16"

	"github.com/tflitebridge/tflite/vision"
)

// DecodeVector liest alle Elemente als float32.
// uint8 wird mit Scale/ZeroPoint dequantisiert, wenn Scale gesetzt ist.
func DecodeVector(buf []byte, spec Spec) ([]float32, error) {
	width := spec.Type.Width()
	if width == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, spec.Type)
	}

	n := spec.NumElements()
	if len(buf) < n*width {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShapeMismatch, spec, n*width, len(buf))
	}

	read := elementReader(spec.Type)
	out := make([]float32, n)
	for i := range out {
		out[i] = read(buf[i*width:])
	}

	if q := spec.Quantization; spec.Type == Uint8 && q.Scale != 0 {
		for i, v := range out {
			out[i] = (v - float32(q.ZeroPoint)) * q.Scale
		}
	}
	return out, nil
}

// DecodeImage baut aus einem [1, size, size, c] Tensor ein RGBA8 Bild.
// float-Werte werden mit v*std + mean zurueckgerechnet.
func DecodeImage(buf []byte, spec Spec, mean, std float32) (*vision.PixelImage, error) {
	width := spec.Type.Width()
	if width == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, spec.Type)
	}

	size := spec.ImageSize()
	channels := spec.Channels()
	if channels == 0 {
		channels = 3
	}
	if size <= 0 || (channels != 1 && channels != 3) {
		return nil, fmt.Errorf("%w: %s is not an image tensor", ErrShapeMismatch, spec)
	}
	if need := size * size * channels * width; len(buf) < need {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShapeMismatch, spec, need, len(buf))
	}

	read := elementReader(spec.Type)
	channel := func(o int) uint8 {
		if spec.Type == Uint8 {
			return buf[o]
		}
		return uint8(roundHalfUp(read(buf[o:])*std+mean) & 0xFF)
	}

	img := vision.NewPixelImage(size, size, vision.FormatRGBA8)
	o := 0
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			if channels == 3 {
				img.SetRGBA(j, i, channel(o), channel(o+width), channel(o+2*width), 0xFF)
				o += 3 * width
			} else {
				v := channel(o)
				img.SetRGBA(j, i, v, v, v, 0xFF)
				o += width
			}
		}
	}
	return img, nil
}

// elementReader liefert die Lesefunktion fuer ein Element
func elementReader(t ElementType) func([]byte) float32 {
	switch t {
	case Float32:
		return func(b []byte) float32 {
			return math.Float32frombits(binary.NativeEndian.Uint32(b))
		}
	case Float16:
		return func(b []byte) float32 {
			return float16.Frombits(binary.NativeEndian.Uint16(b)).Float32()
		}
	default:
		return func(b []byte) float32 {
			return float32(b[0])
		}
	}
}

// roundHalfUp rundet wie floor(x + 0.5) und saettigt auf den int32 Bereich
func roundHalfUp(x float32) int32 {
	f := math.Floor(float64(x) + 0.5)
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	default:
		return int32(f)
	}
}
