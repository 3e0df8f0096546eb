// MODUL: yuv
// ZWECK: Kamera-Frames (Y/U/V Planes) in gepackte RGBA8 Pixel umwandeln
// INPUT: drei Plane-Byte-Folgen, Breite, Hoehe
// OUTPUT: PixelImage im Format RGBA8
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: golang.org/x/sync/errgroup (extern)
// HINWEISE: Planes werden als Y, V, U zu einem NV21-Puffer zusammengesetzt.
//           Die Reihenfolge ist bitkompatibel zu bestehenden Aufrufern und bleibt so.

package vision

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Planes sind die drei Ebenen eines Kamera-Frames wie vom Geraet geliefert.
type Planes struct {
	Y []byte
	U []byte
	V []byte
}

// Len gibt die Summe aller Plane-Laengen zurueck.
func (p Planes) Len() int {
	return len(p.Y) + len(p.U) + len(p.V)
}

// NV21FrameSize gibt die Mindestgroesse eines NV21-Frames zurueck:
// volle Y-Ebene plus halb aufgeloeste, verschraenkte Chroma-Paare.
func NV21FrameSize(width, height int) int {
	return width*height + chromaStride(width)*((height+1)/2)
}

// chromaStride ist die Zeilenbreite der verschraenkten VU-Ebene in Bytes
func chromaStride(width int) int {
	return 2 * ((width + 1) / 2)
}

// ReassembleNV21 setzt die Planes zu einem Puffer zusammen: Y, dann V, dann U.
func ReassembleNV21(p Planes) []byte {
	data := make([]byte, p.Len())
	n := copy(data, p.Y)
	n += copy(data[n:], p.V)
	copy(data[n:], p.U)
	return data
}

// ConvertYUVToRGBA wandelt einen Kamera-Frame in RGBA8 um.
// Falsche Plane-Laengen sind ein Vertragsbruch des Aufrufers und fuehren zu panic.
func ConvertYUVToRGBA(p Planes, width, height int) *PixelImage {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("vision: invalid frame size %dx%d", width, height))
	}
	if len(p.Y) != width*height {
		panic(fmt.Sprintf("vision: Y plane has %d bytes, frame %dx%d needs %d", len(p.Y), width, height, width*height))
	}
	if need := NV21FrameSize(width, height); p.Len() < need {
		panic(fmt.Sprintf("vision: planes hold %d bytes, NV21 frame %dx%d needs %d", p.Len(), width, height, need))
	}

	return convertNV21(ReassembleNV21(p), width, height)
}

// convertNV21 rechnet zeilenweise parallel; Pixel sind unabhaengig,
// daher ist das Ergebnis unabhaengig von der Ausfuehrungsreihenfolge.
func convertNV21(nv21 []byte, width, height int) *PixelImage {
	dst := NewPixelImage(width, height, FormatRGBA8)
	frame := width * height
	cstride := chromaStride(width)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for y := range height {
		g.Go(func() error {
			row := dst.Pix[y*width*4 : (y+1)*width*4]
			uvRow := frame + (y/2)*cstride
			for x := range width {
				uv := uvRow + (x/2)*2
				r, gg, b := yuvToRGB(nv21[y*width+x], nv21[uv+1], nv21[uv])
				o := x * 4
				row[o], row[o+1], row[o+2], row[o+3] = r, gg, b, 0xFF
			}
			return nil
		})
	}
	_ = g.Wait()

	return dst
}

// yuvToRGB nutzt die ganzzahligen BT.601 Koeffizienten (video range)
func yuvToRGB(y, u, v byte) (r, g, b uint8) {
	c := int(y) - 16
	d := int(u) - 128
	e := int(v) - 128

	return clamp8((298*c + 409*e + 128) >> 8),
		clamp8((298*c - 100*d - 208*e + 128) >> 8),
		clamp8((298*c + 516*d + 128) >> 8)
}

func clamp8(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}

// ConvertRGBToRGBA packt RGB24-Bytes mit voller Deckkraft nach RGBA8.
func ConvertRGBToRGBA(rgb []byte, width, height int) *PixelImage {
	if len(rgb) != width*height*3 {
		panic(fmt.Sprintf("vision: rgb buffer has %d bytes, %dx%d needs %d", len(rgb), width, height, width*height*3))
	}

	dst := NewPixelImage(width, height, FormatRGBA8)
	for i := range width * height {
		dst.Pix[i*4], dst.Pix[i*4+1], dst.Pix[i*4+2], dst.Pix[i*4+3] = rgb[i*3], rgb[i*3+1], rgb[i*3+2], 0xFF
	}
	return dst
}
