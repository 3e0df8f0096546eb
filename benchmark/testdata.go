// MODUL: testdata
// ZWECK: Synthetische Quellbilder fuer Benchmarks
// INPUT: Bildgroesse (width, height), Seed
// OUTPUT: JPEG-kodierte Testbilder
// NEBENEFFEKTE: Keine
// ABHAENGIGKEITEN: image, image/jpeg (stdlib)
// HINWEISE: Gradient mit Rauschen, damit JPEG-Dekodierung realistisch kostet

package benchmark

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
)

// GenerateTestImage erzeugt ein JPEG der angegebenen Groesse mit festem Seed.
func GenerateTestImage(width, height int) []byte {
	return GenerateTestImageWithSeed(width, height, 42)
}

// GenerateTestImageWithSeed erzeugt ein reproduzierbares Testbild.
func GenerateTestImageWithSeed(width, height int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := range height {
		for x := range width {
			img.SetRGBA(x, y, gradientColor(x, y, width, height, rng))
		}
	}

	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85})
	return buf.Bytes()
}

func gradientColor(x, y, width, height int, rng *rand.Rand) color.RGBA {
	nx := float64(x) / float64(width)
	ny := float64(y) / float64(height)

	noise := int(rng.Float64()*20 - 10)
	return color.RGBA{
		R: clampUint8(int(nx*255) + noise),
		G: clampUint8(int(ny*255) + noise),
		B: clampUint8(int((nx+ny)/2*255) + noise),
		A: 255,
	}
}

func clampUint8(v int) uint8 {
	return uint8(max(0, min(255, v)))
}
