// MODUL: resample
// ZWECK: Affine Transformation auf ein quadratisches Zielformat und Resampling
// INPUT: PixelImage, Quell-/Zielgroesse, Aspect-Flag, Kanalanzahl
// OUTPUT: f64.Aff3 Transformation, neu abgetastetes PixelImage
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: golang.org/x/image/draw, golang.org/x/image/math/f64 (extern)
// HINWEISE: Gleiche Quell- und Zielgroesse ueberspringt das Resampling komplett.
//           draw.Transform invertiert die Vorwaertsabbildung und tastet pro Zielpixel ab.

package vision

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Luminanz-Gewichte einer Farbmatrix mit Saettigung 0
const (
	lumR = 0.213
	lumG = 0.715
	lumB = 0.072
)

// Identity ist die Transformation ohne Skalierung
var Identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// ComputeTransform berechnet die Vorwaertsabbildung Quelle -> Ziel.
// maintainAspect nutzt max(sx, sy) fuer beide Achsen (Crop-to-Fill),
// sonst wird jede Achse einzeln gestreckt.
func ComputeTransform(srcW, srcH, dstW, dstH int, maintainAspect bool) f64.Aff3 {
	if srcW == dstW && srcH == dstH {
		return Identity
	}

	sx := float64(dstW) / float64(srcW)
	sy := float64(dstH) / float64(srcH)

	if maintainAspect {
		s := max(sx, sy)
		return f64.Aff3{s, 0, 0, 0, s, 0}
	}
	return f64.Aff3{sx, 0, 0, 0, sy, 0}
}

// ScaleFactors gibt die Skalierung pro Achse einer Transformation zurueck.
func ScaleFactors(m f64.Aff3) (sx, sy float64) {
	return m[0], m[4]
}

// Invert berechnet die inverse Abbildung Ziel -> Quelle.
// ok ist false wenn die Matrix singulaer ist.
func Invert(m f64.Aff3) (inv f64.Aff3, ok bool) {
	det := m[0]*m[4] - m[1]*m[3]
	if det == 0 {
		return f64.Aff3{}, false
	}

	inv[0] = m[4] / det
	inv[1] = -m[1] / det
	inv[3] = -m[3] / det
	inv[4] = m[0] / det
	inv[2] = -(inv[0]*m[2] + inv[1]*m[5])
	inv[5] = -(inv[3]*m[2] + inv[4]*m[5])
	return inv, true
}

// Resample tastet img mit der Vorwaertsabbildung s2d auf dstW x dstH ab.
// Bei channels == 1 wird das Ergebnis entsaettigt, damit R=G=B den Luma-Wert traegt.
func Resample(img *PixelImage, s2d f64.Aff3, dstW, dstH, channels int) *PixelImage {
	if img.Width == dstW && img.Height == dstH {
		return img
	}
	if _, ok := Invert(s2d); !ok {
		panic(fmt.Sprintf("vision: singular transform %v", s2d))
	}

	src := img.Image()
	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.BiLinear.Transform(dst, s2d, src, src.Bounds(), draw.Src, nil)

	out := FromImage(dst)
	if channels == 1 {
		desaturateInPlace(out)
	}
	return out
}

// Desaturate gibt eine entsaettigte Kopie zurueck.
func Desaturate(img *PixelImage) *PixelImage {
	out := img.Clone()
	if out.Format == FormatRGBA8 {
		desaturateInPlace(out)
	}
	return out
}

func desaturateInPlace(img *PixelImage) {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		l := lumR*float64(img.Pix[i]) + lumG*float64(img.Pix[i+1]) + lumB*float64(img.Pix[i+2])
		v := clamp8(int(l + 0.5))
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = v, v, v
	}
}
