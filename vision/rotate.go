// MODUL: rotate
// ZWECK: Kamera-Frames um die Sensor-Orientierung drehen
// INPUT: PixelImage, Winkel in Grad (im Uhrzeigersinn)
// OUTPUT: gedrehtes PixelImage (Bounds wachsen bei freien Winkeln mit)
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: github.com/disintegration/imaging (extern)
// HINWEISE: imaging dreht gegen den Uhrzeigersinn, daher wird der Winkel gespiegelt

package vision

import (
	"image/color"

	"github.com/disintegration/imaging"
)

// Rotate dreht img im Uhrzeigersinn um degrees.
// Vielfache von 90 Grad sind verlustfrei.
func Rotate(img *PixelImage, degrees int) *PixelImage {
	switch normalizeDegrees(degrees) {
	case 0:
		return img
	case 90:
		return FromImage(imaging.Rotate270(img.Image()))
	case 180:
		return FromImage(imaging.Rotate180(img.Image()))
	case 270:
		return FromImage(imaging.Rotate90(img.Image()))
	default:
		return FromImage(imaging.Rotate(img.Image(), -float64(degrees), color.Transparent))
	}
}

func normalizeDegrees(d int) int {
	d %= 360
	if d < 0 {
		d += 360
	}
	return d
}
