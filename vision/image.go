// MODUL: image
// ZWECK: Quellbilder von Dateipfaden laden und nach RGBA8 dekodieren
// INPUT: Dateipfad (optional mit file:// Praefix), Bytes oder io.Reader
// OUTPUT: PixelImage im Format RGBA8
// NEBENEFFEKTE: Dateisystem-Lesezugriff bei LoadImage
// ABHAENGIGKEITEN: golang.org/x/image (bmp, webp), image/jpeg, image/png, image/gif
// HINWEISE: Alle Lese- und Dekodierfehler wrappen ErrImageIO

package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	// Standard-Decoder registrieren
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrImageIO markiert fehlende oder beschaedigte Quellbilder
var ErrImageIO = errors.New("vision: image io error")

// fileScheme wird von mobilen Aufrufern haeufig vor Pfade gesetzt
const fileScheme = "file://"

// LoadImage laedt ein Bild von einem Dateipfad
func LoadImage(path string) (*PixelImage, error) {
	data, err := os.ReadFile(strings.Replace(path, fileScheme, "", 1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageIO, err)
	}
	return LoadImageFromBytes(data)
}

// LoadImageFromBytes dekodiert ein Bild aus Byte-Daten
func LoadImageFromBytes(data []byte) (*PixelImage, error) {
	format := DetectFormat(data)
	if format == FormatUnknown {
		return nil, fmt.Errorf("%w: %w", ErrImageIO, ErrUnknownFormat)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrImageIO, format, err)
	}

	return FromImage(img), nil
}

// DecodeImage dekodiert ein Bild aus einem io.Reader
func DecodeImage(r io.Reader) (*PixelImage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageIO, err)
	}
	return LoadImageFromBytes(data)
}
