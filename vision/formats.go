// MODUL: formats
// ZWECK: Bildformat-Erkennung fuer Quellbilder der Inferenz-Pipeline
// INPUT: Bild-Bytes
// OUTPUT: ImageFormat, Fehler bei unbekanntem Format
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: keine (nur Standardbibliothek)
// HINWEISE: Magic-Bytes-basierte Erkennung fuer JPEG/PNG/WebP/GIF/BMP

package vision

import (
	"bytes"
	"errors"
)

// ImageFormat repraesentiert ein unterstuetztes Quellformat
type ImageFormat string

const (
	FormatJPEG    ImageFormat = "jpeg"
	FormatPNG     ImageFormat = "png"
	FormatWebP    ImageFormat = "webp"
	FormatGIF     ImageFormat = "gif"
	FormatBMP     ImageFormat = "bmp"
	FormatUnknown ImageFormat = "unknown"
)

// ErrUnknownFormat wird zurueckgegeben wenn kein Decoder passt
var ErrUnknownFormat = errors.New("vision: unknown image format")

// signature verbindet Magic-Bytes mit einem Format
type signature struct {
	format ImageFormat
	magic  []byte
}

var signatures = []signature{
	{FormatJPEG, []byte{0xFF, 0xD8, 0xFF}},
	{FormatPNG, []byte{0x89, 0x50, 0x4E, 0x47}},
	{FormatGIF, []byte("GIF8")},
	{FormatBMP, []byte("BM")},
}

// DetectFormat erkennt das Bildformat anhand der Magic-Bytes
func DetectFormat(data []byte) ImageFormat {
	if len(data) < 4 {
		return FormatUnknown
	}

	for _, s := range signatures {
		if bytes.HasPrefix(data, s.magic) {
			return s.format
		}
	}

	// RIFF....WEBP
	if len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return FormatWebP
	}

	return FormatUnknown
}

// String implementiert Stringer Interface
func (f ImageFormat) String() string {
	return string(f)
}
