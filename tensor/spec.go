// Package tensor kodiert Pixel-Puffer in das Eingabe-Layout der Engine
// und dekodiert Engine-Ausgaben zurueck in Vektoren oder Bilder.
//
// MODUL: spec
// ZWECK: Tensor-Beschreibung (Shape, Element-Typ, Quantisierung)
// INPUT: Shape und Typ wie von der laufenden Engine gemeldet
// OUTPUT: Spec mit abgeleiteten Groessen
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: keine (nur Standardbibliothek)
// HINWEISE: Specs werden vor jedem Encode/Decode frisch von der Engine gelesen, nie gecacht
package tensor

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================================
// Fehler-Definitionen
// ============================================================================

var (
	// ErrShapeMismatch wird zurueckgegeben wenn Engine-Shape und Daten nicht passen
	ErrShapeMismatch = errors.New("tensor: shape mismatch")

	// ErrUnsupportedType wird bei unbekanntem Element-Typ zurueckgegeben
	ErrUnsupportedType = errors.New("tensor: unsupported element type")
)

// ============================================================================
// ElementType
// ============================================================================

// ElementType ist der Datentyp der Tensor-Elemente.
type ElementType int

const (
	TypeUnknown ElementType = iota
	Uint8
	Float32
	Float16
)

// Width gibt die Breite eines Elements in Bytes zurueck.
func (t ElementType) Width() int {
	switch t {
	case Uint8:
		return 1
	case Float16:
		return 2
	case Float32:
		return 4
	default:
		return 0
	}
}

func (t ElementType) String() string {
	switch t {
	case Uint8:
		return "uint8"
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	default:
		return "unknown"
	}
}

// MarshalText kodiert den Typ als Namen ("uint8", ...).
func (t ElementType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText ist die Umkehrung von MarshalText.
func (t *ElementType) UnmarshalText(b []byte) error {
	v, err := ParseElementType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseElementType liest einen Typ-Namen ("uint8", "float32", "float16").
func ParseElementType(s string) (ElementType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uint8", "u8":
		return Uint8, nil
	case "float32", "f32":
		return Float32, nil
	case "float16", "f16":
		return Float16, nil
	default:
		return TypeUnknown, fmt.Errorf("%w: %q", ErrUnsupportedType, s)
	}
}

// ============================================================================
// Spec
// ============================================================================

// Quantization beschreibt die affine Abbildung q -> (q - ZeroPoint) * Scale.
// Scale == 0 bedeutet: keine Quantisierungsparameter bekannt.
type Quantization struct {
	Scale     float32 `json:"scale"`
	ZeroPoint int32   `json:"zero_point"`
}

// Spec beschreibt einen Tensor der Engine.
type Spec struct {
	Shape        []int        `json:"shape"`
	Type         ElementType  `json:"type"`
	Quantization Quantization `json:"quantization"`
}

// ImageSize gibt die Kantenlaenge (Shape-Index 1) zurueck.
func (s Spec) ImageSize() int {
	if len(s.Shape) < 2 {
		return 0
	}
	return s.Shape[1]
}

// Channels gibt Shape-Index 3 zurueck, 0 wenn der Tensor nicht Rang 4 hat.
func (s Spec) Channels() int {
	if len(s.Shape) != 4 {
		return 0
	}
	return s.Shape[3]
}

// NumElements gibt das Produkt aller Dimensionen zurueck.
func (s Spec) NumElements() int {
	if len(s.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range s.Shape {
		n *= d
	}
	return n
}

// ByteSize gibt die Puffergroesse in Bytes zurueck.
func (s Spec) ByteSize() int {
	return s.NumElements() * s.Type.Width()
}

// ValidateImage prueft ob der Tensor ein quadratisches Bild [1, n, n, 1|3] aufnimmt.
func (s Spec) ValidateImage() error {
	if s.Type.Width() == 0 {
		return fmt.Errorf("%w: %v", ErrUnsupportedType, s.Type)
	}
	if len(s.Shape) != 4 {
		return fmt.Errorf("%w: want rank 4 [1,size,size,channels], got %v", ErrShapeMismatch, s.Shape)
	}
	if s.Shape[0] != 1 {
		return fmt.Errorf("%w: batch %d not supported", ErrShapeMismatch, s.Shape[0])
	}
	if s.Shape[1] <= 0 || s.Shape[1] != s.Shape[2] {
		return fmt.Errorf("%w: only square inputs supported, got %dx%d", ErrShapeMismatch, s.Shape[1], s.Shape[2])
	}
	if c := s.Shape[3]; c != 1 && c != 3 {
		return fmt.Errorf("%w: %d channels not supported", ErrShapeMismatch, c)
	}
	return nil
}

func (s Spec) String() string {
	return fmt.Sprintf("%s%v", s.Type, s.Shape)
}

// CheckSize prueft ob buf exakt die Groesse des Tensors hat.
func CheckSize(buf []byte, s Spec) error {
	if want := s.ByteSize(); len(buf) != want {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShapeMismatch, s, want, len(buf))
	}
	return nil
}
