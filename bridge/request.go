// MODUL: request
// ZWECK: Aufrufargumente und Ergebnisse der Bridge-Operationen
// INPUT: Argumente von server, cmd oder Bibliotheks-Aufrufern
// OUTPUT: Unveraenderliche Request-Snapshots mit ID
// NEBENEFFEKTE: Keine
// ABHAENGIGKEITEN: github.com/google/uuid (extern), vision, labels, gate
// HINWEISE: Snapshots werden bei Annahme kopiert und danach nie veraendert

package bridge

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/tflitebridge/tflite/gate"
	"github.com/tflitebridge/tflite/labels"
	"github.com/tflitebridge/tflite/vision"
)

// ============================================================================
// Requests
// ============================================================================

// LoadRequest beschreibt ein zu ladendes Modell.
type LoadRequest struct {
	Model       string // Pfad oder Asset-Schluessel
	IsAsset     bool
	Threads     int  // <= 0: Default aus der Umgebung
	Accelerator bool // Hardware-Delegate
	Labels      string
	Backend     string // leer: Default aus der Umgebung
}

// Preprocess steuert Resampling und Encoding eines Bildes.
type Preprocess struct {
	Mean           float32
	Std            float32
	Normalize      bool
	MaintainAspect bool
}

// Top steuert die Auswahl der Recognitions. NumResults <= 0 schaltet sie ab.
type Top struct {
	NumResults int
	Threshold  float32
}

// ImageRequest fuehrt das Modell auf einer Bilddatei oder Bild-Bytes aus.
type ImageRequest struct {
	Path string
	Data []byte // hat Vorrang vor Path
	Preprocess
	Top
	Async bool
}

// FrameRequest fuehrt das Modell auf einem Kamera-Frame aus.
type FrameRequest struct {
	Planes   vision.Planes
	Width    int
	Height   int
	Rotation int // Grad im Uhrzeigersinn
	Preprocess
	Top
	Async bool
}

// BinaryRequest uebergibt bereits kodierte Eingabe-Bytes.
type BinaryRequest struct {
	Input []byte
	Top
	Async bool
}

// Validate prueft die Frame-Geometrie vor der Annahme.
func (r FrameRequest) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalidRequest, r.Width, r.Height)
	}
	if len(r.Planes.Y) != r.Width*r.Height {
		return fmt.Errorf("%w: Y plane has %d bytes, frame %dx%d needs %d", ErrInvalidRequest, len(r.Planes.Y), r.Width, r.Height, r.Width*r.Height)
	}
	if need := vision.NV21FrameSize(r.Width, r.Height); r.Planes.Len() < need {
		return fmt.Errorf("%w: planes hold %d bytes, frame needs %d", ErrInvalidRequest, r.Planes.Len(), need)
	}
	return nil
}

// Validate prueft Pfad oder Daten.
func (r ImageRequest) Validate() error {
	if r.Path == "" && len(r.Data) == 0 {
		return fmt.Errorf("%w: path or image data required", ErrInvalidRequest)
	}
	return r.Preprocess.validate()
}

func (p Preprocess) validate() error {
	if p.Normalize && p.Std == 0 {
		return fmt.Errorf("%w: normalization needs a non-zero std", ErrInvalidRequest)
	}
	return nil
}

// ============================================================================
// Ergebnisse
// ============================================================================

// Result ist das Ergebnis einer Vektor-Inferenz.
type Result struct {
	ID           string
	Output       []float32
	Recognitions []labels.Recognition
	Duration     time.Duration
}

// ImageResult ist das Ergebnis einer Bild-zu-Bild Inferenz.
type ImageResult struct {
	ID       string
	Image    *vision.PixelImage
	Duration time.Duration
}

// ============================================================================
// Snapshot
// ============================================================================

// request ist der unveraenderliche Snapshot eines angenommenen Aufrufs
type request[A any] struct {
	ID   string
	Kind string
	Mode gate.Mode
	Args A
}

func newRequest[A any](kind string, async bool, args A) request[A] {
	return request[A]{
		ID:   uuid.NewString(),
		Kind: kind,
		Mode: gate.ModeOf(async),
		Args: args,
	}
}

// snapshot kopiert die Puffer eines Requests, damit Aufrufer sie weiterverwenden koennen
func (r ImageRequest) snapshot() ImageRequest {
	r.Data = slices.Clone(r.Data)
	return r
}

func (r FrameRequest) snapshot() FrameRequest {
	r.Planes = vision.Planes{
		Y: slices.Clone(r.Planes.Y),
		U: slices.Clone(r.Planes.U),
		V: slices.Clone(r.Planes.V),
	}
	return r
}

func (r BinaryRequest) snapshot() BinaryRequest {
	r.Input = slices.Clone(r.Input)
	return r
}
