// types.go - HTTP Request/Response Typen der Bridge
// Enthaelt: StatusError, ImageData, Preprocess, Load/Image/Frame/Binary Requests,
// RunResponse, ImageResponse, StatusResponse
package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/tflitebridge/tflite/labels"
	"github.com/tflitebridge/tflite/tensor"
)

// StatusError ist ein Fehler mit HTTP Status-Code, Bridge-Code und Nachricht.
type StatusError struct {
	StatusCode   int
	Status       string
	Code         string `json:"code"`
	ErrorMessage string `json:"message"`
}

func (e StatusError) Error() string {
	msg := e.ErrorMessage
	if e.Code != "" && msg != "" {
		msg = e.Code + ": " + msg
	}

	switch {
	case e.Status != "" && msg != "":
		return fmt.Sprintf("%s: %s", e.Status, msg)
	case e.Status != "":
		return e.Status
	case msg != "":
		return msg
	default:
		// sollte nicht passieren
		return "something went wrong, please see the bridge server logs for details"
	}
}

// ErrorResponse ist der JSON-Koerper jeder fehlgeschlagenen Anfrage.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImageData sind rohe Bytes, im JSON base64-kodiert.
type ImageData []byte

// ============================================================================
// Requests
// ============================================================================

// LoadRequest ist der Koerper von POST /api/load.
type LoadRequest struct {
	Model       string `json:"model"`
	IsAsset     bool   `json:"is_asset,omitempty"`
	Threads     int    `json:"threads,omitempty"`
	Accelerator bool   `json:"accelerator,omitempty"`
	Labels      string `json:"labels,omitempty"`
	Backend     string `json:"backend,omitempty"`
}

// LoadResponse bestaetigt ein geladenes Modell.
type LoadResponse struct {
	Result string     `json:"result"`
	Model  *ModelInfo `json:"model,omitempty"`
}

// Preprocess steuert Resampling und Encoding. nil-Felder uebernehmen
// die Defaults des Servers (TFLITE_NORMALIZE, TFLITE_MAINTAIN_ASPECT).
type Preprocess struct {
	Mean           float32 `json:"mean,omitempty"`
	Std            float32 `json:"std,omitempty"`
	Normalize      *bool   `json:"normalize,omitempty"`
	MaintainAspect *bool   `json:"maintain_aspect,omitempty"`
}

// ImageRequest fuehrt das Modell auf einem Bild aus, per Pfad oder Inhalt.
type ImageRequest struct {
	Path  string    `json:"path,omitempty"`
	Image ImageData `json:"image,omitempty"`

	Preprocess

	NumResults int     `json:"num_results,omitempty"`
	Threshold  float32 `json:"threshold,omitempty"`
	Async      bool    `json:"async,omitempty"`
}

// FrameRequest fuehrt das Modell auf einem Kamera-Frame aus.
type FrameRequest struct {
	Y        ImageData `json:"y"`
	U        ImageData `json:"u"`
	V        ImageData `json:"v"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Rotation int       `json:"rotation,omitempty"`

	Preprocess

	NumResults int     `json:"num_results,omitempty"`
	Threshold  float32 `json:"threshold,omitempty"`
	Async      bool    `json:"async,omitempty"`
}

// BinaryRequest uebergibt bereits kodierte Eingabe-Bytes.
type BinaryRequest struct {
	Input ImageData `json:"input"`

	NumResults int     `json:"num_results,omitempty"`
	Threshold  float32 `json:"threshold,omitempty"`
	Async      bool    `json:"async,omitempty"`
}

// ============================================================================
// Responses
// ============================================================================

// RunResponse ist das Ergebnis einer Vektor-Inferenz.
type RunResponse struct {
	ID           string               `json:"id"`
	Output       []float32            `json:"output"`
	Recognitions []labels.Recognition `json:"recognitions,omitempty"`
	Duration     Duration             `json:"duration"`
}

// ImageResponse ist das Ergebnis einer Bild-zu-Bild Inferenz als PNG.
type ImageResponse struct {
	ID       string    `json:"id"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Image    ImageData `json:"image"`
	Duration Duration  `json:"duration"`
}

// ModelInfo beschreibt das geladene Modell.
type ModelInfo struct {
	Key      string      `json:"key"`
	Backend  string      `json:"backend"`
	Threads  int         `json:"threads"`
	Input    tensor.Spec `json:"input"`
	Output   tensor.Spec `json:"output"`
	Labels   int         `json:"labels"`
	LoadedAt time.Time   `json:"loaded_at"`
}

// Stats sind die Zaehler des Inferenz-Gates.
type Stats struct {
	Admitted  uint64 `json:"admitted"`
	Rejected  uint64 `json:"rejected"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
}

// StatusResponse ist der Koerper von GET /api/status.
type StatusResponse struct {
	Loaded   bool       `json:"loaded"`
	Busy     bool       `json:"busy"`
	Model    *ModelInfo `json:"model,omitempty"`
	Stats    Stats      `json:"stats"`
	Backends []string   `json:"backends"`
}

// ============================================================================
// Duration
// ============================================================================

// Duration wird als Go-Dauer-String ("12.5ms") kodiert.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("api: invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}
