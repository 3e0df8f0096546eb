// Package engine beschreibt die Inferenz-Engine hinter der Bridge und
// verwaltet Modell-Dateien und registrierte Backends.
//
// MODUL: engine
// ZWECK: Capability-Interface fuer Interpreter-Backends
// INPUT: Eingabe-Puffer im Layout der Eingabe-Spec
// OUTPUT: Ausgabe-Puffer im Layout der Ausgabe-Spec
// NEBENEFFEKTE: Backends halten native Ressourcen bis Close
// ABHAENGIGKEITEN: tensor (Spec)
// HINWEISE: Engines sind nicht thread-sicher; Aufrufe werden vom gate serialisiert
package engine

import (
	"errors"

	"github.com/tflitebridge/tflite/tensor"
)

// ============================================================================
// Fehler-Definitionen
// ============================================================================

var (
	// ErrClosed wird nach Close fuer jeden weiteren Aufruf zurueckgegeben
	ErrClosed = errors.New("engine: closed")

	// ErrInvokeFailed signalisiert einen Fehler beim Ausfuehren des Modells
	ErrInvokeFailed = errors.New("engine: invoke failed")
)

// ============================================================================
// Engine Interface
// ============================================================================

// Engine ist ein geladenes Modell mit einem Eingabe- und einem Ausgabe-Tensor.
// Die Specs werden bei jedem Aufruf neu von der Engine gelesen.
type Engine interface {
	InputSpec() (tensor.Spec, error)
	OutputSpec() (tensor.Spec, error)

	// Invoke schreibt input in den Eingabe-Tensor, fuehrt das Modell aus
	// und gibt eine Kopie des Ausgabe-Tensors zurueck.
	Invoke(input []byte) ([]byte, error)

	Close() error
}
