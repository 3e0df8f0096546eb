// Package tflite bindet TensorFlow Lite als Engine-Backend ein.
//
// MODUL: register
// ZWECK: Registriert das Backend "tflite" in engine.DefaultRegistry
// INPUT: Keine
// OUTPUT: Keine
// NEBENEFFEKTE: init() aendert die globale Registry
// ABHAENGIGKEITEN: engine
// HINWEISE: Die echte Implementierung braucht cgo und -tags tflite,
//           ohne Tag liefert die Factory ErrUnavailable
package tflite

import (
	"errors"

	"github.com/tflitebridge/tflite/engine"
)

// Name ist der Registry-Name des Backends
const Name = "tflite"

// ErrUnavailable wird zurueckgegeben wenn das Backend nicht einkompiliert ist
var ErrUnavailable = errors.New("tflite: backend not compiled in (build with -tags tflite)")

func init() {
	engine.MustRegister(Name, newEngine)
}
