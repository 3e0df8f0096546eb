//go:build !tflite

// MODUL: tflite_stub
// ZWECK: Stub wenn TensorFlow Lite nicht kompiliert ist
// INPUT: Keine
// OUTPUT: ErrUnavailable
// NEBENEFFEKTE: Keine
// ABHAENGIGKEITEN: engine
// HINWEISE: Wird ohne -tags tflite kompiliert

package tflite

import "github.com/tflitebridge/tflite/engine"

// Available meldet ob das Backend einkompiliert ist.
const Available = false

func newEngine(m *engine.Model, _ engine.LoadOptions) (engine.Engine, error) {
	return nil, ErrUnavailable
}
