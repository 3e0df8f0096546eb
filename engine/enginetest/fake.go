// Package enginetest stellt eine In-Memory Engine fuer Tests bereit.
//
// MODUL: enginetest
// ZWECK: Fake-Engine mit festen Specs und steuerbarem Invoke
// INPUT: Eingabe-/Ausgabe-Spec, optionale Invoke-Funktion
// OUTPUT: engine.Engine Implementation
// NEBENEFFEKTE: Zaehlt Aufrufe
// ABHAENGIGKEITEN: engine, tensor
// HINWEISE: Ohne InvokeFunc wird ein Null-Puffer der Ausgabegroesse geliefert
package enginetest

import (
	"sync"
	"sync/atomic"

	"github.com/tflitebridge/tflite/engine"
	"github.com/tflitebridge/tflite/tensor"
)

// Engine ist eine Fake-Engine.
type Engine struct {
	In  tensor.Spec
	Out tensor.Spec

	// InvokeFunc ersetzt das Standardverhalten von Invoke
	InvokeFunc func(input []byte) ([]byte, error)

	// CloseErr wird von Close zurueckgegeben
	CloseErr error

	Invocations atomic.Int64

	mu     sync.Mutex
	closed bool
	last   []byte
}

// New erstellt eine Fake-Engine mit den gegebenen Specs.
func New(in, out tensor.Spec) *Engine {
	return &Engine{In: in, Out: out}
}

func (e *Engine) InputSpec() (tensor.Spec, error) {
	if e.Closed() {
		return tensor.Spec{}, engine.ErrClosed
	}
	return e.In, nil
}

func (e *Engine) OutputSpec() (tensor.Spec, error) {
	if e.Closed() {
		return tensor.Spec{}, engine.ErrClosed
	}
	return e.Out, nil
}

func (e *Engine) Invoke(input []byte) ([]byte, error) {
	if e.Closed() {
		return nil, engine.ErrClosed
	}
	if err := tensor.CheckSize(input, e.In); err != nil {
		return nil, err
	}

	e.Invocations.Add(1)
	e.mu.Lock()
	e.last = append(e.last[:0], input...)
	e.mu.Unlock()

	if e.InvokeFunc != nil {
		return e.InvokeFunc(input)
	}
	return make([]byte, e.Out.ByteSize()), nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	return e.CloseErr
}

// Closed meldet ob Close aufgerufen wurde.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.closed
}

// LastInput gibt eine Kopie der letzten Eingabe zurueck.
func (e *Engine) LastInput() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]byte(nil), e.last...)
}

// Factory liefert eine engine.Factory, die immer eng zurueckgibt und das Model schliesst.
func Factory(eng *Engine) engine.Factory {
	return func(m *engine.Model, _ engine.LoadOptions) (engine.Engine, error) {
		m.Close()
		return eng, nil
	}
}
