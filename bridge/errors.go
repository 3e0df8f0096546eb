// MODUL: errors
// ZWECK: Fehler-Codes der Bridge und Zuordnung interner Fehler
// INPUT: Fehler aus vision, tensor, engine, gate
// OUTPUT: *Error mit Code und lesbarer Nachricht
// NEBENEFFEKTE: Keine
// ABHAENGIGKEITEN: errors (stdlib), vision, tensor, engine, gate
// HINWEISE: Jeder Fehler erreicht den Sink als genau ein Code/Nachricht-Paar

package bridge

import (
	"errors"
	"io/fs"

	"github.com/tflitebridge/tflite/engine"
	"github.com/tflitebridge/tflite/gate"
	"github.com/tflitebridge/tflite/tensor"
	"github.com/tflitebridge/tflite/vision"
)

// Code ist ein maschinenlesbarer Fehler-Code.
type Code string

const (
	CodeBusy           Code = "BUSY"
	CodeIO             Code = "IO_ERROR"
	CodeShapeMismatch  Code = "SHAPE_MISMATCH"
	CodeModelNotLoaded Code = "MODEL_NOT_LOADED"
	CodeLoadFailed     Code = "LOAD_FAILED"
	CodeInference      Code = "INFERENCE_FAILED"
	CodeInvalidRequest Code = "INVALID_REQUEST"
)

// ErrInvalidRequest markiert fehlerhafte Aufrufargumente
var ErrInvalidRequest = errors.New("invalid request")

// Error ist der strukturierte Fehler aller Bridge-Operationen.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`

	err error
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

// newError erstellt einen Fehler mit festem Code
func newError(code Code, err error) *Error {
	return &Error{Code: code, Message: err.Error(), err: err}
}

// errorCodes in Pruefreihenfolge; der erste Treffer gewinnt
var errorCodes = []struct {
	err  error
	code Code
}{
	{gate.ErrBusy, CodeBusy},
	{gate.ErrNoEngine, CodeModelNotLoaded},
	{gate.ErrClosed, CodeModelNotLoaded},
	{ErrInvalidRequest, CodeInvalidRequest},
	{tensor.ErrShapeMismatch, CodeShapeMismatch},
	{tensor.ErrUnsupportedType, CodeShapeMismatch},
	{vision.ErrImageIO, CodeIO},
	{vision.ErrPixelBuffer, CodeIO},
	{fs.ErrNotExist, CodeIO},
	{engine.ErrModelNotFound, CodeLoadFailed},
	{engine.ErrBackendNotRegistered, CodeLoadFailed},
}

// AsError ordnet err einem Code zu. nil bleibt nil, *Error bleibt unveraendert.
func AsError(err error) error {
	if err == nil {
		return nil
	}
	return classify(err)
}

func classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return newError(c.code, err)
		}
	}
	return newError(CodeInference, err)
}

// CodeOf gibt den Code eines Fehlers zurueck, "" fuer nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return classify(err).Code
}
