//go:build tflite

// MODUL: tflite
// ZWECK: engine.Engine ueber den TensorFlow Lite C-Interpreter
// INPUT: Modell-Bytes, LoadOptions (Threads, Accelerator)
// OUTPUT: Engine mit Specs von Eingabe-/Ausgabe-Tensor 0
// NEBENEFFEKTE: Alloziert native Interpreter-Ressourcen (cgo)
// ABHAENGIGKEITEN: github.com/mattn/go-tflite, github.com/mattn/go-tflite/delegates/xnnpack
// HINWEISE: Die Modell-Bytes muessen bis Close gueltig bleiben, daher haelt die
//           Engine das engine.Model und gibt es erst in Close frei

package tflite

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/mattn/go-tflite"
	"github.com/mattn/go-tflite/delegates"
	"github.com/mattn/go-tflite/delegates/xnnpack"

	"github.com/tflitebridge/tflite/engine"
	"github.com/tflitebridge/tflite/tensor"
)

// Available meldet ob das Backend einkompiliert ist.
const Available = true

type tfliteEngine struct {
	mu sync.Mutex

	model    *engine.Model
	tfModel  *tflite.Model
	options  *tflite.InterpreterOptions
	delegate delegates.Delegater
	interp   *tflite.Interpreter
}

func newEngine(m *engine.Model, opts engine.LoadOptions) (engine.Engine, error) {
	tfModel := tflite.NewModel(m.Data)
	if tfModel == nil {
		return nil, fmt.Errorf("tflite: cannot parse model %s", m.Key)
	}

	e := &tfliteEngine{model: m, tfModel: tfModel}

	e.options = tflite.NewInterpreterOptions()
	e.options.SetNumThread(opts.Threads)
	e.options.SetErrorReporter(func(msg string, _ any) {
		slog.Warn("tflite", "model", m.Key, "msg", msg)
	}, nil)

	if opts.Accelerator {
		if d := xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(opts.Threads)}); d != nil {
			e.delegate = d
			e.options.AddDelegate(d)
		} else {
			slog.Warn("tflite: accelerator requested but delegate unavailable", "model", m.Key)
		}
	}

	e.interp = tflite.NewInterpreter(tfModel, e.options)
	if e.interp == nil {
		e.release()
		return nil, fmt.Errorf("tflite: cannot create interpreter for %s", m.Key)
	}

	if status := e.interp.AllocateTensors(); status != tflite.OK {
		e.release()
		return nil, fmt.Errorf("tflite: allocate tensors: status %v", status)
	}

	slog.Debug("tflite interpreter ready", "model", m.Key, "threads", opts.Threads, "accelerator", e.delegate != nil,
		"inputs", e.interp.GetInputTensorCount(), "outputs", e.interp.GetOutputTensorCount())
	return e, nil
}

func (e *tfliteEngine) InputSpec() (tensor.Spec, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.interp == nil {
		return tensor.Spec{}, engine.ErrClosed
	}
	return specOf(e.interp.GetInputTensor(0))
}

func (e *tfliteEngine) OutputSpec() (tensor.Spec, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.interp == nil {
		return tensor.Spec{}, engine.ErrClosed
	}
	return specOf(e.interp.GetOutputTensor(0))
}

func (e *tfliteEngine) Invoke(input []byte) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.interp == nil {
		return nil, engine.ErrClosed
	}

	in := e.interp.GetInputTensor(0)
	if want := int(in.ByteSize()); len(input) != want {
		return nil, fmt.Errorf("%w: input needs %d bytes, got %d", tensor.ErrShapeMismatch, want, len(input))
	}
	if status := in.CopyFromBuffer(input); status != tflite.OK {
		return nil, fmt.Errorf("%w: copy input: status %v", engine.ErrInvokeFailed, status)
	}

	if status := e.interp.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("%w: status %v", engine.ErrInvokeFailed, status)
	}

	out := e.interp.GetOutputTensor(0)
	buf := make([]byte, out.ByteSize())
	if status := out.CopyToBuffer(buf); status != tflite.OK {
		return nil, fmt.Errorf("%w: copy output: status %v", engine.ErrInvokeFailed, status)
	}
	return buf, nil
}

func (e *tfliteEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.release()
	return e.model.Close()
}

// release gibt die nativen Ressourcen in umgekehrter Reihenfolge frei
func (e *tfliteEngine) release() {
	if e.interp != nil {
		e.interp.Delete()
		e.interp = nil
	}
	if e.delegate != nil {
		e.delegate.Delete()
		e.delegate = nil
	}
	if e.options != nil {
		e.options.Delete()
		e.options = nil
	}
	if e.tfModel != nil {
		e.tfModel.Delete()
		e.tfModel = nil
	}
}

func specOf(t *tflite.Tensor) (tensor.Spec, error) {
	if t == nil {
		return tensor.Spec{}, fmt.Errorf("%w: tensor 0 missing", tensor.ErrShapeMismatch)
	}

	var et tensor.ElementType
	switch t.Type() {
	case tflite.UInt8:
		et = tensor.Uint8
	case tflite.Float32:
		et = tensor.Float32
	case tflite.Float16:
		et = tensor.Float16
	default:
		return tensor.Spec{}, fmt.Errorf("%w: %v", tensor.ErrUnsupportedType, t.Type())
	}

	shape := make([]int, t.NumDims())
	for i := range shape {
		shape[i] = t.Dim(i)
	}

	q := t.QuantizationParams()
	return tensor.Spec{
		Shape: shape,
		Type:  et,
		Quantization: tensor.Quantization{
			Scale:     float32(q.Scale),
			ZeroPoint: int32(q.ZeroPoint),
		},
	}, nil
}
