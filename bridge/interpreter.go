// Package bridge verbindet Anwendungs-Aufrufe mit der Inferenz-Engine:
// Bild oder Frame rein, Vektor oder Bild raus, immer nur eine Inferenz gleichzeitig.
//
// MODUL: interpreter
// ZWECK: Interpreter mit LoadModel, RunOnImage, RunOnFrame, RunOnBinary, RunImageToImage
// INPUT: LoadRequest, ImageRequest, FrameRequest, BinaryRequest, Sink
// OUTPUT: Result / ImageResult ueber Sink und Future
// NEBENEFFEKTE: Laedt Modelle, startet den Gate-Worker, loggt Laufzeiten
// ABHAENGIGKEITEN: gate, engine, labels, tensor, vision
// HINWEISE: Fehler werden als *Error mit Code gemeldet, nie still verworfen
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tflitebridge/tflite/engine"
	"github.com/tflitebridge/tflite/gate"
	"github.com/tflitebridge/tflite/labels"
	"github.com/tflitebridge/tflite/tensor"
)

// ============================================================================
// Interpreter
// ============================================================================

// ModelInfo beschreibt das geladene Modell zum Ladezeitpunkt.
type ModelInfo struct {
	Key      string      `json:"key"`
	Backend  string      `json:"backend"`
	Threads  int         `json:"threads"`
	Input    tensor.Spec `json:"input"`
	Output   tensor.Spec `json:"output"`
	Labels   int         `json:"labels"`
	LoadedAt time.Time   `json:"loaded_at"`
}

// Status ist eine Momentaufnahme des Interpreters.
type Status struct {
	Loaded bool       `json:"loaded"`
	Busy   bool       `json:"busy"`
	Model  *ModelInfo `json:"model,omitempty"`
	Stats  gate.Stats `json:"stats"`
}

// Interpreter besitzt genau ein Gate und damit hoechstens eine Engine.
type Interpreter struct {
	gate     *gate.Gate
	registry *engine.Registry

	mu     sync.RWMutex
	labels []string
	info   *ModelInfo
}

// Option konfiguriert einen Interpreter.
type Option func(*Interpreter)

// WithRegistry ersetzt engine.DefaultRegistry.
func WithRegistry(r *engine.Registry) Option {
	return func(it *Interpreter) {
		it.registry = r
	}
}

// New erstellt einen Interpreter ohne geladenes Modell.
func New(opts ...Option) *Interpreter {
	it := &Interpreter{
		gate:     gate.New(nil),
		registry: engine.DefaultRegistry,
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// Busy meldet ob gerade eine Inferenz laeuft.
func (it *Interpreter) Busy() bool {
	return it.gate.Busy()
}

// Status gibt den aktuellen Zustand zurueck.
func (it *Interpreter) Status() Status {
	it.mu.RLock()
	info := it.info
	it.mu.RUnlock()

	return Status{
		Loaded: it.gate.Loaded(),
		Busy:   it.gate.Busy(),
		Model:  info,
		Stats:  it.gate.Stats(),
	}
}

// Backends listet die registrierten Engine-Backends.
func (it *Interpreter) Backends() []string {
	return it.registry.List()
}

// Labels gibt die geladenen Labels zurueck.
func (it *Interpreter) Labels() []string {
	it.mu.RLock()
	defer it.mu.RUnlock()

	return it.labels
}

// Close schliesst Gate und Engine.
func (it *Interpreter) Close() error {
	return AsError(it.gate.Close())
}

// ============================================================================
// LoadModel
// ============================================================================

// LoadModel laedt ein Modell und ersetzt das bisherige als Ganzes.
// Waehrend einer laufenden Inferenz schlaegt es mit BUSY fehl, ohne etwas zu tauschen.
func (it *Interpreter) LoadModel(req LoadRequest) (string, error) {
	if it.gate.Busy() {
		return "", newError(CodeBusy, gate.ErrBusy)
	}

	opts := []engine.Option{
		engine.WithThreads(req.Threads),
		engine.WithAccelerator(req.Accelerator),
		engine.WithAsset(req.IsAsset),
	}
	if req.Backend != "" {
		opts = append(opts, engine.WithBackend(req.Backend))
	}

	loadOpts := engine.DefaultLoadOptions()
	loadOpts.Apply(opts...)

	var names []string
	if req.Labels != "" {
		path, err := engine.ResolvePath(req.Labels, loadOpts)
		if err != nil {
			return "", newError(CodeLoadFailed, err)
		}
		if names, err = labels.Load(path); err != nil {
			return "", newError(CodeLoadFailed, err)
		}
	}

	start := time.Now()
	eng, err := it.registry.Load(req.Model, opts...)
	if err != nil {
		return "", newError(CodeLoadFailed, err)
	}

	in, err := eng.InputSpec()
	if err == nil {
		var out tensor.Spec
		if out, err = eng.OutputSpec(); err == nil {
			info := &ModelInfo{
				Key:      req.Model,
				Backend:  loadOpts.Backend,
				Threads:  loadOpts.Threads,
				Input:    in,
				Output:   out,
				Labels:   len(names),
				LoadedAt: time.Now(),
			}
			err = it.install(eng, info, names)
		}
	}
	if err != nil {
		if cerr := eng.Close(); cerr != nil {
			slog.Warn("closing engine after failed load", "model", req.Model, "error", cerr)
		}
		if errors.Is(err, gate.ErrBusy) {
			return "", newError(CodeBusy, err)
		}
		return "", newError(CodeLoadFailed, err)
	}

	slog.Info("model loaded", "model", req.Model, "backend", loadOpts.Backend, "input", in, "duration", time.Since(start))
	return "success", nil
}

func (it *Interpreter) install(eng engine.Engine, info *ModelInfo, names []string) error {
	if err := it.gate.Replace(eng); err != nil {
		return err
	}

	it.mu.Lock()
	it.info = info
	it.labels = names
	it.mu.Unlock()
	return nil
}

// ============================================================================
// Run-Operationen
// ============================================================================

// RunOnImage dekodiert das Bild, bringt es auf die Eingabegroesse und fuehrt das Modell aus.
func (it *Interpreter) RunOnImage(req ImageRequest, sink func(Result, error)) (*gate.Future[Result], error) {
	if err := req.Validate(); err != nil {
		return nil, AsError(err)
	}
	return submit(it, newRequest("image", req.Async, req.snapshot()), it.imageTask, sink)
}

// RunOnFrame wandelt einen YUV-Frame um, dreht ihn und fuehrt das Modell aus.
func (it *Interpreter) RunOnFrame(req FrameRequest, sink func(Result, error)) (*gate.Future[Result], error) {
	if err := req.Validate(); err != nil {
		return nil, AsError(err)
	}
	if err := req.Preprocess.validate(); err != nil {
		return nil, AsError(err)
	}
	return submit(it, newRequest("frame", req.Async, req.snapshot()), it.frameTask, sink)
}

// RunOnBinary fuehrt das Modell auf bereits kodierten Eingabe-Bytes aus.
func (it *Interpreter) RunOnBinary(req BinaryRequest, sink func(Result, error)) (*gate.Future[Result], error) {
	if len(req.Input) == 0 {
		return nil, AsError(fmt.Errorf("%w: empty input", ErrInvalidRequest))
	}
	return submit(it, newRequest("binary", req.Async, req.snapshot()), it.binaryTask, sink)
}

// RunImageToImage fuehrt ein Bild-zu-Bild Modell aus und dekodiert die Ausgabe als Bild.
func (it *Interpreter) RunImageToImage(req ImageRequest, sink func(ImageResult, error)) (*gate.Future[ImageResult], error) {
	if err := req.Validate(); err != nil {
		return nil, AsError(err)
	}
	return submit(it, newRequest("pix2pix", req.Async, req.snapshot()), pix2pixTask, sink)
}

// RunOnImageSync wartet auf das Ergebnis von RunOnImage.
func (it *Interpreter) RunOnImageSync(ctx context.Context, req ImageRequest) (Result, error) {
	return wait[Result](ctx)(it.RunOnImage(req, nil))
}

// RunOnFrameSync wartet auf das Ergebnis von RunOnFrame.
func (it *Interpreter) RunOnFrameSync(ctx context.Context, req FrameRequest) (Result, error) {
	return wait[Result](ctx)(it.RunOnFrame(req, nil))
}

// RunOnBinarySync wartet auf das Ergebnis von RunOnBinary.
func (it *Interpreter) RunOnBinarySync(ctx context.Context, req BinaryRequest) (Result, error) {
	return wait[Result](ctx)(it.RunOnBinary(req, nil))
}

// RunImageToImageSync wartet auf das Ergebnis von RunImageToImage.
func (it *Interpreter) RunImageToImageSync(ctx context.Context, req ImageRequest) (ImageResult, error) {
	return wait[ImageResult](ctx)(it.RunImageToImage(req, nil))
}

// ============================================================================
// Submit-Helfer
// ============================================================================

// submit laesst den Request am Gate zu; Sink und Future sehen klassifizierte Fehler
func submit[A, R any](it *Interpreter, req request[A], task func(engine.Engine, request[A]) (R, error), sink func(R, error)) (*gate.Future[R], error) {
	start := time.Now()

	f, err := gate.Submit(it.gate, req.Mode,
		func(eng engine.Engine) (R, error) {
			v, err := task(eng, req)
			return v, AsError(err)
		},
		func(v R, err error) {
			err = AsError(err)
			if err != nil {
				slog.Warn("inference failed", "request", req.ID, "kind", req.Kind, "mode", req.Mode, "code", CodeOf(err), "error", err)
			} else {
				slog.Info("inference took", "request", req.ID, "kind", req.Kind, "mode", req.Mode, "duration", time.Since(start))
			}
			if sink != nil {
				sink(v, err)
			}
		})
	if err != nil {
		slog.Debug("request not admitted", "request", req.ID, "kind", req.Kind, "error", err)
		return nil, AsError(err)
	}

	slog.Debug("request admitted", "request", req.ID, "kind", req.Kind, "mode", req.Mode)
	return f, nil
}

func wait[R any](ctx context.Context) func(*gate.Future[R], error) (R, error) {
	return func(f *gate.Future[R], err error) (R, error) {
		if err != nil {
			var zero R
			return zero, err
		}
		v, err := f.Wait(ctx)
		return v, AsError(err)
	}
}
