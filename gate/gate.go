// Package gate serialisiert den Zugriff auf die Engine: es laeuft immer
// hoechstens eine Inferenz, weitere Anfragen werden sofort abgewiesen.
//
// MODUL: gate
// ZWECK: Busy-Gate mit Sync- und Async-Modus und genau einem Worker
// INPUT: Task (encode -> invoke -> decode) und Sink fuer das Ergebnis
// OUTPUT: Future mit dem Ergebnis, Sink wird genau einmal aufgerufen
// NEBENEFFEKTE: Startet eine Worker-Goroutine pro Gate
// ABHAENGIGKEITEN: golang.org/x/sync/semaphore (extern), engine
// HINWEISE: Keine Warteschlange, kein Retry, kein Abbruch nach Zulassung.
//           Das Gate wird freigegeben bevor der Sink feuert.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/tflitebridge/tflite/engine"
)

// ============================================================================
// Fehler-Definitionen
// ============================================================================

var (
	ErrBusy      = errors.New("interpreter busy")
	ErrNoEngine  = errors.New("gate: no model loaded")
	ErrClosed    = errors.New("gate: closed")
	ErrTaskPanic = errors.New("gate: task panicked")
	ErrPending   = errors.New("gate: result pending")
)

// ============================================================================
// Mode
// ============================================================================

// Mode bestimmt wo eine zugelassene Anfrage laeuft.
type Mode int

const (
	// Sync laeuft auf der aufrufenden Goroutine
	Sync Mode = iota
	// Async laeuft auf dem Worker des Gates
	Async
)

// ModeOf bildet das asynch-Flag einer Anfrage auf einen Mode ab.
func ModeOf(async bool) Mode {
	if async {
		return Async
	}
	return Sync
}

func (m Mode) String() string {
	switch m {
	case Sync:
		return "sync"
	case Async:
		return "async"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ============================================================================
// Gate
// ============================================================================

// Stats sind Zaehler seit Erstellung des Gates.
type Stats struct {
	Admitted  uint64 `json:"admitted"`
	Rejected  uint64 `json:"rejected"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
}

// Gate haelt die Engine und den Busy-Zustand.
type Gate struct {
	sem  *semaphore.Weighted
	busy atomic.Bool

	mu     sync.RWMutex
	eng    engine.Engine
	closed bool

	jobs chan func()
	wg   sync.WaitGroup

	admitted, rejected, completed, failed atomic.Uint64
}

// New erstellt ein Gate und startet den Worker. eng darf nil sein.
func New(eng engine.Engine) *Gate {
	g := &Gate{
		sem:  semaphore.NewWeighted(1),
		eng:  eng,
		jobs: make(chan func(), 1),
	}

	g.wg.Add(1)
	go g.worker()
	return g
}

func (g *Gate) worker() {
	defer g.wg.Done()
	for job := range g.jobs {
		job()
	}
}

// Busy meldet ob gerade eine Anfrage laeuft.
func (g *Gate) Busy() bool {
	return g.busy.Load()
}

// Loaded meldet ob eine Engine installiert ist.
func (g *Gate) Loaded() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.eng != nil
}

// Stats gibt eine Momentaufnahme der Zaehler zurueck.
func (g *Gate) Stats() Stats {
	return Stats{
		Admitted:  g.admitted.Load(),
		Rejected:  g.rejected.Load(),
		Completed: g.completed.Load(),
		Failed:    g.failed.Load(),
	}
}

func (g *Gate) acquire() bool {
	if !g.sem.TryAcquire(1) {
		return false
	}
	g.busy.Store(true)
	return true
}

func (g *Gate) release() {
	g.busy.Store(false)
	g.sem.Release(1)
}

// Replace schliesst die alte Engine und installiert danach eng.
// Waehrend einer laufenden Anfrage schlaegt Replace mit ErrBusy fehl
// und laesst die alte Engine unveraendert.
func (g *Gate) Replace(eng engine.Engine) error {
	if !g.acquire() {
		return ErrBusy
	}
	defer g.release()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrClosed
	}

	if old := g.eng; old != nil && old != eng {
		if err := old.Close(); err != nil {
			slog.Warn("closing previous engine", "error", err)
		}
	}
	g.eng = eng
	return nil
}

// Close wartet auf eine laufende Anfrage, stoppt den Worker und schliesst die Engine.
func (g *Gate) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.mu.Unlock()

	// Acquire blockiert bis die laufende Anfrage freigegeben hat
	if err := g.sem.Acquire(context.Background(), 1); err != nil {
		return err
	}
	defer g.sem.Release(1)

	close(g.jobs)
	g.wg.Wait()

	g.mu.Lock()
	eng := g.eng
	g.eng = nil
	g.mu.Unlock()

	if eng != nil {
		return eng.Close()
	}
	return nil
}

// ============================================================================
// Submit
// ============================================================================

// Submit laesst eine Anfrage zu oder weist sie mit ErrBusy ab.
// Abgewiesene Anfragen rufen sink nicht auf. Fuer zugelassene Anfragen
// wird sink genau einmal aufgerufen, nachdem das Gate wieder frei ist.
// sink darf nil sein.
func Submit[T any](g *Gate, mode Mode, task func(engine.Engine) (T, error), sink func(T, error)) (*Future[T], error) {
	if !g.acquire() {
		g.rejected.Add(1)
		slog.Debug("request rejected", "mode", mode, "error", ErrBusy)
		return nil, ErrBusy
	}

	g.mu.RLock()
	eng, closed := g.eng, g.closed
	g.mu.RUnlock()

	switch {
	case closed:
		g.release()
		return nil, ErrClosed
	case eng == nil:
		g.release()
		return nil, ErrNoEngine
	}

	g.admitted.Add(1)
	f := newFuture[T]()
	run := func() {
		v, err := protect(eng, task)
		g.release()

		if err != nil {
			g.failed.Add(1)
		} else {
			g.completed.Add(1)
		}

		defer f.resolve(v, err)
		deliver(sink, v, err)
	}

	if mode == Async {
		g.jobs <- run
	} else {
		run()
	}
	return f, nil
}

// protect faengt panics der Task ab, damit das Gate immer freigegeben wird
func protect[T any](eng engine.Engine, task func(engine.Engine) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("inference task panicked", "panic", r, "stack", string(debug.Stack()))
			var zero T
			v, err = zero, fmt.Errorf("%w: %v", ErrTaskPanic, r)
		}
	}()
	return task(eng)
}

func deliver[T any](sink func(T, error), v T, err error) {
	if sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("result sink panicked", "panic", r)
		}
	}()
	sink(v, err)
}

// ============================================================================
// Future
// ============================================================================

// Future ist das Ergebnis einer zugelassenen Anfrage.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(v T, err error) {
	f.val, f.err = v, err
	close(f.done)
}

// Done wird geschlossen nachdem der Sink aufgerufen wurde.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blockiert bis zum Ergebnis oder bis ctx endet.
// Ein abgebrochenes Wait bricht die Anfrage selbst nicht ab.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result gibt das Ergebnis zurueck oder ErrPending wenn es noch aussteht.
func (f *Future[T]) Result() (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	default:
		var zero T
		return zero, ErrPending
	}
}
