// MODUL: registry
// ZWECK: Registry fuer Engine-Factories mit thread-sicherer Verwaltung
// INPUT: Backend-Name, Factory-Funktionen, Modell-Schluessel, LoadOptions
// OUTPUT: Geladene Engine-Instanzen
// NEBENEFFEKTE: Create oeffnet Modell-Dateien
// ABHAENGIGKEITEN: sync (stdlib), model.go
// HINWEISE: Backends registrieren sich per init() in der DefaultRegistry

package engine

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrBackendNotRegistered wird zurueckgegeben wenn kein Backend unter dem Namen existiert.
var ErrBackendNotRegistered = errors.New("engine: backend not registered")

// RegistryError repraesentiert einen Registry-spezifischen Fehler.
type RegistryError struct {
	Op   string // Operation (z.B. "create", "load")
	Name string // Backend-Name
	Err  error  // Urspruenglicher Fehler
}

func (e *RegistryError) Error() string {
	return "engine: " + e.Op + " backend '" + e.Name + "': " + e.Err.Error()
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

// Factory erstellt eine Engine aus Modell-Bytes.
// Bei Erfolg uebernimmt die Engine m und schliesst es in Close.
type Factory func(m *Model, opts LoadOptions) (Engine, error)

// Registry verwaltet registrierte Engine-Factories.
type Registry struct {
	backends map[string]Factory
	mu       sync.RWMutex
}

// NewRegistry erstellt eine neue leere Registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Factory),
	}
}

// DefaultRegistry ist die globale Registry.
var DefaultRegistry = NewRegistry()

// Register registriert eine Factory und ueberschreibt existierende Eintraege.
func (r *Registry) Register(name string, factory Factory) {
	if factory == nil {
		panic("engine: nil factory for backend '" + name + "'")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.backends[name] = factory
}

// Unregister entfernt ein Backend. Gibt true zurueck wenn es existierte.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.backends[name]
	delete(r.backends, name)
	return exists
}

// Get gibt die Factory fuer den Namen zurueck.
func (r *Registry) Get(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.backends[name]
	return factory, exists
}

// List gibt alle registrierten Namen sortiert zurueck.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Create erstellt eine Engine aus einem bereits geoeffneten Modell.
// Schlaegt die Factory fehl, wird m geschlossen.
func (r *Registry) Create(name string, m *Model, opts LoadOptions) (Engine, error) {
	factory, exists := r.Get(name)
	if !exists {
		m.Close()
		return nil, &RegistryError{Op: "create", Name: name, Err: ErrBackendNotRegistered}
	}

	eng, err := factory(m, opts)
	if err != nil {
		m.Close()
		return nil, &RegistryError{Op: "create", Name: name, Err: err}
	}
	return eng, nil
}

// Load loest key auf, oeffnet das Modell und erstellt die Engine.
func (r *Registry) Load(key string, opts ...Option) (Engine, error) {
	loadOpts := DefaultLoadOptions()
	loadOpts.Apply(opts...)

	if err := loadOpts.Validate(); err != nil {
		return nil, err
	}

	if _, exists := r.Get(loadOpts.Backend); !exists {
		return nil, &RegistryError{Op: "load", Name: loadOpts.Backend, Err: ErrBackendNotRegistered}
	}

	m, err := OpenModel(key, loadOpts)
	if err != nil {
		return nil, &RegistryError{Op: "load", Name: loadOpts.Backend, Err: err}
	}

	return r.Create(loadOpts.Backend, m, loadOpts)
}

// Load nutzt die DefaultRegistry.
func Load(key string, opts ...Option) (Engine, error) {
	return DefaultRegistry.Load(key, opts...)
}

// MustRegister registriert eine Factory in der DefaultRegistry.
func MustRegister(name string, factory Factory) {
	DefaultRegistry.Register(name, factory)
}

// String implementiert fmt.Stringer fuer Debug-Ausgaben.
func (r *Registry) String() string {
	return fmt.Sprintf("engine.Registry%v", r.List())
}
