// MODUL: options
// ZWECK: Functional Options fuer das Laden eines Modells
// INPUT: Optionale Parameter (Threads, Accelerator, Asset-Aufloesung, Backend)
// OUTPUT: LoadOptions Struct mit Konfiguration
// NEBENEFFEKTE: Keine
// ABHAENGIGKEITEN: envconfig (Defaults)
// HINWEISE: Defaults kommen aus der Umgebung (TFLITE_NUM_THREADS, TFLITE_ACCELERATOR, ...)

package engine

import (
	"errors"

	"github.com/tflitebridge/tflite/envconfig"
)

// ============================================================================
// LoadOptions
// ============================================================================

// LoadOptions enthaelt die Konfiguration fuer das Laden eines Modells.
type LoadOptions struct {
	Backend     string // Name der registrierten Factory
	Threads     int    // Interpreter-Threads
	Accelerator bool   // Hardware-Delegate verwenden
	IsAsset     bool   // Schluessel relativ zu AssetDir aufloesen
	AssetDir    string // Basisverzeichnis fuer Asset-Schluessel
}

// Option ist eine funktionale Option fuer LoadOptions.
type Option func(*LoadOptions)

var (
	ErrInvalidThreads  = errors.New("engine: invalid thread count")
	ErrInvalidBackend  = errors.New("engine: backend name is empty")
	ErrMissingAssetDir = errors.New("engine: asset key without asset directory")
)

// DefaultLoadOptions liest die Defaults aus der Umgebung.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Backend:     envconfig.Backend(),
		Threads:     max(1, int(envconfig.NumThreads())),
		Accelerator: envconfig.Accelerator(),
		AssetDir:    envconfig.Assets(),
	}
}

// WithBackend waehlt die Factory aus der Registry.
func WithBackend(name string) Option {
	return func(o *LoadOptions) {
		o.Backend = name
	}
}

// WithThreads setzt die Interpreter-Threads. Werte <= 0 werden ignoriert.
func WithThreads(n int) Option {
	return func(o *LoadOptions) {
		if n > 0 {
			o.Threads = n
		}
	}
}

// WithAccelerator aktiviert/deaktiviert den Hardware-Delegate.
func WithAccelerator(enabled bool) Option {
	return func(o *LoadOptions) {
		o.Accelerator = enabled
	}
}

// WithAsset markiert den Modell-Schluessel als Asset.
func WithAsset(isAsset bool) Option {
	return func(o *LoadOptions) {
		o.IsAsset = isAsset
	}
}

// WithAssetDir setzt das Basisverzeichnis fuer Assets.
func WithAssetDir(dir string) Option {
	return func(o *LoadOptions) {
		if dir != "" {
			o.AssetDir = dir
		}
	}
}

// Apply wendet alle Options an.
func (o *LoadOptions) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// Validate prueft ob die LoadOptions gueltig sind.
func (o *LoadOptions) Validate() error {
	if o.Backend == "" {
		return ErrInvalidBackend
	}
	if o.Threads <= 0 {
		return ErrInvalidThreads
	}
	if o.IsAsset && o.AssetDir == "" {
		return ErrMissingAssetDir
	}
	return nil
}
