// config_features.go - Engine- und Pipeline-Defaults
//
// Dieses Modul enthaelt:
// - Engine-Auswahl und Thread-Anzahl
// - Pipeline-Defaults (Normalisierung, Seitenverhaeltnis)
package envconfig

// =============================================================================
// Engine-Konfiguration
// =============================================================================

var (
	// Backend waehlt die registrierte Engine-Factory
	Backend = StringWithDefault("TFLITE_BACKEND", "tflite")

	// NumThreads setzt die Interpreter-Threads
	// Konfigurierbar via TFLITE_NUM_THREADS
	NumThreads = Uint("TFLITE_NUM_THREADS", 1)

	// Accelerator aktiviert den Hardware-Delegate
	Accelerator = Bool("TFLITE_ACCELERATOR")
)

// =============================================================================
// Pipeline-Defaults
// =============================================================================

var (
	// Normalize schreibt float-Eingaben als (v - mean) / std
	Normalize = Bool("TFLITE_NORMALIZE")

	// MaintainAspect skaliert beide Achsen mit demselben Faktor
	MaintainAspect = Bool("TFLITE_MAINTAIN_ASPECT")
)
