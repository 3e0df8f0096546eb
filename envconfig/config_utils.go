// config_utils.go - Utility-Funktionen und Export fuer Konfiguration
//
// Dieses Modul enthaelt:
// - BoolWithDefault/Bool: Boolean-Getter mit Default-Wert
// - String/StringWithDefault: String-Getter
// - Uint: Integer-Getter mit Default-Wert
// - EnvVar: Struktur fuer Environment-Variablen-Info
// - AsMap: Gibt alle Konfigurationen als Map zurueck
// - Values: Gibt alle Konfigurationswerte als String-Map zurueck
package envconfig

import (
	"fmt"
	"log/slog"
	"strconv"
)

// =============================================================================
// Boolean-Getter
// =============================================================================

// BoolWithDefault gibt eine Funktion zurueck, die einen Bool mit Default-Wert liest
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool gibt eine Funktion zurueck, die einen Bool liest (Default: false)
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// =============================================================================
// String-Getter
// =============================================================================

// String gibt eine Funktion zurueck, die einen String liest
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

// StringWithDefault gibt eine Funktion zurueck, die bei leerem Wert den Default liefert
func StringWithDefault(key, defaultValue string) func() string {
	return func() string {
		if s := Var(key); s != "" {
			return s
		}
		return defaultValue
	}
}

// =============================================================================
// Integer-Getter
// =============================================================================

// Uint gibt eine Funktion zurueck, die einen uint mit Default-Wert liest
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// =============================================================================
// Export-Strukturen und -Funktionen
// =============================================================================

// EnvVar repraesentiert eine Environment-Variable mit Metadaten
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
// Enthaelt Namen, aktuelle Werte und Beschreibungen
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"TFLITE_DEBUG":           {"TFLITE_DEBUG", LogLevel(), "Show additional debug information (e.g. TFLITE_DEBUG=1)"},
		"TFLITE_HOST":            {"TFLITE_HOST", Host(), "IP Address for the bridge server (default 127.0.0.1:8765)"},
		"TFLITE_ORIGINS":         {"TFLITE_ORIGINS", AllowedOrigins(), "A comma separated list of allowed origins"},
		"TFLITE_ASSETS":          {"TFLITE_ASSETS", Assets(), "Directory used to resolve asset model keys"},
		"TFLITE_BACKEND":         {"TFLITE_BACKEND", Backend(), "Engine backend to load models with (default \"tflite\")"},
		"TFLITE_NUM_THREADS":     {"TFLITE_NUM_THREADS", NumThreads(), "Interpreter threads (default 1)"},
		"TFLITE_ACCELERATOR":     {"TFLITE_ACCELERATOR", Accelerator(), "Use the hardware delegate when available"},
		"TFLITE_NORMALIZE":       {"TFLITE_NORMALIZE", Normalize(), "Normalize float inputs with mean/std by default"},
		"TFLITE_MAINTAIN_ASPECT": {"TFLITE_MAINTAIN_ASPECT", MaintainAspect(), "Keep the aspect ratio when resampling by default"},
	}
}

// Values gibt alle Konfigurationswerte als String-Map zurueck
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
