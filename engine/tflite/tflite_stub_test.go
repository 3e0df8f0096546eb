//go:build !tflite

package tflite

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/tflitebridge/tflite/engine"
)

func TestRegisteredInDefaultRegistry(t *testing.T) {
	if !slices.Contains(engine.DefaultRegistry.List(), Name) {
		t.Fatalf("Backend %q nicht registriert: %v", Name, engine.DefaultRegistry.List())
	}
}

func TestStubUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.tflite")
	if err := os.WriteFile(path, []byte("TFL3"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := engine.Load(path, engine.WithBackend(Name))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Load() error = %v, erwartet ErrUnavailable", err)
	}
	if Available {
		t.Error("Available = true ohne tflite Build-Tag")
	}
}
