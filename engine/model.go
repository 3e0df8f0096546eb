// MODUL: model
// ZWECK: Modell-Schluessel aufloesen und Modell-Bytes bereitstellen
// INPUT: Schluessel (Pfad oder Asset-Name), LoadOptions
// OUTPUT: Model mit Pfad und Bytes
// NEBENEFFEKTE: Mappt die Datei read-only in den Speicher (unix) oder liest sie komplett
// ABHAENGIGKEITEN: mmap_unix.go / mmap_other.go
// HINWEISE: Data bleibt gueltig bis Close; Engines uebernehmen das Model

package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	ErrModelNotFound = errors.New("engine: model file not found")
	ErrEmptyModel    = errors.New("engine: model file is empty")
	ErrInvalidKey    = errors.New("engine: invalid model key")
)

// Model sind die Bytes einer Modell-Datei.
type Model struct {
	Key  string
	Path string
	Data []byte

	once    sync.Once
	release func() error
}

// ResolvePath bildet einen Modell-Schluessel auf einen Dateipfad ab.
// Asset-Schluessel muessen relativ sein und bleiben unter AssetDir.
func ResolvePath(key string, opts LoadOptions) (string, error) {
	key = strings.TrimPrefix(key, "file://")
	if key == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}

	if !opts.IsAsset {
		return key, nil
	}
	if opts.AssetDir == "" {
		return "", ErrMissingAssetDir
	}

	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: asset %q escapes the asset directory", ErrInvalidKey, key)
	}
	return filepath.Join(opts.AssetDir, rel), nil
}

// OpenModel loest key auf und stellt die Modell-Bytes bereit.
func OpenModel(key string, opts LoadOptions) (*Model, error) {
	path, err := ResolvePath(key, opts)
	if err != nil {
		return nil, err
	}

	data, release, err := mapFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
	} else if err != nil {
		return nil, fmt.Errorf("engine: open %s: %w", path, err)
	}

	return &Model{Key: key, Path: path, Data: data, release: release}, nil
}

// NewModel umhuellt bereits geladene Bytes (z.B. aus einem Upload).
func NewModel(key string, data []byte) *Model {
	return &Model{Key: key, Data: data}
}

// Close gibt das Mapping frei. Mehrfache Aufrufe sind erlaubt.
func (m *Model) Close() error {
	var err error
	m.once.Do(func() {
		if m.release != nil {
			err = m.release()
		}
		m.Data = nil
	})
	return err
}

// Size gibt die Groesse der Modell-Datei in Bytes zurueck.
func (m *Model) Size() int {
	return len(m.Data)
}

func readWhole(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	if len(data) == 0 {
		return nil, nil, ErrEmptyModel
	}
	return data, nil, nil
}
