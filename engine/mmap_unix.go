//go:build unix

package engine

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

// mapFile mappt die Datei read-only; der Deskriptor wird sofort geschlossen
func mapFile(path string) ([]byte, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}

	size := fi.Size()
	switch {
	case size == 0:
		return nil, nil, ErrEmptyModel
	case size > math.MaxInt:
		return nil, nil, fmt.Errorf("engine: model too large (%d bytes)", size)
	case !fi.Mode().IsRegular():
		return readWhole(path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		// z.B. Dateisysteme ohne mmap-Unterstuetzung
		return readWhole(path)
	}

	return data, func() error { return unix.Munmap(data) }, nil
}
