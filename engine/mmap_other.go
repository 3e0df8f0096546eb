//go:build !unix

package engine

func mapFile(path string) ([]byte, func() error, error) {
	return readWhole(path)
}
