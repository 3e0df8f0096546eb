package cmd

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tflitebridge/tflite/api"
	"github.com/tflitebridge/tflite/engine"
	"github.com/tflitebridge/tflite/engine/enginetest"
	"github.com/tflitebridge/tflite/tensor"
)

// useFake - Ersetzt die Registry fuer die Dauer des Tests
func useFake(t *testing.T, eng *enginetest.Engine) {
	t.Helper()

	r := engine.NewRegistry()
	r.Register("fake", enginetest.Factory(eng))

	prev := registry
	registry = r
	t.Cleanup(func() { registry = prev })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := NewCLI()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeImage(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return writeTemp(t, "image.png", buf.Bytes())
}

func classifier() *enginetest.Engine {
	eng := enginetest.New(
		tensor.Spec{Shape: []int{1, 8, 8, 3}, Type: tensor.Uint8},
		tensor.Spec{Shape: []int{1, 3}, Type: tensor.Float32},
	)
	eng.InvokeFunc = func([]byte) ([]byte, error) {
		buf := make([]byte, 12)
		for i, v := range []float32{0.05, 0.7, 0.25} {
			binary.NativeEndian.PutUint32(buf[i*4:], math.Float32bits(v))
		}
		return buf, nil
	}
	return eng
}

func TestRunCommandRecognitions(t *testing.T) {
	eng := classifier()
	useFake(t, eng)

	model := writeTemp(t, "model.tflite", []byte("TFL3"))
	labelFile := writeTemp(t, "labels.txt", []byte("cat\ndog\nbird\n"))

	out, err := execute(t, "run", model, writeImage(t, 16, 16), "--backend", "fake", "--labels", labelFile)
	require.NoError(t, err)

	require.Contains(t, out, "LABEL")
	require.Contains(t, out, "dog")
	require.Contains(t, out, "70.0%")
	require.Contains(t, out, "bird")
	require.NotContains(t, out, "cat")
	require.Contains(t, out, "inference took")

	require.Equal(t, int64(1), eng.Invocations.Load())
	require.True(t, eng.Closed(), "Engine sollte nach dem Command geschlossen sein")
}

func TestRunCommandJSON(t *testing.T) {
	useFake(t, classifier())

	model := writeTemp(t, "model.tflite", []byte("TFL3"))
	out, err := execute(t, "run", model, writeImage(t, 8, 8), "--backend", "fake", "--format", "json")
	require.NoError(t, err)

	var resp api.RunResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, []float32{0.05, 0.7, 0.25}, resp.Output)
	require.Empty(t, resp.Recognitions)
	require.NotEmpty(t, resp.ID)
}

func TestRunCommandVector(t *testing.T) {
	useFake(t, classifier())

	model := writeTemp(t, "model.tflite", []byte("TFL3"))
	out, err := execute(t, "run", model, writeImage(t, 8, 8), "--backend", "fake")
	require.NoError(t, err)
	require.Contains(t, out, "INDEX")
	require.Contains(t, out, "0.7")
}

func TestRunCommandErrors(t *testing.T) {
	useFake(t, classifier())

	model := writeTemp(t, "model.tflite", []byte("TFL3"))

	_, err := execute(t, "run", model, filepath.Join(t.TempDir(), "missing.png"), "--backend", "fake")
	require.Error(t, err)
	require.Contains(t, err.Error(), "IO_ERROR")

	_, err = execute(t, "run", filepath.Join(t.TempDir(), "missing.tflite"), writeImage(t, 8, 8), "--backend", "fake")
	require.Error(t, err)
	require.Contains(t, err.Error(), "LOAD_FAILED")

	_, err = execute(t, "run", model)
	require.Error(t, err)
}

func TestFrameCommand(t *testing.T) {
	eng := enginetest.New(
		tensor.Spec{Shape: []int{1, 2, 2, 1}, Type: tensor.Uint8},
		tensor.Spec{Shape: []int{1, 2}, Type: tensor.Float32},
	)
	useFake(t, eng)

	y := bytes.Repeat([]byte{235}, 16)
	uv := []byte{128, 128, 128, 128}

	model := writeTemp(t, "model.tflite", []byte("TFL3"))
	out, err := execute(t, "frame", model,
		writeTemp(t, "y.bin", y), writeTemp(t, "u.bin", uv), writeTemp(t, "v.bin", uv),
		"--backend", "fake", "--width", "4", "--height", "4", "--rotation", "180")
	require.NoError(t, err)
	require.Contains(t, out, "VALUE")
	require.Equal(t, []byte{255, 255, 255, 255}, eng.LastInput())

	// Das Command schliesst seine Engine, der zweite Lauf braucht eine neue
	useFake(t, enginetest.New(eng.In, eng.Out))
	_, err = execute(t, "frame", model,
		writeTemp(t, "y.bin", y[:10]), writeTemp(t, "u.bin", uv), writeTemp(t, "v.bin", uv),
		"--backend", "fake", "--width", "4", "--height", "4")
	require.Error(t, err)
	require.Contains(t, err.Error(), "INVALID_REQUEST")
}

func TestPix2PixCommand(t *testing.T) {
	eng := enginetest.New(
		tensor.Spec{Shape: []int{1, 4, 4, 3}, Type: tensor.Uint8},
		tensor.Spec{Shape: []int{1, 4, 4, 3}, Type: tensor.Uint8},
	)
	eng.InvokeFunc = func(in []byte) ([]byte, error) { return append([]byte(nil), in...), nil }
	useFake(t, eng)

	model := writeTemp(t, "model.tflite", []byte("TFL3"))
	dst := filepath.Join(t.TempDir(), "out.png")
	out, err := execute(t, "pix2pix", model, writeImage(t, 4, 4), dst, "--backend", "fake")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "wrote "+dst), out)

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
	r, g, b, _ := img.At(1, 1).RGBA()
	require.Equal(t, []uint32{10, 20, 30}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestBenchCommand(t *testing.T) {
	eng := classifier()
	useFake(t, eng)

	model := writeTemp(t, "model.tflite", []byte("TFL3"))
	csvPath := filepath.Join(t.TempDir(), "bench.csv")
	out, err := execute(t, "bench", model, "--backend", "fake",
		"--iterations", "3", "--warmup", "1", "--sizes", "32x32", "--csv", csvPath)
	require.NoError(t, err)
	require.Contains(t, out, "32x32")
	require.Equal(t, int64(4), eng.Invocations.Load())

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "model;backend;image_size"), string(data))

	_, err = execute(t, "bench", model, "--backend", "fake", "--iterations", "0")
	require.Error(t, err)
}

func TestInfoCommand(t *testing.T) {
	useFake(t, classifier())

	out, err := execute(t, "info")
	require.NoError(t, err)
	require.Contains(t, out, "TFLITE_HOST")
	require.Contains(t, out, "TFLITE_NUM_THREADS")
	require.Contains(t, out, "backends: fake")
}

func TestStatusWithoutServer(t *testing.T) {
	// Port 1 ist praktisch nie belegt
	t.Setenv("TFLITE_HOST", "127.0.0.1:1")

	_, err := execute(t, "status")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not responding")
}
