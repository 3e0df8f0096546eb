package tensor

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tflitebridge/tflite/vision"
)

func imageSpec(size, channels int, t ElementType) Spec {
	return Spec{Shape: []int{1, size, size, channels}, Type: t}
}

func filledImage(size int, r, g, b uint8) *vision.PixelImage {
	img := vision.NewPixelImage(size, size, vision.FormatRGBA8)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, r, g, b, 0xFF)
		}
	}
	return img
}

func float32Bytes(vals ...float32) []byte {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.NativeEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func TestParseElementType(t *testing.T) {
	tests := []struct {
		in      string
		want    ElementType
		wantErr bool
	}{
		{"uint8", Uint8, false},
		{"FLOAT32", Float32, false},
		{" f16 ", Float16, false},
		{"int64", TypeUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseElementType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseElementType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseElementType(%q) = %v, erwartet %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSpecSizes(t *testing.T) {
	s := imageSpec(224, 3, Float32)
	if got := s.NumElements(); got != 224*224*3 {
		t.Errorf("NumElements() = %d, erwartet %d", got, 224*224*3)
	}
	if got := s.ByteSize(); got != 224*224*3*4 {
		t.Errorf("ByteSize() = %d, erwartet %d", got, 224*224*3*4)
	}
	if got := (Spec{Type: Uint8}).NumElements(); got != 0 {
		t.Errorf("NumElements() ohne Shape = %d, erwartet 0", got)
	}
}

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		ok   bool
	}{
		{"rgb", imageSpec(4, 3, Uint8), true},
		{"gray", imageSpec(4, 1, Float32), true},
		{"rank3", Spec{Shape: []int{4, 4, 3}, Type: Uint8}, false},
		{"batch2", Spec{Shape: []int{2, 4, 4, 3}, Type: Uint8}, false},
		{"not square", Spec{Shape: []int{1, 4, 5, 3}, Type: Uint8}, false},
		{"four channels", imageSpec(4, 4, Uint8), false},
		{"unknown type", imageSpec(4, 3, TypeUnknown), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.ValidateImage()
			if (err == nil) != tt.ok {
				t.Errorf("ValidateImage() = %v, ok erwartet %v", err, tt.ok)
			}
		})
	}
}

func TestEncodeUint8RGB(t *testing.T) {
	img := vision.NewPixelImage(2, 2, vision.FormatRGBA8)
	img.SetRGBA(0, 0, 1, 2, 3, 0xFF)
	img.SetRGBA(1, 0, 4, 5, 6, 0xFF)
	img.SetRGBA(0, 1, 7, 8, 9, 0xFF)
	img.SetRGBA(1, 1, 10, 11, 12, 0xFF)

	buf, err := Encode(img, imageSpec(2, 3, Uint8), EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	if diff := cmp.Diff(want, buf); diff != "" {
		t.Errorf("Encode() mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeGrayUsesChannelOr(t *testing.T) {
	buf, err := Encode(filledImage(2, 200, 200, 200), imageSpec(2, 1, Uint8), EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if diff := cmp.Diff([]byte{200, 200, 200, 200}, buf); diff != "" {
		t.Errorf("Encode() mismatch (-want +got):\n%s", diff)
	}

	buf, err = Encode(filledImage(1, 0x10, 0x01, 0x80), imageSpec(1, 1, Uint8), EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if buf[0] != 0x91 {
		t.Errorf("Encode() = %#x, erwartet 0x91", buf[0])
	}
}

func TestEncodeUint8IgnoresNormalization(t *testing.T) {
	buf, err := Encode(filledImage(1, 200, 100, 0), imageSpec(1, 3, Uint8), EncodeOptions{Mean: 127.5, Std: 127.5, Normalize: true})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if diff := cmp.Diff([]byte{200, 100, 0}, buf); diff != "" {
		t.Errorf("Encode() mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeFloat32(t *testing.T) {
	spec := imageSpec(1, 3, Float32)

	raw, err := Encode(filledImage(1, 255, 0, 128), spec, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if diff := cmp.Diff(float32Bytes(255, 0, 128), raw); diff != "" {
		t.Errorf("Encode() raw mismatch (-want +got):\n%s", diff)
	}

	norm, err := Encode(filledImage(1, 255, 0, 128), spec, EncodeOptions{Mean: 127.5, Std: 127.5, Normalize: true})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := DecodeVector(norm, spec)
	if err != nil {
		t.Fatalf("DecodeVector() error = %v", err)
	}
	want := []float32{1, -1, (128 - 127.5) / 127.5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("normalized values mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeFloat16(t *testing.T) {
	spec := imageSpec(1, 3, Float16)
	buf, err := Encode(filledImage(1, 200, 1, 0), spec, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(buf) != 6 {
		t.Fatalf("len(buf) = %d, erwartet 6", len(buf))
	}

	got, err := DecodeVector(buf, spec)
	if err != nil {
		t.Fatalf("DecodeVector() error = %v", err)
	}
	if diff := cmp.Diff([]float32{200, 1, 0}, got); diff != "" {
		t.Errorf("float16 mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeShapeMismatch(t *testing.T) {
	_, err := Encode(filledImage(3, 0, 0, 0), imageSpec(4, 3, Uint8), EncodeOptions{})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Encode() error = %v, erwartet ErrShapeMismatch", err)
	}

	_, err = Encode(filledImage(4, 0, 0, 0), imageSpec(4, 3, Float32), EncodeOptions{Normalize: true})
	if err == nil {
		t.Error("Encode() mit std 0 sollte fehlschlagen")
	}
}

func TestDecodeVectorDequantize(t *testing.T) {
	spec := Spec{Shape: []int{1, 3}, Type: Uint8, Quantization: Quantization{Scale: 0.5, ZeroPoint: 10}}
	got, err := DecodeVector([]byte{10, 20, 0}, spec)
	if err != nil {
		t.Fatalf("DecodeVector() error = %v", err)
	}
	if diff := cmp.Diff([]float32{0, 5, -5}, got); diff != "" {
		t.Errorf("DecodeVector() mismatch (-want +got):\n%s", diff)
	}

	spec.Quantization = Quantization{}
	got, err = DecodeVector([]byte{10, 20, 0}, spec)
	if err != nil {
		t.Fatalf("DecodeVector() error = %v", err)
	}
	if diff := cmp.Diff([]float32{10, 20, 0}, got); diff != "" {
		t.Errorf("DecodeVector() raw mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeVectorShortBuffer(t *testing.T) {
	_, err := DecodeVector(make([]byte, 7), Spec{Shape: []int{1, 2}, Type: Float32})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("DecodeVector() error = %v, erwartet ErrShapeMismatch", err)
	}
}

func TestDecodeImageRounding(t *testing.T) {
	spec := imageSpec(1, 3, Float32)
	img, err := DecodeImage(float32Bytes(2.5, 255.6, -1.2), spec, 0, 1)
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}

	r, g, b, a := img.RGBAAt(0, 0)
	// 2.5 -> 3, 255.6 -> 256 & 0xFF, -1.2 -> -1 & 0xFF
	if r != 3 || g != 0 || b != 255 || a != 0xFF {
		t.Errorf("RGBAAt(0,0) = (%d,%d,%d,%d), erwartet (3,0,255,255)", r, g, b, a)
	}
}

func TestRoundTripFloat(t *testing.T) {
	spec := imageSpec(2, 3, Float32)
	src := vision.NewPixelImage(2, 2, vision.FormatRGBA8)
	src.SetRGBA(0, 0, 0, 1, 2, 0xFF)
	src.SetRGBA(1, 0, 127, 128, 129, 0xFF)
	src.SetRGBA(0, 1, 200, 201, 202, 0xFF)
	src.SetRGBA(1, 1, 253, 254, 255, 0xFF)

	opts := EncodeOptions{Mean: 127.5, Std: 127.5, Normalize: true}
	buf, err := Encode(src, spec, opts)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got, err := DecodeImage(buf, spec, opts.Mean, opts.Std)
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	if diff := cmp.Diff(src.Pix, got.Pix); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripUint8(t *testing.T) {
	spec := imageSpec(3, 3, Uint8)
	src := filledImage(3, 9, 99, 199)

	buf, err := Encode(src, spec, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := DecodeImage(buf, spec, 0, 1)
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	if diff := cmp.Diff(src.Pix, got.Pix); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeImageGray(t *testing.T) {
	img, err := DecodeImage([]byte{42}, imageSpec(1, 1, Uint8), 0, 1)
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	r, g, b, a := img.RGBAAt(0, 0)
	if r != 42 || g != 42 || b != 42 || a != 0xFF {
		t.Errorf("RGBAAt(0,0) = (%d,%d,%d,%d), erwartet (42,42,42,255)", r, g, b, a)
	}
}

func TestDecodeImageShortBuffer(t *testing.T) {
	_, err := DecodeImage(make([]byte, 11), imageSpec(2, 3, Uint8), 0, 1)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("DecodeImage() error = %v, erwartet ErrShapeMismatch", err)
	}
}

func TestCheckSize(t *testing.T) {
	spec := Spec{Shape: []int{1, 4}, Type: Float32}
	if err := CheckSize(make([]byte, 16), spec); err != nil {
		t.Errorf("CheckSize() error = %v", err)
	}
	if err := CheckSize(make([]byte, 15), spec); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("CheckSize() error = %v, erwartet ErrShapeMismatch", err)
	}
}
