// MODUL: yuv_test
// ZWECK: Tests fuer NV21-Zusammensetzung und YUV->RGBA Konvertierung
// INPUT: Synthetische Planes mit bekannten Werten
// OUTPUT: Testresultate
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: testing, go-cmp
// HINWEISE: Reihenfolge Y, V, U ist Absicht und wird hier festgeschrieben

package vision

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReassembleNV21Order(t *testing.T) {
	p := Planes{
		Y: []byte{1, 1, 1, 1},
		U: []byte{2, 2},
		V: []byte{3, 3, 3},
	}

	got := ReassembleNV21(p)
	want := []byte{1, 1, 1, 1, 3, 3, 3, 2, 2}

	if len(got) != len(p.Y)+len(p.U)+len(p.V) {
		t.Errorf("Laenge = %d, erwartet %d", len(got), p.Len())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NV21 Reihenfolge falsch (-want +got):\n%s", diff)
	}
}

func TestNV21FrameSize(t *testing.T) {
	tests := []struct {
		w, h, want int
	}{
		{2, 2, 6},
		{4, 2, 12},
		{640, 480, 460800},
		{3, 3, 9 + 4*2},
	}

	for _, tt := range tests {
		if got := NV21FrameSize(tt.w, tt.h); got != tt.want {
			t.Errorf("NV21FrameSize(%d,%d) = %d, erwartet %d", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestConvertYUVToRGBAConstant(t *testing.T) {
	tests := []struct {
		name    string
		y, u, v byte
		r, g, b uint8
	}{
		{"Schwarz", 16, 128, 128, 0, 0, 0},
		{"Weiss", 235, 128, 128, 255, 255, 255},
		{"Grau", 126, 128, 128, 128, 128, 128},
		{"Rot", 81, 90, 240, 255, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Planes{
				Y: []byte{tt.y, tt.y, tt.y, tt.y},
				U: []byte{tt.u},
				V: []byte{tt.v},
			}

			img := ConvertYUVToRGBA(p, 2, 2)
			for y := 0; y < 2; y++ {
				for x := 0; x < 2; x++ {
					r, g, b, a := img.RGBAAt(x, y)
					if r != tt.r || g != tt.g || b != tt.b || a != 0xFF {
						t.Errorf("Pixel(%d,%d) = (%d,%d,%d,%d), erwartet (%d,%d,%d,255)", x, y, r, g, b, a, tt.r, tt.g, tt.b)
					}
				}
			}
		})
	}
}

// Die V-Plane wird vor der U-Plane gelesen. Vertauschte Planes ergeben eine andere Farbe.
func TestConvertYUVToRGBAPlaneOrder(t *testing.T) {
	y := []byte{81, 81, 81, 81}
	red := ConvertYUVToRGBA(Planes{Y: y, U: []byte{90}, V: []byte{240}}, 2, 2)
	swapped := ConvertYUVToRGBA(Planes{Y: y, U: []byte{240}, V: []byte{90}}, 2, 2)

	if r, _, _, _ := red.RGBAAt(0, 0); r != 255 {
		t.Errorf("Rot-Kanal = %d, erwartet 255", r)
	}
	if cmp.Equal(red.Pix, swapped.Pix) {
		t.Error("Vertauschte Planes duerfen nicht dasselbe Bild ergeben")
	}
}

// Android liefert U und V als verschraenkte Sichten mit je w*h/2-1 Bytes
func TestConvertYUVToRGBAInterleavedViews(t *testing.T) {
	w, h := 4, 4
	p := Planes{
		Y: make([]byte, w*h),
		U: make([]byte, w*h/2-1),
		V: make([]byte, w*h/2-1),
	}
	for i := range p.Y {
		p.Y[i] = 126
	}
	for i := range p.U {
		p.U[i], p.V[i] = 128, 128
	}

	img := ConvertYUVToRGBA(p, w, h)
	if err := img.Validate(); err != nil {
		t.Fatal(err)
	}
	if r, g, b, _ := img.RGBAAt(3, 3); r != 128 || g != 128 || b != 128 {
		t.Errorf("Pixel = (%d,%d,%d), erwartet Grau 128", r, g, b)
	}
}

func TestConvertYUVToRGBADeterministic(t *testing.T) {
	w, h := 64, 48
	rng := rand.New(rand.NewPCG(1, 2))
	p := Planes{
		Y: make([]byte, w*h),
		U: make([]byte, w*h/4),
		V: make([]byte, w*h/4),
	}
	for _, plane := range [][]byte{p.Y, p.U, p.V} {
		for i := range plane {
			plane[i] = byte(rng.IntN(256))
		}
	}

	// Sequentielle Referenz
	nv21 := ReassembleNV21(p)
	want := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			uv := w*h + (y/2)*w + (x/2)*2
			r, g, b := yuvToRGB(nv21[y*w+x], nv21[uv+1], nv21[uv])
			o := (y*w + x) * 4
			want[o], want[o+1], want[o+2], want[o+3] = r, g, b, 0xFF
		}
	}

	for i := 0; i < 3; i++ {
		got := ConvertYUVToRGBA(p, w, h)
		if diff := cmp.Diff(want, got.Pix); diff != "" {
			t.Fatalf("Lauf %d weicht ab (-want +got):\n%s", i, diff)
		}
	}
}

func TestConvertYUVToRGBAPanics(t *testing.T) {
	tests := []struct {
		name string
		p    Planes
		w, h int
	}{
		{"Y zu kurz", Planes{Y: make([]byte, 3), U: make([]byte, 1), V: make([]byte, 1)}, 2, 2},
		{"Chroma fehlt", Planes{Y: make([]byte, 4), U: nil, V: make([]byte, 1)}, 2, 2},
		{"Ungueltige Groesse", Planes{}, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Erwartet panic bei falschen Plane-Laengen")
				}
			}()
			ConvertYUVToRGBA(tt.p, tt.w, tt.h)
		})
	}
}

func TestConvertRGBToRGBA(t *testing.T) {
	img := ConvertRGBToRGBA([]byte{10, 20, 30, 40, 50, 60}, 2, 1)
	want := []byte{10, 20, 30, 255, 40, 50, 60, 255}
	if diff := cmp.Diff(want, img.Pix); diff != "" {
		t.Errorf("RGBA falsch (-want +got):\n%s", diff)
	}
}
