package bitmap

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/sramscan/internal/hexdump"
)

func TestGrayscaleLevels(t *testing.T) {
	img, err := Grayscale([]float64{0, 0.5, 1, 0.25}, 2, 2)
	if err != nil {
		t.Fatalf("grayscale: %v", err)
	}
	if got := img.GrayAt(0, 0).Y; got != 0 {
		t.Fatalf("pixel (0,0): expected 0, got %d", got)
	}
	if got := img.GrayAt(1, 0).Y; got != 128 {
		t.Fatalf("pixel (1,0): expected 128, got %d", got)
	}
	if got := img.GrayAt(0, 1).Y; got != 255 {
		t.Fatalf("pixel (0,1): expected 255, got %d", got)
	}
	if got := img.GrayAt(1, 1).Y; got != 64 {
		t.Fatalf("pixel (1,1): expected 64, got %d", got)
	}
}

func TestGrayscaleResolutionMismatch(t *testing.T) {
	if _, err := Grayscale(make([]float64, 8), 3, 3); err == nil {
		t.Fatalf("expected error for resolution not covering the values")
	}
	if _, err := Grayscale(make([]float64, 8), 0, 8); err == nil {
		t.Fatalf("expected error for zero width")
	}
}

func TestDiff(t *testing.T) {
	a := hexdump.Dump{Path: "a.hex", Data: []byte{0xFF, 0x00}}
	b := hexdump.Dump{Path: "b.hex", Data: []byte{0x0F, 0x01}}
	img, differing, err := Diff(a, b, 4, 4)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if differing != 5 {
		t.Fatalf("expected 5 differing bits, got %d", differing)
	}
	// 0xFF^0x0F: bits 0-3 differ, bits 4-7 match.
	if got := img.RGBAAt(0, 0); got.G != 0xFF {
		t.Fatalf("pixel (0,0) should be green, got %+v", got)
	}
	if got := img.RGBAAt(0, 1); got.G != 0 {
		t.Fatalf("pixel (0,1) should be black, got %+v", got)
	}
}

func TestMean(t *testing.T) {
	mean, err := Mean([][]float64{{0, 1}, {1, 0}})
	if err != nil {
		t.Fatalf("mean: %v", err)
	}
	if mean[0] != 0.5 || mean[1] != 0.5 {
		t.Fatalf("expected [0.5 0.5], got %v", mean)
	}
	if _, err := Mean(nil); err == nil {
		t.Fatalf("expected error for no maps")
	}
	if _, err := Mean([][]float64{{0}, {0, 1}}); err == nil {
		t.Fatalf("expected error for mismatched map sizes")
	}
}

func TestWritePNG(t *testing.T) {
	img, err := Grayscale([]float64{0, 1, 0.5, 0.5}, 2, 2)
	if err != nil {
		t.Fatalf("grayscale: %v", err)
	}
	path := filepath.Join(t.TempDir(), "map.png")
	if err := WritePNG(path, img); err != nil {
		t.Fatalf("write png: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open png: %v", err)
	}
	t.Cleanup(func() {
		_ = f.Close()
	})
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != 2 || bounds.Dy() != 2 {
		t.Fatalf("unexpected bounds: %v", bounds)
	}
}
