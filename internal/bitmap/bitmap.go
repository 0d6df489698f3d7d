// Package bitmap renders statistic arrays as grayscale images.
package bitmap

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/verte-zerg/sramscan/internal/hexdump"
)

// Grayscale maps values in [0, 1] onto an 8-bit grayscale image of the given
// resolution, one pixel per SRAM bit in dump order. The resolution must
// match the value count exactly.
func Grayscale(values []float64, width, height int) (*image.Gray, error) {
	if err := checkResolution(len(values), width, height); err != nil {
		return nil, err
	}
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i, v := range values {
		img.SetGray(i%width, i/width, color.Gray{Y: level(v)})
	}
	return img, nil
}

// Diff renders the positions where two dumps differ as green pixels on a
// black background.
func Diff(a, b hexdump.Dump, width, height int) (*image.RGBA, int, error) {
	if a.Bits() != b.Bits() {
		return nil, 0, fmt.Errorf("dump sizes differ: %d vs %d bits", a.Bits(), b.Bits())
	}
	if err := checkResolution(a.Bits(), width, height); err != nil {
		return nil, 0, err
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	differing := 0
	for i := 0; i < a.Bits(); i++ {
		c := color.RGBA{A: 0xFF}
		if a.Bit(i) != b.Bit(i) {
			c.G = 0xFF
			differing++
		}
		img.SetRGBA(i%width, i/width, c)
	}
	return img, differing, nil
}

// Mean averages several equally sized statistic arrays element-wise, for
// cumulative maps across devices.
func Mean(maps [][]float64) ([]float64, error) {
	if len(maps) == 0 {
		return nil, fmt.Errorf("no maps to average")
	}
	size := len(maps[0])
	for _, m := range maps[1:] {
		if len(m) != size {
			return nil, fmt.Errorf("map sizes differ: %d vs %d", len(m), size)
		}
	}
	out := make([]float64, size)
	for _, m := range maps {
		for i, v := range m {
			out[i] += v
		}
	}
	n := float64(len(maps))
	for i := range out {
		out[i] /= n
	}
	return out, nil
}

// WritePNG encodes an image to a PNG file.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close after a failed encode.
			_ = cerr
		}
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close image file: %w", err)
	}
	return nil
}

func checkResolution(bits, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", width, height)
	}
	if width*height != bits {
		return fmt.Errorf("resolution %dx%d does not cover %d bits", width, height, bits)
	}
	return nil
}

func level(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
