// Package heatmap renders statistic maps as terminal heatmaps.
//
// Each output row packs two map rows using the upper-half-block glyph, with
// the foreground carrying the top cell and the background the bottom cell.
// When color is unavailable the same grid degrades to an ASCII shade ramp.
package heatmap

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	halfBlock           = "▀"
	shadeRamp           = " .:-=+*#%@"
	terminalWidthBackup = 80
)

// Render draws a width*height statistic map, downsampled to at most maxCols
// terminal columns. Values are expected in [0, 1].
func Render(values []float64, width, height, maxCols int) (string, error) {
	return render(values, width, height, maxCols, colorEnabled())
}

// RenderMono draws the map with the ASCII ramp regardless of color support.
func RenderMono(values []float64, width, height, maxCols int) (string, error) {
	return render(values, width, height, maxCols, false)
}

func render(values []float64, width, height, maxCols int, useColor bool) (string, error) {
	if width <= 0 || height <= 0 || width*height != len(values) {
		return "", fmt.Errorf("resolution %dx%d does not cover %d values", width, height, len(values))
	}
	if maxCols <= 0 {
		maxCols = AutoWidth()
	}

	grid := resample(values, width, height, maxCols)
	cols := len(grid[0])
	rows := len(grid)

	var b strings.Builder
	// Two grid rows per terminal line.
	for y := 0; y < rows; y += 2 {
		for x := 0; x < cols; x++ {
			top := grid[y][x]
			bottom := 0.0
			if y+1 < rows {
				bottom = grid[y+1][x]
			}
			if useColor {
				style := lipgloss.NewStyle().
					Foreground(grayColor(top)).
					Background(grayColor(bottom))
				b.WriteString(style.Render(halfBlock))
			} else {
				b.WriteByte(shadeChar((top + bottom) / 2))
			}
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// AutoWidth reports a rendering width that fits the current terminal.
func AutoWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return terminalWidthBackup
	}
	return w
}

// resample reduces the map to at most maxCols columns by block averaging,
// keeping the aspect ratio. Maps narrower than maxCols pass through.
func resample(values []float64, width, height, maxCols int) [][]float64 {
	factor := 1
	for (width+factor-1)/factor > maxCols {
		factor++
	}
	outW := (width + factor - 1) / factor
	outH := (height + factor - 1) / factor
	grid := make([][]float64, outH)
	for oy := 0; oy < outH; oy++ {
		grid[oy] = make([]float64, outW)
		for ox := 0; ox < outW; ox++ {
			var sum float64
			n := 0
			for y := oy * factor; y < (oy+1)*factor && y < height; y++ {
				for x := ox * factor; x < (ox+1)*factor && x < width; x++ {
					sum += values[y*width+x]
					n++
				}
			}
			if n > 0 {
				grid[oy][ox] = sum / float64(n)
			}
		}
	}
	return grid
}

func grayColor(v float64) lipgloss.Color {
	l := clampLevel(v)
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", l, l, l))
}

func shadeChar(v float64) byte {
	idx := int(v * float64(len(shadeRamp)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(shadeRamp) {
		idx = len(shadeRamp) - 1
	}
	return shadeRamp[idx]
}

func clampLevel(v float64) int {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return int(v*255 + 0.5)
}

func colorEnabled() bool {
	return os.Getenv("NO_COLOR") == ""
}
