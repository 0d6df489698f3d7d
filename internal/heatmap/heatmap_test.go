package heatmap

import (
	"strings"
	"testing"
)

func TestRenderMonoShape(t *testing.T) {
	// 2x2 map fits in one terminal line of two half-block cells.
	out, err := RenderMono([]float64{0, 0, 1, 1}, 2, 2, 2)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if len(lines[0]) != 2 {
		t.Fatalf("expected 2 cells, got %q", lines[0])
	}
	// Top 0 and bottom 1 average to mid-ramp.
	if lines[0] != "==" {
		t.Fatalf("expected mid-ramp cells, got %q", lines[0])
	}
}

func TestRenderMonoExtremes(t *testing.T) {
	out, err := RenderMono([]float64{0, 1}, 2, 1, 2)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	line := strings.TrimRight(out, "\n")
	// Single row: bottom half defaults to 0, so cells show halved values.
	if line[0] != ' ' {
		t.Fatalf("expected blank cell for 0, got %q", line[0])
	}
	if line[1] == ' ' {
		t.Fatalf("expected shaded cell for 1, got %q", line[1])
	}
}

func TestRenderResolutionMismatch(t *testing.T) {
	if _, err := RenderMono(make([]float64, 5), 2, 2, 2); err == nil {
		t.Fatalf("expected error for resolution not covering the values")
	}
}

func TestResampleAveragesBlocks(t *testing.T) {
	// 4x2 map squeezed into 2 columns averages 2x2 blocks.
	values := []float64{
		1, 1, 0, 0,
		1, 1, 0, 0,
	}
	grid := resample(values, 4, 2, 2)
	if len(grid) != 1 || len(grid[0]) != 2 {
		t.Fatalf("unexpected grid shape: %dx%d", len(grid), len(grid[0]))
	}
	if grid[0][0] != 1 || grid[0][1] != 0 {
		t.Fatalf("unexpected block averages: %v", grid[0])
	}
}

func TestResamplePassThrough(t *testing.T) {
	values := []float64{0.25, 0.75}
	grid := resample(values, 2, 1, 10)
	if len(grid) != 1 || len(grid[0]) != 2 {
		t.Fatalf("unexpected grid shape")
	}
	if grid[0][0] != 0.25 || grid[0][1] != 0.75 {
		t.Fatalf("pass-through should not change values: %v", grid[0])
	}
}
