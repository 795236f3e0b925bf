package workspace

import (
	"math"
	"testing"
)

func TestToModelSpace(t *testing.T) {
	m := Mapper{Resolution: 256}

	tests := []struct {
		name          string
		px, py        int
		width, height int
		want          Point
	}{
		{"origin", 0, 0, 1000, 800, Point{0, 0}},
		{"center", 500, 400, 1000, 800, Point{128, 128}},
		{"far corner", 1000, 800, 1000, 800, Point{256, 256}},
		{"rounds to nearest", 3, 3, 1000, 1000, Point{1, 1}},
		{"square image", 100, 200, 400, 400, Point{64, 128}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.ToModelSpace(tt.px, tt.py, tt.width, tt.height)
			if got != tt.want {
				t.Errorf("ToModelSpace(%d, %d, %d, %d) = %v, want %v",
					tt.px, tt.py, tt.width, tt.height, got, tt.want)
			}
		})
	}
}

func TestToModelSpaceRoundTrip(t *testing.T) {
	// Mapping a pixel into model space and back must land within one
	// rounding unit of the original position.
	m := Mapper{Resolution: 256}
	width, height := 1000, 800
	unitX := float64(width) / float64(m.Resolution)
	unitY := float64(height) / float64(m.Resolution)

	for px := 0; px <= width; px += 37 {
		for py := 0; py <= height; py += 29 {
			p := m.ToModelSpace(px, py, width, height)
			backX := float64(p.X) * float64(width) / float64(m.Resolution)
			backY := float64(p.Y) * float64(height) / float64(m.Resolution)
			if math.Abs(backX-float64(px)) > unitX {
				t.Fatalf("x round trip drifted: %d -> %d -> %.2f (unit %.2f)", px, p.X, backX, unitX)
			}
			if math.Abs(backY-float64(py)) > unitY {
				t.Fatalf("y round trip drifted: %d -> %d -> %.2f (unit %.2f)", py, p.Y, backY, unitY)
			}
		}
	}
}

func TestModelPercent(t *testing.T) {
	m := Mapper{Resolution: 256}

	// A click at the center of a 1000x800 image maps to model (128,128)
	// and must submit as 50%/50%.
	p := m.ToModelSpace(500, 400, 1000, 800)
	xPct, yPct := m.ModelPercent(p, 1000, 800)
	if math.Abs(xPct-50) > 0.5 || math.Abs(yPct-50) > 0.5 {
		t.Errorf("ModelPercent(%v) = (%.2f, %.2f), want ~(50, 50)", p, xPct, yPct)
	}
}

func TestImagePercent(t *testing.T) {
	tests := []struct {
		name          string
		p             Point
		width, height int
		wantX, wantY  float64
	}{
		{"origin", Point{0, 0}, 1000, 800, 0, 0},
		{"center", Point{500, 400}, 1000, 800, 50, 50},
		{"quarter", Point{250, 600}, 1000, 800, 25, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			xPct, yPct := ImagePercent(tt.p, tt.width, tt.height)
			if xPct != tt.wantX || yPct != tt.wantY {
				t.Errorf("ImagePercent(%v) = (%.2f, %.2f), want (%.2f, %.2f)",
					tt.p, xPct, yPct, tt.wantX, tt.wantY)
			}
		})
	}
}
