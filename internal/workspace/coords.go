package workspace

import "math"

// Point is an integer coordinate pair, either in the fixed model space or
// in original image pixel space depending on context.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Mapper converts between original image pixel coordinates and the fixed
// normalized resolution the colorization model expects. Inputs are always
// in range; they originate from bounded pointer events on the rendered
// image.
type Mapper struct {
	Resolution int
}

// ToModelSpace scales a pixel coordinate linearly into model space,
// rounding to nearest.
func (m Mapper) ToModelSpace(px, py, width, height int) Point {
	return Point{
		X: int(math.Round(float64(px) * float64(m.Resolution) / float64(width))),
		Y: int(math.Round(float64(py) * float64(m.Resolution) / float64(height))),
	}
}

// ModelPercent re-derives the percentage-of-image position of a model
// space point through the original image dimensions. Hint submissions use
// this instead of storing the percentage redundantly.
func (m Mapper) ModelPercent(p Point, width, height int) (xPct, yPct float64) {
	dx := float64(p.X) * float64(width) / float64(m.Resolution)
	dy := float64(p.Y) * float64(height) / float64(m.Resolution)
	return dx / float64(width) * 100, dy / float64(height) * 100
}

// ImagePercent computes the percentage-of-image position of a pixel
// coordinate directly. Display overlays and suggestion requests use this
// form so markers stay put under responsive resizing.
func ImagePercent(p Point, width, height int) (xPct, yPct float64) {
	return float64(p.X) / float64(width) * 100, float64(p.Y) / float64(height) * 100
}
