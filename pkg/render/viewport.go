package render

import (
	"math"

	"github.com/arbormap/arbor/pkg/tree"
)

// viewport maps diagram coordinates into a fixed output frame.
// The tree's bounding box (padded on all sides) is scaled to fit inside
// the frame minus its margin; scaling never enlarges beyond 1:1.
type viewport struct {
	scale float64
	minX  float64
	minY  float64
}

// fitViewport computes the transform that fits the tree into a
// width×height frame. Callers must not pass an empty tree.
func fitViewport(t *tree.Tree, width, height float64) viewport {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range t.Persons {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	treeWidth := maxX - minX + boundsExtent
	treeHeight := maxY - minY + boundsExtent

	availWidth := width - 2*frameMargin
	availHeight := height - 2*frameMargin

	scaleX, scaleY := 1.0, 1.0
	if treeWidth > 0 {
		scaleX = availWidth / treeWidth
	}
	if treeHeight > 0 {
		scaleY = availHeight / treeHeight
	}
	scale := math.Min(math.Min(scaleX, scaleY), 1)

	return viewport{scale: scale, minX: minX, minY: minY}
}

// x maps a diagram x coordinate to the frame.
func (v viewport) x(x float64) float64 {
	return frameMargin + (x-v.minX+boundsPad)*v.scale
}

// y maps a diagram y coordinate to the frame (top-left origin).
func (v viewport) y(y float64) float64 {
	return frameMargin + (y-v.minY+boundsPad)*v.scale
}
