// Package geometry provides the integer box type shared by the segmentation stages.
package geometry

import (
	"fmt"
	"image"
)

// Box is an axis-aligned rectangle in pixel coordinates.
// XMax and YMax are exclusive, matching connected-component stats (x + w).
type Box struct {
	XMin int `json:"xmin"`
	YMin int `json:"ymin"`
	XMax int `json:"xmax"`
	YMax int `json:"ymax"`
}

// NewBox creates a Box from a top-left corner and a size.
func NewBox(x, y, width, height int) Box {
	return Box{XMin: x, YMin: y, XMax: x + width, YMax: y + height}
}

// FromRect converts an image.Rectangle to a Box.
func FromRect(r image.Rectangle) Box {
	return Box{XMin: r.Min.X, YMin: r.Min.Y, XMax: r.Max.X, YMax: r.Max.Y}
}

// Rect returns the box as an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.XMin, b.YMin, b.XMax, b.YMax)
}

// Width returns the horizontal extent.
func (b Box) Width() int {
	return b.XMax - b.XMin
}

// Height returns the vertical extent.
func (b Box) Height() int {
	return b.YMax - b.YMin
}

// Empty reports whether the box covers no pixels.
func (b Box) Empty() bool {
	return b.XMax <= b.XMin || b.YMax <= b.YMin
}

// CenterX returns the horizontal center.
func (b Box) CenterX() float64 {
	return float64(b.XMin+b.XMax) / 2
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(other Box) Box {
	return Box{
		XMin: min(b.XMin, other.XMin),
		YMin: min(b.YMin, other.YMin),
		XMax: max(b.XMax, other.XMax),
		YMax: max(b.YMax, other.YMax),
	}
}

// Contains returns true if other lies fully inside b.
func (b Box) Contains(other Box) bool {
	return other.XMin >= b.XMin && other.XMax <= b.XMax &&
		other.YMin >= b.YMin && other.YMax <= b.YMax
}

// Intersect returns the overlap of two boxes. The result is empty when they don't overlap.
func (b Box) Intersect(other Box) Box {
	r := Box{
		XMin: max(b.XMin, other.XMin),
		YMin: max(b.YMin, other.YMin),
		XMax: min(b.XMax, other.XMax),
		YMax: min(b.YMax, other.YMax),
	}
	if r.Empty() {
		return Box{}
	}
	return r
}

// Valid reports whether the min corner does not exceed the max corner.
func (b Box) Valid() bool {
	return b.XMin <= b.XMax && b.YMin <= b.YMax
}

func (b Box) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", b.XMin, b.YMin, b.XMax, b.YMax)
}

// BoundingBox computes the box enclosing all given boxes.
func BoundingBox(boxes []Box) Box {
	if len(boxes) == 0 {
		return Box{}
	}
	out := boxes[0]
	for _, b := range boxes[1:] {
		out = out.Union(b)
	}
	return out
}
