package particles

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Container is the closed cylinder bounding every agent: a floor, a lid and
// a vertical wall centered on the y axis.
type Container struct {
	Floor  float64
	Lid    float64
	Radius float64
}

// DefaultContainer matches the bowl used by every preset.
func DefaultContainer() Container {
	return Container{Floor: -1.0, Lid: 1.5, Radius: 1.0}
}

// Contains reports whether a sphere of radius r at p lies fully inside.
func (c Container) Contains(p r3.Vec, r float64) bool {
	if p.Y < c.Floor+r || p.Y > c.Lid-r {
		return false
	}
	return math.Hypot(p.X, p.Z) <= c.Radius-r
}
