// Package spatialmath implements the planar geometry a pure pursuit engine
// is built on: poses, angle arithmetic, line-circle intersection, and the
// move-toward-pose velocity synthesizer.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// Pose is a planar robot pose: a position and a heading in radians.
type Pose struct {
	Position r2.Point
	Heading  float64
}

// NewPose returns a Pose at (x, y) facing the given heading in radians.
func NewPose(x, y, heading float64) Pose {
	return Pose{Position: r2.Point{X: x, Y: y}, Heading: heading}
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", p.Position.X, p.Position.Y, p.Heading)
}

// WrapAngle normalizes an angle in radians to (-π, π].
func WrapAngle(theta float64) float64 {
	for theta <= -math.Pi {
		theta += 2 * math.Pi
	}
	for theta > math.Pi {
		theta -= 2 * math.Pi
	}
	return theta
}

// Bearing returns the absolute angle of the vector pointing from one point
// at another, in radians.
func Bearing(from, to r2.Point) float64 {
	d := to.Sub(from)
	return math.Atan2(d.Y, d.X)
}

func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}
