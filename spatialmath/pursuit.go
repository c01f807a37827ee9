package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"
)

// turnProportionRad is the heading error at which the angular component of a
// synthesized command saturates at full power.
const turnProportionRad = math.Pi / 6

// LineCircleIntersection returns the points where the circle centered at
// center with the given radius crosses the segment from p1 to p2. Points on
// the infinite line but outside the segment are excluded. A non-positive
// radius yields no intersections.
func LineCircleIntersection(center r2.Point, radius float64, p1, p2 r2.Point) []r2.Point {
	if radius <= 0 {
		return nil
	}
	d := p2.Sub(p1)
	f := p1.Sub(center)

	a := d.Dot(d)
	if a < 1e-12 {
		// degenerate segment
		return nil
	}
	b := 2 * f.Dot(d)
	c := f.Dot(f) - radius*radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}

	sqrtDisc := math.Sqrt(disc)
	var points []r2.Point
	for _, t := range []float64{(-b - sqrtDisc) / (2 * a), (-b + sqrtDisc) / (2 * a)} {
		if t < 0 || t > 1 {
			continue
		}
		points = append(points, p1.Add(d.Mul(t)))
		if sqrtDisc == 0 {
			// tangent, both roots are the same point
			break
		}
	}
	return points
}

// IsInFront reports whether candidate is farther along the segment direction
// than current, measured by projecting both onto the vector from segStart to
// segEnd.
func IsInFront(segStart, segEnd, candidate, current r2.Point) bool {
	dir := segEnd.Sub(segStart)
	return candidate.Sub(segStart).Dot(dir) > current.Sub(segStart).Dot(dir)
}

// PositionsEqual reports whether two points coincide within the given buffer
// on each axis.
func PositionsEqual(a, b r2.Point, buffer float64) bool {
	return math.Abs(a.X-b.X) < buffer && math.Abs(a.Y-b.Y) < buffer
}

// RotationsEqual reports whether two headings coincide within the given
// buffer, accounting for wraparound.
func RotationsEqual(a, b, buffer float64) bool {
	return math.Abs(WrapAngle(a-b)) < buffer
}

// MoveToPose synthesizes a robot-centric velocity toward the target pose.
// The translational components are normalized so their magnitudes sum to one
// and the angular component is proportional to the wrapped heading error,
// saturating at turnProportionRad. In point-turn mode translation is zeroed
// so rotation takes priority.
func MoveToPose(robot, target Pose, pointTurn bool) (lateral, longitudinal, angular float64) {
	delta := target.Position.Sub(robot.Position)
	if dist := delta.Norm(); !pointTurn && dist > 1e-9 {
		relative := WrapAngle(math.Atan2(delta.Y, delta.X) - robot.Heading)
		forward := math.Cos(relative)
		strafe := math.Sin(relative)
		denom := math.Abs(forward) + math.Abs(strafe)
		longitudinal = forward / denom
		lateral = strafe / denom
	}

	angular = WrapAngle(target.Heading-robot.Heading) / turnProportionRad
	if angular > 1 {
		angular = 1
	} else if angular < -1 {
		angular = -1
	}
	return lateral, longitudinal, angular
}
