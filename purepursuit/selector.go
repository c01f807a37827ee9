package purepursuit

import (
	"math"

	"github.com/oakmotion/pursuit/spatialmath"
)

// selectWaypointOrderingControlled reduces the intersection set to the
// candidate farthest along the path. Untraversed point-turn family
// candidates take absolute priority; among them the larger segment index
// wins, with index ties broken by which point is farther along the segment
// direction. Once a point-turn candidate leads, non-point-turn candidates
// are ignored.
func (p *Path) selectWaypointOrderingControlled(intersections []taggedIntersection) taggedIntersection {
	best := intersections[0]
	pointTurnPriority := false
	for _, candidate := range intersections {
		if candidate.wp.IsPointTurn() {
			// traversed point turns are no longer interesting
			if !candidate.wp.Traversed() {
				pointTurnPriority = true
				best = betterPointTurn(p, best, candidate)
			}
			continue
		}
		if pointTurnPriority {
			continue
		}
		if best.index < candidate.index {
			best = candidate
		} else if best.index == candidate.index && p.isInFrontOnSegment(candidate, best) {
			best = candidate
		}
	}
	return best
}

// betterPointTurn resolves priority between the current best and an
// untraversed point-turn candidate: larger segment index wins, index ties go
// to the point farther along the segment.
func betterPointTurn(p *Path, best, candidate taggedIntersection) taggedIntersection {
	if !best.wp.IsPointTurn() {
		return candidate
	}
	if best.index < candidate.index {
		return candidate
	}
	if best.index == candidate.index && p.isInFrontOnSegment(candidate, best) {
		return candidate
	}
	return best
}

// selectHeadingControlled reduces the intersection set to the candidate the
// robot is most closely oriented toward. Point-turn priority works exactly
// as in the ordering-controlled strategy.
func (p *Path) selectHeadingControlled(intersections []taggedIntersection, robot spatialmath.Pose) taggedIntersection {
	best := intersections[0]
	pointTurnPriority := false
	for _, candidate := range intersections {
		if candidate.wp.IsPointTurn() {
			if !candidate.wp.Traversed() {
				pointTurnPriority = true
				best = betterPointTurn(p, best, candidate)
			}
			continue
		}
		if pointTurnPriority {
			continue
		}
		if p.relativeBearing(candidate, robot) < p.relativeBearing(best, robot) {
			best = candidate
		}
	}
	return best
}

// isInFrontOnSegment reports whether candidate is farther along its segment
// than current. Both must lie on the same segment.
func (p *Path) isInFrontOnSegment(candidate, current taggedIntersection) bool {
	segStart := p.waypoints[candidate.index-1].Position()
	return spatialmath.IsInFront(segStart, candidate.wp.Position(), candidate.point, current.point)
}

// relativeBearing is the magnitude of the angle between the robot's heading
// and the direction to the intersection.
func (p *Path) relativeBearing(candidate taggedIntersection, robot spatialmath.Pose) float64 {
	bearing := spatialmath.Bearing(robot.Position, candidate.point)
	return math.Abs(spatialmath.WrapAngle(bearing - robot.Heading))
}
