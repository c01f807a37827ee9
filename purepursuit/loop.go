package purepursuit

import (
	"time"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/oakmotion/pursuit/spatialmath"
	"github.com/oakmotion/pursuit/waypoint"
)

// pointTurnRadiusEpsilon is subtracted from the robot's distance to a
// point-turn waypoint when shrinking the look-ahead radius, so the shrunk
// circle always crosses the segment short of the waypoint itself.
const pointTurnRadiusEpsilon = 0.01

// taggedIntersection is a look-ahead circle intersection annotated with the
// waypoint owning the segment's far endpoint and that waypoint's index.
// Produced and discarded within one call to Loop.
type taggedIntersection struct {
	point r2.Point
	wp    *waypoint.Waypoint
	index int
}

// Loop is the per-tick engine step. Given the robot's current pose it runs
// triggered actions, drains queued interrupt actions, finds and selects the
// best look-ahead intersection, and returns the velocity command to apply.
// When the matched waypoint's timeout has elapsed it returns
// ErrWaypointTimeout instead of a command.
func (p *Path) Loop(x, y, heading float64) (Command, error) {
	if !p.initComplete {
		return Command{}, ErrNotInitialized
	}

	p.tickTriggeredActions()
	p.drainInterruptActions()

	robot := spatialmath.NewPose(x, y, heading)
	intersections := p.findIntersections(robot.Position)

	if len(intersections) == 0 {
		return p.retrace(robot), nil
	}
	if p.retracing {
		p.logger.Debug("path reacquired")
		p.retracing = false
	}

	var best taggedIntersection
	switch p.pathType {
	case HeadingControlled:
		best = p.selectHeadingControlled(intersections, robot)
	default:
		best = p.selectWaypointOrderingControlled(intersections)
	}

	if p.retraceEnabled {
		point := best.point
		p.lastKnownIntersection = &point
	}

	if best.wp != p.lastWaypoint {
		p.logger.Debugf("now tracking waypoint %d (%s)", best.index, best.wp.Type())
		p.lastWaypoint = best.wp
		p.lastWaypointStamp = p.clock.Now()
		// the previous distance was measured to the previous waypoint
		p.lastDistance = 0
		p.lastTick = time.Time{}
	}
	if timeout := best.wp.Timeout(); timeout > 0 && p.clock.Now().Sub(p.lastWaypointStamp) > timeout {
		p.timedOut = true
		return Command{}, errors.Wrapf(ErrWaypointTimeout, "waypoint %d (%s)", best.index, best.wp.Type())
	}

	return p.synthesizeMotion(best, robot), nil
}

// findIntersections intersects the robot's look-ahead circle with every path
// segment, using the far waypoint's follow radius. For point-turn family
// waypoints the test is repeated with a radius shrunk to just short of the
// robot's distance to the waypoint, so the final approach point is never
// skipped.
func (p *Path) findIntersections(robot r2.Point) []taggedIntersection {
	var intersections []taggedIntersection
	for i := 1; i < len(p.waypoints); i++ {
		segStart := p.waypoints[i-1].Position()
		far := p.waypoints[i]
		segEnd := far.Position()
		radius := far.FollowRadius()

		for _, point := range spatialmath.LineCircleIntersection(robot, radius, segStart, segEnd) {
			intersections = append(intersections, taggedIntersection{point: point, wp: far, index: i})
		}
		if far.IsPointTurn() {
			if shrunk := robot.Sub(segEnd).Norm() - pointTurnRadiusEpsilon; shrunk < radius {
				for _, point := range spatialmath.LineCircleIntersection(robot, shrunk, segStart, segEnd) {
					intersections = append(intersections, taggedIntersection{point: point, wp: far, index: i})
				}
			}
		}
	}
	return intersections
}

// retrace drives the robot back toward the last known intersection after the
// path is lost. If no intersection was ever seen, the first waypoint seeds
// the target. Returns a zero command when retrace is disabled.
func (p *Path) retrace(robot spatialmath.Pose) Command {
	if !p.retraceEnabled {
		return Command{}
	}
	if !p.retracing {
		if p.lastKnownIntersection == nil {
			point := p.waypoints[0].Position()
			p.lastKnownIntersection = &point
		}
		p.retracing = true
		p.logger.Debugf("path lost, retracing toward (%.3f, %.3f)",
			p.lastKnownIntersection.X, p.lastKnownIntersection.Y)
	}
	target := spatialmath.Pose{Position: *p.lastKnownIntersection, Heading: robot.Heading}
	lateral, longitudinal, angular := spatialmath.MoveToPose(robot, target, false)
	cmd := Command{Lateral: lateral, Longitudinal: longitudinal, Angular: angular}
	cmd.scaleTranslation(p.retraceMovementSpeed)
	cmd.scaleRotation(p.retraceTurnSpeed)
	return cmd
}
