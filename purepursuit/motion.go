package purepursuit

import (
	"time"

	"github.com/oakmotion/pursuit/spatialmath"
	"github.com/oakmotion/pursuit/waypoint"
)

// synthesizeMotion turns the selected intersection into a velocity command
// according to the matched waypoint's type.
func (p *Path) synthesizeMotion(best taggedIntersection, robot spatialmath.Pose) Command {
	switch best.wp.Type() {
	case waypoint.PointTurn, waypoint.Interrupt, waypoint.End:
		return p.pointTurnMotion(best, robot)
	default:
		return p.generalMotion(best, robot)
	}
}

// generalMotion curves the robot through the intersection point, scaled by
// the waypoint's configured speeds.
func (p *Path) generalMotion(best taggedIntersection, robot spatialmath.Pose) Command {
	targetHeading, ok := best.wp.PreferredHeading()
	if !ok {
		targetHeading = spatialmath.Bearing(robot.Position, best.point)
	}
	target := spatialmath.Pose{Position: best.point, Heading: targetHeading}
	lateral, longitudinal, angular := spatialmath.MoveToPose(robot, target, false)
	cmd := Command{Lateral: lateral, Longitudinal: longitudinal, Angular: angular}
	cmd.scaleTranslation(best.wp.MovementSpeed())
	cmd.scaleRotation(best.wp.TurnSpeed())
	return cmd
}

// pointTurnMotion approaches the waypoint's exact position, then rotates in
// place toward the next leg before marking the waypoint traversed. Interrupt
// and End waypoints additionally enqueue their action on traversal and hold
// position while it runs; End traversal finishes the path.
func (p *Path) pointTurnMotion(best taggedIntersection, robot spatialmath.Pose) Command {
	wp := best.wp
	target := wp.Position()
	distance := target.Sub(robot.Position).Norm()

	var cmd Command
	if !wp.Traversed() && spatialmath.PositionsEqual(robot.Position, target, wp.PositionBuffer()) {
		targetHeading := p.turnTarget(best, robot)
		if spatialmath.RotationsEqual(robot.Heading, targetHeading, wp.RotationBuffer()) {
			wp.MarkTraversed()
			if wp.Type() == waypoint.Interrupt || wp.Type() == waypoint.End {
				// hold position; the action runs on the next tick
				p.enqueueInterruptAction(wp.Action())
				return Command{}
			}
		}
		lateral, longitudinal, angular := spatialmath.MoveToPose(robot,
			spatialmath.Pose{Position: target, Heading: targetHeading}, true)
		cmd = Command{Lateral: lateral, Longitudinal: longitudinal, Angular: angular}
	} else {
		targetHeading, ok := wp.PreferredHeading()
		if !ok {
			targetHeading = spatialmath.Bearing(robot.Position, target)
		}
		lateral, longitudinal, angular := spatialmath.MoveToPose(robot,
			spatialmath.Pose{Position: target, Heading: targetHeading}, false)
		cmd = Command{Lateral: lateral, Longitudinal: longitudinal, Angular: angular}
	}

	now := p.clock.Now()
	var dt time.Duration
	if !p.lastTick.IsZero() {
		dt = now.Sub(p.lastTick)
	}
	p.decelerate(&cmd, distance, p.lastDistance, dt, wp.MovementSpeed(), wp.TurnSpeed())
	p.lastTick = now
	p.lastDistance = distance
	return cmd
}

// turnTarget is the heading a point turn should end at: the next waypoint's
// preferred heading if set, else the bearing to the next waypoint. The last
// waypoint has no next leg, so its own preferred heading applies, falling
// back to the robot's current heading (no required rotation).
func (p *Path) turnTarget(best taggedIntersection, robot spatialmath.Pose) float64 {
	if best.index+1 < len(p.waypoints) {
		next := p.waypoints[best.index+1]
		if heading, ok := next.PreferredHeading(); ok {
			return heading
		}
		return spatialmath.Bearing(robot.Position, next.Position())
	}
	if heading, ok := best.wp.PreferredHeading(); ok {
		return heading
	}
	return robot.Heading
}
