package purepursuit

import "time"

// DecelerationStrategy shapes the velocity command on the final approach to
// a point-turn family waypoint. It mutates cmd in place. distance and
// lastDistance are the current and previous-tick distances to the target,
// and dt is the time elapsed since the previous tick (zero on the first
// call). The configured waypoint speeds are passed through so a strategy can
// honor them.
type DecelerationStrategy func(cmd *Command, distance, lastDistance float64, dt time.Duration, movementSpeed, turnSpeed float64)

// DefaultDeceleration scales translation by the configured movement speed
// and rotation by the configured turn speed, with no distance-based easing.
func DefaultDeceleration(cmd *Command, distance, lastDistance float64, dt time.Duration, movementSpeed, turnSpeed float64) {
	cmd.scaleTranslation(movementSpeed)
	cmd.scaleRotation(turnSpeed)
}
