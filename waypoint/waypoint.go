// Package waypoint defines the waypoint variants a pure pursuit path is
// assembled from. A waypoint is a tagged variant: every variant shares a
// pose, a follow radius, and a timeout, and the point-turn family adds
// approach buffers, a traversal latch, and an optional action.
package waypoint

import (
	"fmt"
	"time"

	"github.com/golang/geo/r2"

	"github.com/oakmotion/pursuit/spatialmath"
)

// Type tags the waypoint variants.
type Type int

const (
	// Start marks the origin of a path. It carries only a pose.
	Start Type = iota
	// General is a plain pure pursuit waypoint the robot curves through.
	General
	// PointTurn makes the robot stop and rotate in place before continuing.
	PointTurn
	// Interrupt is a point turn that additionally runs an action once reached.
	Interrupt
	// End is an interrupt that marks the path finished.
	End
)

func (t Type) String() string {
	switch t {
	case Start:
		return "start"
	case General:
		return "general"
	case PointTurn:
		return "point_turn"
	case Interrupt:
		return "interrupt"
	case End:
		return "end"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Waypoint is one node of a path. Construct one with the variant
// constructors below; the zero value is not usable.
type Waypoint struct {
	typ  Type
	pose spatialmath.Pose

	movementSpeed float64
	turnSpeed     float64
	followRadius  float64

	preferredHeading    float64
	usePreferredHeading bool

	// 0 means no timeout.
	timeout time.Duration

	positionBuffer float64
	rotationBuffer float64
	traversed      bool

	action func()
}

// NewStart returns a Start waypoint at (x, y).
func NewStart(x, y float64) *Waypoint {
	return &Waypoint{typ: Start, pose: spatialmath.NewPose(x, y, 0)}
}

// NewGeneral returns a General waypoint. Speeds are clamped to [0, 1] and
// the follow radius to non-negative.
func NewGeneral(x, y, heading, movementSpeed, turnSpeed, followRadius float64) *Waypoint {
	return &Waypoint{
		typ:           General,
		pose:          spatialmath.NewPose(x, y, heading),
		movementSpeed: clampSpeed(movementSpeed),
		turnSpeed:     clampSpeed(turnSpeed),
		followRadius:  clampDistance(followRadius),
	}
}

// NewPointTurn returns a PointTurn waypoint. The buffers are the position
// and rotation tolerances within which the waypoint counts as reached.
func NewPointTurn(x, y, heading, movementSpeed, turnSpeed, followRadius, positionBuffer, rotationBuffer float64) *Waypoint {
	w := NewGeneral(x, y, heading, movementSpeed, turnSpeed, followRadius)
	w.typ = PointTurn
	w.positionBuffer = clampDistance(positionBuffer)
	w.rotationBuffer = clampDistance(rotationBuffer)
	return w
}

// NewInterrupt returns an Interrupt waypoint. A nil action is allowed;
// traversal then only marks state.
func NewInterrupt(x, y, heading, movementSpeed, turnSpeed, followRadius, positionBuffer, rotationBuffer float64, action func()) *Waypoint {
	w := NewPointTurn(x, y, heading, movementSpeed, turnSpeed, followRadius, positionBuffer, rotationBuffer)
	w.typ = Interrupt
	w.action = action
	return w
}

// NewEnd returns an End waypoint. A nil action is allowed.
func NewEnd(x, y, heading, movementSpeed, turnSpeed, followRadius, positionBuffer, rotationBuffer float64, action func()) *Waypoint {
	w := NewInterrupt(x, y, heading, movementSpeed, turnSpeed, followRadius, positionBuffer, rotationBuffer, action)
	w.typ = End
	return w
}

// Type returns this waypoint's variant tag.
func (w *Waypoint) Type() Type {
	return w.typ
}

// Pose returns this waypoint's pose.
func (w *Waypoint) Pose() spatialmath.Pose {
	return w.pose
}

// Position returns this waypoint's position.
func (w *Waypoint) Position() r2.Point {
	return w.pose.Position
}

// MovementSpeed returns the translational speed in [0, 1].
func (w *Waypoint) MovementSpeed() float64 {
	return w.movementSpeed
}

// TurnSpeed returns the rotational speed in [0, 1].
func (w *Waypoint) TurnSpeed() float64 {
	return w.turnSpeed
}

// FollowRadius returns the look-ahead radius of this waypoint's incoming
// segment.
func (w *Waypoint) FollowRadius() float64 {
	return w.followRadius
}

// SetMovementSpeed sets the translational speed, clamped to [0, 1].
func (w *Waypoint) SetMovementSpeed(speed float64) {
	w.movementSpeed = clampSpeed(speed)
}

// SetTurnSpeed sets the rotational speed, clamped to [0, 1].
func (w *Waypoint) SetTurnSpeed(speed float64) {
	w.turnSpeed = clampSpeed(speed)
}

// SetFollowRadius sets the look-ahead radius.
func (w *Waypoint) SetFollowRadius(radius float64) {
	w.followRadius = clampDistance(radius)
}

// PreferredHeading returns the configured final heading and whether one is
// set. When set it overrides the geometrically computed target heading.
func (w *Waypoint) PreferredHeading() (float64, bool) {
	return w.preferredHeading, w.usePreferredHeading
}

// SetPreferredHeading configures a final heading in radians.
func (w *Waypoint) SetPreferredHeading(heading float64) {
	w.preferredHeading = heading
	w.usePreferredHeading = true
}

// DisablePreferredHeading clears the preferred heading.
func (w *Waypoint) DisablePreferredHeading() {
	w.preferredHeading = 0
	w.usePreferredHeading = false
}

// Timeout returns the per-waypoint timeout; 0 means disabled.
func (w *Waypoint) Timeout() time.Duration {
	return w.timeout
}

// SetTimeout sets the per-waypoint timeout; 0 disables it.
func (w *Waypoint) SetTimeout(timeout time.Duration) {
	w.timeout = timeout
}

// PositionBuffer returns the position tolerance of the point-turn family.
func (w *Waypoint) PositionBuffer() float64 {
	return w.positionBuffer
}

// RotationBuffer returns the rotation tolerance of the point-turn family.
func (w *Waypoint) RotationBuffer() float64 {
	return w.rotationBuffer
}

// IsPointTurn reports whether this waypoint belongs to the point-turn family
// (PointTurn, Interrupt, or End).
func (w *Waypoint) IsPointTurn() bool {
	return w.typ == PointTurn || w.typ == Interrupt || w.typ == End
}

// Traversed reports whether this waypoint has been reached. Only the
// point-turn family is ever marked traversed.
func (w *Waypoint) Traversed() bool {
	return w.traversed
}

// MarkTraversed latches the traversed flag. It never reverts; rebuild the
// path to retry a sub-path.
func (w *Waypoint) MarkTraversed() {
	w.traversed = true
}

// Action returns the action attached to an Interrupt or End waypoint, or nil.
func (w *Waypoint) Action() func() {
	return w.action
}

// SetAction attaches an action to an Interrupt or End waypoint. Useful for
// paths loaded from configuration, where actions cannot be declared.
func (w *Waypoint) SetAction(action func()) {
	w.action = action
}

func (w *Waypoint) String() string {
	return fmt.Sprintf("%s%s", w.typ, w.pose)
}

func clampSpeed(raw float64) float64 {
	if raw > 1 {
		return 1
	}
	if raw < 0 {
		return 0
	}
	return raw
}

func clampDistance(raw float64) float64 {
	if raw < 0 {
		return 0
	}
	return raw
}
