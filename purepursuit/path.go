// Package purepursuit implements a pure pursuit path-following engine for
// holonomic mobile robots. A Path owns an ordered sequence of waypoints;
// each call to Loop intersects a look-ahead circle centered on the robot
// with the path's segments, selects the best intersection under the
// configured strategy, and synthesizes a velocity command toward it.
package purepursuit

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/oakmotion/pursuit/waypoint"
)

// PathType selects how competing look-ahead intersections are reduced to
// one.
type PathType int

const (
	// WaypointOrderingControlled prefers the intersection farthest along
	// the path. This is the default.
	WaypointOrderingControlled PathType = iota
	// HeadingControlled prefers the intersection the robot is most closely
	// oriented toward.
	HeadingControlled
)

const defaultFollowPeriod = 20 * time.Millisecond

// Path is an ordered sequence of waypoints plus the configuration and run
// state needed to traverse them. Construct with NewPath, configure, call
// Init, then drive the engine with Loop (or bind a drivetrain and pose
// source and call Follow). A Path is not safe for concurrent use.
type Path struct {
	logger golog.Logger
	clock  clock.Clock

	waypoints []*waypoint.Waypoint

	// configuration
	pathType             PathType
	pathTimeout          time.Duration
	decelerate           DecelerationStrategy
	retraceEnabled       bool
	retraceMovementSpeed float64
	retraceTurnSpeed     float64
	autoMode             bool
	followPeriod         time.Duration
	drivetrain           Drivetrain
	poseSource           PoseSource
	triggered            []TriggeredAction
	interruptQueue       []func()

	// run state, mutated only by the engine
	initComplete          bool
	timedOut              bool
	retracing             bool
	lastWaypoint          *waypoint.Waypoint
	lastWaypointStamp     time.Time
	lastKnownIntersection *r2.Point
	lastDistance          float64
	lastTick              time.Time
}

// NewPath returns a path over the given waypoints with default settings:
// waypoint-ordering-controlled selection, no timeouts, retrace enabled at
// full speed, and the default deceleration strategy. A nil logger falls back
// to the global one.
func NewPath(logger golog.Logger, waypoints ...*waypoint.Waypoint) *Path {
	if logger == nil {
		logger = golog.Global()
	}
	return &Path{
		logger:               logger,
		clock:                clock.New(),
		waypoints:            waypoints,
		pathType:             WaypointOrderingControlled,
		decelerate:           DefaultDeceleration,
		retraceEnabled:       true,
		retraceMovementSpeed: 1,
		retraceTurnSpeed:     1,
		followPeriod:         defaultFollowPeriod,
	}
}

// Add appends waypoints to the path in traversal order.
func (p *Path) Add(waypoints ...*waypoint.Waypoint) {
	p.waypoints = append(p.waypoints, waypoints...)
}

// Len returns the number of waypoints.
func (p *Path) Len() int {
	return len(p.waypoints)
}

// At returns the waypoint at the given index.
func (p *Path) At(i int) *waypoint.Waypoint {
	return p.waypoints[i]
}

// Init validates the path and marks it ready to run. A legal path has at
// least two waypoints, begins with a Start, ends with an End, and has no
// Start or End in its interior. If automatic mode is enabled, a drivetrain
// and a pose source must also be bound.
func (p *Path) Init() error {
	if err := p.verifyLegality(); err != nil {
		return err
	}
	if p.autoMode {
		if p.drivetrain == nil {
			return errors.Wrap(ErrMissingConfiguration, "automatic mode requires a drivetrain")
		}
		if p.poseSource == nil {
			return errors.Wrap(ErrMissingConfiguration, "automatic mode requires a pose source")
		}
	}
	p.initComplete = true
	return nil
}

// IsLegalPath runs the legality checks without side effects.
func (p *Path) IsLegalPath() bool {
	return p.verifyLegality() == nil
}

func (p *Path) verifyLegality() error {
	if len(p.waypoints) < 2 {
		return newInvalidPathError("a path needs at least two waypoints")
	}
	if p.waypoints[0].Type() != waypoint.Start {
		return newInvalidPathError("a path must begin with a start waypoint")
	}
	if p.waypoints[len(p.waypoints)-1].Type() != waypoint.End {
		return newInvalidPathError("a path must end with an end waypoint")
	}
	for i := 1; i < len(p.waypoints)-1; i++ {
		if t := p.waypoints[i].Type(); t == waypoint.Start || t == waypoint.End {
			return newInvalidPathError("start and end waypoints are only allowed at the ends of a path")
		}
	}
	return nil
}

// IsFinished reports whether the path's End waypoint has been traversed.
func (p *Path) IsFinished() bool {
	if len(p.waypoints) == 0 {
		return false
	}
	last := p.waypoints[len(p.waypoints)-1]
	return last.Type() == waypoint.End && last.Traversed()
}

// TimedOut reports whether a waypoint or path timeout has elapsed.
func (p *Path) TimedOut() bool {
	return p.timedOut
}

// SetPathType selects the intersection-selection strategy.
func (p *Path) SetPathType(pathType PathType) {
	p.pathType = pathType
}

// SetPathTimeout sets the whole-path deadline enforced by Follow; 0 disables
// it.
func (p *Path) SetPathTimeout(timeout time.Duration) {
	p.pathTimeout = timeout
}

// SetWaypointTimeouts sets the same timeout on every waypoint.
func (p *Path) SetWaypointTimeouts(timeout time.Duration) {
	for _, w := range p.waypoints {
		w.SetTimeout(timeout)
	}
}

// SetWaypointTimeoutList sets the nth waypoint's timeout to the nth value
// given. Extra values are ignored.
func (p *Path) SetWaypointTimeoutList(timeouts ...time.Duration) {
	for i := 0; i < len(p.waypoints) && i < len(timeouts); i++ {
		p.waypoints[i].SetTimeout(timeouts[i])
	}
}

// SetDecelerationStrategy replaces the deceleration hook applied on the
// final approach to point-turn family waypoints.
func (p *Path) SetDecelerationStrategy(strategy DecelerationStrategy) error {
	if strategy == nil {
		return errors.New("the deceleration strategy cannot be nil")
	}
	p.decelerate = strategy
	return nil
}

// EnableRetrace turns lost-path recovery on. It is on by default.
func (p *Path) EnableRetrace() {
	p.retraceEnabled = true
}

// DisableRetrace turns lost-path recovery off; losing the path then yields
// zero commands.
func (p *Path) DisableRetrace() {
	p.retraceEnabled = false
}

// SetRetraceSettings configures the speed multipliers applied to retrace
// commands, each clamped to [0, 1].
func (p *Path) SetRetraceSettings(movementSpeed, turnSpeed float64) {
	p.retraceMovementSpeed = clampSpeed(movementSpeed)
	p.retraceTurnSpeed = clampSpeed(turnSpeed)
}

// EnableAutoMode enables the blocking convenience loop; Init will then
// require a drivetrain and pose source.
func (p *Path) EnableAutoMode() {
	p.autoMode = true
}

// DisableAutoMode disables the blocking convenience loop. It is disabled by
// default.
func (p *Path) DisableAutoMode() {
	p.autoMode = false
}

// SetClock replaces the wall clock used for timeout bookkeeping. Intended
// for tests.
func (p *Path) SetClock(c clock.Clock) {
	p.clock = c
}

// ResetTimeouts clears the timed-out flag and restarts the matched
// waypoint's timeout clock.
func (p *Path) ResetTimeouts() {
	p.timedOut = false
	p.lastWaypointStamp = p.clock.Now()
}

// Reset clears all transient run state (matched waypoint, retrace state,
// timeout bookkeeping). Waypoint traversal flags are not touched; rebuild
// the path to retry traversed waypoints.
func (p *Path) Reset() {
	p.timedOut = false
	p.retracing = false
	p.lastWaypoint = nil
	p.lastWaypointStamp = time.Time{}
	p.lastKnownIntersection = nil
	p.lastDistance = 0
	p.lastTick = time.Time{}
	p.interruptQueue = nil
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
