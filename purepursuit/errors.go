package purepursuit

import "github.com/pkg/errors"

var (
	// ErrInvalidPathConfiguration is returned by Init when a path violates
	// one of the legality invariants.
	ErrInvalidPathConfiguration = errors.New("invalid path configuration")

	// ErrNotInitialized is returned when Loop or Follow is called before
	// Init has succeeded.
	ErrNotInitialized = errors.New("path not initialized: call Init first")

	// ErrMissingConfiguration is returned when automatic mode is requested
	// without a bound drivetrain or pose source.
	ErrMissingConfiguration = errors.New("missing configuration")

	// ErrWaypointTimeout is returned by Loop when the currently matched
	// waypoint's individual timeout has elapsed.
	ErrWaypointTimeout = errors.New("waypoint timed out")

	// ErrPathTimeout is returned by Follow when the whole-path deadline
	// elapses before the path finishes.
	ErrPathTimeout = errors.New("path timed out")
)

func newInvalidPathError(reason string) error {
	return errors.Wrap(ErrInvalidPathConfiguration, reason)
}
