package purepursuit

import (
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/oakmotion/pursuit/spatialmath"
	"github.com/oakmotion/pursuit/waypoint"
)

func TestFindIntersections(t *testing.T) {
	logger := golog.NewTestLogger(t)

	t.Run("straight segment", func(t *testing.T) {
		path := NewPath(logger, legalWaypoints()...)
		test.That(t, path.Init(), test.ShouldBeNil)

		intersections := path.findIntersections(r2.Point{X: 0, Y: 0})
		test.That(t, len(intersections), test.ShouldBeGreaterThanOrEqualTo, 1)
		test.That(t, intersections[0].point.X, test.ShouldAlmostEqual, 2)
		test.That(t, intersections[0].point.Y, test.ShouldAlmostEqual, 0)
		test.That(t, intersections[0].index, test.ShouldEqual, 1)
	})

	t.Run("shrunk radius on final approach", func(t *testing.T) {
		path := NewPath(logger,
			waypoint.NewStart(0, 0),
			waypoint.NewEnd(10, 0, 0, 1, 1, 2, 0.3, 0.3, nil),
		)
		test.That(t, path.Init(), test.ShouldBeNil)

		// the nominal radius only reaches backward from here; the shrunk
		// re-test must still produce points short of the waypoint
		intersections := path.findIntersections(r2.Point{X: 9.5, Y: 0})
		test.That(t, len(intersections), test.ShouldEqual, 3)
		var foundNear bool
		for _, in := range intersections {
			if in.point.X > 9.9 {
				foundNear = true
			}
		}
		test.That(t, foundNear, test.ShouldBeTrue)
	})
}

func TestWaypointOrderingControlledSelection(t *testing.T) {
	logger := golog.NewTestLogger(t)
	path := NewPath(logger,
		waypoint.NewStart(0, 0),
		waypoint.NewGeneral(5, 0, 0, 1, 1, 2),
		waypoint.NewGeneral(10, 0, 0, 1, 1, 2),
		waypoint.NewEnd(15, 0, 0, 1, 1, 2, 0.3, 0.3, nil),
	)

	t.Run("larger index wins regardless of geometry", func(t *testing.T) {
		onFirst := taggedIntersection{point: r2.Point{X: 4, Y: 0}, wp: path.At(1), index: 1}
		onSecond := taggedIntersection{point: r2.Point{X: 5.5, Y: 0}, wp: path.At(2), index: 2}
		best := path.selectWaypointOrderingControlled([]taggedIntersection{onFirst, onSecond})
		test.That(t, best.index, test.ShouldEqual, 2)
		best = path.selectWaypointOrderingControlled([]taggedIntersection{onSecond, onFirst})
		test.That(t, best.index, test.ShouldEqual, 2)
	})

	t.Run("index tie broken by segment direction", func(t *testing.T) {
		behind := taggedIntersection{point: r2.Point{X: 3, Y: 0}, wp: path.At(1), index: 1}
		ahead := taggedIntersection{point: r2.Point{X: 4, Y: 0}, wp: path.At(1), index: 1}
		best := path.selectWaypointOrderingControlled([]taggedIntersection{behind, ahead})
		test.That(t, best.point.X, test.ShouldAlmostEqual, 4)
		best = path.selectWaypointOrderingControlled([]taggedIntersection{ahead, behind})
		test.That(t, best.point.X, test.ShouldAlmostEqual, 4)
	})
}

func TestPointTurnPriority(t *testing.T) {
	logger := golog.NewTestLogger(t)
	path := NewPath(logger,
		waypoint.NewStart(0, 0),
		waypoint.NewPointTurn(5, 0, 0, 1, 1, 2, 0.2, 0.2),
		waypoint.NewGeneral(10, 0, 0, 1, 1, 2),
		waypoint.NewEnd(15, 0, 0, 1, 1, 2, 0.3, 0.3, nil),
	)

	pointTurn := taggedIntersection{point: r2.Point{X: 4, Y: 0}, wp: path.At(1), index: 1}
	general := taggedIntersection{point: r2.Point{X: 8, Y: 0}, wp: path.At(2), index: 2}

	t.Run("untraversed point turn beats a farther general", func(t *testing.T) {
		best := path.selectWaypointOrderingControlled([]taggedIntersection{general, pointTurn})
		test.That(t, best.wp, test.ShouldEqual, path.At(1))
		best = path.selectWaypointOrderingControlled([]taggedIntersection{pointTurn, general})
		test.That(t, best.wp, test.ShouldEqual, path.At(1))
	})

	t.Run("traversed point turns lose priority", func(t *testing.T) {
		path.At(1).MarkTraversed()
		best := path.selectWaypointOrderingControlled([]taggedIntersection{general, pointTurn})
		test.That(t, best.wp, test.ShouldEqual, path.At(2))
	})
}

func TestHeadingControlledSelection(t *testing.T) {
	logger := golog.NewTestLogger(t)
	path := NewPath(logger,
		waypoint.NewStart(0, 0),
		waypoint.NewGeneral(5, 5, 0, 1, 1, 2),
		waypoint.NewEnd(10, 0, 0, 1, 1, 2, 0.3, 0.3, nil),
	)
	path.SetPathType(HeadingControlled)

	ahead := taggedIntersection{point: r2.Point{X: 5, Y: 1}, wp: path.At(1), index: 1}
	toTheSide := taggedIntersection{point: r2.Point{X: 0, Y: 5}, wp: path.At(1), index: 1}

	best := path.selectHeadingControlled([]taggedIntersection{toTheSide, ahead}, spatialmath.NewPose(0, 0, 0))
	test.That(t, best.point, test.ShouldResemble, ahead.point)

	// facing +y, the other intersection is the more forward one
	best = path.selectHeadingControlled([]taggedIntersection{toTheSide, ahead}, spatialmath.NewPose(0, 0, math.Pi/2))
	test.That(t, best.point, test.ShouldResemble, toTheSide.point)
}

func TestHeadingControlledPointTurnPriority(t *testing.T) {
	logger := golog.NewTestLogger(t)
	path := NewPath(logger,
		waypoint.NewStart(0, 0),
		waypoint.NewPointTurn(0, 5, 0, 1, 1, 2, 0.2, 0.2),
		waypoint.NewGeneral(5, 0, 0, 1, 1, 2),
		waypoint.NewEnd(10, 0, 0, 1, 1, 2, 0.3, 0.3, nil),
	)
	path.SetPathType(HeadingControlled)

	// the general candidate is dead ahead, the point turn far off axis
	robot := spatialmath.NewPose(0, 0, 0)
	pointTurn := taggedIntersection{point: r2.Point{X: 0, Y: 3}, wp: path.At(1), index: 1}
	general := taggedIntersection{point: r2.Point{X: 3, Y: 0}, wp: path.At(2), index: 2}

	best := path.selectHeadingControlled([]taggedIntersection{general, pointTurn}, robot)
	test.That(t, best.wp, test.ShouldEqual, path.At(1))
	best = path.selectHeadingControlled([]taggedIntersection{pointTurn, general}, robot)
	test.That(t, best.wp, test.ShouldEqual, path.At(1))

	// once traversed the point turn no longer outranks the forward candidate
	path.At(1).MarkTraversed()
	best = path.selectHeadingControlled([]taggedIntersection{general, pointTurn}, robot)
	test.That(t, best.wp, test.ShouldEqual, path.At(2))
}

func TestRetrace(t *testing.T) {
	logger := golog.NewTestLogger(t)

	t.Run("enabled, seeds from the first waypoint", func(t *testing.T) {
		path := NewPath(logger, legalWaypoints()...)
		path.SetRetraceSettings(0.5, 0.5)
		test.That(t, path.Init(), test.ShouldBeNil)

		cmd, err := path.Loop(100, 100, 0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cmd.IsZero(), test.ShouldBeFalse)
		test.That(t, path.retracing, test.ShouldBeTrue)
		// moving back toward (0, 0) scaled by the retrace multipliers
		test.That(t, cmd.Longitudinal, test.ShouldAlmostEqual, -0.25)
		test.That(t, cmd.Lateral, test.ShouldAlmostEqual, -0.25)
		test.That(t, cmd.Angular, test.ShouldAlmostEqual, 0)
	})

	t.Run("clears once the path is reacquired", func(t *testing.T) {
		path := NewPath(logger, legalWaypoints()...)
		test.That(t, path.Init(), test.ShouldBeNil)

		_, err := path.Loop(100, 100, 0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, path.retracing, test.ShouldBeTrue)

		_, err = path.Loop(0, 0, 0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, path.retracing, test.ShouldBeFalse)
	})

	t.Run("disabled yields exactly zero", func(t *testing.T) {
		path := NewPath(logger, legalWaypoints()...)
		path.DisableRetrace()
		test.That(t, path.Init(), test.ShouldBeNil)

		cmd, err := path.Loop(100, 100, 0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cmd.IsZero(), test.ShouldBeTrue)
	})
}

func TestWaypointTimeout(t *testing.T) {
	logger := golog.NewTestLogger(t)
	mock := clock.NewMock()

	path := NewPath(logger, legalWaypoints()...)
	path.SetClock(mock)
	path.SetWaypointTimeouts(time.Second)
	test.That(t, path.Init(), test.ShouldBeNil)

	_, err := path.Loop(0, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, path.TimedOut(), test.ShouldBeFalse)

	mock.Add(2 * time.Second)
	_, err = path.Loop(0, 0, 0)
	test.That(t, errors.Is(err, ErrWaypointTimeout), test.ShouldBeTrue)
	test.That(t, path.TimedOut(), test.ShouldBeTrue)

	path.ResetTimeouts()
	test.That(t, path.TimedOut(), test.ShouldBeFalse)
	_, err = path.Loop(0, 0, 0)
	test.That(t, err, test.ShouldBeNil)
}

func TestWaypointTimeoutClockResetsOnNewWaypoint(t *testing.T) {
	logger := golog.NewTestLogger(t)
	mock := clock.NewMock()

	path := NewPath(logger, legalWaypoints()...)
	path.SetClock(mock)
	path.SetWaypointTimeouts(time.Second)
	test.That(t, path.Init(), test.ShouldBeNil)

	_, err := path.Loop(0, 0, 0)
	test.That(t, err, test.ShouldBeNil)

	// more than the timeout elapses, but the matched waypoint changes on
	// this tick, which re-arms the clock
	mock.Add(1500 * time.Millisecond)
	_, err = path.Loop(8.4, 0, 0)
	test.That(t, err, test.ShouldBeNil)

	mock.Add(1100 * time.Millisecond)
	_, err = path.Loop(8.4, 0, 0)
	test.That(t, errors.Is(err, ErrWaypointTimeout), test.ShouldBeTrue)
}

func TestTriggeredActions(t *testing.T) {
	logger := golog.NewTestLogger(t)
	path := NewPath(logger, legalWaypoints()...)
	test.That(t, path.Init(), test.ShouldBeNil)

	var order []string
	first := &recordingAction{name: "first", order: &order}
	second := &recordingAction{name: "second", order: &order}
	path.AddTriggeredActions(first, second)

	_, err := path.Loop(0, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, order, test.ShouldResemble, []string{"first", "second"})

	test.That(t, path.RemoveTriggeredAction(first), test.ShouldBeTrue)
	test.That(t, path.RemoveTriggeredAction(first), test.ShouldBeFalse)
	order = nil
	first.order = &order
	second.order = &order
	_, err = path.Loop(0, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, order, test.ShouldResemble, []string{"second"})

	path.ClearTriggeredActions()
	order = nil
	second.order = &order
	_, err = path.Loop(0, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, order, test.ShouldBeEmpty)
}

type recordingAction struct {
	name  string
	order *[]string
}

func (a *recordingAction) Tick() {
	*a.order = append(*a.order, a.name)
}

func TestPointTurnTraversal(t *testing.T) {
	logger := golog.NewTestLogger(t)
	path := NewPath(logger,
		waypoint.NewStart(0, 0),
		waypoint.NewPointTurn(5, 0, 0, 1, 1, 1, 0.2, 0.2),
		waypoint.NewEnd(5, 6, 0, 1, 1, 0.05, 0.1, 0.1, nil),
	)
	test.That(t, path.Init(), test.ShouldBeNil)

	// inside the position buffer but facing the wrong way: rotate in place
	cmd, err := path.Loop(4.9, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cmd.Lateral, test.ShouldEqual, 0)
	test.That(t, cmd.Longitudinal, test.ShouldEqual, 0)
	test.That(t, cmd.Angular, test.ShouldBeGreaterThan, 0)
	test.That(t, path.At(1).Traversed(), test.ShouldBeFalse)

	// once aligned with the next leg the waypoint is traversed
	_, err = path.Loop(4.9, 0, math.Pi/2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, path.At(1).Traversed(), test.ShouldBeTrue)
}

func TestInterruptTraversalQueuesAction(t *testing.T) {
	logger := golog.NewTestLogger(t)
	runs := 0
	path := NewPath(logger,
		waypoint.NewStart(0, 0),
		waypoint.NewInterrupt(5, 0, 0, 1, 1, 1, 0.2, 0.2, func() { runs++ }),
		waypoint.NewEnd(5, -6, 0, 1, 1, 0.05, 0.1, 0.1, nil),
	)
	test.That(t, path.Init(), test.ShouldBeNil)

	// reaching the interrupt returns a hold-position command and queues the
	// action for the next tick
	cmd, err := path.Loop(4.9, 0, -math.Pi/2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cmd.IsZero(), test.ShouldBeTrue)
	test.That(t, path.At(1).Traversed(), test.ShouldBeTrue)
	test.That(t, runs, test.ShouldEqual, 0)

	_, err = path.Loop(4.9, 0, -math.Pi/2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, runs, test.ShouldEqual, 1)

	// the action runs once
	_, err = path.Loop(4.9, 0, -math.Pi/2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, runs, test.ShouldEqual, 1)
}

func TestEndTraversalFinishesPath(t *testing.T) {
	logger := golog.NewTestLogger(t)
	finished := 0
	path := NewPath(logger,
		waypoint.NewStart(0, 0),
		waypoint.NewEnd(10, 0, 0, 1, 1, 2, 0.3, 0.3, func() { finished++ }),
	)
	test.That(t, path.Init(), test.ShouldBeNil)
	test.That(t, path.IsFinished(), test.ShouldBeFalse)

	cmd, err := path.Loop(9.9, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cmd.IsZero(), test.ShouldBeTrue)
	test.That(t, path.IsFinished(), test.ShouldBeTrue)

	_, err = path.Loop(9.9, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, finished, test.ShouldEqual, 1)
}

func TestDecelerationStateResetsOnWaypointChange(t *testing.T) {
	logger := golog.NewTestLogger(t)
	path := NewPath(logger,
		waypoint.NewStart(0, 0),
		waypoint.NewPointTurn(5, 0, 0, 1, 1, 1, 0.2, 0.2),
		waypoint.NewEnd(5, 6, 0, 1, 1, 0.3, 0.2, 0.2, nil),
	)
	var lastDistances []float64
	err := path.SetDecelerationStrategy(func(cmd *Command, distance, lastDistance float64,
		dt time.Duration, movementSpeed, turnSpeed float64,
	) {
		lastDistances = append(lastDistances, lastDistance)
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, path.Init(), test.ShouldBeNil)

	// approaching the point turn
	_, err = path.Loop(4.5, 0, 0)
	test.That(t, err, test.ShouldBeNil)

	// the matched waypoint changes here; the strategy must not see the
	// distance measured to the point turn as the previous distance
	_, err = path.Loop(5, 5.6, math.Pi/2)
	test.That(t, err, test.ShouldBeNil)

	_, err = path.Loop(5, 5.6, math.Pi/2)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, lastDistances, test.ShouldHaveLength, 3)
	test.That(t, lastDistances[0], test.ShouldEqual, 0)
	test.That(t, lastDistances[1], test.ShouldEqual, 0)
	test.That(t, lastDistances[2], test.ShouldAlmostEqual, 0.4)
}

func TestGeneralPreferredHeading(t *testing.T) {
	logger := golog.NewTestLogger(t)
	middle := waypoint.NewGeneral(5, 0, 0, 1, 1, 2)
	middle.SetPreferredHeading(math.Pi / 2)
	path := NewPath(logger,
		waypoint.NewStart(0, 0),
		middle,
		waypoint.NewEnd(10, 0, 0, 1, 1, 0.05, 0.3, 0.3, nil),
	)
	test.That(t, path.Init(), test.ShouldBeNil)

	cmd, err := path.Loop(1, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	// the preferred heading overrides the geometric target heading
	test.That(t, cmd.Angular, test.ShouldBeGreaterThan, 0)
}

func TestEndToEndStraightLine(t *testing.T) {
	logger := golog.NewTestLogger(t)
	path := NewPath(logger, legalWaypoints()...)
	test.That(t, path.Init(), test.ShouldBeNil)

	end := path.At(2).Position()
	lastRemaining := math.Inf(1)
	finishedAt := math.Inf(1)
	for x := 0.0; x <= 10; x += 0.05 {
		if path.IsFinished() {
			finishedAt = x
			break
		}
		cmd, err := path.Loop(x, 0, 0)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cmd.Longitudinal, test.ShouldBeGreaterThanOrEqualTo, 0)

		remaining := end.Sub(r2.Point{X: x, Y: 0}).Norm()
		test.That(t, remaining, test.ShouldBeLessThanOrEqualTo, lastRemaining)
		lastRemaining = remaining

		if remaining >= 0.3 {
			test.That(t, path.IsFinished(), test.ShouldBeFalse)
		}
	}
	test.That(t, finishedAt, test.ShouldBeLessThan, 10)
	test.That(t, path.IsFinished(), test.ShouldBeTrue)
}
