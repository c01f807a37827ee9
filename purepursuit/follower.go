package purepursuit

import (
	"context"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/oakmotion/pursuit/spatialmath"
)

// PoseSource reports the robot's current pose, typically from odometry.
type PoseSource interface {
	CurrentPose(ctx context.Context) (spatialmath.Pose, error)
}

// Drivetrain actuates velocity commands on a physical or simulated base.
type Drivetrain interface {
	Drive(ctx context.Context, cmd Command) error
	Stop(ctx context.Context) error
}

// SetDrivetrain binds the drivetrain used by Follow.
func (p *Path) SetDrivetrain(drivetrain Drivetrain) {
	p.drivetrain = drivetrain
}

// SetPoseSource binds the pose source used by Follow.
func (p *Path) SetPoseSource(source PoseSource) {
	p.poseSource = source
}

// SetFollowPeriod sets the pacing interval of Follow's polling loop; 0 polls
// as fast as possible. The default is 20ms.
func (p *Path) SetFollowPeriod(period time.Duration) {
	p.followPeriod = period
}

// Follow repeatedly polls the bound pose source, runs the engine, and
// forwards commands to the bound drivetrain until the path finishes, the
// whole-path deadline elapses (ErrPathTimeout), a waypoint times out, or ctx
// is canceled. The drivetrain is stopped on the way out. Follow blocks; it
// is a convenience wrapper around Loop and adds no behavior of its own.
func (p *Path) Follow(ctx context.Context) error {
	if !p.initComplete {
		return ErrNotInitialized
	}
	if !p.autoMode {
		return errors.Wrap(ErrMissingConfiguration, "automatic mode is not enabled")
	}
	if p.drivetrain == nil || p.poseSource == nil {
		return errors.Wrap(ErrMissingConfiguration, "automatic mode requires a drivetrain and a pose source")
	}

	started := p.clock.Now()
	defer func() {
		goutils.UncheckedError(p.drivetrain.Stop(ctx))
	}()

	for !p.IsFinished() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.pathTimeout > 0 && p.clock.Now().Sub(started) > p.pathTimeout {
			p.timedOut = true
			return ErrPathTimeout
		}

		pose, err := p.poseSource.CurrentPose(ctx)
		if err != nil {
			return err
		}
		cmd, err := p.Loop(pose.Position.X, pose.Position.Y, pose.Heading)
		if err != nil {
			return err
		}
		if err := p.drivetrain.Drive(ctx, cmd); err != nil {
			return err
		}

		if p.followPeriod > 0 && !goutils.SelectContextOrWait(ctx, p.followPeriod) {
			return ctx.Err()
		}
	}
	return nil
}
