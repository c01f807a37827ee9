package purepursuit

import (
	"io"
	"os"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
	"gopkg.in/yaml.v3"

	"github.com/oakmotion/pursuit/spatialmath"
	"github.com/oakmotion/pursuit/waypoint"
)

// PathConfig is the YAML representation of a path. Angles are given in
// degrees and timeouts in milliseconds.
type PathConfig struct {
	Type      string           `yaml:"type"` // "ordering" (default) or "heading"
	TimeoutMs int              `yaml:"timeout_ms"`
	Retrace   *RetraceConfig   `yaml:"retrace"`
	Waypoints []WaypointConfig `yaml:"waypoints"`
}

// RetraceConfig configures lost-path recovery.
type RetraceConfig struct {
	Disabled      bool    `yaml:"disabled"`
	MovementSpeed float64 `yaml:"movement_speed"`
	TurnSpeed     float64 `yaml:"turn_speed"`
}

// WaypointConfig is the YAML representation of a single waypoint.
type WaypointConfig struct {
	Type                string   `yaml:"type"` // start|general|point_turn|interrupt|end
	X                   float64  `yaml:"x"`
	Y                   float64  `yaml:"y"`
	HeadingDeg          float64  `yaml:"heading_deg"`
	PreferredHeadingDeg *float64 `yaml:"preferred_heading_deg"`
	MovementSpeed       float64  `yaml:"movement_speed"`
	TurnSpeed           float64  `yaml:"turn_speed"`
	FollowRadius        float64  `yaml:"follow_radius"`
	PositionBuffer      float64  `yaml:"position_buffer"`
	RotationBufferDeg   float64  `yaml:"rotation_buffer_deg"`
	TimeoutMs           int      `yaml:"timeout_ms"`
}

// LoadPath reads a YAML path definition and builds a Path from it. Interrupt
// and End actions cannot be declared in YAML; attach them afterward with
// Waypoint.SetAction. The returned path still needs Init.
func LoadPath(r io.Reader, logger golog.Logger) (*Path, error) {
	var cfg PathConfig
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "decoding path config")
	}
	return cfg.Build(logger)
}

// LoadPathFile is LoadPath over a file on disk.
func LoadPathFile(path string, logger golog.Logger) (*Path, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	return LoadPath(f, logger)
}

// Build constructs a Path from the parsed configuration.
func (cfg PathConfig) Build(logger golog.Logger) (*Path, error) {
	path := NewPath(logger)

	switch cfg.Type {
	case "", "ordering":
		path.SetPathType(WaypointOrderingControlled)
	case "heading":
		path.SetPathType(HeadingControlled)
	default:
		return nil, errors.Wrapf(ErrInvalidPathConfiguration, "unknown path type %q", cfg.Type)
	}
	if cfg.TimeoutMs > 0 {
		path.SetPathTimeout(time.Duration(cfg.TimeoutMs) * time.Millisecond)
	}
	if cfg.Retrace != nil {
		if cfg.Retrace.Disabled {
			path.DisableRetrace()
		} else {
			path.SetRetraceSettings(cfg.Retrace.MovementSpeed, cfg.Retrace.TurnSpeed)
		}
	}

	for i, wc := range cfg.Waypoints {
		w, err := wc.build()
		if err != nil {
			return nil, errors.Wrapf(err, "waypoint %d", i)
		}
		path.Add(w)
	}
	return path, nil
}

func (wc WaypointConfig) build() (*waypoint.Waypoint, error) {
	heading := spatialmath.DegToRad(wc.HeadingDeg)
	rotationBuffer := spatialmath.DegToRad(wc.RotationBufferDeg)

	var w *waypoint.Waypoint
	switch wc.Type {
	case "start":
		w = waypoint.NewStart(wc.X, wc.Y)
	case "general":
		w = waypoint.NewGeneral(wc.X, wc.Y, heading, wc.MovementSpeed, wc.TurnSpeed, wc.FollowRadius)
	case "point_turn":
		w = waypoint.NewPointTurn(wc.X, wc.Y, heading,
			wc.MovementSpeed, wc.TurnSpeed, wc.FollowRadius, wc.PositionBuffer, rotationBuffer)
	case "interrupt":
		w = waypoint.NewInterrupt(wc.X, wc.Y, heading,
			wc.MovementSpeed, wc.TurnSpeed, wc.FollowRadius, wc.PositionBuffer, rotationBuffer, nil)
	case "end":
		w = waypoint.NewEnd(wc.X, wc.Y, heading,
			wc.MovementSpeed, wc.TurnSpeed, wc.FollowRadius, wc.PositionBuffer, rotationBuffer, nil)
	default:
		return nil, errors.Wrapf(ErrInvalidPathConfiguration, "unknown waypoint type %q", wc.Type)
	}
	if wc.PreferredHeadingDeg != nil {
		w.SetPreferredHeading(spatialmath.DegToRad(*wc.PreferredHeadingDeg))
	}
	if wc.TimeoutMs > 0 {
		w.SetTimeout(time.Duration(wc.TimeoutMs) * time.Millisecond)
	}
	return w, nil
}
