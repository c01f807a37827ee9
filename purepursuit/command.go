package purepursuit

import "fmt"

// Command is a robot-centric velocity command. Lateral is strafe (positive
// left), Longitudinal is forward, and Angular is counterclockwise rotation.
// Each component is nominally in [-1, 1].
type Command struct {
	Lateral      float64
	Longitudinal float64
	Angular      float64
}

// IsZero reports whether all components are exactly zero.
func (c Command) IsZero() bool {
	return c.Lateral == 0 && c.Longitudinal == 0 && c.Angular == 0
}

func (c Command) String() string {
	return fmt.Sprintf("cmd(lat=%.3f lon=%.3f ang=%.3f)", c.Lateral, c.Longitudinal, c.Angular)
}

func (c *Command) scaleTranslation(factor float64) {
	c.Lateral *= factor
	c.Longitudinal *= factor
}

func (c *Command) scaleRotation(factor float64) {
	c.Angular *= factor
}
