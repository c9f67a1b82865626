package kinematics

import (
	"math"

	"github.com/weftlabs/enginecore/axis"
)

// CoreXY implements the belt-driven CoreXY geometry, where both stepper
// motors (A, B) turn for any cartesian move: A = X + Y, B = X - Y (and the
// inverse X = (A+B)/2, Y = (A-B)/2). It exists to exercise the adapter
// boundary spec §9 calls out by name (CoreXY vs. Cartesian): unlike
// Cartesian, a single cartesian axis move here drives both joint axes.
type CoreXY struct {
	// StepsPerMM is the belt calibration factor, shared by both motors.
	StepsPerMM float64

	// MaxSegmentLen, as in Cartesian.
	MaxSegmentLen float64
}

// NewCoreXY returns a CoreXY adapter with a 1:1 mm-to-step calibration.
func NewCoreXY() *CoreXY {
	return &CoreXY{StepsPerMM: 1.0}
}

// SegmentMove implements Adapter.
func (c *CoreXY) SegmentMove(current, target Point, hint Hint, emit func(Point) bool) {
	straightLineSegments(current, target, c.MaxSegmentLen, emit)
}

// CartToJoint implements Adapter: A = X+Y, B = X-Y, both scaled to steps.
func (c *CoreXY) CartToJoint(p Point) JointSteps {
	spm := c.stepsPerMM()
	a := (p.X + p.Y) * spm
	b := (p.X - p.Y) * spm
	return JointSteps{int64(math.Round(a)), int64(math.Round(b))}
}

// StepsToCart implements Adapter: X = (A+B)/2, Y = (A-B)/2.
func (c *CoreXY) StepsToCart(j JointSteps) Point {
	spm := c.stepsPerMM()
	a := float64(j[0]) / spm
	b := float64(j[1]) / spm
	return Point{X: (a + b) / 2, Y: (a - b) / 2}
}

// ValidateHomingAxes implements Adapter: because both motors move for any
// cartesian axis, CoreXY only supports homing both axes together.
func (c *CoreXY) ValidateHomingAxes(mask axis.Mask) bool {
	return mask == axis.X|axis.Y
}

func (c *CoreXY) stepsPerMM() float64 {
	if c.StepsPerMM <= 0 {
		return 1.0
	}
	return c.StepsPerMM
}
