package kinematics

import (
	"math"

	"github.com/weftlabs/enginecore/axis"
)

// Cartesian is the simplest adapter: joint axis 0 is machine X, joint axis
// 1 is machine Y, related to cartesian space by a single steps-per-mm
// calibration factor shared by both axes. Every cartesian move commands
// steps on each axis it actually moves along, with no cross-axis coupling;
// each joint axis gets its own step count rather than all steps going to
// the dominant axis.
type Cartesian struct {
	// StepsPerMM is the calibration factor; the reference assumes 1:1
	// (spec §4.6) unless overridden here.
	StepsPerMM float64

	// MaxSegmentLen, if > 0, subdivides long linear moves into waypoints no
	// longer than this length. Zero means "emit the target directly",
	// which is sufficient to satisfy the segment_move contract for a
	// straight line.
	MaxSegmentLen float64
}

// NewCartesian returns a Cartesian adapter with a 1:1 mm-to-step
// calibration and no linear subdivision, matching the reference firmware's
// assumption in spec §4.6.
func NewCartesian() *Cartesian {
	return &Cartesian{StepsPerMM: 1.0}
}

// SegmentMove implements Adapter.
func (c *Cartesian) SegmentMove(current, target Point, hint Hint, emit func(Point) bool) {
	straightLineSegments(current, target, c.MaxSegmentLen, emit)
}

// CartToJoint implements Adapter.
func (c *Cartesian) CartToJoint(p Point) JointSteps {
	spm := c.stepsPerMM()
	return JointSteps{
		int64(math.Round(p.X * spm)),
		int64(math.Round(p.Y * spm)),
	}
}

// StepsToCart implements Adapter.
func (c *Cartesian) StepsToCart(j JointSteps) Point {
	spm := c.stepsPerMM()
	return Point{X: float64(j[0]) / spm, Y: float64(j[1]) / spm}
}

// ValidateHomingAxes implements Adapter: Cartesian accepts any non-empty
// combination of its two commanded axes.
func (c *Cartesian) ValidateHomingAxes(mask axis.Mask) bool {
	return mask != 0 && mask&^(axis.X|axis.Y) == 0
}

func (c *Cartesian) stepsPerMM() float64 {
	if c.StepsPerMM <= 0 {
		return 1.0
	}
	return c.StepsPerMM
}

// straightLineSegments emits waypoints from current to target, subdividing
// at maxLen if it is positive, and always snapping the final waypoint to
// exactly target to absorb floating-point error (mirroring the arc
// segmenter's endpoint-exactness rule in spec §4.4).
func straightLineSegments(current, target Point, maxLen float64, emit func(Point) bool) {
	d := target.Sub(current)
	dist := math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
	if maxLen <= 0 || dist <= maxLen || dist == 0 {
		emit(target)
		return
	}
	n := int(dist/maxLen) + 1
	for k := 1; k < n; k++ {
		frac := float64(k) / float64(n)
		p := Point{
			X: current.X + d.X*frac,
			Y: current.Y + d.Y*frac,
			Z: current.Z + d.Z*frac,
		}
		if !emit(p) {
			return
		}
	}
	emit(target)
}

