// Package kinematics defines the capability record the core calls to
// translate between cartesian coordinates and per-axis joint step counts.
// Spec §9 re-architects the reference firmware's process-wide mutable
// function-pointer record into this: an interface owned by the Supervisor
// and passed by reference to the Executor and Stepper, with no
// process-wide state, grounded on motion.Controller's narrow-interface
// shape in the example pack.
package kinematics

import "github.com/weftlabs/enginecore/axis"

// Point is a cartesian position in millimeters. Z is carried for forward
// compatibility (spec §9) but never commanded by the motion path.
type Point struct {
	X, Y, Z float64
}

// Sub returns p - o.
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y, Z: p.Z - o.Z}
}

// JointSteps is the per-axis integer step position in joint (motor) space.
type JointSteps [axis.NumAxes]int64

// Hint carries the information a kinematics adapter needs to decide how
// finely to subdivide a straight-line move; it does not affect the
// endpoints, only the waypoint density between them.
type Hint struct {
	// Rapid is true for G00 moves.
	Rapid bool
	// FeedrateMMPerMin is the commanded feedrate for the move.
	FeedrateMMPerMin float64
}

// Adapter is the kinematics capability record. Implementations translate
// cartesian targets into joint-space step commands and validate homing
// requests; they never touch hardware (that is the HAL's job) and never
// touch modal state (that is the Executor's job).
type Adapter interface {
	// SegmentMove invokes emit once for every cartesian waypoint along the
	// straight line from current to target, in travel order, stopping early
	// if emit returns false. The final invocation always carries exactly
	// target (subject to floating-point snapping), matching the arc
	// segmenter's endpoint-exactness guarantee.
	SegmentMove(current, target Point, hint Hint, emit func(Point) bool)

	// CartToJoint converts a cartesian point to an absolute joint-space step
	// position.
	CartToJoint(p Point) JointSteps

	// StepsToCart converts an absolute joint-space step position back to a
	// cartesian point.
	StepsToCart(j JointSteps) Point

	// ValidateHomingAxes reports whether mask is an axis combination this
	// adapter can home, guarding Supervisor.StartHoming.
	ValidateHomingAxes(mask axis.Mask) bool
}
