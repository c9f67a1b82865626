package kinematics_test

import (
	"math"
	"testing"

	"github.com/weftlabs/enginecore/axis"
	"github.com/weftlabs/enginecore/kinematics"
)

const tol = 0.001

func approx(a, b float64) bool {
	return math.Abs(a-b) < tol
}

func TestCartesianRoundTrip(t *testing.T) {
	c := kinematics.NewCartesian()
	// Fine enough that both coordinates land on whole steps.
	c.StepsPerMM = 100
	p := kinematics.Point{X: 12.5, Y: -3.25}
	j := c.CartToJoint(p)
	back := c.StepsToCart(j)
	if !approx(back.X, p.X) || !approx(back.Y, p.Y) {
		t.Fatalf("round trip mismatch: got %+v want %+v", back, p)
	}
}

func TestCartesianSegmentMoveEndpointExact(t *testing.T) {
	c := kinematics.NewCartesian()
	target := kinematics.Point{X: 50, Y: 50}
	var last kinematics.Point
	c.SegmentMove(kinematics.Point{}, target, kinematics.Hint{}, func(p kinematics.Point) bool {
		last = p
		return true
	})
	if last != target {
		t.Fatalf("expected final waypoint to equal target exactly, got %+v want %+v", last, target)
	}
}

func TestCartesianHomingAxes(t *testing.T) {
	c := kinematics.NewCartesian()
	if !c.ValidateHomingAxes(axis.X) {
		t.Fatal("cartesian should allow homing X alone")
	}
	if !c.ValidateHomingAxes(axis.X | axis.Y) {
		t.Fatal("cartesian should allow homing both axes")
	}
	if c.ValidateHomingAxes(0) {
		t.Fatal("cartesian should reject an empty mask")
	}
}

func TestCoreXYCouplesBothMotors(t *testing.T) {
	c := kinematics.NewCoreXY()
	j := c.CartToJoint(kinematics.Point{X: 10, Y: 0})
	if j[0] == 0 || j[1] == 0 {
		t.Fatalf("expected both CoreXY motors to move for a pure-X cartesian move, got %+v", j)
	}
	back := c.StepsToCart(j)
	if !approx(back.X, 10) || !approx(back.Y, 0) {
		t.Fatalf("round trip mismatch: got %+v", back)
	}
}

func TestCoreXYHomingRequiresBothAxes(t *testing.T) {
	c := kinematics.NewCoreXY()
	if c.ValidateHomingAxes(axis.X) {
		t.Fatal("corexy should reject homing a single axis")
	}
	if !c.ValidateHomingAxes(axis.X | axis.Y) {
		t.Fatal("corexy should accept homing both axes together")
	}
}
