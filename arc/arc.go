// Package arc expands circular moves (G02/G03) into short linear chord
// segments, in both the center-offset (I/J) and radius (R) forms.
package arc

import (
	"fmt"
	"math"
)

// ARC_RADIUS_MIN and ARC_SEGMENT_LEN match the defaults named in spec §4.4.
const (
	DefaultRadiusMin  = 0.001
	DefaultSegmentLen = 0.5

	maxSegments = 10000

	// endpointEpsilon is the "below the minimum" distance used for the
	// full-circle rule: if the requested end point coincides with the
	// start point, the move is a full circle rather than a degenerate arc.
	endpointEpsilon = 1e-4
)

// ErrInvalidTarget is returned for a degenerate radius or a chord longer
// than the circle it would need to span.
var ErrInvalidTarget = fmt.Errorf("arc: invalid target")

// Point is a 2D cartesian point in millimeters.
type Point struct {
	X, Y float64
}

func (p Point) sub(o Point) Point   { return Point{p.X - o.X, p.Y - o.Y} }
func (p Point) add(o Point) Point   { return Point{p.X + o.X, p.Y + o.Y} }
func (p Point) scale(k float64) Point { return Point{p.X * k, p.Y * k} }
func (p Point) dist(o Point) float64 {
	d := p.sub(o)
	return math.Hypot(d.X, d.Y)
}

// Params bundles the two tunables spec §4.4 names.
type Params struct {
	// SegmentLen is the target chord length in mm (ARC_SEGMENT_LEN).
	SegmentLen float64
	// RadiusMin is the minimum acceptable working radius in mm (ARC_RADIUS_MIN).
	RadiusMin float64
}

// DefaultParams returns the spec's defaults.
func DefaultParams() Params {
	return Params{SegmentLen: DefaultSegmentLen, RadiusMin: DefaultRadiusMin}
}

func (p Params) segmentLen() float64 {
	if p.SegmentLen > 0 {
		return p.SegmentLen
	}
	return DefaultSegmentLen
}

func (p Params) radiusMin() float64 {
	if p.RadiusMin > 0 {
		return p.RadiusMin
	}
	return DefaultRadiusMin
}

// GenerateIJ expands a center-offset-form arc (center = start + (i, j))
// into chord segments, invoking emit once per intermediate waypoint and a
// final time with exactly end. emit's bool return is a continue flag: false
// stops generation early. Returns ErrInvalidTarget for a degenerate working
// radius.
func GenerateIJ(start, end Point, i, j float64, clockwise bool, p Params, emit func(Point) bool) error {
	center := Point{X: start.X + i, Y: start.Y + j}
	rStart := start.dist(center)
	rEnd := end.dist(center)
	r := (rStart + rEnd) / 2

	if r < p.radiusMin() {
		return ErrInvalidTarget
	}

	thetaStart := math.Atan2(start.Y-center.Y, start.X-center.X)
	thetaEnd := math.Atan2(end.Y-center.Y, end.X-center.X)

	var dtheta float64
	if clockwise {
		dtheta = math.Mod(thetaStart-thetaEnd, 2*math.Pi)
		if dtheta <= 0 {
			dtheta += 2 * math.Pi
		}
	} else {
		dtheta = math.Mod(thetaEnd-thetaStart, 2*math.Pi)
		if dtheta <= 0 {
			dtheta += 2 * math.Pi
		}
	}

	if end.dist(start) < endpointEpsilon {
		dtheta = 2 * math.Pi
	}

	segLen := p.segmentLen()
	n := int(math.Floor(r * dtheta / segLen))
	if n < 1 {
		n = 1
	}
	if n > maxSegments {
		n = maxSegments
	}

	angularStep := dtheta / float64(n)
	if clockwise {
		angularStep = -angularStep
	}

	for k := 1; k <= n; k++ {
		var pt Point
		if k == n {
			pt = end
		} else {
			theta := thetaStart + float64(k)*angularStep
			pt = Point{X: center.X + r*math.Cos(theta), Y: center.Y + r*math.Sin(theta)}
		}
		if !emit(pt) {
			return nil
		}
	}
	return nil
}

// GenerateR expands a radius-form arc into chord segments by first solving
// for the equivalent center (and thus I/J offsets), then delegating to
// GenerateIJ. Returns ErrInvalidTarget if the chord is longer than the
// circle of radius R could span.
func GenerateR(start, end Point, r float64, clockwise bool, p Params, emit func(Point) bool) error {
	chord := end.sub(start)
	chordLen := math.Hypot(chord.X, chord.Y)
	halfChord := chordLen / 2

	if halfChord > math.Abs(r) {
		return ErrInvalidTarget
	}
	if chordLen == 0 {
		return ErrInvalidTarget
	}

	h := math.Sqrt(r*r - halfChord*halfChord)
	mid := Point{X: (start.X + end.X) / 2, Y: (start.Y + end.Y) / 2}

	dir := chord.scale(1 / chordLen)
	rightPerp := Point{X: dir.Y, Y: -dir.X}

	useRight := (r >= 0) == clockwise

	perp := rightPerp
	if !useRight {
		perp = Point{X: -rightPerp.X, Y: -rightPerp.Y}
	}

	center := mid.add(perp.scale(h))
	i := center.X - start.X
	j := center.Y - start.Y

	return GenerateIJ(start, end, i, j, clockwise, p, emit)
}
