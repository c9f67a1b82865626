package arc_test

import (
	"math"
	"testing"

	"github.com/weftlabs/enginecore/arc"
)

const tol = 0.001

func TestGenerateIJQuarterCircleCW(t *testing.T) {
	start := arc.Point{X: 10, Y: 0}
	end := arc.Point{X: 0, Y: 10}
	var pts []arc.Point
	err := arc.GenerateIJ(start, end, -10, 0, true, arc.DefaultParams(), func(p arc.Point) bool {
		pts = append(pts, p)
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pts) < 31 {
		t.Fatalf("expected at least 31 segments for r=10, L=0.5, got %d", len(pts))
	}
	for _, p := range pts {
		r2 := p.X*p.X + p.Y*p.Y
		if math.Abs(r2-100) > 0.01 {
			t.Fatalf("point %+v not on circle of radius 10: r^2=%v", p, r2)
		}
	}
	last := pts[len(pts)-1]
	if last != end {
		t.Fatalf("expected exact endpoint %+v, got %+v", end, last)
	}
}

func TestGenerateIJDegenerateRadius(t *testing.T) {
	start := arc.Point{X: 0, Y: 0}
	end := arc.Point{X: 0.0001, Y: 0}
	err := arc.GenerateIJ(start, end, 0.00001, 0, true, arc.DefaultParams(), func(arc.Point) bool { return true })
	if err != arc.ErrInvalidTarget {
		t.Fatalf("expected ErrInvalidTarget for a degenerate radius, got %v", err)
	}
}

func TestGenerateIJFullCircle(t *testing.T) {
	start := arc.Point{X: 10, Y: 0}
	end := arc.Point{X: 10, Y: 0}
	var pts []arc.Point
	err := arc.GenerateIJ(start, end, -10, 0, false, arc.DefaultParams(), func(p arc.Point) bool {
		pts = append(pts, p)
		return true
	})
	if err != nil {
		t.Fatal(err)
	}
	// A full circle at r=10 with L=0.5 should produce roughly 2*pi*10/0.5 ~= 125 segments.
	if len(pts) < 100 {
		t.Fatalf("expected a full-circle segment count, got %d", len(pts))
	}
}

func TestGenerateRReachesEndpoint(t *testing.T) {
	start := arc.Point{X: 10, Y: 0}
	end := arc.Point{X: 0, Y: 10}
	var viaR []arc.Point
	err := arc.GenerateR(start, end, 10, true, arc.DefaultParams(), func(p arc.Point) bool {
		viaR = append(viaR, p)
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := viaR[len(viaR)-1]
	if math.Abs(last.X-end.X) > tol || math.Abs(last.Y-end.Y) > tol {
		t.Fatalf("expected endpoint near %+v, got %+v", end, last)
	}
}

func TestGenerateRChordTooLong(t *testing.T) {
	start := arc.Point{X: 0, Y: 0}
	end := arc.Point{X: 100, Y: 0}
	err := arc.GenerateR(start, end, 10, true, arc.DefaultParams(), func(arc.Point) bool { return true })
	if err != arc.ErrInvalidTarget {
		t.Fatalf("expected ErrInvalidTarget for chord longer than diameter, got %v", err)
	}
}

func TestGenerateIJCallbackEarlyStop(t *testing.T) {
	start := arc.Point{X: 10, Y: 0}
	end := arc.Point{X: -10, Y: 0}
	count := 0
	arc.GenerateIJ(start, end, -10, 0, false, arc.DefaultParams(), func(arc.Point) bool {
		count++
		return count < 3
	})
	if count != 3 {
		t.Fatalf("expected generation to stop after 3 callbacks, got %d", count)
	}
}
