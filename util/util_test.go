package util_test

import (
	"testing"

	"github.com/weftlabs/enginecore/util"
)

func TestClampHigh(t *testing.T) {
	if got := util.Clamp(20, 0, 10); got != 10 {
		t.Errorf("expected 20 clamped to [0,10] to be 10, got %v", got)
	}
}

func TestClampLow(t *testing.T) {
	if got := util.Clamp(-1, 0, 10); got != 0 {
		t.Errorf("expected -1 clamped to [0,10] to be 0, got %v", got)
	}
}

func TestClampWithinRangePassesThrough(t *testing.T) {
	if got := util.Clamp(5, 0, 10); got != 5 {
		t.Errorf("expected 5 within [0,10] unchanged, got %v", got)
	}
}

func TestLimiterCheck(t *testing.T) {
	l := util.Limiter{Min: 0, Max: 200}
	if !l.Check(100) {
		t.Fatal("expected 100 within [0,200] to pass")
	}
	if l.Check(300) {
		t.Fatal("expected 300 outside [0,200] to fail")
	}
	if !l.Check(0) || !l.Check(200) {
		t.Fatal("expected the bounds themselves to pass (inclusive)")
	}
}

func TestLimiterClamp(t *testing.T) {
	l := util.Limiter{Min: -50, Max: 0}
	if got := l.Clamp(10); got != 0 {
		t.Errorf("expected 10 clamped to [-50,0] to be 0, got %v", got)
	}
}
