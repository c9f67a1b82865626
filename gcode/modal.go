package gcode

import "github.com/weftlabs/enginecore/hal"

// MotionMode is the sticky motion mode set by the last G00/G01/G02/G03/G04.
type MotionMode int

const (
	Rapid MotionMode = iota
	Linear
	ArcCW
	ArcCCW
	Dwell
)

// CoordMode is the sticky coordinate interpretation, default Absolute.
type CoordMode int

const (
	Absolute CoordMode = iota
	Relative
)

// FeedMode is the sticky feed interpretation, default UnitsPerMinute.
type FeedMode int

const (
	UnitsPerMinute FeedMode = iota
	InverseTime
)

// Modal is the executor's persistent state, carried across lines until
// explicitly changed (spec §3).
type Modal struct {
	X, Y float64

	MotionMode MotionMode
	CoordMode  CoordMode
	FeedMode   FeedMode

	SpindleState hal.SpindleState
	SpindleSpeed float64

	Feedrate       float64
	FeedrateWasSet bool

	ProgramComplete bool
}

// NewModal returns a Modal initialized per spec §3: position at the
// origin, feedrate 100.0 mm/min but unset, absolute coordinates.
func NewModal() *Modal {
	m := &Modal{}
	m.Init()
	return m
}

// Init (re-)establishes the spec §3 initial state. init();init() is
// idempotent: it always yields the same state regardless of what came
// before.
func (m *Modal) Init() {
	*m = Modal{
		Feedrate:       100.0,
		FeedrateWasSet: false,
		CoordMode:      Absolute,
		FeedMode:       UnitsPerMinute,
		MotionMode:     Rapid,
		SpindleState:   hal.SpindleOff,
	}
}
