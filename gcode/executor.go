package gcode

import (
	"errors"
	"math"

	"github.com/weftlabs/enginecore/arc"
	"github.com/weftlabs/enginecore/axis"
	"github.com/weftlabs/enginecore/hal"
	"github.com/weftlabs/enginecore/kinematics"
	"github.com/weftlabs/enginecore/planner"
)

// Error taxonomy for the executor (spec §7). Parser errors (ErrInvalidParam)
// live in parser.go and are reused here for word-level validation that only
// makes sense once modal context is known (e.g. F <= 0).
var (
	ErrMissingParam   = errors.New("gcode: missing required parameter")
	ErrUnknownCmd     = errors.New("gcode: unknown M-code")
	ErrUnsupportedCmd = errors.New("gcode: unsupported G-code")
	// ErrQueueFull is returned when the planner queue has no room left for
	// a block this move would produce. Blocks of the move pushed before the
	// queue filled stay queued, and the modal position is not advanced.
	// Supervisor.ProcessLine counts it as an error like any other.
	ErrQueueFull = errors.New("gcode: planner queue full")
)

// Config holds the executor's tunable constants — none of these are modal
// state, they configure how the executor turns a move into planner blocks.
type Config struct {
	// RapidRate is the nominal speed (mm/min) used for G00 blocks, which
	// ignore the feedrate source (spec §4.3).
	RapidRate float64
	// Acceleration (mm/min^2) is stamped onto every produced block; this
	// executor does not implement cross-block look-ahead speed planning
	// (spec §4.5 — permitted but not required), so every block carries the
	// commanded speed as its entry, nominal and exit speed alike.
	Acceleration float64
	// Arc carries the arc segmenter's tunables (spec §4.4).
	Arc arc.Params
}

// DefaultConfig returns reasonable defaults: a 3000 mm/min rapid rate and
// the arc segmenter's spec-default chord length and minimum radius.
func DefaultConfig() Config {
	return Config{
		RapidRate:    3000,
		Acceleration: 500,
		Arc:          arc.DefaultParams(),
	}
}

// Executor applies modal state and dispatches motion/control actions
// against a planner queue, via a kinematics adapter (spec §4.3).
type Executor struct {
	Modal      *Modal
	Kinematics kinematics.Adapter
	Queue      *planner.Queue
	Config     Config

	// DwellFunc, if set, is invoked with the dwell duration in seconds for
	// a G04 command.
	DwellFunc func(seconds float64)
}

// NewExecutor builds an Executor over the given modal state, kinematics
// adapter, and planner queue.
func NewExecutor(m *Modal, k kinematics.Adapter, q *planner.Queue, cfg Config) *Executor {
	return &Executor{Modal: m, Kinematics: k, Queue: q, Config: cfg}
}

// Execute applies one parsed Block's modal update order — G-word, then
// M-word, then standalone S (spec §4.3, spec §5 ordering guarantee) — and
// returns the first error encountered, or nil on success.
func (e *Executor) Execute(b Block) error {
	m := e.Modal

	if b.HasG {
		if err := e.execG(b); err != nil {
			return err
		}
	}

	if b.HasM {
		return e.execM(b)
	}

	if b.S.Set {
		m.SpindleSpeed = b.S.Value
	}

	return nil
}

func (e *Executor) execG(b Block) error {
	m := e.Modal

	// F is processed alongside the G-word since it only ever accompanies a
	// motion command in this dialect (spec §4.3).
	if b.F.Set {
		if b.F.Value <= 0 {
			return ErrInvalidParam
		}
		m.Feedrate = b.F.Value
		m.FeedrateWasSet = true
	}

	switch b.G {
	case 0:
		m.MotionMode = Rapid
		return e.linearMove(b, true)
	case 1:
		m.MotionMode = Linear
		if !m.FeedrateWasSet {
			return ErrMissingParam
		}
		return e.linearMove(b, false)
	case 2:
		m.MotionMode = ArcCW
		return e.arcMove(b, true)
	case 3:
		m.MotionMode = ArcCCW
		return e.arcMove(b, false)
	case 4:
		m.MotionMode = Dwell
		if !b.P.Set || b.P.Value < 0 {
			return ErrMissingParam
		}
		if e.DwellFunc != nil {
			e.DwellFunc(b.P.Value)
		}
		return nil
	case 90:
		m.CoordMode = Absolute
		return nil
	case 91:
		m.CoordMode = Relative
		return nil
	case 93:
		m.FeedMode = InverseTime
		return nil
	case 94:
		m.FeedMode = UnitsPerMinute
		return nil
	default:
		return ErrUnsupportedCmd
	}
}

func (e *Executor) execM(b Block) error {
	m := e.Modal

	switch b.M {
	case 2, 30:
		m.SpindleState = hal.SpindleOff
		m.ProgramComplete = true
		if b.M == 30 {
			m.X, m.Y = 0, 0
		}
		return nil
	case 3:
		m.SpindleState = hal.SpindleCW
	case 4:
		m.SpindleState = hal.SpindleCCW
	case 5:
		m.SpindleState = hal.SpindleOff
	default:
		return ErrUnknownCmd
	}

	if b.S.Set {
		m.SpindleSpeed = b.S.Value
	}
	return nil
}

func targetAxis(wordSet bool, wordVal, current float64, mode CoordMode) float64 {
	if mode == Absolute {
		if wordSet {
			return wordVal
		}
		return current
	}
	if wordSet {
		return current + wordVal
	}
	return current
}

func (e *Executor) linearMove(b Block, rapid bool) error {
	m := e.Modal
	targetX := targetAxis(b.X.Set, b.X.Value, m.X, m.CoordMode)
	targetY := targetAxis(b.Y.Set, b.Y.Value, m.Y, m.CoordMode)

	from := kinematics.Point{X: m.X, Y: m.Y}
	target := kinematics.Point{X: targetX, Y: targetY}

	speed := m.Feedrate
	if rapid {
		speed = e.Config.RapidRate
	}

	var pushErr error
	cur := from
	e.Kinematics.SegmentMove(from, target, kinematics.Hint{Rapid: rapid, FeedrateMMPerMin: speed}, func(p kinematics.Point) bool {
		if err := e.pushBlock(cur, p, speed); err != nil {
			pushErr = err
			return false
		}
		cur = p
		return true
	})
	if pushErr != nil {
		return pushErr
	}

	m.X, m.Y = targetX, targetY
	return nil
}

func (e *Executor) arcMove(b Block, clockwise bool) error {
	m := e.Modal
	if !m.FeedrateWasSet {
		return ErrMissingParam
	}

	targetX := targetAxis(b.X.Set, b.X.Value, m.X, m.CoordMode)
	targetY := targetAxis(b.Y.Set, b.Y.Value, m.Y, m.CoordMode)

	start := arc.Point{X: m.X, Y: m.Y}
	end := arc.Point{X: targetX, Y: targetY}

	var pushErr error
	cur := kinematics.Point{X: start.X, Y: start.Y}
	emit := func(p arc.Point) bool {
		next := kinematics.Point{X: p.X, Y: p.Y}
		if err := e.pushBlock(cur, next, m.Feedrate); err != nil {
			pushErr = err
			return false
		}
		cur = next
		return true
	}

	var err error
	switch {
	case b.R.Set:
		err = arc.GenerateR(start, end, b.R.Value, clockwise, e.Config.Arc, emit)
	case b.I.Set || b.J.Set:
		err = arc.GenerateIJ(start, end, b.I.Value, b.J.Value, clockwise, e.Config.Arc, emit)
	default:
		return ErrMissingParam
	}
	if err != nil {
		return err
	}
	if pushErr != nil {
		return pushErr
	}

	m.X, m.Y = targetX, targetY
	return nil
}

// pushBlock converts one cartesian waypoint into a planner.Block via the
// kinematics adapter and pushes it onto the queue. It returns an error if
// the resulting block fails validation or the queue is full.
func (e *Executor) pushBlock(from, to kinematics.Point, speedMMPerMin float64) error {
	fromSteps := e.Kinematics.CartToJoint(from)
	toSteps := e.Kinematics.CartToJoint(to)

	var dirBits axis.Mask
	var stepsPerAxis [axis.NumAxes]uint32
	var stepEventCount uint32
	for i := 0; i < axis.NumAxes; i++ {
		delta := toSteps[i] - fromSteps[i]
		if delta > 0 {
			dirBits |= 1 << uint(i)
		}
		abs := delta
		if abs < 0 {
			abs = -abs
		}
		stepsPerAxis[i] = uint32(abs)
		if stepsPerAxis[i] > stepEventCount {
			stepEventCount = stepsPerAxis[i]
		}
	}

	dx, dy := to.X-from.X, to.Y-from.Y
	mm := math.Hypot(dx, dy)

	blk := planner.Block{
		EntrySpeed:     speedMMPerMin,
		NominalSpeed:   speedMMPerMin,
		ExitSpeed:      speedMMPerMin,
		Acceleration:   e.Config.Acceleration,
		MaxEntrySpeed:  speedMMPerMin,
		Millimeters:    mm,
		DirectionBits:  dirBits,
		StepEventCount: stepEventCount,
		StepsPerAxis:   stepsPerAxis,
	}
	if !blk.Validate() {
		return ErrInvalidParam
	}
	if stepEventCount == 0 {
		// Zero-length segment (e.g. a G01 to the current position); not an
		// error, simply nothing to queue.
		return nil
	}
	if !e.Queue.Push(blk) {
		return ErrQueueFull
	}
	return nil
}
