// Package stepper implements the tick-driven pulse generator: a four-phase
// state machine (Idle, Running, Hold, Stopping) that turns one planner
// block into a sequence of HAL step pulses (spec §4.6).
//
// Update may legitimately be invoked from a timer ISR while Load, Hold,
// Resume, Stop, and the read accessors are called from the cooperative
// foreground loop; every method below takes the same mutex so the two
// contexts never observe a torn phase transition (spec §5).
package stepper

import (
	"sync"

	"github.com/weftlabs/enginecore/axis"
	"github.com/weftlabs/enginecore/hal"
	"github.com/weftlabs/enginecore/kinematics"
	"github.com/weftlabs/enginecore/planner"
)

// Phase is one of the four states in the stepper's runtime model.
type Phase int

const (
	Idle Phase = iota
	Running
	Hold
	Stopping
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	case Hold:
		return "Hold"
	case Stopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

// defaultIntervalUs is the step interval used when a block's entry speed is
// zero (spec §4.6: "if speed = 0 use a default interval (1 ms)").
const defaultIntervalUs = 1000

// Config carries the stepper's timing constants.
type Config struct {
	// DirSetupUs is the settle time after SetDirection before the first
	// pulse of a newly loaded block.
	DirSetupUs uint32
	// StepPulseUs is the pulse width held between StepPulse and StepClear.
	StepPulseUs uint32
	// IdleDisable, when true, disables motors after IdleTimeoutMs spent Idle.
	IdleDisable bool
	// IdleTimeoutMs is the idle duration (in HAL.Millis() units) after which
	// motors are disabled, if IdleDisable is set.
	IdleTimeoutMs uint32
}

// DefaultConfig returns conservative defaults: 10µs pulses, no direction
// setup delay beyond what a real driver datasheet would specify (callers
// tune this to their hardware), and idle-disable off.
func DefaultConfig() Config {
	return Config{
		DirSetupUs:    10,
		StepPulseUs:   10,
		IdleDisable:   false,
		IdleTimeoutMs: 0,
	}
}

// Stepper drives one planner.Block at a time into HAL pulses.
type Stepper struct {
	mu  sync.Mutex
	hal hal.HAL
	cfg Config

	phase Phase
	block planner.Block

	stepTaken    [axis.NumAxes]uint32
	stepInterval uint64 // microseconds
	lastStepTime uint64 // microseconds, HAL clock domain

	idleStart uint32 // milliseconds, HAL clock domain
	motorsOn  bool
	position  kinematics.JointSteps
}

// New returns an idle Stepper driving h, with its idle timer started now.
func New(h hal.HAL, cfg Config) *Stepper {
	return &Stepper{
		hal:       h,
		cfg:       cfg,
		phase:     Idle,
		idleStart: h.Millis(),
	}
}

// Phase reports the stepper's current phase.
func (s *Stepper) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Position reports the stepper's current joint-space step position, updated
// incrementally as pulses are emitted.
func (s *Stepper) Position() kinematics.JointSteps {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// SetPosition forcibly sets the joint-space position — used by homing,
// which defines the current location as the datum without any motion.
func (s *Stepper) SetPosition(p kinematics.JointSteps) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = p
}

// Load begins executing b. It is only valid from Idle with a block that
// passes Validate; it reports false and leaves the stepper untouched
// otherwise (spec §4.6: "Stepper never fails; invalid loads are rejected
// and reported via the boolean return of load").
func (s *Stepper) Load(b planner.Block) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != Idle || !b.Validate() {
		return false
	}

	s.block = b
	s.stepTaken = [axis.NumAxes]uint32{}

	s.hal.SetDirection(b.DirectionBits)
	s.hal.DelayMicros(s.cfg.DirSetupUs)

	s.stepInterval = intervalFromSpeed(b.EntrySpeed)

	if !s.motorsOn {
		s.hal.EnableMotors(true)
		s.motorsOn = true
	}

	s.phase = Running
	s.lastStepTime = s.hal.Micros()
	return true
}

// intervalFromSpeed derives the step interval in microseconds from a
// feedrate in mm/min, assuming a 1:1 mm-to-step calibration unless the
// kinematics adapter says otherwise (spec §4.6) — the adapter's calibration
// is already baked into StepsPerAxis by the time a block reaches here, so
// this converts purely from commanded linear speed to time between steps
// on the dominant axis.
func intervalFromSpeed(speedMMPerMin float64) uint64 {
	if speedMMPerMin <= 0 {
		return defaultIntervalUs
	}
	perSec := speedMMPerMin / 60.0
	return uint64(1e6 / perSec)
}

// Update advances the state machine given the current HAL microsecond
// clock. It is safe to call from a timer ISR (spec §5).
func (s *Stepper) Update(nowUs uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case Stopping:
		s.finishBlock()
		return
	case Running:
		s.tick(nowUs)
	case Idle:
		s.maybeIdleDisable()
	case Hold:
		// pulse emission frozen; counters preserved for Resume.
	}
}

func (s *Stepper) tick(nowUs uint64) {
	if nowUs-s.lastStepTime < s.stepInterval {
		return
	}

	var mask axis.Mask
	for i := 0; i < axis.NumAxes; i++ {
		if s.stepTaken[i] >= s.block.StepsPerAxis[i] {
			continue
		}
		bit := axis.Mask(1 << uint(i))
		mask |= bit
		s.stepTaken[i]++
		if s.block.DirectionBits.Has(bit) {
			s.position[i]++
		} else {
			s.position[i]--
		}
	}

	if mask != 0 {
		s.hal.StepPulse(mask)
		s.hal.DelayMicros(s.cfg.StepPulseUs)
		s.hal.StepClear()
	}
	s.lastStepTime = nowUs

	if s.blockDone() {
		s.finishBlock()
	}
}

func (s *Stepper) blockDone() bool {
	for i := 0; i < axis.NumAxes; i++ {
		if s.stepTaken[i] < s.block.StepsPerAxis[i] {
			return false
		}
	}
	return true
}

func (s *Stepper) finishBlock() {
	s.hal.StepClear()
	s.block = planner.Block{}
	s.stepTaken = [axis.NumAxes]uint32{}
	s.phase = Idle
	s.idleStart = s.hal.Millis()
}

func (s *Stepper) maybeIdleDisable() {
	if !s.cfg.IdleDisable || !s.motorsOn {
		return
	}
	if s.hal.Millis()-s.idleStart >= s.cfg.IdleTimeoutMs {
		s.hal.EnableMotors(false)
		s.motorsOn = false
	}
}

// HoldNow freezes pulse emission without losing progress through the
// current block; a no-op unless the stepper is Running.
func (s *Stepper) HoldNow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == Running {
		s.phase = Hold
	}
}

// Resume restores Running from Hold, resetting last_step_time to now so the
// next tick doesn't fire early on stale elapsed time; a no-op unless the
// stepper is on Hold.
func (s *Stepper) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != Hold {
		return
	}
	s.phase = Running
	s.lastStepTime = s.hal.Micros()
}

// Stop requests a one-shot transition to Stopping; the next Update call
// clears pulses and returns the stepper to Idle. A no-op from Idle.
func (s *Stepper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == Idle {
		return
	}
	s.phase = Stopping
}
