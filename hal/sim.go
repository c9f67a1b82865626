package hal

import (
	"sync"
	"time"

	"github.com/weftlabs/enginecore/axis"
)

// Sim is a software HAL implementation: it tracks motor enable state,
// direction bits, pulse counts per axis, spindle/coolant state, and
// software-settable limit/e-stop inputs. It is meant for tests and for
// driving the core end to end without real hardware (cmd/enginectl).
type Sim struct {
	mu sync.Mutex

	start time.Time

	motorsEnabled bool
	direction     axis.Mask
	pulsed        axis.Mask

	// PulseCounts accumulates the number of StepPulse calls observed per
	// axis, for tests that assert on stepper.step conservation.
	PulseCounts [axis.NumAxes]uint64

	spindleState SpindleState
	spindlePWM   float64
	coolant      bool

	limits [axis.NumAxes]bool
	estop  bool
}

// NewSim returns a ready-to-use simulated HAL with its clock starting now.
func NewSim() *Sim {
	return &Sim{start: time.Now()}
}

// Millis implements HAL.
func (s *Sim) Millis() uint32 {
	return uint32(time.Since(s.start).Milliseconds())
}

// Micros implements HAL.
func (s *Sim) Micros() uint64 {
	return uint64(time.Since(s.start).Microseconds())
}

// EnableMotors implements HAL.
func (s *Sim) EnableMotors(enable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.motorsEnabled = enable
}

// MotorsEnabled reports the current enable state, for tests/status.
func (s *Sim) MotorsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.motorsEnabled
}

// SetDirection implements HAL.
func (s *Sim) SetDirection(bits axis.Mask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.direction = bits
}

// Direction returns the last-set direction bits, for tests.
func (s *Sim) Direction() axis.Mask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.direction
}

// StepPulse implements HAL.
func (s *Sim) StepPulse(mask axis.Mask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pulsed |= mask
	if mask.Has(axis.X) {
		s.PulseCounts[0]++
	}
	if mask.Has(axis.Y) {
		s.PulseCounts[1]++
	}
}

// StepClear implements HAL.
func (s *Sim) StepClear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pulsed = 0
}

// SetSpindle implements HAL.
func (s *Sim) SetSpindle(state SpindleState, pwm float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spindleState = state
	s.spindlePWM = pwm
}

// SetCoolant implements HAL.
func (s *Sim) SetCoolant(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coolant = on
}

// LimitAsserted implements HAL.
func (s *Sim) LimitAsserted(a axis.Mask) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.Has(axis.X) && s.limits[0] {
		return true
	}
	if a.Has(axis.Y) && s.limits[1] {
		return true
	}
	return false
}

// EStop implements HAL.
func (s *Sim) EStop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estop
}

// DelayMicros implements HAL with a real (short) sleep so timing-sensitive
// callers observe realistic elapsed time.
func (s *Sim) DelayMicros(us uint32) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}

// SetLimit is a test/CLI hook to assert or clear a simulated limit switch.
func (s *Sim) SetLimit(a axis.Mask, asserted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.Has(axis.X) {
		s.limits[0] = asserted
	}
	if a.Has(axis.Y) {
		s.limits[1] = asserted
	}
}

// SetEStop is a test/CLI hook to assert or clear the simulated e-stop input.
func (s *Sim) SetEStop(asserted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.estop = asserted
}
