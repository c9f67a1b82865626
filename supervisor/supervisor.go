package supervisor

import (
	"fmt"

	"github.com/weftlabs/enginecore/axis"
	"github.com/weftlabs/enginecore/gcode"
	"github.com/weftlabs/enginecore/hal"
	"github.com/weftlabs/enginecore/kinematics"
	"github.com/weftlabs/enginecore/planner"
	"github.com/weftlabs/enginecore/stepper"
	"github.com/weftlabs/enginecore/util"
)

// SoftLimitBounds are the configured machine-coordinate bounds
// check_soft_limits tests against (spec §4.7).
type SoftLimitBounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// DefaultSoftLimits returns the reference firmware's default bounds:
// X,Y in [0,200], Z in [-50,0].
func DefaultSoftLimits() SoftLimitBounds {
	return SoftLimitBounds{MinX: 0, MaxX: 200, MinY: 0, MaxY: 200, MinZ: -50, MaxZ: 0}
}

// Config carries the supervisor's tunables; everything else (modal state,
// executor, planner queue, kinematics, HAL, stepper) is wired in at
// construction since the supervisor owns but does not build them.
type Config struct {
	LimitsEnabled     bool
	SoftLimitsEnabled bool
	SoftLimits        SoftLimitBounds
}

// DefaultConfig returns limits disabled (matching a bench setup with no
// switches wired yet) and the reference soft-limit bounds.
func DefaultConfig() Config {
	return Config{
		LimitsEnabled:     false,
		SoftLimitsEnabled: false,
		SoftLimits:        DefaultSoftLimits(),
	}
}

// Supervisor is the single owner of ModalState and the planner queue (spec
// §5): the "SupervisorContext" the rest of the core hangs off of.
type Supervisor struct {
	cfg Config

	state     State
	alarm     AlarmCode
	homed     bool
	startedMs uint32
	uptimeMs  uint32

	LinesProcessed uint64
	Errors         uint64

	Modal      *gcode.Modal
	Executor   *gcode.Executor
	Queue      *planner.Queue
	Kinematics kinematics.Adapter
	HAL        hal.HAL
	Stepper    *stepper.Stepper
}

// New builds a Supervisor in the Idle state, wired to the given components.
// The caller constructs Modal, Queue, Kinematics, HAL, Stepper, and Executor
// (over the same Modal/Queue/Kinematics) and hands them in — the supervisor
// never constructs its own subordinates, matching the capability-record
// wiring in spec §9.
func New(m *gcode.Modal, exec *gcode.Executor, q *planner.Queue, k kinematics.Adapter, h hal.HAL, st *stepper.Stepper, cfg Config) *Supervisor {
	return &Supervisor{
		cfg:        cfg,
		state:      Idle,
		Modal:      m,
		Executor:   exec,
		Queue:      q,
		Kinematics: k,
		HAL:        h,
		Stepper:    st,
		startedMs:  h.Millis(),
	}
}

// State reports the supervisor's current top-level state.
func (s *Supervisor) State() State {
	return s.state
}

// AlarmCode reports the latched alarm code, AlarmNone if not in Alarm.
func (s *Supervisor) AlarmCode() AlarmCode {
	return s.alarm
}

// Homed reports whether the machine has completed a successful homing cycle.
func (s *Supervisor) Homed() bool {
	return s.homed
}

// ProcessLine is the externally-called line dispatch entry point (spec
// §4.7). Behavior depends on the current state:
//   - Idle or Running: parsed and fed to the executor; on success,
//     lines_processed increments and Idle transitions to Running. Once the
//     modal program-complete flag is set (M02/M30), the state is Idle after
//     every successful line.
//   - Check: parsed only, never executed; on success, lines_processed
//     increments and position is left untouched.
//   - any other state: the line is dropped and errors increments.
//
// A dropped or malformed line increments the error counter and is reported
// through the returned error, but the supervisor keeps running either way
// (spec §7: "errors do not halt line processing").
func (s *Supervisor) ProcessLine(text string) error {
	switch s.state {
	case Idle, Running:
		b, err := gcode.Parse(text)
		if err != nil {
			s.Errors++
			return err
		}
		if err := s.Executor.Execute(b); err != nil {
			s.Errors++
			return err
		}
		s.LinesProcessed++
		if s.state == Idle {
			s.state = Running
		}
		if s.Modal.ProgramComplete {
			s.state = Idle
		}
		return nil

	case Check:
		if _, err := gcode.Parse(text); err != nil {
			s.Errors++
			return err
		}
		s.LinesProcessed++
		return nil

	default:
		s.Errors++
		return fmt.Errorf("supervisor: line dropped in state %s", s.state)
	}
}

// Poll updates uptime and reads HAL inputs for limit/e-stop conditions
// (spec §4.7). The reported machine position is not touched here;
// StatusReport derives it from the stepper on each call. It should be
// called frequently from the same cooperative loop that drives stepper
// updates.
func (s *Supervisor) Poll() {
	s.uptimeMs = s.HAL.Millis() - s.startedMs

	if s.cfg.LimitsEnabled && s.state == Running {
		if s.anyLimitAsserted() {
			s.triggerAlarm(AlarmHardLimit)
		}
	}
	if s.HAL.EStop() {
		s.triggerAlarm(AlarmEStop)
	}
}

func (s *Supervisor) anyLimitAsserted() bool {
	return s.HAL.LimitAsserted(axis.X) || s.HAL.LimitAsserted(axis.Y)
}

// triggerAlarm latches the machine into Alarm with the given code,
// stopping the stepper, forcing the spindle off, and clearing pending
// planner blocks. The motor drivers are not disabled: Stepper.Stop ends the
// current block but leaves the motor-enable state as it was. A second alarm
// while already in Alarm does not overwrite the original code.
func (s *Supervisor) triggerAlarm(code AlarmCode) {
	if s.state == Alarm {
		return
	}
	s.state = Alarm
	s.alarm = code
	s.Stepper.Stop()
	s.HAL.SetSpindle(hal.SpindleOff, 0)
	s.Modal.SpindleState = hal.SpindleOff
	s.Queue.Clear()
}

// TriggerAlarm latches an alarm from outside Poll — e.g. a probe or
// spindle-stall condition detected by a caller that isn't one of the two
// conditions Poll itself checks.
func (s *Supervisor) TriggerAlarm(code AlarmCode) {
	s.triggerAlarm(code)
}

// ClearAlarm is the only transition out of Alarm (spec §4.7: "the alarm
// latch cannot be left to any state other than Idle"). It reports false and
// leaves the state unchanged if not currently in Alarm.
func (s *Supervisor) ClearAlarm() bool {
	if s.state != Alarm {
		return false
	}
	s.state = Idle
	s.alarm = AlarmNone
	return true
}

// RequestRunning explicitly transitions Idle to Running, for a host that
// wants to start a program without feeding a line first.
func (s *Supervisor) RequestRunning() bool {
	if s.state != Idle {
		return false
	}
	s.state = Running
	return true
}

// FeedHoldNow transitions Running to Hold (spec §4.7), mirroring the
// real-time '!' byte's effect at the motion layer.
func (s *Supervisor) FeedHoldNow() bool {
	if s.state != Running {
		return false
	}
	s.state = Hold
	s.Stepper.HoldNow()
	return true
}

// CycleStartNow transitions Hold back to Running (spec §4.7), mirroring the
// real-time '~' byte.
func (s *Supervisor) CycleStartNow() bool {
	if s.state != Hold {
		return false
	}
	s.state = Running
	s.Stepper.Resume()
	return true
}

// EnterCheckMode transitions Idle to Check, for a host validating a program
// (parse-only, no motion) before running it for real.
func (s *Supervisor) EnterCheckMode() bool {
	if s.state != Idle {
		return false
	}
	s.state = Check
	return true
}

// ExitCheckMode returns Check to Idle.
func (s *Supervisor) ExitCheckMode() bool {
	if s.state != Check {
		return false
	}
	s.state = Idle
	return true
}

// StartHoming attempts to home the axes in mask. Valid only from Idle; the
// kinematics adapter may reject the mask (→ AlarmHomingFail). On success,
// position is reset to the home datum (0,0,0) and the homed flag is set.
func (s *Supervisor) StartHoming(mask axis.Mask) bool {
	if s.state != Idle {
		return false
	}
	s.state = Homing
	if !s.Kinematics.ValidateHomingAxes(mask) {
		s.triggerAlarm(AlarmHomingFail)
		return false
	}

	s.Modal.X, s.Modal.Y = 0, 0
	s.Stepper.SetPosition(kinematics.JointSteps{})
	s.homed = true
	s.state = Idle
	return true
}

// CheckSoftLimits reports whether (x, y, z) lies within the configured soft
// limit bounds. Always returns true when soft limits are disabled.
func (s *Supervisor) CheckSoftLimits(x, y, z float64) bool {
	if !s.cfg.SoftLimitsEnabled {
		return true
	}
	b := s.cfg.SoftLimits
	xLim := util.Limiter{Min: b.MinX, Max: b.MaxX}
	yLim := util.Limiter{Min: b.MinY, Max: b.MaxY}
	zLim := util.Limiter{Min: b.MinZ, Max: b.MaxZ}
	return xLim.Check(x) && yLim.Check(y) && zLim.Check(z)
}

// UptimeMs returns milliseconds elapsed since the supervisor was
// constructed, as of the last Poll call.
func (s *Supervisor) UptimeMs() uint32 {
	return s.uptimeMs
}
