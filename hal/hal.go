// Package hal defines the hardware abstraction layer contract the core
// calls through: time, stepper pins, spindle, coolant, and limit/e-stop
// inputs. HAL concretely touching GPIO/timers/serial is explicitly out of
// scope for the core (spec §1); this package only defines the interface
// and ships a software Sim implementation for tests and the CLI.
package hal

import "github.com/weftlabs/enginecore/axis"

// SpindleState mirrors the modal spindle state exposed over the HAL.
type SpindleState int

const (
	SpindleOff SpindleState = iota
	SpindleCW
	SpindleCCW
)

// HAL is the capability record the Stepper and Supervisor call through for
// every side effect that touches real hardware.
type HAL interface {
	// Millis returns a free-running millisecond counter.
	Millis() uint32
	// Micros returns a free-running microsecond counter.
	Micros() uint64

	// EnableMotors enables or disables the stepper drivers.
	EnableMotors(enable bool)
	// SetDirection sets the direction pins; bits per axis.Mask, 1 = positive.
	SetDirection(bits axis.Mask)
	// StepPulse asserts the step line for every axis set in mask.
	StepPulse(mask axis.Mask)
	// StepClear deasserts every step line.
	StepClear()

	// SetSpindle sets the spindle direction and PWM duty cycle in [0,1].
	SetSpindle(state SpindleState, pwm float64)
	// SetCoolant turns coolant on or off.
	SetCoolant(on bool)

	// LimitAsserted reports whether the limit switch for the given axis is
	// asserted.
	LimitAsserted(a axis.Mask) bool
	// EStop reports whether the emergency-stop input is asserted.
	EStop() bool

	// DelayMicros busy-waits for approximately the given duration, used for
	// the stepper's pulse-width and direction-setup delays (spec §5). An
	// implementation backed by a real timer ISR may replace this with a
	// scheduled callback without changing the contract.
	DelayMicros(us uint32)
}
