// Package planner holds a single linear motion segment in machine units,
// annotated with the entry/exit/nominal speeds and acceleration a stepper
// execution engine needs to generate correctly-timed step pulses.
package planner

import "github.com/weftlabs/enginecore/axis"

// Block is one straight-line move in machine units. It is a passive data
// value — constructed zero-filled by the executor or arc segmenter,
// populated, and validated before it is ever handed to the stepper.
//
// The reference firmware this core descends from links blocks with a raw
// "next" pointer for an in-place linked-list queue; that is re-architected
// here as a bounded ring buffer (see Queue below) keyed by index, so Block
// itself carries no pointer.
type Block struct {
	// EntrySpeed is the speed (mm/min) the block is entered at.
	EntrySpeed float64
	// NominalSpeed is the commanded cruise speed (mm/min) for the block.
	NominalSpeed float64
	// ExitSpeed is the speed (mm/min) the block is exited at.
	ExitSpeed float64
	// Acceleration (mm/min^2) applies to both the entry ramp and exit ramp.
	Acceleration float64
	// MaxEntrySpeed is the maximum speed (mm/min) the junction with the
	// previous block allows entering at.
	MaxEntrySpeed float64
	// Millimeters is the total cartesian length of the move.
	Millimeters float64
	// DirectionBits has one bit per joint axis (axis.X, axis.Y); 1 = positive.
	DirectionBits axis.Mask
	// StepEventCount is the total step count on the dominant axis.
	StepEventCount uint32
	// StepsPerAxis is the per-joint-axis step count the kinematics adapter
	// computed for this block.
	StepsPerAxis [axis.NumAxes]uint32
	// Recalculate marks the block as needing a look-ahead speed pass.
	Recalculate bool
	// NominalLength marks a block whose entry and exit speeds can both
	// reach NominalSpeed within its length (the look-ahead planner's
	// "plateau" case).
	NominalLength bool
}

// Validate enforces the invariants from spec §3: all speeds and
// acceleration are non-negative, distance is non-negative, and entry/exit
// speeds are consistent with MaxEntrySpeed and NominalSpeed when those are
// set. A block with every speed at zero (a "complete stop" sentinel) is
// valid.
func (b Block) Validate() bool {
	if b.EntrySpeed < 0 || b.NominalSpeed < 0 || b.ExitSpeed < 0 || b.Acceleration < 0 || b.Millimeters < 0 {
		return false
	}
	if b.MaxEntrySpeed > 0 && b.EntrySpeed > b.MaxEntrySpeed {
		return false
	}
	if b.NominalSpeed > 0 {
		if b.EntrySpeed > b.NominalSpeed || b.ExitSpeed > b.NominalSpeed {
			return false
		}
	}
	return true
}
