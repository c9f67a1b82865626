package supervisor

import "fmt"

// StatusReport renders the wire status-report grammar (spec §6):
//
//	<STATE|MPos:mx,my,mz|WPos:wx,wy,wz|F:f|S:s[|A:alarm]>
//
// Positions carry three decimals, F one decimal, S zero decimals. The A:
// field is present only while in the Alarm state.
func (s *Supervisor) StatusReport() string {
	mx, my, mz := s.machinePosition()
	wx, wy, wz := mx, my, mz // no work-coordinate-offset system (spec Non-goals: multi-WCS)

	base := fmt.Sprintf("<%s|MPos:%.3f,%.3f,%.3f|WPos:%.3f,%.3f,%.3f|F:%.1f|S:%.0f",
		s.state, mx, my, mz, wx, wy, wz, s.Modal.Feedrate, s.Modal.SpindleSpeed)

	if s.state == Alarm {
		return base + fmt.Sprintf("|A:%s>", s.alarm)
	}
	return base + ">"
}

// machinePosition reports the current cartesian machine position by
// converting the stepper's joint-space counters back through the
// kinematics adapter, so the status report reflects actual commanded steps
// rather than the (not-yet-executed) modal target.
func (s *Supervisor) machinePosition() (x, y, z float64) {
	p := s.Kinematics.StepsToCart(s.Stepper.Position())
	return p.X, p.Y, p.Z
}
