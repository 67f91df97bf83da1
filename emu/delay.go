package emu

// DelayState is the state of the branch delay-slot scheduler.
type DelayState uint8

// Delay-slot states.
const (
	// DelayNone means no control transfer is pending.
	DelayNone DelayState = iota
	// DelayArmed means the current instruction computed a target; the next
	// sequential instruction (the delay slot) still runs.
	DelayArmed
	// DelayDue means the delay slot has run; the next fetch uses the target.
	DelayDue
)

func (s DelayState) String() string {
	switch s {
	case DelayNone:
		return "none"
	case DelayArmed:
		return "armed"
	case DelayDue:
		return "due"
	default:
		return "invalid"
	}
}

// DelaySlot tracks a pending branch or jump across exactly one instruction.
type DelaySlot struct {
	state  DelayState
	target uint32
}

// Arm records a control-transfer target. A later Arm replaces any pending
// target, including one that is already due.
func (d *DelaySlot) Arm(target uint32) {
	d.state = DelayArmed
	d.target = target
}

// Advance returns the address of the next fetch after the instruction at pc
// has executed, and moves the scheduler one step forward.
func (d *DelaySlot) Advance(pc uint32) uint32 {
	switch d.state {
	case DelayArmed:
		d.state = DelayDue
		return pc + 4
	case DelayDue:
		d.state = DelayNone
		return d.target
	default:
		return pc + 4
	}
}

// State returns the current scheduler state.
func (d *DelaySlot) State() DelayState {
	return d.state
}

// Target returns the pending target. It is meaningful only while armed or due.
func (d *DelaySlot) Target() uint32 {
	return d.target
}

// Reset drops any pending transfer.
func (d *DelaySlot) Reset() {
	d.state = DelayNone
	d.target = 0
}
