// Package logic contains the pure curing-cycle core: button debounce, the
// completion pulse sequencer, and the cycle state machine.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// CycleState is the phase of the curing cycle.
type CycleState string

const (
	StateIdle      CycleState = "IDLE"
	StateCuring    CycleState = "CURING"
	StateReleasing CycleState = "RELEASING"
	StateNotifying CycleState = "NOTIFYING"
	StateCooldown  CycleState = "COOLDOWN"
)

// DriveMode is the electrical state of the relay drive line.
type DriveMode string

const (
	// DriveFloating is the line reconfigured as a non-driving input. It is
	// the only mode guaranteed to de-energize the relay coil: driving the
	// line to its inactive level leaves enough leakage through the relay
	// driver to hold the coil in.
	DriveFloating DriveMode = "FLOATING"
	DriveLow      DriveMode = "LOW"
	DriveHigh     DriveMode = "HIGH"
)

// Energized reports whether the mode actively drives the line.
func (m DriveMode) Energized() bool {
	return m == DriveLow || m == DriveHigh
}

// Edge is the result of one debounced input sample.
type Edge int

const (
	EdgeNone Edge = iota
	EdgePress
)

// CommandType identifies a hardware action.
type CommandType string

const (
	CommandSetDrive  CommandType = "SET_DRIVE"
	CommandBuzzer    CommandType = "BUZZER"
	CommandStatusLED CommandType = "STATUS_LED"
)

// Command is a hardware action requested by the state machine. The run loop
// is the only component that applies commands to the lines; the machine
// itself never touches hardware.
type Command struct {
	Type CommandType
	Mode DriveMode // CommandSetDrive only
	On   bool      // CommandBuzzer / CommandStatusLED only
}

// EventType represents a cycle transition event.
type EventType string

const (
	EventCureStart     EventType = "CURE_START"
	EventCureEnd       EventType = "CURE_END"
	EventCycleComplete EventType = "CYCLE_COMPLETE"
)

// Event represents a cycle transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	State     CycleState
	Drive     DriveMode
}

// Input represents a single poll sample.
type Input struct {
	Pressed bool // true = pressed (already inverted from the pulled-up line)
	Time    time.Time
}

// CycleCounts tracks lifetime counters since startup.
type CycleCounts struct {
	Presses        int
	NoiseRejected  int
	CyclesStarted  int
	CyclesComplete int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    CycleCounts
}
