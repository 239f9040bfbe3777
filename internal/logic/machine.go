package logic

import "time"

// Machine is the curing cycle state machine. It owns every timing decision
// and is the sole authority over the relay drive line: all hardware effects
// leave it as Commands, applied by the run loop in order.
//
// The drive line is energized only inside the Curing state. Every path out
// of Curing emits a DriveFloating command before anything else, and Reset
// emits one before the machine will accept any input.
type Machine struct {
	params   Parameters
	debounce *Debouncer
	pulser   *Pulser

	state    CycleState
	drive    DriveMode
	deadline time.Time

	counts        CycleCounts
	startTime     time.Time
	lastHeartbeat time.Time
}

// NewMachine creates a machine for a validated parameter set. The startTime
// is used for uptime in heartbeat events. The machine starts in Idle with
// the drive assumed floating; call Reset and apply its commands before the
// first poll tick so the assumption is forced onto the hardware.
func NewMachine(params Parameters, startTime time.Time) *Machine {
	return &Machine{
		params:        params,
		debounce:      NewDebouncer(params.DebounceWindow),
		pulser:        NewPulser(params.PulseOn, params.PulseOff),
		state:         StateIdle,
		drive:         DriveFloating,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Reset forces the cold-start posture: drive floating, buzzer and LED off,
// state Idle, button disarmed until seen released. Cold start and warm
// restart are indistinguishable on purpose — the drive line must never be
// assumed de-energized across a restart.
func (m *Machine) Reset(now time.Time) []Command {
	m.state = StateIdle
	m.drive = DriveFloating
	m.pulser.Stop()
	m.debounce.Reset()
	return []Command{
		{Type: CommandSetDrive, Mode: DriveFloating},
		{Type: CommandBuzzer, On: false},
		{Type: CommandStatusLED, On: false},
	}
}

// Process consumes one poll sample and returns the hardware commands and
// transition events it produced. Commands must be applied in order: on the
// Curing exit the floating command precedes everything else.
//
// The button is consulted only in Idle. A press during any other state is
// not sampled, not queued, and has no effect on cycle timing.
func (m *Machine) Process(in Input) ([]Command, []Event) {
	var cmds []Command
	var events []Event

	switch m.state {
	case StateIdle:
		if m.debounce.Sample(in.Pressed, in.Time) != EdgePress {
			break
		}
		m.counts.Presses++
		m.counts.CyclesStarted++
		m.state = StateCuring
		m.drive = m.params.EnergizedMode()
		m.deadline = in.Time.Add(m.params.CureDuration)
		cmds = append(cmds,
			Command{Type: CommandSetDrive, Mode: m.drive},
			Command{Type: CommandStatusLED, On: true},
		)
		events = append(events, m.event(EventCureStart, in.Time))

	case StateCuring:
		if in.Time.Before(m.deadline) {
			break
		}
		// The cure wait is non-cancelable and has now run to completion.
		// Float the line first; nothing else may precede de-energizing.
		m.state = StateReleasing
		m.drive = DriveFloating
		m.deadline = in.Time.Add(m.params.SettleDelay)
		cmds = append(cmds,
			Command{Type: CommandSetDrive, Mode: DriveFloating},
			Command{Type: CommandStatusLED, On: false},
		)
		events = append(events, m.event(EventCureEnd, in.Time))

	case StateReleasing:
		if in.Time.Before(m.deadline) {
			break
		}
		m.state = StateNotifying
		if m.pulser.Start(m.params.PulseCount, in.Time) {
			cmds = append(cmds, Command{Type: CommandBuzzer, On: true})
		}
		if m.pulser.Done() {
			// Zero pulses: silent no-op, straight to cooldown.
			m.state = StateCooldown
			m.deadline = in.Time.Add(m.params.Cooldown)
		}

	case StateNotifying:
		if changed, on := m.pulser.Tick(in.Time); changed {
			cmds = append(cmds, Command{Type: CommandBuzzer, On: on})
		}
		if m.pulser.Done() {
			m.state = StateCooldown
			m.deadline = in.Time.Add(m.params.Cooldown)
		}

	case StateCooldown:
		if in.Time.Before(m.deadline) {
			break
		}
		m.state = StateIdle
		m.debounce.Reset()
		m.counts.CyclesComplete++
		events = append(events, m.event(EventCycleComplete, in.Time))
	}

	return cmds, events
}

func (m *Machine) event(t EventType, now time.Time) Event {
	return Event{Timestamp: now, Type: t, State: m.state, Drive: m.drive}
}

// State returns the current cycle state.
func (m *Machine) State() CycleState {
	return m.state
}

// Drive returns the drive mode the machine last commanded.
func (m *Machine) Drive() DriveMode {
	return m.drive
}

// Counts returns the lifetime counters, including debounce noise.
func (m *Machine) Counts() CycleCounts {
	c := m.counts
	c.NoiseRejected = m.debounce.Noise()
	return c
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since
// the last heartbeat (or startup). Returns nil if the interval has not
// elapsed or if interval is <= 0 (disabled).
func (m *Machine) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}
	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.Counts(),
	}
}
