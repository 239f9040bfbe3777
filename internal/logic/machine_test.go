package logic

import (
	"testing"
	"time"
)

// scenarioParams is a short cycle used across machine tests:
// 2s cure, 3 beeps of 100ms/100ms, 500ms settle, 1s cooldown.
func scenarioParams() Parameters {
	return Parameters{
		CureDuration:   2 * time.Second,
		DebounceWindow: 50 * time.Millisecond,
		SettleDelay:    500 * time.Millisecond,
		PulseCount:     3,
		PulseOn:        100 * time.Millisecond,
		PulseOff:       100 * time.Millisecond,
		Cooldown:       time.Second,
		DriveActiveLow: true,
	}
}

// stamped pairs a machine output with the elapsed time it was produced at.
type stampedCommand struct {
	Elapsed time.Duration
	Command Command
}

type stampedEvent struct {
	Elapsed time.Duration
	Event   Event
}

// simulate drives the machine with one sample per step for the given total
// duration. pressedAt reports the button level at an elapsed offset. The
// drive-energized-only-while-curing invariant is checked on every step.
func simulate(t *testing.T, m *Machine, start time.Time, step, total time.Duration, pressedAt func(time.Duration) bool) ([]stampedCommand, []stampedEvent) {
	t.Helper()
	var cmds []stampedCommand
	var events []stampedEvent

	for el := time.Duration(0); el <= total; el += step {
		now := start.Add(el)
		cs, es := m.Process(Input{Pressed: pressedAt(el), Time: now})
		for _, c := range cs {
			cmds = append(cmds, stampedCommand{Elapsed: el, Command: c})
		}
		for _, e := range es {
			events = append(events, stampedEvent{Elapsed: el, Event: e})
		}

		if m.Drive().Energized() != (m.State() == StateCuring) {
			t.Fatalf("at %v: drive %s with state %s", el, m.Drive(), m.State())
		}
	}
	return cmds, events
}

// pressBetween returns a pressedAt function that reads pressed inside
// [from, to) and released elsewhere.
func pressBetween(from, to time.Duration) func(time.Duration) bool {
	return func(el time.Duration) bool {
		return el >= from && el < to
	}
}

func findEvent(events []stampedEvent, typ EventType) (stampedEvent, bool) {
	for _, e := range events {
		if e.Event.Type == typ {
			return e, true
		}
	}
	return stampedEvent{}, false
}

func TestNewMachineStartsIdleFloating(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(scenarioParams(), start)

	if m.State() != StateIdle {
		t.Errorf("expected IDLE, got %s", m.State())
	}
	if m.Drive() != DriveFloating {
		t.Errorf("expected FLOATING, got %s", m.Drive())
	}
}

func TestResetForcesColdStartPosture(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(scenarioParams(), start)

	cmds := m.Reset(start)
	if len(cmds) != 3 {
		t.Fatalf("expected 3 reset commands, got %d", len(cmds))
	}
	if cmds[0].Type != CommandSetDrive || cmds[0].Mode != DriveFloating {
		t.Errorf("first reset command must float the drive, got %+v", cmds[0])
	}
	if cmds[1].Type != CommandBuzzer || cmds[1].On {
		t.Errorf("second reset command must silence the buzzer, got %+v", cmds[1])
	}
	if cmds[2].Type != CommandStatusLED || cmds[2].On {
		t.Errorf("third reset command must clear the LED, got %+v", cmds[2])
	}
	if m.State() != StateIdle {
		t.Errorf("expected IDLE after reset, got %s", m.State())
	}
}

func TestResetMidCure(t *testing.T) {
	// A restart while curing must come back Idle with the drive floated
	// before any input is accepted.
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(scenarioParams(), start)
	m.Reset(start)

	simulate(t, m, start, 10*time.Millisecond, 500*time.Millisecond,
		pressBetween(10*time.Millisecond, 100*time.Millisecond))
	if m.State() != StateCuring {
		t.Fatalf("expected CURING mid-simulation, got %s", m.State())
	}

	cmds := m.Reset(start.Add(time.Second))
	if cmds[0].Type != CommandSetDrive || cmds[0].Mode != DriveFloating {
		t.Errorf("reset must float the drive first, got %+v", cmds[0])
	}
	if m.State() != StateIdle {
		t.Errorf("expected IDLE after mid-cure reset, got %s", m.State())
	}
	if m.Drive() != DriveFloating {
		t.Errorf("expected FLOATING after mid-cure reset, got %s", m.Drive())
	}
}

func TestPressStartsCure(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(scenarioParams(), start)
	m.Reset(start)

	// Arm, press, hold past the debounce window.
	m.Process(Input{Pressed: false, Time: start})
	m.Process(Input{Pressed: true, Time: start.Add(10 * time.Millisecond)})
	cmds, events := m.Process(Input{Pressed: true, Time: start.Add(60 * time.Millisecond)})

	if m.State() != StateCuring {
		t.Fatalf("expected CURING, got %s", m.State())
	}
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d: %+v", len(cmds), cmds)
	}
	if cmds[0].Type != CommandSetDrive || cmds[0].Mode != DriveLow {
		t.Errorf("expected energize (LOW for active-low wiring), got %+v", cmds[0])
	}
	if cmds[1].Type != CommandStatusLED || !cmds[1].On {
		t.Errorf("expected LED on, got %+v", cmds[1])
	}
	if len(events) != 1 || events[0].Type != EventCureStart {
		t.Fatalf("expected CURE_START event, got %+v", events)
	}
	if events[0].State != StateCuring || events[0].Drive != DriveLow {
		t.Errorf("event should carry post-transition state, got %+v", events[0])
	}
}

func TestActiveHighWiring(t *testing.T) {
	params := scenarioParams()
	params.DriveActiveLow = false
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(params, start)
	m.Reset(start)

	m.Process(Input{Pressed: false, Time: start})
	m.Process(Input{Pressed: true, Time: start.Add(10 * time.Millisecond)})
	cmds, _ := m.Process(Input{Pressed: true, Time: start.Add(60 * time.Millisecond)})

	if cmds[0].Mode != DriveHigh {
		t.Errorf("expected HIGH for active-high wiring, got %s", cmds[0].Mode)
	}
}

func TestFullCycleTiming(t *testing.T) {
	params := scenarioParams()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(params, start)
	m.Reset(start)

	step := 10 * time.Millisecond
	// Press from 10ms to 80ms: fires at 60ms (50ms window from 10ms).
	cmds, events := simulate(t, m, start, step, 5*time.Second,
		pressBetween(10*time.Millisecond, 80*time.Millisecond))

	pressAt := 60 * time.Millisecond

	cureStart, ok := findEvent(events, EventCureStart)
	if !ok {
		t.Fatal("no CURE_START event")
	}
	if cureStart.Elapsed != pressAt {
		t.Errorf("CURE_START at %v, want %v", cureStart.Elapsed, pressAt)
	}

	cureEnd, ok := findEvent(events, EventCureEnd)
	if !ok {
		t.Fatal("no CURE_END event")
	}
	if want := pressAt + params.CureDuration; cureEnd.Elapsed != want {
		t.Errorf("CURE_END at %v, want %v", cureEnd.Elapsed, want)
	}
	if cureEnd.Event.Drive != DriveFloating {
		t.Errorf("CURE_END must carry FLOATING, got %s", cureEnd.Event.Drive)
	}

	complete, ok := findEvent(events, EventCycleComplete)
	if !ok {
		t.Fatal("no CYCLE_COMPLETE event")
	}
	if want := pressAt + params.CycleDuration(); complete.Elapsed != want {
		t.Errorf("CYCLE_COMPLETE at %v, want %v (cure+settle+pulses+cooldown)", complete.Elapsed, want)
	}

	if m.State() != StateIdle {
		t.Errorf("expected IDLE after cycle, got %s", m.State())
	}

	// Drive line saw exactly two mode changes: energize, float.
	var drives []stampedCommand
	for _, c := range cmds {
		if c.Command.Type == CommandSetDrive {
			drives = append(drives, c)
		}
	}
	if len(drives) != 2 {
		t.Fatalf("expected 2 drive commands, got %d: %+v", len(drives), drives)
	}
	if drives[0].Command.Mode != DriveLow || drives[0].Elapsed != pressAt {
		t.Errorf("energize: got %+v", drives[0])
	}
	if drives[1].Command.Mode != DriveFloating || drives[1].Elapsed != pressAt+params.CureDuration {
		t.Errorf("float: got %+v", drives[1])
	}

	// Buzzer saw 3 pulses: on/off three times.
	var buzzer []stampedCommand
	for _, c := range cmds {
		if c.Command.Type == CommandBuzzer {
			buzzer = append(buzzer, c)
		}
	}
	if len(buzzer) != 6 {
		t.Fatalf("expected 6 buzzer commands, got %d: %+v", len(buzzer), buzzer)
	}
	notifyStart := pressAt + params.CureDuration + params.SettleDelay
	wantBuzzer := []struct {
		el time.Duration
		on bool
	}{
		{notifyStart, true},
		{notifyStart + 100*time.Millisecond, false},
		{notifyStart + 200*time.Millisecond, true},
		{notifyStart + 300*time.Millisecond, false},
		{notifyStart + 400*time.Millisecond, true},
		{notifyStart + 500*time.Millisecond, false},
	}
	for i, w := range wantBuzzer {
		if buzzer[i].Elapsed != w.el || buzzer[i].Command.On != w.on {
			t.Errorf("buzzer %d: got %v on=%v, want %v on=%v",
				i, buzzer[i].Elapsed, buzzer[i].Command.On, w.el, w.on)
		}
	}

	counts := m.Counts()
	if counts.Presses != 1 || counts.CyclesStarted != 1 || counts.CyclesComplete != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}

func TestCureExitFloatsBeforeAnythingElse(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(scenarioParams(), start)
	m.Reset(start)

	m.Process(Input{Pressed: false, Time: start})
	m.Process(Input{Pressed: true, Time: start.Add(10 * time.Millisecond)})
	m.Process(Input{Pressed: true, Time: start.Add(60 * time.Millisecond)})

	cmds, _ := m.Process(Input{Pressed: false, Time: start.Add(3 * time.Second)})
	if len(cmds) == 0 {
		t.Fatal("expected commands at cure end")
	}
	if cmds[0].Type != CommandSetDrive || cmds[0].Mode != DriveFloating {
		t.Errorf("first command out of CURING must be the float, got %+v", cmds[0])
	}
}

func TestMidCurePressIgnoredAndNotQueued(t *testing.T) {
	params := scenarioParams()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(params, start)
	m.Reset(start)

	step := 10 * time.Millisecond
	// First press starts the cycle; a second press lands mid-cure at t≈1s.
	pressedAt := func(el time.Duration) bool {
		if el >= 10*time.Millisecond && el < 80*time.Millisecond {
			return true
		}
		return el >= time.Second && el < 1200*time.Millisecond
	}
	_, events := simulate(t, m, start, step, 5*time.Second, pressedAt)

	// The mid-cure press produced no extra cycle and did not shift timing.
	starts := 0
	for _, e := range events {
		if e.Event.Type == EventCureStart {
			starts++
		}
	}
	if starts != 1 {
		t.Errorf("expected 1 CURE_START, got %d", starts)
	}

	complete, ok := findEvent(events, EventCycleComplete)
	if !ok {
		t.Fatal("no CYCLE_COMPLETE event")
	}
	if want := 60*time.Millisecond + params.CycleDuration(); complete.Elapsed != want {
		t.Errorf("mid-cure press altered cycle duration: %v, want %v", complete.Elapsed, want)
	}

	if got := m.Counts().Presses; got != 1 {
		t.Errorf("expected 1 accepted press, got %d", got)
	}
}

func TestPressHeldThroughCooldownDoesNotRetrigger(t *testing.T) {
	params := scenarioParams()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(params, start)
	m.Reset(start)

	step := 10 * time.Millisecond
	// Press starts the cycle and the button is then held down forever.
	pressedAt := func(el time.Duration) bool { return el >= 10*time.Millisecond }
	_, events := simulate(t, m, start, step, 10*time.Second, pressedAt)

	starts := 0
	for _, e := range events {
		if e.Event.Type == EventCureStart {
			starts++
		}
	}
	if starts != 1 {
		t.Errorf("held button retriggered: %d CURE_START events", starts)
	}
	if m.State() != StateIdle {
		t.Errorf("expected IDLE, got %s", m.State())
	}
}

func TestSecondCycleAfterRelease(t *testing.T) {
	params := scenarioParams()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(params, start)
	m.Reset(start)

	step := 10 * time.Millisecond
	// First press at 10ms, second press at 6s (well after the ~4.2s cycle).
	pressedAt := func(el time.Duration) bool {
		if el >= 10*time.Millisecond && el < 80*time.Millisecond {
			return true
		}
		return el >= 6*time.Second && el < 6200*time.Millisecond
	}
	_, events := simulate(t, m, start, step, 12*time.Second, pressedAt)

	starts := 0
	completes := 0
	for _, e := range events {
		switch e.Event.Type {
		case EventCureStart:
			starts++
		case EventCycleComplete:
			completes++
		}
	}
	if starts != 2 || completes != 2 {
		t.Errorf("expected 2 full cycles, got starts=%d completes=%d", starts, completes)
	}

	counts := m.Counts()
	if counts.Presses != 2 || counts.CyclesStarted != 2 || counts.CyclesComplete != 2 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}

func TestZeroPulsesSilentCycle(t *testing.T) {
	params := scenarioParams()
	params.PulseCount = 0
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(params, start)
	m.Reset(start)

	step := 10 * time.Millisecond
	cmds, events := simulate(t, m, start, step, 5*time.Second,
		pressBetween(10*time.Millisecond, 80*time.Millisecond))

	for _, c := range cmds {
		if c.Command.Type == CommandBuzzer {
			t.Fatalf("silent cycle drove the buzzer: %+v", c)
		}
	}

	complete, ok := findEvent(events, EventCycleComplete)
	if !ok {
		t.Fatal("no CYCLE_COMPLETE event")
	}
	// cure + settle + cooldown, no notify time at all.
	want := 60*time.Millisecond + params.CureDuration + params.SettleDelay + params.Cooldown
	if complete.Elapsed != want {
		t.Errorf("CYCLE_COMPLETE at %v, want %v", complete.Elapsed, want)
	}
}

func TestNoiseCountedInCounts(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(scenarioParams(), start)
	m.Reset(start)

	// Two sub-window blips, then nothing.
	m.Process(Input{Pressed: false, Time: start})
	m.Process(Input{Pressed: true, Time: start.Add(10 * time.Millisecond)})
	m.Process(Input{Pressed: false, Time: start.Add(20 * time.Millisecond)})
	m.Process(Input{Pressed: true, Time: start.Add(30 * time.Millisecond)})
	m.Process(Input{Pressed: false, Time: start.Add(40 * time.Millisecond)})

	counts := m.Counts()
	if counts.NoiseRejected != 2 {
		t.Errorf("expected 2 noise rejections, got %d", counts.NoiseRejected)
	}
	if counts.Presses != 0 || counts.CyclesStarted != 0 {
		t.Errorf("noise must not start cycles: %+v", counts)
	}
	if m.State() != StateIdle {
		t.Errorf("expected IDLE, got %s", m.State())
	}
}

func TestCheckHeartbeat(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMachine(scenarioParams(), start)

	if hb := m.CheckHeartbeat(start.Add(time.Minute), 0); hb != nil {
		t.Error("disabled heartbeat should return nil")
	}
	if hb := m.CheckHeartbeat(start.Add(time.Minute), 15*time.Minute); hb != nil {
		t.Error("heartbeat before interval should return nil")
	}

	hb := m.CheckHeartbeat(start.Add(15*time.Minute), 15*time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat at interval")
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("expected 15m uptime, got %v", hb.Uptime)
	}

	// Immediately after, the interval restarts.
	if hb := m.CheckHeartbeat(start.Add(16*time.Minute), 15*time.Minute); hb != nil {
		t.Error("heartbeat should not fire again inside the next interval")
	}
}
