package logic

import "time"

type debouncePhase int

const (
	// phaseRefractory waits for the line to read released before arming.
	// It is the initial phase, so a button held at boot never fires.
	phaseRefractory debouncePhase = iota
	phaseArmed
	phasePending
)

// Debouncer turns a raw, bouncy button level into at most one press event
// per physical press. A press must hold for the full window to count; a
// release inside the window is treated as noise and discarded.
type Debouncer struct {
	window       time.Duration
	phase        debouncePhase
	pendingSince time.Time
	noise        int
}

// NewDebouncer creates a debouncer with the given minimum press window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Sample processes one raw level reading taken at the given time and
// returns EdgePress when a debounced press fires. After a press the
// debouncer stays refractory until the line reads released again, so a held
// button produces exactly one event.
func (d *Debouncer) Sample(pressed bool, now time.Time) Edge {
	switch d.phase {
	case phaseRefractory:
		if !pressed {
			d.phase = phaseArmed
		}
	case phaseArmed:
		if pressed {
			d.phase = phasePending
			d.pendingSince = now
		}
	case phasePending:
		if !pressed {
			// Released inside the window: bounce, not a press.
			d.phase = phaseArmed
			d.noise++
		} else if now.Sub(d.pendingSince) >= d.window {
			d.phase = phaseRefractory
			return EdgePress
		}
	}
	return EdgeNone
}

// Noise returns the number of sub-window presses rejected so far.
func (d *Debouncer) Noise() int {
	return d.noise
}

// Reset returns the debouncer to the refractory phase. The line must read
// released before the next press can be accepted.
func (d *Debouncer) Reset() {
	d.phase = phaseRefractory
}
