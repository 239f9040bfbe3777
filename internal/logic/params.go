package logic

import (
	"fmt"
	"time"
)

// MaxCureDuration is the safety ceiling for a single exposure. Anything
// longer is assumed to be a configuration mistake, not an intent.
const MaxCureDuration = 10 * time.Minute

const (
	// Debounce bounds: shorter invites double triggers, longer feels dead.
	minDebounceWindow = 10 * time.Millisecond
	maxDebounceWindow = 500 * time.Millisecond

	// MaxPulseCount bounds the completion beeper.
	MaxPulseCount = 10
)

// Parameters is the immutable configuration for one process run. It is
// validated once at startup and never mutated afterwards.
type Parameters struct {
	// CureDuration is the UV exposure time per cycle.
	CureDuration time.Duration
	// DebounceWindow is the minimum press length accepted as a real press.
	DebounceWindow time.Duration
	// SettleDelay is the wait after the drive is released, allowing the
	// relay contacts to physically open.
	SettleDelay time.Duration
	// PulseCount is the number of completion beeps. Zero means silent.
	PulseCount int
	// PulseOn / PulseOff are the beep and pause durations.
	PulseOn  time.Duration
	PulseOff time.Duration
	// Cooldown is the delay before the button is re-armed after a cycle.
	Cooldown time.Duration
	// DriveActiveLow selects the energized drive level for the relay
	// wiring. The stock SRD-05VDC-SL-C board closes on low.
	DriveActiveLow bool
}

// Validate checks the parameter set against the safety bounds. Any error is
// fatal at startup: the process must not reach Idle with a bad configuration.
func (p Parameters) Validate() error {
	if p.CureDuration <= 0 {
		return fmt.Errorf("cure duration must be greater than zero, got %v", p.CureDuration)
	}
	if p.CureDuration > MaxCureDuration {
		return fmt.Errorf("cure duration %v exceeds safety ceiling %v", p.CureDuration, MaxCureDuration)
	}
	if p.DebounceWindow < minDebounceWindow {
		return fmt.Errorf("debounce window %v below %v, would double-trigger", p.DebounceWindow, minDebounceWindow)
	}
	if p.DebounceWindow > maxDebounceWindow {
		return fmt.Errorf("debounce window %v above %v, button would feel unresponsive", p.DebounceWindow, maxDebounceWindow)
	}
	if p.SettleDelay <= 0 {
		return fmt.Errorf("settle delay must be greater than zero, got %v", p.SettleDelay)
	}
	if p.PulseCount < 0 {
		return fmt.Errorf("pulse count must not be negative, got %d", p.PulseCount)
	}
	if p.PulseCount > MaxPulseCount {
		return fmt.Errorf("pulse count %d exceeds maximum %d", p.PulseCount, MaxPulseCount)
	}
	if p.PulseCount > 0 {
		if p.PulseOn <= 0 {
			return fmt.Errorf("pulse on duration must be greater than zero, got %v", p.PulseOn)
		}
		if p.PulseOff <= 0 {
			return fmt.Errorf("pulse off duration must be greater than zero, got %v", p.PulseOff)
		}
	}
	if p.Cooldown <= 0 {
		return fmt.Errorf("cooldown must be greater than zero, got %v", p.Cooldown)
	}
	return nil
}

// EnergizedMode returns the driven mode that closes the relay for the
// configured wiring polarity.
func (p Parameters) EnergizedMode() DriveMode {
	if p.DriveActiveLow {
		return DriveLow
	}
	return DriveHigh
}

// CycleDuration returns the nominal press-to-rearm duration:
// cure + settle + pulses×(on+off) + cooldown.
func (p Parameters) CycleDuration() time.Duration {
	return p.CureDuration + p.SettleDelay +
		time.Duration(p.PulseCount)*(p.PulseOn+p.PulseOff) + p.Cooldown
}
