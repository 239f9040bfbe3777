package gpio

import (
	"errors"

	"github.com/sweeney/uv-cure/internal/logic"
)

// Fake is a test double that returns scripted button levels and records
// every output transition.
type Fake struct {
	// Samples contains scripted logical button levels (true = pressed).
	// Each call to Pressed() consumes the next sample; when exhausted, the
	// last sample repeats.
	Samples []bool

	// index tracks current position in Samples
	index int

	// Mode is the current drive line mode.
	Mode logic.DriveMode

	// DriveHistory records every SetDrive call in order.
	DriveHistory []logic.DriveMode

	// Buzzer and LED are the current output levels.
	Buzzer bool
	LED    bool

	// BuzzerHistory records every SetBuzzer call in order.
	BuzzerHistory []bool

	// Closed tracks if Close was called.
	Closed bool

	// PressedError, if set, will be returned by Pressed().
	PressedError error

	// DriveError, if set, will be returned by SetDrive().
	DriveError error
}

// NewFake creates a Fake with the given button samples. The drive line
// starts floating, matching real hardware at request time.
func NewFake(samples []bool) *Fake {
	return &Fake{Samples: samples, Mode: logic.DriveFloating}
}

// Pressed returns the next scripted button level.
func (f *Fake) Pressed() (bool, error) {
	if f.PressedError != nil {
		return false, f.PressedError
	}
	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}
	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s, nil
}

// SetDrive records the mode change.
func (f *Fake) SetDrive(mode logic.DriveMode) error {
	if f.DriveError != nil {
		return f.DriveError
	}
	f.Mode = mode
	f.DriveHistory = append(f.DriveHistory, mode)
	return nil
}

// SetBuzzer records the buzzer level.
func (f *Fake) SetBuzzer(on bool) error {
	f.Buzzer = on
	f.BuzzerHistory = append(f.BuzzerHistory, on)
	return nil
}

// SetLED records the LED level.
func (f *Fake) SetLED(on bool) error {
	f.LED = on
	return nil
}

// Close marks the fake as closed.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the samples and clears recorded outputs.
func (f *Fake) Reset() {
	f.index = 0
	f.Mode = logic.DriveFloating
	f.DriveHistory = nil
	f.Buzzer = false
	f.LED = false
	f.BuzzerHistory = nil
	f.Closed = false
}
