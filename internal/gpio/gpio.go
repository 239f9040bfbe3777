// Package gpio provides access to the controller's signal lines with
// hardware abstraction. The real implementation uses the Linux GPIO
// character device. The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/uv-cure/internal/logic"

// IO drives the appliance's signal lines.
type IO interface {
	// Pressed returns the logical button state. The raw line is pulled up,
	// so raw active = logical released.
	Pressed() (bool, error)

	// SetDrive sets the relay drive line's electrical mode. DriveFloating
	// must reconfigure the line as a non-driving input — it is the only
	// mode guaranteed to de-energize the relay coil.
	SetDrive(mode logic.DriveMode) error

	// SetBuzzer drives the buzzer line.
	SetBuzzer(on bool) error

	// SetLED drives the status indicator, if one is wired. A missing LED
	// is not an error.
	SetLED(on bool) error

	// Close releases GPIO resources, re-floating the drive line first.
	Close() error
}

// Pin defaults (BCM numbering, matching the appliance wiring).
const (
	DefaultPinButton = 6  // momentary switch to ground, internal pull-up
	DefaultPinRelay  = 10 // SRD-05VDC-SL-C relay board input
	DefaultPinBuzzer = 7  // active buzzer
	DefaultPinLED    = 25 // status indicator
)

// Pins selects the lines to request.
type Pins struct {
	Button int
	Relay  int
	Buzzer int
	LED    int // negative = no status LED wired
}

// DefaultPins returns the stock appliance wiring.
func DefaultPins() Pins {
	return Pins{
		Button: DefaultPinButton,
		Relay:  DefaultPinRelay,
		Buzzer: DefaultPinBuzzer,
		LED:    DefaultPinLED,
	}
}
