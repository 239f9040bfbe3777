//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/uv-cure/internal/logic"
)

// RealIO drives actual hardware using the Linux GPIO character device.
type RealIO struct {
	chip   *gpiocdev.Chip
	button *gpiocdev.Line
	relay  *gpiocdev.Line
	buzzer *gpiocdev.Line
	led    *gpiocdev.Line // nil when no status LED is wired

	mode logic.DriveMode
}

// NewRealIO requests the appliance lines. The relay line is requested as a
// bias-disabled input, i.e. floating: the drive is de-energized before any
// other code runs, on cold start and on restart mid-cycle alike.
func NewRealIO(pins Pins) (*RealIO, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealIO{chip: chip, mode: logic.DriveFloating}

	r.button, err = chip.RequestLine(pins.Button, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("request button pin %d: %w", pins.Button, err)
	}

	r.relay, err = chip.RequestLine(pins.Relay, gpiocdev.AsInput, gpiocdev.WithBiasDisabled)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("request relay pin %d: %w", pins.Relay, err)
	}

	r.buzzer, err = chip.RequestLine(pins.Buzzer, gpiocdev.AsOutput(0))
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("request buzzer pin %d: %w", pins.Buzzer, err)
	}

	if pins.LED >= 0 {
		r.led, err = chip.RequestLine(pins.LED, gpiocdev.AsOutput(0))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request led pin %d: %w", pins.LED, err)
		}
	}

	return r, nil
}

// Pressed returns the logical button state.
// Inverts the raw level: the line is pulled up, so raw 0 = pressed.
func (r *RealIO) Pressed() (bool, error) {
	v, err := r.button.Value()
	if err != nil {
		return false, fmt.Errorf("read button pin: %w", err)
	}
	return v == 0, nil
}

// SetDrive sets the relay line's electrical mode. Floating is reached by
// reconfiguring the line as a bias-disabled input, never by writing a
// level: driving the line to its inactive level was found insufficient to
// de-energize the coil.
func (r *RealIO) SetDrive(mode logic.DriveMode) error {
	if mode == r.mode {
		return nil
	}
	switch mode {
	case logic.DriveFloating:
		if err := r.relay.Reconfigure(gpiocdev.AsInput, gpiocdev.WithBiasDisabled); err != nil {
			return fmt.Errorf("float relay pin: %w", err)
		}
	case logic.DriveLow, logic.DriveHigh:
		v := 0
		if mode == logic.DriveHigh {
			v = 1
		}
		if r.mode == logic.DriveFloating {
			// Leaving the floating state needs a line reconfiguration,
			// not a value write.
			if err := r.relay.Reconfigure(gpiocdev.AsOutput(v)); err != nil {
				return fmt.Errorf("drive relay pin: %w", err)
			}
		} else if err := r.relay.SetValue(v); err != nil {
			return fmt.Errorf("set relay pin: %w", err)
		}
	default:
		return fmt.Errorf("unknown drive mode %q", mode)
	}
	r.mode = mode
	return nil
}

// SetBuzzer drives the buzzer line.
func (r *RealIO) SetBuzzer(on bool) error {
	if err := r.buzzer.SetValue(levelValue(on)); err != nil {
		return fmt.Errorf("set buzzer pin: %w", err)
	}
	return nil
}

// SetLED drives the status LED. No-op when no LED is wired.
func (r *RealIO) SetLED(on bool) error {
	if r.led == nil {
		return nil
	}
	if err := r.led.SetValue(levelValue(on)); err != nil {
		return fmt.Errorf("set led pin: %w", err)
	}
	return nil
}

// Close releases GPIO resources. The relay line is re-floated and the
// output lines driven low before closing, so the appliance is left in the
// de-energized boot-default state for system shutdown/reboot.
func (r *RealIO) Close() error {
	var errs []error

	if r.relay != nil {
		if err := r.relay.Reconfigure(gpiocdev.AsInput, gpiocdev.WithBiasDisabled); err != nil {
			errs = append(errs, fmt.Errorf("float relay pin: %w", err))
		}
		if err := r.relay.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay pin: %w", err))
		}
	}
	if r.buzzer != nil {
		if err := r.buzzer.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("silence buzzer pin: %w", err))
		}
		if err := r.buzzer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close buzzer pin: %w", err))
		}
	}
	if r.led != nil {
		if err := r.led.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear led pin: %w", err))
		}
		if err := r.led.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close led pin: %w", err))
		}
	}
	if r.button != nil {
		if err := r.button.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func levelValue(on bool) int {
	if on {
		return 1
	}
	return 0
}
