//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/uv-cure/internal/logic"
)

// RealIO is not available on non-Linux platforms.
type RealIO struct{}

// NewRealIO returns an error on non-Linux platforms.
func NewRealIO(pins Pins) (*RealIO, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Pressed is not implemented on non-Linux platforms.
func (r *RealIO) Pressed() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// SetDrive is not implemented on non-Linux platforms.
func (r *RealIO) SetDrive(mode logic.DriveMode) error {
	return errors.New("gpio: not supported")
}

// SetBuzzer is not implemented on non-Linux platforms.
func (r *RealIO) SetBuzzer(on bool) error {
	return errors.New("gpio: not supported")
}

// SetLED is not implemented on non-Linux platforms.
func (r *RealIO) SetLED(on bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealIO) Close() error {
	return nil
}
