package tracker

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition indicates a call that is not valid in the
	// session's current state, such as starting a recording twice.
	ErrInvalidTransition = errors.New("invalid device session transition")

	// ErrNotRecording indicates a log write outside of a recording.
	ErrNotRecording = errors.New("device session is not recording")
)

// CalibrationError is returned when the device rejects calibration.
type CalibrationError struct {
	Err error
}

func (e *CalibrationError) Error() string {
	return fmt.Sprintf("calibration failed: %v", e.Err)
}

func (e *CalibrationError) Unwrap() error {
	return e.Err
}

// DeviceIOError reports a lost or failing device connection during Op.
type DeviceIOError struct {
	Op  string
	Err error
}

func (e *DeviceIOError) Error() string {
	return fmt.Sprintf("device %s: %v", e.Op, e.Err)
}

func (e *DeviceIOError) Unwrap() error {
	return e.Err
}

// IsDeviceIO reports whether err is or wraps a *DeviceIOError.
func IsDeviceIO(err error) bool {
	var dioErr *DeviceIOError
	return errors.As(err, &dioErr)
}

func wrapIO(op string, err error) error {
	if err == nil {
		return nil
	}
	var dioErr *DeviceIOError
	if errors.As(err, &dioErr) {
		return err
	}
	return &DeviceIOError{Op: op, Err: err}
}
