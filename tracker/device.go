// Package tracker wraps gaze-tracking hardware behind a small device
// interface and the calibrate → record → log → stop session protocol.
package tracker

import (
	"context"
	"time"
)

// Device is the tracking hardware. Log appends msg to the device's own data
// stream, tagged with the device's timestamp.
type Device interface {
	Calibrate(ctx context.Context) error
	StartRecording() error
	StopRecording() error
	Log(msg string) error
	Close() error
}

// StatusReporter is implemented by devices with an operator console.
type StatusReporter interface {
	StatusMsg(text string) error
}

// Clocked is implemented by devices that expose their own clock.
type Clocked interface {
	Timestamp() (time.Duration, error)
}
