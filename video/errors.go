package video

import (
	"errors"
	"fmt"
)

var (
	// ErrEndOfStream is returned by ReadNext after the last frame.
	ErrEndOfStream = errors.New("end of stream")

	// ErrDecodeFailed is returned by ReadNext when one frame could not be
	// decoded. Later frames may still be readable.
	ErrDecodeFailed = errors.New("frame decode failed")

	// ErrNoFrames indicates a container that declares zero frames.
	ErrNoFrames = errors.New("clip has no frames")
)

// OpenError is returned when a clip cannot be opened for decoding.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open clip %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}
