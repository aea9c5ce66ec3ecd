// Package video decodes stimulus clips into raw raster frames and converts
// them into the pixel layout a display backend expects.
package video

import (
	"fmt"
	"path/filepath"
)

// Clip describes an opened video file. Metadata is read once from the
// container and trusted for the lifetime of the trial.
type Clip struct {
	Path       string
	FrameCount int
	FrameRate  float64
	Width      int
	Height     int
}

// Name is the clip's file name without its directory.
func (c Clip) Name() string {
	return filepath.Base(c.Path)
}

// NominalFrameMS is the duration of one frame at the clip's native rate.
func (c Clip) NominalFrameMS() float64 {
	if c.FrameRate <= 0 {
		return 0
	}
	return 1000.0 / c.FrameRate
}

// Validate reports metadata a trial cannot be paced or rendered with.
func (c Clip) Validate() error {
	switch {
	case c.FrameCount <= 0:
		return ErrNoFrames
	case c.FrameRate <= 0:
		return fmt.Errorf("invalid frame rate %v", c.FrameRate)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("invalid dimensions %dx%d", c.Width, c.Height)
	}
	return nil
}

func (c Clip) String() string {
	return fmt.Sprintf("%s (%dx%d, %d frames @ %.3f fps)", c.Name(), c.Width, c.Height, c.FrameCount, c.FrameRate)
}

// ChannelOrder is the byte order of the three colour samples of a pixel.
type ChannelOrder int

const (
	RGB ChannelOrder = iota
	BGR
)

func (o ChannelOrder) String() string {
	switch o {
	case RGB:
		return "RGB"
	case BGR:
		return "BGR"
	default:
		return "unknown"
	}
}

// RawFrame is one decoded frame: Width*Height pixels of three 8-bit samples,
// rows stored top to bottom unless BottomUp is set.
type RawFrame struct {
	Width    int
	Height   int
	Order    ChannelOrder
	BottomUp bool
	Pix      []byte
}

// Valid reports whether f is non-nil and its buffer matches its dimensions.
func (f *RawFrame) Valid() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && len(f.Pix) == f.Width*f.Height*3
}

// Source yields the frames of one clip in display order.
//
// ReadNext returns ErrEndOfStream once the stream is exhausted and
// ErrDecodeFailed when a single frame could not be produced; the stream
// continues after a decode failure. Close is called exactly once.
type Source interface {
	Clip() Clip
	ReadNext() (*RawFrame, error)
	Close() error
}

// Opener opens a Source for a clip path.
type Opener func(path string) (Source, error)
