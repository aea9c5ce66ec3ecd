package video

import "strings"

// Orientation is a set of geometric operations applied to a top-down frame,
// in the order FlipHorizontal, FlipVertical, Rotate90.
type Orientation uint8

const (
	FlipHorizontal Orientation = 1 << iota
	FlipVertical
	// Rotate90 rotates a quarter turn counter-clockwise, swapping the row
	// and column counts.
	Rotate90
)

func (o Orientation) String() string {
	if o == 0 {
		return "none"
	}
	var parts []string
	if o&FlipHorizontal != 0 {
		parts = append(parts, "fliph")
	}
	if o&FlipVertical != 0 {
		parts = append(parts, "flipv")
	}
	if o&Rotate90 != 0 {
		parts = append(parts, "rot90")
	}
	return strings.Join(parts, "+")
}

// ValueRange selects the sample representation of a DisplayFrame.
type ValueRange int

const (
	// Uint8 samples in [0, 255], stored in DisplayFrame.Pix.
	Uint8 ValueRange = iota
	// UnitFloat samples in [0, 1], stored in DisplayFrame.Float.
	UnitFloat
)

// TargetFormat is the capability set a display backend declares. Transform
// is written against these capabilities only, never against a backend name.
type TargetFormat struct {
	Name        string
	Order       ChannelOrder
	Orientation Orientation
	Range       ValueRange
}

// Formats of the supported backend conventions.
var (
	// FormatRGB24 is a top-down packed RGB texture upload (SDL streaming
	// textures).
	FormatRGB24 = TargetFormat{Name: "rgb24", Order: RGB}

	// FormatGLFloat is a bottom-up RGB float image with the origin in the
	// lower-left corner, as OpenGL image stimuli expect.
	FormatGLFloat = TargetFormat{Name: "gl-float", Order: RGB, Orientation: FlipVertical, Range: UnitFloat}

	// FormatColumnMajor stores pixels column by column (x-major), as
	// surface array APIs indexed [x][y] expect.
	FormatColumnMajor = TargetFormat{Name: "column-major", Order: RGB, Orientation: FlipHorizontal | Rotate90}
)

// DisplayFrame is a frame laid out for a TargetFormat. Width is the number of
// pixels per stored row, Height the number of stored rows.
type DisplayFrame struct {
	Width  int
	Height int
	Format TargetFormat
	Pix    []byte
	Float  []float32
	Blank  bool
}

// Samples returns the number of stored channel samples.
func (f *DisplayFrame) Samples() int {
	if f.Format.Range == UnitFloat {
		return len(f.Float)
	}
	return len(f.Pix)
}

// Pitch is the byte length of one stored row of a Uint8 frame.
func (f *DisplayFrame) Pitch() int {
	return f.Width * 3
}
