package video

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

const sinkName = "gazevid_sink"

// GstSource decodes a clip with a GStreamer pipeline:
//
//	filesrc → decodebin → videoconvert → capsfilter(BGR) → appsink
//
// The appsink does not sync to the clock, so ReadNext returns frames as fast
// as they decode; presentation timing is the caller's job.
type GstSource struct {
	clip     Clip
	pipeline *gst.Pipeline
	sink     *app.Sink
	read     int
	closed   bool
}

// pipelineDescription builds the gst-launch description for path.
func pipelineDescription(path string) string {
	return fmt.Sprintf(
		"filesrc location=%s ! decodebin ! videoconvert ! video/x-raw,format=BGR ! appsink name=%s sync=false max-buffers=4 drop=false",
		strconv.Quote(path), sinkName,
	)
}

// Open prerolls the clip at path and reads its metadata. It fails with an
// *OpenError when the container cannot be read or declares no frames.
func Open(path string) (*GstSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	// Safe to call more than once.
	gst.Init(nil)

	pipeline, err := gst.NewPipelineFromString(pipelineDescription(path))
	if err != nil {
		return nil, &OpenError{Path: path, Err: fmt.Errorf("failed to create pipeline: %w", err)}
	}

	elem, err := pipeline.GetElementByName(sinkName)
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, &OpenError{Path: path, Err: fmt.Errorf("failed to find appsink: %w", err)}
	}
	sink := app.SinkFromElement(elem)

	s := &GstSource{pipeline: pipeline, sink: sink}
	clip, err := s.preroll(path)
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, &OpenError{Path: path, Err: err}
	}
	s.clip = clip

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, &OpenError{Path: path, Err: fmt.Errorf("failed to start pipeline: %w", err)}
	}

	logrus.WithFields(logrus.Fields{
		"function": "video.Open",
		"clip":     clip.Name(),
		"frames":   clip.FrameCount,
		"fps":      clip.FrameRate,
		"width":    clip.Width,
		"height":   clip.Height,
	}).Debug("Clip opened")

	return s, nil
}

// preroll pauses the pipeline until the first frame reaches the sink and
// derives the clip metadata from the negotiated caps and duration.
func (s *GstSource) preroll(path string) (Clip, error) {
	if err := s.pipeline.SetState(gst.StatePaused); err != nil {
		return Clip{}, fmt.Errorf("failed to pause pipeline: %w", err)
	}

	sample := s.sink.PullPreroll()
	if sample == nil {
		return Clip{}, fmt.Errorf("no decodable video stream: %s", s.busError())
	}
	caps := sample.GetCaps()
	if caps == nil {
		return Clip{}, fmt.Errorf("preroll sample has no caps")
	}
	info, err := ParseCaps(caps.String())
	if err != nil {
		return Clip{}, err
	}

	clip := Clip{
		Path:      path,
		FrameRate: info.FrameRate(),
		Width:     info.Width,
		Height:    info.Height,
	}

	if ok, frames := s.pipeline.QueryDuration(gst.FormatDefault); ok && frames > 0 {
		clip.FrameCount = int(frames)
	} else if ok, ns := s.pipeline.QueryDuration(gst.FormatTime); ok {
		clip.FrameCount = FramesFromDuration(time.Duration(ns), clip.FrameRate)
	}

	if err := clip.Validate(); err != nil {
		return Clip{}, err
	}
	return clip, nil
}

// busError drains one pending error message from the pipeline bus.
func (s *GstSource) busError() string {
	bus := s.pipeline.GetPipelineBus()
	for {
		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			return "unknown error"
		}
		if msg.Type() == gst.MessageError {
			gerr := msg.ParseError()
			return gerr.Error()
		}
	}
}

func (s *GstSource) Clip() Clip {
	return s.clip
}

// ReadNext blocks until the next frame is decoded.
func (s *GstSource) ReadNext() (*RawFrame, error) {
	if s.closed {
		return nil, ErrEndOfStream
	}

	sample := s.sink.PullSample()
	if sample == nil {
		if s.sink.IsEOS() {
			return nil, ErrEndOfStream
		}
		return nil, ErrDecodeFailed
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		return nil, ErrDecodeFailed
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	pix, err := PackRows(data, s.clip.Width, s.clip.Height)
	buffer.Unmap()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "GstSource.ReadNext",
			"clip":     s.clip.Name(),
			"frame":    s.read,
			"error":    err.Error(),
		}).Warn("Malformed frame buffer")
		return nil, ErrDecodeFailed
	}

	s.read++
	return &RawFrame{
		Width:  s.clip.Width,
		Height: s.clip.Height,
		Order:  BGR,
		Pix:    pix,
	}, nil
}

// Close stops the pipeline and releases the decoder.
func (s *GstSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("failed to stop pipeline: %w", err)
	}
	return nil
}

// FramesFromDuration rounds duration*rate to the nearest whole frame.
func FramesFromDuration(d time.Duration, rate float64) int {
	if d <= 0 || rate <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * rate))
}

// PackRows copies a possibly row-padded 3-channel buffer into a tightly
// packed width*height*3 slice. GStreamer pads each row of 24-bit formats to a
// multiple of four bytes.
func PackRows(data []byte, width, height int) ([]byte, error) {
	row := width * 3
	if width <= 0 || height <= 0 || len(data) < row*height {
		return nil, fmt.Errorf("buffer of %d bytes too small for %dx%d", len(data), width, height)
	}
	stride := len(data) / height
	if stride < row {
		return nil, fmt.Errorf("stride %d shorter than row %d", stride, row)
	}
	out := make([]byte, row*height)
	for y := 0; y < height; y++ {
		copy(out[y*row:(y+1)*row], data[y*stride:y*stride+row])
	}
	return out, nil
}
