package engine

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gazevid/eventlog"
	"gazevid/timing"
	"gazevid/video"
)

var testStart = time.Date(2026, 3, 2, 14, 5, 9, 0, time.UTC)

type fakeDisplay struct {
	clock      *timing.ManualClock
	// renderCost is applied to successive ShowFrame calls, the last value
	// repeats.
	renderCost []time.Duration
	frames     []*video.DisplayFrame
	texts      []string
	clears     int
	refresh    float64
}

func (d *fakeDisplay) Format() video.TargetFormat {
	return video.FormatRGB24
}

func (d *fakeDisplay) ShowFrame(frame *video.DisplayFrame) error {
	if n := len(d.renderCost); n > 0 {
		i := len(d.frames)
		if i >= n {
			i = n - 1
		}
		d.clock.Advance(d.renderCost[i])
	}
	d.frames = append(d.frames, frame)
	return nil
}

func (d *fakeDisplay) Clear() error {
	d.clears++
	return nil
}

func (d *fakeDisplay) ShowText(text string) error {
	d.texts = append(d.texts, text)
	return nil
}

func (d *fakeDisplay) ShowSplash(path string) error {
	return nil
}

func (d *fakeDisplay) RefreshRate() float64 {
	return d.refresh
}

type fakeInput struct {
	waits      int
	// abortAfter makes Interrupted report true from that poll on; 0 never.
	abortAfter int
	polls      int
	// abortWait makes WaitKey return ErrAborted from that call on; 0 never.
	abortWait  int
}

func (in *fakeInput) WaitKey(ctx context.Context) error {
	in.waits++
	if ctx.Err() != nil {
		return ErrAborted
	}
	if in.abortWait > 0 && in.waits >= in.abortWait {
		return ErrAborted
	}
	return nil
}

func (in *fakeInput) Interrupted() bool {
	in.polls++
	return in.abortAfter > 0 && in.polls >= in.abortAfter
}

func (in *fakeInput) Flush() {}

// fakeDevice records the tracker data stream.
type fakeDevice struct {
	calls []string
	// failOn makes Log fail for messages with this prefix.
	failOn    string
	failCal   error
	failStart error
	failStop  error
}

func (d *fakeDevice) Calibrate(ctx context.Context) error {
	d.calls = append(d.calls, "calibrate")
	return d.failCal
}

func (d *fakeDevice) StartRecording() error {
	d.calls = append(d.calls, "start")
	return d.failStart
}

func (d *fakeDevice) StopRecording() error {
	d.calls = append(d.calls, "stop")
	return d.failStop
}

func (d *fakeDevice) Log(msg string) error {
	if d.failOn != "" && strings.HasPrefix(msg, d.failOn) {
		return errors.New("link down")
	}
	d.calls = append(d.calls, msg)
	return nil
}

func (d *fakeDevice) Close() error {
	d.calls = append(d.calls, "close")
	return nil
}

func (d *fakeDevice) count(prefix string) int {
	n := 0
	for _, c := range d.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

type fakeTrigger struct {
	calls []string
}

func (tr *fakeTrigger) Set(lines string) error {
	tr.calls = append(tr.calls, "set:"+lines)
	return nil
}

func (tr *fakeTrigger) Unset(lines string) error {
	tr.calls = append(tr.calls, "unset:"+lines)
	return nil
}

func (tr *fakeTrigger) Close() error {
	tr.calls = append(tr.calls, "close")
	return nil
}

// fakeSource yields solid BGR frames; frames listed in bad fail to decode.
type fakeSource struct {
	clip   video.Clip
	next   int
	bad    map[int]bool
	closed int
}

func (s *fakeSource) Clip() video.Clip {
	return s.clip
}

func (s *fakeSource) ReadNext() (*video.RawFrame, error) {
	i := s.next
	s.next++
	if i >= s.clip.FrameCount {
		return nil, video.ErrEndOfStream
	}
	if s.bad[i] {
		return nil, video.ErrDecodeFailed
	}
	pix := make([]byte, s.clip.Width*s.clip.Height*3)
	for j := range pix {
		pix[j] = 200
	}
	return &video.RawFrame{Width: s.clip.Width, Height: s.clip.Height, Order: video.BGR, Pix: pix}, nil
}

func (s *fakeSource) Close() error {
	s.closed++
	return nil
}

// fakeLibrary opens fakeSources by base name. Names not in the library
// fail to open.
type fakeLibrary struct {
	clips  map[string]*fakeSource
	opened []string
}

func newClip(name string, frames int, fps float64) *fakeSource {
	return &fakeSource{clip: video.Clip{Path: name, FrameCount: frames, FrameRate: fps, Width: 4, Height: 2}}
}

func (l *fakeLibrary) add(src *fakeSource) {
	if l.clips == nil {
		l.clips = make(map[string]*fakeSource)
	}
	l.clips[src.clip.Path] = src
}

func (l *fakeLibrary) open(path string) (video.Source, error) {
	name := filepath.Base(path)
	l.opened = append(l.opened, name)
	src, ok := l.clips[name]
	if !ok {
		return nil, &video.OpenError{Path: path, Err: errors.New("moov atom not found")}
	}
	return src, nil
}

type harness struct {
	s       *Session
	clock   *timing.ManualClock
	display *fakeDisplay
	input   *fakeInput
	dev     *fakeDevice
	trig    *fakeTrigger
	lib     *fakeLibrary
	logPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	clock := timing.NewManualClock(testStart)
	h := &harness{
		clock:   clock,
		display: &fakeDisplay{clock: clock},
		input:   &fakeInput{},
		dev:     &fakeDevice{},
		trig:    &fakeTrigger{},
		lib:     &fakeLibrary{},
		logPath: filepath.Join(t.TempDir(), "26-03-02_14-05-09.txt"),
	}
	events, err := eventlog.Create(h.logPath)
	require.NoError(t, err)
	t.Cleanup(func() { events.Close() })

	cfg := DefaultConfig()
	h.s = NewSession(cfg, h.display, h.input, h.dev, events, h.trig, h.lib.open, clock)
	return h
}

func (h *harness) events(t *testing.T) []eventlog.TrialEvent {
	t.Helper()
	require.NoError(t, h.s.Events.Close())
	events, err := eventlog.ReadFile(h.logPath)
	require.NoError(t, err)
	return events
}
