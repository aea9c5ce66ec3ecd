package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gazevid/eventlog"
	"gazevid/timing"
	"gazevid/tracker"
	"gazevid/video"
)

// Operator screens.
const (
	TextNextTrial  = "Press any key to start the next video."
	TextProcessing = "Processing data, don't press anything!"
	TextGoodbye    = "That's all, folks! Press any key to exit."
)

// Display presents frames and text screens.
type Display interface {
	// Format is the pixel layout ShowFrame accepts.
	Format() video.TargetFormat
	// ShowFrame draws frame and presents it, blocking until the refresh
	// boundary when vsync is on.
	ShowFrame(frame *video.DisplayFrame) error
	// Clear fills the screen with the background colour and presents it.
	Clear() error
	ShowText(text string) error
	ShowSplash(path string) error
	// RefreshRate is the display refresh rate in Hz, 0 when unknown.
	RefreshRate() float64
}

// Input is the operator keyboard.
type Input interface {
	// WaitKey blocks for a key press. It returns ErrAborted on Escape,
	// a quit request or ctx cancellation.
	WaitKey(ctx context.Context) error
	// Interrupted polls pending events without blocking and reports whether
	// an abort was requested. Once true it stays true.
	Interrupted() bool
	// Flush discards pending events.
	Flush()
}

// Trigger raises and lowers TTL lines on an external box.
type Trigger interface {
	Set(lines string) error
	Unset(lines string) error
	Close() error
}

// Session is everything one experiment run shares across trials. It is
// created once, passed by reference to every trial and closed once.
type Session struct {
	ID      string
	Config  *Config
	Display Display
	Input   Input
	Tracker *tracker.Session
	Events  *eventlog.Writer
	Trigger Trigger
	Clock   timing.Clock
	Pacer   *timing.Pacer
	Open    video.Opener
	Log     *logrus.Entry

	closed bool
}

// NewSession assembles a Session. trig may be nil.
func NewSession(cfg *Config, display Display, input Input, dev tracker.Device, events *eventlog.Writer, trig Trigger, opener video.Opener, clock timing.Clock) *Session {
	id := uuid.New().String()
	log := logrus.WithFields(logrus.Fields{
		"session": id,
	})

	ts := tracker.NewSession(dev, clock, cfg.Settle())
	ts.SetLogger(log)

	return &Session{
		ID:      id,
		Config:  cfg,
		Display: display,
		Input:   input,
		Tracker: ts,
		Events:  events,
		Trigger: trig,
		Clock:   clock,
		Pacer:   timing.NewPacer(clock, cfg.BufferMS),
		Open:    opener,
		Log:     log,
	}
}

// Close shows the please-wait screen, then closes the event log, the
// tracker and the trigger. Later calls do nothing.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.Display.ShowText(TextProcessing); err != nil {
		s.Log.WithField("error", err.Error()).Warn("Failed to show processing screen")
	}

	var errs []error
	if s.Tracker.State() == tracker.Recording {
		errs = append(errs, s.Tracker.StopRecording())
	}
	errs = append(errs, s.Events.Close())
	errs = append(errs, s.Tracker.Close())
	if s.Trigger != nil {
		errs = append(errs, s.Trigger.Close())
	}

	err := errors.Join(errs...)
	if err != nil {
		s.Log.WithField("error", err.Error()).Error("Session teardown incomplete")
	} else {
		s.Log.Info("Session closed")
	}
	return err
}

func (s *Session) setTrigger(lines string) {
	if s.Trigger == nil {
		return
	}
	if err := s.Trigger.Set(lines); err != nil {
		s.Log.WithFields(logrus.Fields{"lines": lines, "error": err.Error()}).Warn("Trigger set failed")
	}
}

func (s *Session) unsetTrigger(lines string) {
	if s.Trigger == nil {
		return
	}
	if err := s.Trigger.Unset(lines); err != nil {
		s.Log.WithFields(logrus.Fields{"lines": lines, "error": err.Error()}).Warn("Trigger unset failed")
	}
}
