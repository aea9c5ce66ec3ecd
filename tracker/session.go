package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"gazevid/timing"
)

// DefaultSettle is the pause after StartRecording that lets the device
// stabilise its clock reference before the first log write.
const DefaultSettle = 5 * time.Millisecond

// State is the recording state of a Session.
type State int

const (
	Idle State = iota
	Calibrated
	Recording
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Calibrated:
		return "calibrated"
	case Recording:
		return "recording"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session enforces the device protocol:
//
//	Idle → Calibrated → Recording → Idle → Recording → ... → Closed
//
// StartRecording and StopRecording strictly alternate; calls out of order
// fail with ErrInvalidTransition and leave the state unchanged. A Session
// has a single writer and is not safe for concurrent use.
type Session struct {
	dev    Device
	clock  timing.Clock
	settle time.Duration
	state  State
	pairs  int
	log    *logrus.Entry
}

// NewSession wraps dev. settle is the pause after each StartRecording.
func NewSession(dev Device, clock timing.Clock, settle time.Duration) *Session {
	return &Session{
		dev:    dev,
		clock:  clock,
		settle: settle,
		state:  Idle,
		log:    logrus.WithField("component", "tracker"),
	}
}

// SetLogger replaces the operational logger.
func (s *Session) SetLogger(entry *logrus.Entry) {
	s.log = entry.WithField("component", "tracker")
}

func (s *Session) State() State {
	return s.state
}

// Recordings returns how many recordings have been started and stopped.
func (s *Session) Recordings() int {
	return s.pairs
}

// Calibrate runs the device calibration. On failure the session stays
// Idle and the caller may retry.
func (s *Session) Calibrate(ctx context.Context) error {
	if s.state != Idle && s.state != Calibrated {
		return fmt.Errorf("calibrate while %s: %w", s.state, ErrInvalidTransition)
	}
	if err := s.dev.Calibrate(ctx); err != nil {
		s.state = Idle
		s.log.WithField("error", err.Error()).Error("Calibration rejected")
		return &CalibrationError{Err: err}
	}
	s.state = Calibrated
	s.log.Info("Calibration accepted")
	return nil
}

// StartRecording begins a recording and waits for the settling pause.
func (s *Session) StartRecording() error {
	if s.state != Idle && s.state != Calibrated {
		return fmt.Errorf("start recording while %s: %w", s.state, ErrInvalidTransition)
	}
	if err := s.dev.StartRecording(); err != nil {
		return wrapIO("start recording", err)
	}
	s.state = Recording
	s.clock.Sleep(s.settle)
	s.log.Debug("Recording started")
	return nil
}

// Log writes msg to the device data stream. It is valid only while
// recording.
func (s *Session) Log(msg string) error {
	if s.state != Recording {
		return fmt.Errorf("log %q while %s: %w", msg, s.state, ErrNotRecording)
	}
	return wrapIO("log", s.dev.Log(msg))
}

// StatusMsg shows text on the device console when the device has one.
// Failures are logged and never returned.
func (s *Session) StatusMsg(text string) {
	reporter, ok := s.dev.(StatusReporter)
	if !ok || s.state == Closed {
		return
	}
	if err := reporter.StatusMsg(text); err != nil {
		s.log.WithFields(logrus.Fields{
			"status": text,
			"error":  err.Error(),
		}).Warn("Device status message failed")
	}
}

// StopRecording ends the current recording. The session is Idle afterwards
// even when the device reports an error, so a recording is never left open
// on the session side.
func (s *Session) StopRecording() error {
	if s.state != Recording {
		return fmt.Errorf("stop recording while %s: %w", s.state, ErrInvalidTransition)
	}
	s.state = Idle
	s.pairs++
	if err := s.dev.StopRecording(); err != nil {
		return wrapIO("stop recording", err)
	}
	s.log.Debug("Recording stopped")
	return nil
}

// Close transfers any buffered device data and releases the device. It may
// block until the transfer completes.
func (s *Session) Close() error {
	if s.state == Recording || s.state == Closed {
		return fmt.Errorf("close while %s: %w", s.state, ErrInvalidTransition)
	}
	s.state = Closed
	started := s.clock.Elapsed()
	err := s.dev.Close()
	s.log.WithField("duration", s.clock.Elapsed()-started).Info("Device closed")
	return wrapIO("close", err)
}

// Timestamp reads the device clock, or the session clock when the device
// has none or cannot be read.
func (s *Session) Timestamp() time.Duration {
	if clocked, ok := s.dev.(Clocked); ok && s.state != Closed {
		ts, err := clocked.Timestamp()
		if err == nil {
			return ts
		}
		s.log.WithField("error", err.Error()).Warn("Device clock unreadable, using session clock")
	}
	return s.clock.Elapsed()
}
