package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"gazevid/eventlog"
	"gazevid/timing"
	"gazevid/tracker"
	"gazevid/trigger"
	"gazevid/video"
)

type TrialStatus int

const (
	TrialCompleted TrialStatus = iota
	// TrialSkipped: the clip could not be opened, no recording was made.
	TrialSkipped
	// TrialFailed: the device link failed, the recording was stopped early.
	TrialFailed
	// TrialAborted: the operator interrupted the session.
	TrialAborted
)

func (st TrialStatus) String() string {
	switch st {
	case TrialCompleted:
		return "completed"
	case TrialSkipped:
		return "skipped"
	case TrialFailed:
		return "failed"
	case TrialAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Trial is one clip presentation. Index is 0-based.
type Trial struct {
	Index int
	Total int
	Path  string
}

func (t Trial) Name() string {
	return filepath.Base(t.Path)
}

type TrialResult struct {
	Trial  Trial
	Clip   video.Clip
	Status TrialStatus
	// Frames counts FrameEvents written to the device.
	Frames         int
	DecodeFailures int
	RenderFailures int
	// Err is the cause of a non-completed status.
	Err error
	// Fatal is set when the session cannot continue: the event log is
	// unwritable or the device protocol was violated.
	Fatal error
}

// RunTrial presents one clip. Recording is always stopped before it
// returns when it was started.
func RunTrial(ctx context.Context, s *Session, trial Trial) TrialResult {
	res := TrialResult{Trial: trial}
	log := s.Log.WithFields(logrus.Fields{
		"trial": trial.Index,
		"clip":  trial.Name(),
	})

	src, err := s.Open(trial.Path)
	if err != nil {
		log.WithField("error", err.Error()).Warn("Skipping clip")
		res.Status = TrialSkipped
		res.Err = err
		res.Fatal = s.writeFailed(trial)
		return res
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.WithField("error", err.Error()).Warn("Failed to release clip")
		}
	}()

	res.Clip = src.Clip()
	if rr := s.Display.RefreshRate(); rr > 0 && res.Clip.FrameRate > rr {
		log.WithFields(logrus.Fields{
			"frame_rate":   res.Clip.FrameRate,
			"refresh_rate": rr,
		}).Warn("Clip frame rate exceeds display refresh rate")
	}

	start := timing.Stamp{Elapsed: s.Tracker.Timestamp(), Wall: s.Clock.Now()}
	if err := s.Events.Write(eventlog.NewTrialEvent(trial.Index, trial.Name(), start)); err != nil {
		res.Status = TrialFailed
		res.Err = err
		res.Fatal = err
		return res
	}

	if err := s.Tracker.StartRecording(); err != nil {
		res.Status = TrialFailed
		res.Err = err
		if tracker.IsDeviceIO(err) {
			log.WithField("error", err.Error()).Error("Recording did not start")
			res.Fatal = s.writeFailed(trial)
		} else {
			res.Fatal = err
		}
		return res
	}
	s.setTrigger(trigger.LineTrial)

	runErr := present(ctx, s, src, trial, &res, log)
	if runErr == nil || errors.Is(runErr, ErrAborted) {
		if err := s.Tracker.Log(MarkerTrialStop); err != nil && runErr == nil {
			runErr = err
		}
	}

	if err := s.Display.Clear(); err != nil {
		log.WithField("error", err.Error()).Warn("Failed to clear display")
	}
	stopErr := s.Tracker.StopRecording()
	s.unsetTrigger(trigger.LineTrial + trigger.LineFrame)
	if runErr == nil {
		runErr = stopErr
	} else if stopErr != nil {
		log.WithField("error", stopErr.Error()).Warn("Stop recording failed")
	}

	res.Err = runErr
	switch {
	case runErr == nil:
		res.Status = TrialCompleted
	case errors.Is(runErr, ErrAborted):
		res.Status = TrialAborted
	case tracker.IsDeviceIO(runErr):
		log.WithField("error", runErr.Error()).Error("Device failed during trial")
		res.Status = TrialFailed
		res.Fatal = s.writeFailed(trial)
	default:
		res.Status = TrialFailed
		res.Fatal = runErr
	}

	log.WithFields(logrus.Fields{
		"status":          res.Status.String(),
		"frames":          res.Frames,
		"decode_failures": res.DecodeFailures,
	}).Info("Trial finished")
	return res
}

// present writes the start markers and runs the frame loop.
func present(ctx context.Context, s *Session, src video.Source, trial Trial, res *TrialResult, log *logrus.Entry) error {
	if err := s.Tracker.Log(MarkerTrialStart); err != nil {
		return err
	}
	s.Tracker.StatusMsg(fmt.Sprintf("Trial %d/%d (%s)", trial.Index, trial.Total, trial.Name()))
	s.Clock.Sleep(s.Config.Settle())

	info := timing.Stamp{Elapsed: s.Tracker.Timestamp(), Wall: s.Clock.Now()}
	if err := s.Tracker.Log(TrialInfo(trial.Index, trial.Name(), info)); err != nil {
		return err
	}

	clip := res.Clip
	format := s.Display.Format()
	nominal := clip.NominalFrameMS()

	for i := 0; i < clip.FrameCount; i++ {
		if ctx.Err() != nil || s.Input.Interrupted() {
			return ErrAborted
		}

		mark := s.Pacer.BeginFrame()
		raw, err := src.ReadNext()
		if err != nil {
			res.DecodeFailures++
			log.WithFields(logrus.Fields{"frame": i, "error": err.Error()}).Debug("Showing blank frame")
			raw = nil
		}
		if err := s.Display.ShowFrame(video.Transform(raw, clip, format)); err != nil {
			res.RenderFailures++
			log.WithFields(logrus.Fields{"frame": i, "error": err.Error()}).Warn("Render failed")
		}
		presented := timing.Capture(s.Clock)
		if i == 0 {
			s.setTrigger(trigger.LineFrame)
		}

		if err := s.Tracker.Log(FrameEvent{Index: i, Presented: presented}.String()); err != nil {
			return err
		}
		res.Frames++

		s.Pacer.Wait(s.Pacer.ComputeSleep(mark, presented.Elapsed, nominal))
	}
	return nil
}

// writeFailed appends the failed-trial marker. Its error is session-ending.
func (s *Session) writeFailed(trial Trial) error {
	at := timing.Stamp{Elapsed: s.Tracker.Timestamp(), Wall: s.Clock.Now()}
	return s.Events.Write(eventlog.FailedTrialEvent(trial.Index, trial.Name(), at))
}
