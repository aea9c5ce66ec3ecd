package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Summary tallies the trials of one session.
type Summary struct {
	Results   []TrialResult
	Completed int
	Skipped   int
	Failed    int
	Aborted   bool
}

func (sum *Summary) add(res TrialResult) {
	sum.Results = append(sum.Results, res)
	switch res.Status {
	case TrialCompleted:
		sum.Completed++
	case TrialSkipped:
		sum.Skipped++
	case TrialFailed:
		sum.Failed++
	case TrialAborted:
		sum.Aborted = true
	}
}

// RunExperiment calibrates the tracker and runs one trial per clip in the
// given order. Each trial waits for a key on the instruction screen. A clip
// that cannot be opened or a device failure costs one trial; an operator
// abort ends the loop and is reported in the Summary, not as an error.
// The caller closes the session.
func RunExperiment(ctx context.Context, s *Session, clips []string) (Summary, error) {
	var sum Summary

	if err := s.Tracker.Calibrate(ctx); err != nil {
		return sum, err
	}

	for i, path := range clips {
		if err := s.Display.ShowText(TextNextTrial); err != nil {
			s.Log.WithField("error", err.Error()).Warn("Failed to show instructions")
		}
		s.Input.Flush()
		if err := s.Input.WaitKey(ctx); err != nil {
			if errors.Is(err, ErrAborted) {
				sum.Aborted = true
				break
			}
			return sum, err
		}
		if err := s.Display.Clear(); err != nil {
			s.Log.WithField("error", err.Error()).Warn("Failed to clear display")
		}

		res := RunTrial(ctx, s, Trial{Index: i, Total: len(clips), Path: path})
		sum.add(res)

		fmt.Printf("\rTrial: %d/%d ", i+1, len(clips))
		os.Stdout.Sync()

		if res.Fatal != nil {
			return sum, fmt.Errorf("trial %d: %w", i, res.Fatal)
		}
		if res.Status == TrialAborted {
			break
		}
	}
	fmt.Println()

	s.Log.WithFields(logrus.Fields{
		"completed": sum.Completed,
		"skipped":   sum.Skipped,
		"failed":    sum.Failed,
		"aborted":   sum.Aborted,
	}).Info("Experiment finished")
	return sum, nil
}

// Finish closes the session and, unless the operator aborted, shows the
// goodbye screen until a key is pressed.
func Finish(ctx context.Context, s *Session, sum Summary) error {
	s.Input.Flush()
	err := s.Close()
	if sum.Aborted {
		return err
	}
	if serr := s.Display.ShowText(TextGoodbye); serr != nil {
		s.Log.WithField("error", serr.Error()).Warn("Failed to show goodbye screen")
	}
	if werr := s.Input.WaitKey(ctx); werr != nil && !errors.Is(werr, ErrAborted) {
		return errors.Join(err, werr)
	}
	return err
}
