package engine

import (
	"fmt"

	"gazevid/timing"
)

// Device log vocabulary read by the gaze analysis tooling.
const (
	MarkerTrialStart = "TRIALSTART"
	MarkerTrialStop  = "TRIALSTOP"
)

// TrialInfo is the clock-alignment line written after TRIALSTART.
func TrialInfo(trial int, clip string, at timing.Stamp) string {
	return fmt.Sprintf("TRIALNR %d; VIDNAME %s; EXPTIME %d; PCTIME %s",
		trial, clip, int64(at.Millis()), at.ISO())
}

// FrameEvent records one presented frame.
type FrameEvent struct {
	Index     int
	Presented timing.Stamp
}

func (e FrameEvent) String() string {
	return fmt.Sprintf("FRAMENR %d; TIME %.3f; PCTIME %s",
		e.Index, e.Presented.Millis(), e.Presented.ISO())
}
