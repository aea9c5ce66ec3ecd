package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gazevid/tracker"
)

func TestRunExperiment_CorruptClipIsSkipped(t *testing.T) {
	h := newHarness(t)
	h.lib.add(newClip("a.mp4", 3, 25))
	h.lib.add(newClip("b.mp4", 2, 25))
	h.lib.add(newClip("d.mp4", 4, 25))
	clips := []string{"v/a.mp4", "v/b.mp4", "v/c.mp4", "v/d.mp4"}

	sum, err := RunExperiment(context.Background(), h.s, clips)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Completed)
	assert.Equal(t, 1, sum.Skipped)
	assert.Zero(t, sum.Failed)
	assert.False(t, sum.Aborted)
	require.Len(t, sum.Results, 4)
	assert.Equal(t, TrialSkipped, sum.Results[2].Status)

	assert.Equal(t, 1, h.dev.count("calibrate"))
	assert.Equal(t, 3, h.dev.count("start"))
	assert.Equal(t, 3, h.dev.count("stop"))
	assert.Equal(t, 3, h.s.Tracker.Recordings())
	assert.Equal(t, 3+2+4, h.dev.count("FRAMENR"))
	assert.Equal(t, []string{"a.mp4", "b.mp4", "c.mp4", "d.mp4"}, h.lib.opened)

	events := h.events(t)
	require.Len(t, events, 4)
	var ok, failed int
	for i, ev := range events {
		assert.Equal(t, i, ev.Trial)
		if ev.Failed {
			failed++
			assert.Equal(t, "c.mp4", ev.Video)
		} else {
			ok++
		}
	}
	assert.Equal(t, 3, ok)
	assert.Equal(t, 1, failed)
}

func TestRunExperiment_InstructionScreenPerTrial(t *testing.T) {
	h := newHarness(t)
	h.lib.add(newClip("a.mp4", 1, 25))
	h.lib.add(newClip("b.mp4", 1, 25))

	_, err := RunExperiment(context.Background(), h.s, []string{"a.mp4", "b.mp4"})
	require.NoError(t, err)

	assert.Equal(t, []string{TextNextTrial, TextNextTrial}, h.display.texts)
	assert.Equal(t, 2, h.input.waits)
}

func TestRunExperiment_EscapeOnInstructionScreen(t *testing.T) {
	h := newHarness(t)
	h.lib.add(newClip("a.mp4", 1, 25))
	h.lib.add(newClip("b.mp4", 1, 25))
	h.input.abortWait = 2

	sum, err := RunExperiment(context.Background(), h.s, []string{"a.mp4", "b.mp4"})
	require.NoError(t, err)

	assert.True(t, sum.Aborted)
	assert.Equal(t, 1, sum.Completed)
	assert.Len(t, sum.Results, 1)
	assert.Equal(t, 1, h.dev.count("start"))
}

func TestRunExperiment_InterruptDuringTrialEndsSession(t *testing.T) {
	h := newHarness(t)
	h.lib.add(newClip("a.mp4", 10, 25))
	h.lib.add(newClip("b.mp4", 10, 25))
	h.input.abortAfter = 2

	sum, err := RunExperiment(context.Background(), h.s, []string{"a.mp4", "b.mp4"})
	require.NoError(t, err)

	assert.True(t, sum.Aborted)
	require.Len(t, sum.Results, 1)
	assert.Equal(t, TrialAborted, sum.Results[0].Status)
	assert.Equal(t, tracker.Idle, h.s.Tracker.State())
	assert.Equal(t, 1, h.dev.count("stop"))
}

func TestRunExperiment_DeviceFailureCostsOneTrial(t *testing.T) {
	h := newHarness(t)
	h.lib.add(newClip("a.mp4", 2, 25))
	h.lib.add(newClip("b.mp4", 2, 25))
	h.dev.failOn = "TRIALNR 0"

	sum, err := RunExperiment(context.Background(), h.s, []string{"a.mp4", "b.mp4"})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Completed)
	assert.Equal(t, 2, h.dev.count("start"))
	assert.Equal(t, 2, h.dev.count("stop"))
}

func TestRunExperiment_CalibrationFailure(t *testing.T) {
	h := newHarness(t)
	h.dev.failCal = errors.New("validation error too large")

	_, err := RunExperiment(context.Background(), h.s, []string{"a.mp4"})

	var calErr *tracker.CalibrationError
	require.ErrorAs(t, err, &calErr)
	assert.Zero(t, h.dev.count("start"))
	assert.Empty(t, h.lib.opened)
}

func TestRunExperiment_FatalTrialStopsSession(t *testing.T) {
	h := newHarness(t)
	h.lib.add(newClip("a.mp4", 2, 25))
	require.NoError(t, h.s.Events.Close())

	_, err := RunExperiment(context.Background(), h.s, []string{"a.mp4", "b.mp4"})

	require.Error(t, err)
	assert.Equal(t, []string{"a.mp4"}, h.lib.opened)
}

func TestSession_CloseOnce(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.s.Close())
	require.NoError(t, h.s.Close())

	assert.Equal(t, []string{TextProcessing}, h.display.texts)
	assert.Equal(t, 1, h.dev.count("close"))
	assert.Equal(t, []string{"close"}, h.trig.calls)
	assert.Equal(t, tracker.Closed, h.s.Tracker.State())
}

func TestFinish_ShowsGoodbye(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, Finish(context.Background(), h.s, Summary{}))

	assert.Equal(t, []string{TextProcessing, TextGoodbye}, h.display.texts)
	assert.Equal(t, 1, h.input.waits)
}

func TestFinish_AbortedSkipsGoodbye(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, Finish(context.Background(), h.s, Summary{Aborted: true}))

	assert.Equal(t, []string{TextProcessing}, h.display.texts)
	assert.Zero(t, h.input.waits)
}
