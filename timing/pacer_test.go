package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_ThreeFrameClip(t *testing.T) {
	clock := NewManualClock(time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC))
	pacer := NewPacer(clock, DefaultBufferMS)

	// 10 fps clip: 100 ms per frame.
	loads := []time.Duration{20 * time.Millisecond, 110 * time.Millisecond, 0}
	want := []int{75, 0, 95}

	var got []int
	for _, load := range loads {
		start := pacer.BeginFrame()
		clock.Advance(load)
		ms := pacer.ComputeSleep(start, clock.Elapsed(), 100)
		got = append(got, ms)
		pacer.Wait(ms)
	}

	assert.Equal(t, want, got)
	assert.Equal(t, []time.Duration{75 * time.Millisecond, 95 * time.Millisecond}, clock.Sleeps(),
		"zero sleep must not reach the clock")
}

func TestPacer_RawSleepIsNegativeOnOverrun(t *testing.T) {
	pacer := NewPacer(NewManualClock(time.Time{}), DefaultBufferMS)
	assert.Equal(t, -15, pacer.RawSleep(0, 110*time.Millisecond, 100))
}

func TestPacer_ComputeSleep(t *testing.T) {
	tests := []struct {
		name    string
		load    time.Duration
		nominal float64
		want    int
	}{
		{"fast frame", 2 * time.Millisecond, 40, 33},
		{"fractional nominal floors", 10 * time.Millisecond, 1000.0 / 30.0, 18},
		{"fractional load floors", 10500 * time.Microsecond, 40, 24},
		{"exactly on budget", 35 * time.Millisecond, 40, 0},
		{"overrun clamps", 80 * time.Millisecond, 40, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pacer := NewPacer(NewManualClock(time.Time{}), DefaultBufferMS)
			got := pacer.ComputeSleep(0, tt.load, tt.nominal)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
		})
	}
}

func TestPacer_NonNegativeUnderBudget(t *testing.T) {
	pacer := NewPacer(NewManualClock(time.Time{}), DefaultBufferMS)
	for load := 0; load < 95; load++ {
		ms := pacer.ComputeSleep(0, time.Duration(load)*time.Millisecond, 100)
		require.GreaterOrEqual(t, ms, 0, "load=%d", load)
		require.Equal(t, 95-load, ms, "load=%d", load)
	}
}

func TestPacer_NegativeBufferTreatedAsZero(t *testing.T) {
	pacer := NewPacer(NewManualClock(time.Time{}), -3)
	assert.Equal(t, 80, pacer.ComputeSleep(0, 20*time.Millisecond, 100))
}

func TestPacer_DriftIsNotCorrected(t *testing.T) {
	clock := NewManualClock(time.Time{})
	pacer := NewPacer(clock, DefaultBufferMS)

	// Every frame overruns by 10 ms; the pacer never shortens later frames.
	for i := 0; i < 5; i++ {
		start := pacer.BeginFrame()
		clock.Advance(50 * time.Millisecond)
		pacer.Wait(pacer.ComputeSleep(start, clock.Elapsed(), 40))
	}
	assert.Equal(t, 250*time.Millisecond, clock.Elapsed())
	assert.Empty(t, clock.Sleeps())
}
