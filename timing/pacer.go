package timing

import (
	"math"
	"time"
)

// DefaultBufferMS is the margin kept free of each frame's budget to absorb
// scheduler jitter.
const DefaultBufferMS = 5

// LoadStart marks the instant frame acquisition began.
type LoadStart time.Duration

// Pacer compensates each frame's sleep for the time spent decoding,
// transforming and presenting it. Drift accumulated across frames is not
// corrected: a slow frame shifts every later frame, and no frame is ever
// dropped to catch up.
type Pacer struct {
	clock    Clock
	bufferMS float64
}

// NewPacer returns a Pacer on clock. A negative buffer is treated as zero.
func NewPacer(clock Clock, bufferMS float64) *Pacer {
	if bufferMS < 0 {
		bufferMS = 0
	}
	return &Pacer{clock: clock, bufferMS: bufferMS}
}

// BeginFrame captures the load start mark. Call it immediately before the
// next frame is read.
func (p *Pacer) BeginFrame() LoadStart {
	return LoadStart(p.clock.Elapsed())
}

// RawSleep is floor(nominal - (load + buffer)) in milliseconds, where load
// is presentedAt - start. The result is negative when the frame overran its
// budget.
func (p *Pacer) RawSleep(start LoadStart, presentedAt time.Duration, nominalMS float64) int {
	load := Millis(presentedAt - time.Duration(start))
	return int(math.Floor(nominalMS - (load + p.bufferMS)))
}

// ComputeSleep is RawSleep clamped at zero.
func (p *Pacer) ComputeSleep(start LoadStart, presentedAt time.Duration, nominalMS float64) int {
	ms := p.RawSleep(start, presentedAt, nominalMS)
	if ms < 0 {
		return 0
	}
	return ms
}

// Wait sleeps for ms milliseconds; zero and negative values return at once.
func (p *Pacer) Wait(ms int) {
	if ms <= 0 {
		return
	}
	p.clock.Sleep(time.Duration(ms) * time.Millisecond)
}
