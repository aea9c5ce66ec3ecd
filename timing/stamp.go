package timing

import (
	"fmt"
	"time"
)

// Layouts used in the device log and the trial event log.
const (
	ISOLayout  = "2006-01-02_15:04:05.000000"
	DateLayout = "06-01-02"
	TimeLayout = "15-04-05"
)

// Stamp pairs a session-relative monotonic offset with the wall clock
// reading taken at the same instant. Ordering always uses Elapsed; the wall
// clock is only formatted for humans and cross-referencing.
type Stamp struct {
	Elapsed time.Duration
	Wall    time.Time
}

// Capture reads both clocks of c.
func Capture(c Clock) Stamp {
	return Stamp{Elapsed: c.Elapsed(), Wall: c.Now()}
}

// Millis is Elapsed in fractional milliseconds.
func (s Stamp) Millis() float64 {
	return Millis(s.Elapsed)
}

// ISO formats the wall clock with microsecond precision.
func (s Stamp) ISO() string {
	return s.Wall.Format(ISOLayout)
}

func (s Stamp) Date() string {
	return s.Wall.Format(DateLayout)
}

func (s Stamp) Time() string {
	return s.Wall.Format(TimeLayout)
}

func (s Stamp) String() string {
	return fmt.Sprintf("%.3fms@%s", s.Millis(), s.ISO())
}

// Millis converts d to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
