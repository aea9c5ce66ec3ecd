package tracker

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"gazevid/timing"
)

// DummyDevice stands in for tracking hardware. It writes the device data
// stream as tab-separated lines to w, timestamped with the session clock:
//
//	MSG	<ms>	<text>
//
// Every line is written with a single Write call.
type DummyDevice struct {
	mu    sync.Mutex
	w     io.WriteCloser
	clock timing.Clock
}

// NewDummy returns a dummy device writing to w.
func NewDummy(w io.WriteCloser, clock timing.Clock) *DummyDevice {
	return &DummyDevice{w: w, clock: clock}
}

// CreateDummy creates the data file at path. An existing file is never
// overwritten.
func CreateDummy(path string, clock timing.Clock) (*DummyDevice, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	return NewDummy(f, clock), nil
}

func (d *DummyDevice) line(kind string, text ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.w == nil {
		return io.ErrClosedPipe
	}
	fields := append([]string{kind, fmt.Sprintf("%.3f", timing.Millis(d.clock.Elapsed()))}, text...)
	_, err := io.WriteString(d.w, strings.Join(fields, "\t")+"\n")
	return err
}

func (d *DummyDevice) Calibrate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.line("CALIBRATION", "dummy")
}

func (d *DummyDevice) StartRecording() error {
	return d.line("START_RECORDING")
}

func (d *DummyDevice) StopRecording() error {
	return d.line("STOP_RECORDING")
}

func (d *DummyDevice) Log(msg string) error {
	return d.line("MSG", sanitize(msg))
}

func (d *DummyDevice) StatusMsg(text string) error {
	return d.line("STATUS", sanitize(text))
}

func (d *DummyDevice) Timestamp() (time.Duration, error) {
	return d.clock.Elapsed(), nil
}

func (d *DummyDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.w == nil {
		return nil
	}
	err := d.w.Close()
	d.w = nil
	return err
}

// sanitize keeps a message on a single line.
func sanitize(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
