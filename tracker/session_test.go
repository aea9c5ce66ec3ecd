package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gazevid/timing"
)

// fakeDevice records every call and can be told to fail.
type fakeDevice struct {
	calls      []string
	failCal    error
	failStart  error
	failStop   error
	failLog    error
	failStatus error
}

func (d *fakeDevice) Calibrate(ctx context.Context) error {
	d.calls = append(d.calls, "calibrate")
	return d.failCal
}

func (d *fakeDevice) StartRecording() error {
	d.calls = append(d.calls, "start")
	return d.failStart
}

func (d *fakeDevice) StopRecording() error {
	d.calls = append(d.calls, "stop")
	return d.failStop
}

func (d *fakeDevice) Log(msg string) error {
	d.calls = append(d.calls, "log:"+msg)
	return d.failLog
}

func (d *fakeDevice) Close() error {
	d.calls = append(d.calls, "close")
	return nil
}

// statusDevice adds an operator console and a clock to fakeDevice.
type statusDevice struct {
	fakeDevice
	ts time.Duration
}

func (d *statusDevice) StatusMsg(text string) error {
	d.calls = append(d.calls, "status:"+text)
	return d.failStatus
}

func (d *statusDevice) Timestamp() (time.Duration, error) {
	return d.ts, nil
}

func newTestSession(dev Device) (*Session, *timing.ManualClock) {
	clock := timing.NewManualClock(time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC))
	return NewSession(dev, clock, DefaultSettle), clock
}

func TestSession_FullProtocol(t *testing.T) {
	dev := &statusDevice{}
	s, clock := newTestSession(dev)

	require.NoError(t, s.Calibrate(context.Background()))
	assert.Equal(t, Calibrated, s.State())

	for trial := 0; trial < 2; trial++ {
		require.NoError(t, s.StartRecording())
		assert.Equal(t, Recording, s.State())
		require.NoError(t, s.Log("TRIALSTART"))
		s.StatusMsg("Trial 0/2 (a.mp4)")
		require.NoError(t, s.StopRecording())
		assert.Equal(t, Idle, s.State())
	}
	require.NoError(t, s.Close())
	assert.Equal(t, Closed, s.State())

	assert.Equal(t, []string{
		"calibrate",
		"start", "log:TRIALSTART", "status:Trial 0/2 (a.mp4)", "stop",
		"start", "log:TRIALSTART", "status:Trial 0/2 (a.mp4)", "stop",
		"close",
	}, dev.calls)
	assert.Equal(t, 2, s.Recordings())
	assert.Equal(t, []time.Duration{DefaultSettle, DefaultSettle}, clock.Sleeps(),
		"each start must be followed by the settling pause")
}

func TestSession_StartStopAlternate(t *testing.T) {
	dev := &fakeDevice{}
	s, _ := newTestSession(dev)

	err := s.StopRecording()
	assert.ErrorIs(t, err, ErrInvalidTransition, "stop while idle")

	require.NoError(t, s.StartRecording())
	err = s.StartRecording()
	assert.ErrorIs(t, err, ErrInvalidTransition, "start while recording")
	assert.Equal(t, Recording, s.State())

	require.NoError(t, s.StopRecording())
	assert.ErrorIs(t, s.StopRecording(), ErrInvalidTransition)

	assert.Equal(t, []string{"start", "stop"}, dev.calls, "rejected calls must not reach the device")
}

func TestSession_LogRequiresRecording(t *testing.T) {
	dev := &fakeDevice{}
	s, _ := newTestSession(dev)

	assert.ErrorIs(t, s.Log("early"), ErrNotRecording)
	require.NoError(t, s.StartRecording())
	require.NoError(t, s.StopRecording())
	assert.ErrorIs(t, s.Log("late"), ErrNotRecording)
	assert.NotContains(t, dev.calls, "log:early")
}

func TestSession_CalibrationFailureKeepsIdle(t *testing.T) {
	dev := &fakeDevice{failCal: errors.New("validation error too large")}
	s, _ := newTestSession(dev)

	err := s.Calibrate(context.Background())
	var calErr *CalibrationError
	require.True(t, errors.As(err, &calErr))
	assert.Contains(t, err.Error(), "validation error too large")
	assert.Equal(t, Idle, s.State())

	dev.failCal = nil
	require.NoError(t, s.Calibrate(context.Background()), "retry after rejection")
	assert.Equal(t, Calibrated, s.State())
}

func TestSession_LogDeviceFailureIsDeviceIOError(t *testing.T) {
	dev := &fakeDevice{failLog: errors.New("link down")}
	s, _ := newTestSession(dev)

	require.NoError(t, s.StartRecording())
	err := s.Log("FRAMENR 0")
	require.Error(t, err)
	assert.True(t, IsDeviceIO(err))

	var dioErr *DeviceIOError
	require.True(t, errors.As(err, &dioErr))
	assert.Equal(t, "log", dioErr.Op)
	assert.Equal(t, Recording, s.State())
}

func TestSession_StopAlwaysLeavesRecording(t *testing.T) {
	dev := &fakeDevice{failStop: errors.New("link down")}
	s, _ := newTestSession(dev)

	require.NoError(t, s.StartRecording())
	err := s.StopRecording()
	assert.True(t, IsDeviceIO(err))
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 1, s.Recordings())
}

func TestSession_FailedStartStaysIdle(t *testing.T) {
	dev := &fakeDevice{failStart: errors.New("busy")}
	s, clock := newTestSession(dev)

	err := s.StartRecording()
	assert.True(t, IsDeviceIO(err))
	assert.Equal(t, Idle, s.State())
	assert.Empty(t, clock.Sleeps())
}

func TestSession_StatusMsgIsBestEffort(t *testing.T) {
	plain := &fakeDevice{}
	s, _ := newTestSession(plain)
	s.StatusMsg("no console")
	assert.Empty(t, plain.calls)

	failing := &statusDevice{fakeDevice: fakeDevice{failStatus: errors.New("unsupported")}}
	s, _ = newTestSession(failing)
	s.StatusMsg("console broken")
	assert.Equal(t, []string{"status:console broken"}, failing.calls)
}

func TestSession_CloseRules(t *testing.T) {
	dev := &fakeDevice{}
	s, _ := newTestSession(dev)

	require.NoError(t, s.StartRecording())
	assert.ErrorIs(t, s.Close(), ErrInvalidTransition, "close while recording")
	require.NoError(t, s.StopRecording())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Close(), ErrInvalidTransition, "close twice")
	assert.ErrorIs(t, s.StartRecording(), ErrInvalidTransition, "start after close")
	assert.ErrorIs(t, s.Calibrate(context.Background()), ErrInvalidTransition)
}

func TestSession_Timestamp(t *testing.T) {
	s, clock := newTestSession(&fakeDevice{})
	clock.Advance(1234 * time.Millisecond)
	assert.Equal(t, 1234*time.Millisecond, s.Timestamp(), "session clock without device clock")

	dev := &statusDevice{ts: 99 * time.Second}
	s, _ = newTestSession(dev)
	assert.Equal(t, 99*time.Second, s.Timestamp())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "recording", Recording.String())
	assert.Equal(t, "unknown", State(42).String())
}
