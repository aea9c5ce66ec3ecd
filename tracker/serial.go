package tracker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// SerialDevice drives a tracker that speaks a line-oriented ASCII protocol
// over a serial link. Each request is one line; each reply is one line:
//
//	PING          → PONG
//	CAL           → OK | ERR <reason>
//	START | STOP  → OK | ERR <reason>
//	MSG <text>    → OK | ERR <reason>
//	STATUS <text> → OK | ERR <reason>
//	TIME          → <milliseconds>
//	CLOSE         → OK, once buffered samples are transferred
//
// Calibration and close wait for their reply without a deadline; every
// other request fails at the first empty read or once timeout has passed.
// Pending input is discarded before each request and after a failed one, so
// a late reply is never taken for the answer to the next request.
type SerialDevice struct {
	port    io.ReadWriteCloser
	timeout time.Duration
	buf     []byte
	chunk   [64]byte
}

// inputResetter is implemented by serial.Port.
type inputResetter interface {
	ResetInputBuffer() error
}

var errReplyTimeout = errors.New("reply timed out")

// OpenSerial opens a tracker on the named port. timeout bounds each reply of
// ordinary requests; zero waits forever.
func OpenSerial(name string, baudrate int, timeout time.Duration) (*SerialDevice, error) {
	mode := &serial.Mode{
		BaudRate: baudrate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}

	if timeout > 0 {
		if err := port.SetReadTimeout(timeout); err != nil {
			port.Close()
			return nil, err
		}
	}

	d, err := NewSerialDevice(port, timeout)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function": "OpenSerial",
		"port":     name,
		"baudrate": baudrate,
	}).Info("Serial tracker connected")

	return d, nil
}

// NewSerialDevice performs the PING handshake on port. The port is closed if
// the device does not answer. A read returning no data counts as a timeout;
// timeout additionally bounds a reply that trickles in.
func NewSerialDevice(port io.ReadWriteCloser, timeout time.Duration) (*SerialDevice, error) {
	d := &SerialDevice{port: port, timeout: timeout}
	reply, err := d.request(context.Background(), "PING", false)
	if err != nil || reply != "PONG" {
		port.Close()
		if err == nil {
			err = fmt.Errorf("unexpected reply %q", reply)
		}
		return nil, fmt.Errorf("device did not respond to ping correctly: %w", err)
	}
	return d, nil
}

func (d *SerialDevice) Calibrate(ctx context.Context) error {
	return d.expectOK(ctx, "CAL", true)
}

func (d *SerialDevice) StartRecording() error {
	return d.expectOK(context.Background(), "START", false)
}

func (d *SerialDevice) StopRecording() error {
	return d.expectOK(context.Background(), "STOP", false)
}

func (d *SerialDevice) Log(msg string) error {
	return d.expectOK(context.Background(), "MSG "+sanitize(msg), false)
}

func (d *SerialDevice) StatusMsg(text string) error {
	return d.expectOK(context.Background(), "STATUS "+sanitize(text), false)
}

func (d *SerialDevice) Timestamp() (time.Duration, error) {
	reply, err := d.request(context.Background(), "TIME", false)
	if err != nil {
		return 0, err
	}
	ms, err := strconv.ParseFloat(reply, 64)
	if err != nil {
		return 0, fmt.Errorf("bad TIME reply %q: %w", reply, err)
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

// Close waits for the device to finish transferring its data, then closes
// the port.
func (d *SerialDevice) Close() error {
	err := d.expectOK(context.Background(), "CLOSE", true)
	if cerr := d.port.Close(); err == nil {
		err = cerr
	}
	return err
}

func (d *SerialDevice) expectOK(ctx context.Context, cmd string, patient bool) error {
	reply, err := d.request(ctx, cmd, patient)
	if err != nil {
		return err
	}
	if reply != "OK" {
		return fmt.Errorf("%s: unexpected reply %q", verb(cmd), reply)
	}
	return nil
}

// request writes cmd and reads one reply line. An ERR reply is returned as
// an error.
func (d *SerialDevice) request(ctx context.Context, cmd string, patient bool) (string, error) {
	d.discardInput()
	if _, err := io.WriteString(d.port, cmd+"\n"); err != nil {
		return "", fmt.Errorf("%s: write: %w", verb(cmd), err)
	}
	reply, err := d.readLine(ctx, patient)
	if err != nil {
		d.discardInput()
		return "", fmt.Errorf("%s: read: %w", verb(cmd), err)
	}
	if rest, ok := strings.CutPrefix(reply, "ERR"); ok {
		return "", fmt.Errorf("%s: device error: %s", verb(cmd), strings.TrimSpace(rest))
	}
	return reply, nil
}

// readLine reads up to '\n' straight from the port. go.bug.st/serial
// reports an expired read timeout as (0, nil); patient reads keep waiting
// until ctx is done.
func (d *SerialDevice) readLine(ctx context.Context, patient bool) (string, error) {
	deadline := time.Now().Add(d.timeout)
	for {
		if i := bytes.IndexByte(d.buf, '\n'); i >= 0 {
			line := strings.TrimSpace(string(d.buf[:i]))
			d.buf = d.buf[i+1:]
			return line, nil
		}
		if !patient && d.timeout > 0 && time.Now().After(deadline) {
			return "", errReplyTimeout
		}

		n, err := d.port.Read(d.chunk[:])
		d.buf = append(d.buf, d.chunk[:n]...)
		if err != nil {
			return "", err
		}
		if n > 0 {
			continue
		}
		if !patient {
			return "", errReplyTimeout
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
}

// discardInput drops buffered bytes and, on a real port, the driver's
// input queue.
func (d *SerialDevice) discardInput() {
	d.buf = d.buf[:0]
	if r, ok := d.port.(inputResetter); ok {
		if err := r.ResetInputBuffer(); err != nil {
			logrus.WithField("error", err.Error()).Debug("Failed to reset serial input")
		}
	}
}

func verb(cmd string) string {
	v, _, _ := strings.Cut(cmd, " ")
	return strings.ToLower(v)
}
