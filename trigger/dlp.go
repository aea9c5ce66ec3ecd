// Package trigger drives a DLP-IO8-G digital I/O box used to send TTL
// markers to external recording equipment.
package trigger

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Line numbers used by the experiment: LineTrial is high while a trial
// records, LineFrame goes high when the first frame of a clip is shown.
const (
	LineTrial = "1"
	LineFrame = "2"
)

// DLPIO8G is a DLP-IO8-G box in binary mode. Lines are named "1".."8";
// writing a line's digit raises it, writing its unset letter lowers it.
type DLPIO8G struct {
	port io.ReadWriteCloser
}

// NewDLPIO8G opens device at baudrate and switches the box to binary mode.
func NewDLPIO8G(device string, baudrate int) (*DLPIO8G, error) {
	mode := &serial.Mode{
		BaudRate: baudrate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, err
	}
	return Attach(port)
}

// Attach pings the box on an open port and enables binary mode. The port is
// closed on failure.
func Attach(port io.ReadWriteCloser) (*DLPIO8G, error) {
	d := &DLPIO8G{port: port}

	if !d.Ping() {
		port.Close()
		return nil, fmt.Errorf("device did not respond to ping correctly")
	}

	// Binary mode
	if _, err := port.Write([]byte{0x5C}); err != nil {
		port.Close()
		return nil, err
	}

	return d, nil
}

func (d *DLPIO8G) Close() error {
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	return err
}

// Ping sends the ping command and expects 'Q' back.
func (d *DLPIO8G) Ping() bool {
	if _, err := d.port.Write([]byte{0x27}); err != nil {
		return false
	}

	buf := make([]byte, 1)
	n, err := d.port.Read(buf)
	return err == nil && n == 1 && buf[0] == 'Q'
}

// Set raises the given lines, e.g. "13".
func (d *DLPIO8G) Set(lines string) error {
	if _, err := d.port.Write([]byte(lines)); err != nil {
		return fmt.Errorf("dlp set %s: %w", lines, err)
	}
	return nil
}

// Unset lowers the given lines.
func (d *DLPIO8G) Unset(lines string) error {
	if _, err := d.port.Write(unsetCommand(lines)); err != nil {
		return fmt.Errorf("dlp unset %s: %w", lines, err)
	}
	return nil
}

func unsetCommand(lines string) []byte {
	const unset = "QWERTYUI"
	cmd := []byte(lines)
	for i, c := range cmd {
		if c >= '1' && c <= '8' {
			cmd[i] = unset[c-'1']
		}
	}
	return cmd
}
