// Package eventlog writes the trial-level event log: a comma separated text
// file with one line per trial start.
package eventlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	"gazevid/timing"
)

var (
	// ErrFileExists is returned by Create when the log file is already
	// present. A previous run's data is never overwritten.
	ErrFileExists = errors.New("event log already exists")

	// ErrClosed is returned by Write after Close.
	ErrClosed = errors.New("event log closed")
)

// Header is the first line of every event log.
var Header = []string{"date", "time", "trialnr", "video", "timestamp"}

// FailedMarker takes the timestamp column of a trial that did not complete.
const FailedMarker = "FAILED"

// TrialEvent is one event log record. Timestamp is the session time in
// milliseconds when the trial started.
type TrialEvent struct {
	Date      string
	Time      string
	Trial     int
	Video     string
	Timestamp float64
	Failed    bool
}

// NewTrialEvent builds the start record of trial from a timestamp snapshot.
func NewTrialEvent(trial int, video string, at timing.Stamp) TrialEvent {
	return TrialEvent{
		Date:      at.Date(),
		Time:      at.Time(),
		Trial:     trial,
		Video:     video,
		Timestamp: at.Millis(),
	}
}

// FailedTrialEvent builds the marker record of a trial that did not complete.
func FailedTrialEvent(trial int, video string, at timing.Stamp) TrialEvent {
	ev := NewTrialEvent(trial, video, at)
	ev.Timestamp = 0
	ev.Failed = true
	return ev
}

func (e TrialEvent) record() []string {
	ts := strconv.FormatFloat(e.Timestamp, 'f', -1, 64)
	if e.Failed {
		ts = FailedMarker
	}
	return []string{e.Date, e.Time, strconv.Itoa(e.Trial), e.Video, ts}
}

// Writer appends TrialEvents to the log file. Each Write reaches the file
// before it returns, so a crash loses at most the record being written.
type Writer struct {
	f    *os.File
	w    *csv.Writer
	path string
}

// Create creates the log at path and writes the header. It fails with
// ErrFileExists if path is already present.
func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrFileExists)
		}
		return nil, err
	}

	lw := &Writer{f: f, w: csv.NewWriter(f), path: path}
	if err := lw.writeRecord(Header); err != nil {
		f.Close()
		return nil, err
	}
	return lw, nil
}

// Path is the file the writer appends to.
func (lw *Writer) Path() string {
	return lw.path
}

// Write appends ev and flushes it.
func (lw *Writer) Write(ev TrialEvent) error {
	if lw.f == nil {
		return ErrClosed
	}
	return lw.writeRecord(ev.record())
}

func (lw *Writer) writeRecord(rec []string) error {
	if err := lw.w.Write(rec); err != nil {
		return err
	}
	lw.w.Flush()
	return lw.w.Error()
}

// Close flushes and closes the file. Further calls return nil.
func (lw *Writer) Close() error {
	if lw.f == nil {
		return nil
	}
	lw.w.Flush()
	err := lw.w.Error()
	if cerr := lw.f.Close(); err == nil {
		err = cerr
	}
	lw.f = nil
	return err
}
