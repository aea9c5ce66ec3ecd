package eventlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"
)

// ReadFile parses an event log written by Writer.
func ReadFile(path string) ([]TrialEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(Header)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || !slices.Equal(records[0], Header) {
		return nil, fmt.Errorf("%s: missing event log header", path)
	}

	events := make([]TrialEvent, 0, len(records)-1)
	for i, record := range records[1:] {
		ev, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v", i+2, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseRecord(record []string) (TrialEvent, error) {
	trial, err := strconv.Atoi(record[2])
	if err != nil {
		return TrialEvent{}, fmt.Errorf("invalid trial number: %v", err)
	}

	ev := TrialEvent{Date: record[0], Time: record[1], Trial: trial, Video: record[3]}
	if record[4] == FailedMarker {
		ev.Failed = true
		return ev, nil
	}

	ev.Timestamp, err = strconv.ParseFloat(record[4], 64)
	if err != nil {
		return TrialEvent{}, fmt.Errorf("invalid timestamp: %v", err)
	}
	return ev, nil
}
