package engine

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
)

// LoadPlaylist reads a fixed clip order from a CSV file. The first column of
// each record names a clip, relative paths resolve against clipDir. Missing
// files are not checked here; the trial runner skips them. Blank
// records and records starting with '#' are ignored.
func LoadPlaylist(path, clipDir string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigurationError{Reason: "open playlist", Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	records, err := reader.ReadAll()
	if err != nil {
		return nil, &ConfigurationError{Reason: "parse playlist " + path, Err: err}
	}

	var clips []string
	for _, record := range records {
		if len(record) == 0 {
			continue
		}
		name := strings.TrimSpace(record[0])
		if name == "" {
			continue
		}
		if !filepath.IsAbs(name) {
			name = filepath.Join(clipDir, name)
		}
		clips = append(clips, name)
	}
	return clips, nil
}
