package engine

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ListClips returns the full paths of the regular, non-hidden files in dir in
// lexical order.
func ListClips(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &ConfigurationError{Reason: "list clip directory " + dir, Err: err}
	}

	var clips []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		clips = append(clips, filepath.Join(dir, e.Name()))
	}
	sort.Strings(clips)
	return clips, nil
}

// Shuffle permutes clips in place. A zero seed is replaced by one derived
// from the wall clock; the seed actually used is returned so the order can
// be reproduced.
func Shuffle(clips []string, seed uint64) uint64 {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	r.Shuffle(len(clips), func(i, j int) {
		clips[i], clips[j] = clips[j], clips[i]
	})
	return seed
}

// ResolveClips builds the trial order from the playlist when one is set,
// otherwise from the clip directory listing, then shuffles if requested.
func ResolveClips(cfg *Config) (clips []string, seed uint64, err error) {
	if cfg.Playlist != "" {
		clips, err = LoadPlaylist(cfg.Playlist, cfg.ClipDir)
	} else {
		clips, err = ListClips(cfg.ClipDir)
	}
	if err != nil {
		return nil, 0, err
	}
	if len(clips) == 0 {
		return nil, 0, &ConfigurationError{Reason: "no clips found"}
	}
	if cfg.Shuffle {
		seed = Shuffle(clips, cfg.Seed)
	}
	return clips, seed, nil
}
