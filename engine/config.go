package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Tracker types.
const (
	TrackerDummy  = "dummy"
	TrackerSerial = "serial"
)

// Color is an sdl.Color read from and written as "R,G,B[,A]".
type Color struct {
	sdl.Color
}

func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	col, err := parseColor(value.Value)
	if err != nil {
		return err
	}
	c.Color = col
	return nil
}

func (c Color) MarshalYAML() (any, error) {
	return c.String(), nil
}

func (c Color) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", c.R, c.G, c.B, c.A)
}

type Config struct {
	ClipDir      string `yaml:"clip_dir"`
	DataDir      string `yaml:"data_dir"`
	LogName      string `yaml:"log_name"`
	ShortLogName bool   `yaml:"short_log_name"`
	Playlist     string `yaml:"playlist"`
	Shuffle      bool   `yaml:"shuffle"`
	Seed         uint64 `yaml:"seed"`

	Tracker          string `yaml:"tracker"`
	TrackerPort      string `yaml:"tracker_port"`
	TrackerBaud      int    `yaml:"tracker_baud"`
	TrackerTimeoutMS int    `yaml:"tracker_timeout_ms"`
	TriggerPort      string `yaml:"trigger_port"`

	StartSplash  string  `yaml:"start_splash"`
	EndSplash    string  `yaml:"end_splash"`
	FontFile     string  `yaml:"font_file"`
	FontSize     int     `yaml:"font_size"`
	ScreenWidth  int     `yaml:"screen_width"`
	ScreenHeight int     `yaml:"screen_height"`
	ScaleFactor  float32 `yaml:"scale"`
	Fullscreen   bool    `yaml:"fullscreen"`
	VSync        bool    `yaml:"vsync"`
	BGColor      Color   `yaml:"bg_color"`
	TextColor    Color   `yaml:"text_color"`

	BufferMS float64 `yaml:"buffer_ms"`
	SettleMS int     `yaml:"settle_ms"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

// ParseColor parses "R,G,B" or "R,G,B,A". Alpha defaults to opaque and
// unparsable input yields opaque black.
func ParseColor(s string) sdl.Color {
	c, err := parseColor(s)
	if err != nil {
		return sdl.Color{A: 255}
	}
	return c
}

func parseColor(s string) (sdl.Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return sdl.Color{}, fmt.Errorf("color %q: want R,G,B or R,G,B,A", s)
	}
	v := [4]uint8{0, 0, 0, 255}
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return sdl.Color{}, fmt.Errorf("color %q: %w", s, err)
		}
		v[i] = uint8(n)
	}
	return sdl.Color{R: v[0], G: v[1], B: v[2], A: v[3]}, nil
}

func DefaultConfig() *Config {
	return &Config{
		ClipDir:          "videos",
		DataDir:          "data",
		Tracker:          TrackerDummy,
		TrackerBaud:      115200,
		TrackerTimeoutMS: 2000,
		FontSize:         24,
		ScreenWidth:      1920,
		ScreenHeight:     1080,
		ScaleFactor:      1.0,
		Shuffle:          true,
		VSync:            true,
		BGColor:          Color{sdl.Color{R: 0, G: 0, B: 0, A: 255}},
		TextColor:        Color{sdl.Color{R: 255, G: 255, B: 255, A: 255}},
		BufferMS:         5,
		SettleMS:         5,
		LogLevel:         "info",
	}
}

// LoadFile reads a YAML config over the defaults. Unknown keys are errors.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Reason: "read config file", Err: err}
	}
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, &ConfigurationError{Reason: "parse config file " + path, Err: err}
	}
	return cfg, nil
}

// Validate checks everything that must hold before any device is touched.
func (cfg *Config) Validate() error {
	info, err := os.Stat(cfg.ClipDir)
	if err != nil {
		return &ConfigurationError{Reason: "clip directory not found at " + cfg.ClipDir, Err: err}
	}
	if !info.IsDir() {
		return &ConfigurationError{Reason: cfg.ClipDir + " is not a directory"}
	}

	switch cfg.Tracker {
	case TrackerDummy:
	case TrackerSerial:
		if cfg.TrackerPort == "" {
			return &ConfigurationError{Reason: "serial tracker requires tracker_port"}
		}
		if cfg.TrackerBaud <= 0 {
			return &ConfigurationError{Reason: "tracker_baud must be positive"}
		}
	default:
		return &ConfigurationError{Reason: fmt.Sprintf("unknown tracker type %q", cfg.Tracker)}
	}

	if cfg.ScreenWidth <= 0 || cfg.ScreenHeight <= 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("invalid screen size %dx%d", cfg.ScreenWidth, cfg.ScreenHeight)}
	}
	if cfg.BufferMS < 0 || cfg.SettleMS < 0 {
		return &ConfigurationError{Reason: "buffer_ms and settle_ms must not be negative"}
	}
	if cfg.ScaleFactor <= 0 {
		return &ConfigurationError{Reason: "scale must be positive"}
	}
	return nil
}

// LogFileName is the base name shared by the event log and the dummy
// tracker's data file. Trackers limited to eight-character file names use
// the short day/hour/minute form.
func (cfg *Config) LogFileName(now time.Time) string {
	if cfg.LogName != "" {
		return cfg.LogName
	}
	if cfg.ShortLogName {
		return now.Format("02_15-04")
	}
	return now.Format("06-01-02_15-04-05")
}

// EventLogPath is the event log file for a session started at now.
func (cfg *Config) EventLogPath(now time.Time) string {
	return filepath.Join(cfg.DataDir, cfg.LogFileName(now)+".txt")
}

// GazeLogPath is the dummy tracker data file for a session started at now.
func (cfg *Config) GazeLogPath(now time.Time) string {
	return filepath.Join(cfg.DataDir, cfg.LogFileName(now)+"_gaze.txt")
}

func (cfg *Config) TrackerTimeout() time.Duration {
	return time.Duration(cfg.TrackerTimeoutMS) * time.Millisecond
}

func (cfg *Config) Settle() time.Duration {
	return time.Duration(cfg.SettleMS) * time.Millisecond
}

const CacheFile = ".gazevid_cache"

// SaveCache stores the settings edited in the setup window. Failures are
// logged and returned; the session can run without a cache.
func (cfg *Config) SaveCache() error {
	err := cfg.saveCache(CacheFile)
	if err != nil {
		logrus.WithFields(logrus.Fields{"cache": CacheFile, "error": err.Error()}).Warn("Failed to save settings cache")
	}
	return err
}

// LoadCache restores settings saved by SaveCache. A missing cache is not an
// error; an unreadable one is logged and returned.
func (cfg *Config) LoadCache() error {
	err := cfg.loadCache(CacheFile)
	if err != nil {
		logrus.WithFields(logrus.Fields{"cache": CacheFile, "error": err.Error()}).Warn("Failed to load settings cache")
	}
	return err
}

func (cfg *Config) saveCache(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "clip_dir=%s\n", cfg.ClipDir)
	fmt.Fprintf(f, "data_dir=%s\n", cfg.DataDir)
	fmt.Fprintf(f, "tracker=%s\n", cfg.Tracker)
	fmt.Fprintf(f, "tracker_port=%s\n", cfg.TrackerPort)
	fmt.Fprintf(f, "screen_w=%d\n", cfg.ScreenWidth)
	fmt.Fprintf(f, "screen_h=%d\n", cfg.ScreenHeight)
	fmt.Fprintf(f, "shuffle=%s\n", boolFlag(cfg.Shuffle))
	fmt.Fprintf(f, "fullscreen=%s\n", boolFlag(cfg.Fullscreen))
	fmt.Fprintf(f, "bg_color=%s\n", cfg.BGColor)
	fmt.Fprintf(f, "text_color=%s\n", cfg.TextColor)
	return f.Close()
}

func (cfg *Config) loadCache(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)

		switch key {
		case "clip_dir":
			cfg.ClipDir = val
		case "data_dir":
			cfg.DataDir = val
		case "tracker":
			cfg.Tracker = val
		case "tracker_port":
			cfg.TrackerPort = val
		case "screen_w":
			fmt.Sscanf(val, "%d", &cfg.ScreenWidth)
		case "screen_h":
			fmt.Sscanf(val, "%d", &cfg.ScreenHeight)
		case "shuffle":
			cfg.Shuffle = val != "0"
		case "fullscreen":
			cfg.Fullscreen = val != "0"
		case "bg_color":
			cfg.BGColor.Color = ParseColor(val)
		case "text_color":
			cfg.TextColor.Color = ParseColor(val)
		}
	}
	return nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
