package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/Zyko0/go-sdl3/bin/binimg"
	"github.com/Zyko0/go-sdl3/bin/binsdl"
	"github.com/Zyko0/go-sdl3/bin/binttf"

	"gazevid/engine"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configFile := flag.String("config", "", "YAML config file")
	clipDir := flag.String("clips", "", "Directory containing video clips")
	dataDir := flag.String("data", "", "Directory for the event log")
	logName := flag.String("log-name", "", "Event log base name (default: timestamp)")
	playlist := flag.String("playlist", "", "CSV file fixing the clip order")
	noShuffle := flag.Bool("no-shuffle", false, "Present clips in directory order")
	seed := flag.Uint64("seed", 0, "Shuffle seed (0: time-seeded)")
	trackerType := flag.String("tracker", "", "Tracker type: dummy or serial")
	trackerPort := flag.String("tracker-port", "", "Tracker serial port")
	triggerPort := flag.String("dlp", "", "DLP-IO8-G trigger device")
	startSplash := flag.String("start-splash", "", "Start splash image")
	endSplash := flag.String("end-splash", "", "End splash image")
	fontFile := flag.String("font", "", "TTF font file")
	screenW := flag.Int("width", 0, "Screen width")
	screenH := flag.Int("height", 0, "Screen height")
	noVSync := flag.Bool("no-vsync", false, "Disable VSync")
	fullscreen := flag.Bool("fullscreen", false, "Enable fullscreen")
	bgColorStr := flag.String("bg-color", "", "Background color (R,G,B,A)")
	textColorStr := flag.String("text-color", "", "Text color (R,G,B,A)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	flag.Parse()

	cfg := engine.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = engine.LoadFile(*configFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	// Flags given on the command line override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "clips":
			cfg.ClipDir = *clipDir
		case "data":
			cfg.DataDir = *dataDir
		case "log-name":
			cfg.LogName = *logName
		case "playlist":
			cfg.Playlist = *playlist
		case "no-shuffle":
			cfg.Shuffle = !*noShuffle
		case "seed":
			cfg.Seed = *seed
		case "tracker":
			cfg.Tracker = *trackerType
		case "tracker-port":
			cfg.TrackerPort = *trackerPort
		case "dlp":
			cfg.TriggerPort = *triggerPort
		case "start-splash":
			cfg.StartSplash = *startSplash
		case "end-splash":
			cfg.EndSplash = *endSplash
		case "font":
			cfg.FontFile = *fontFile
		case "width":
			cfg.ScreenWidth = *screenW
		case "height":
			cfg.ScreenHeight = *screenH
		case "no-vsync":
			cfg.VSync = !*noVSync
		case "fullscreen":
			cfg.Fullscreen = *fullscreen
		case "bg-color":
			cfg.BGColor.Color = engine.ParseColor(*bgColorStr)
		case "text-color":
			cfg.TextColor.Color = engine.ParseColor(*textColorStr)
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *engine.Config) error {
	defer binsdl.Load().Unload()
	defer binimg.Load().Unload()
	defer binttf.Load().Unload()

	return engine.Run(cfg)
}
