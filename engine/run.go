package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/Zyko0/go-sdl3/ttf"
	"github.com/sirupsen/logrus"

	"gazevid/eventlog"
	"gazevid/timing"
	"gazevid/tracker"
	"gazevid/trigger"
	"gazevid/video"
)

// Run executes a whole session: validation, output files, window, devices,
// the experiment and teardown. SIGINT and SIGTERM abort the current trial
// after its recording is stopped.
func Run(cfg *Config) error {
	if err := SetupLogging(cfg.LogLevel, cfg.LogJSON); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	clips, seed, err := ResolveClips(cfg)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"clips":   len(clips),
		"shuffle": cfg.Shuffle,
		"seed":    seed,
	}).Info("Trial order ready")

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return &ConfigurationError{Reason: "create data directory", Err: err}
	}
	started := time.Now()
	events, err := eventlog.Create(cfg.EventLogPath(started))
	if err != nil {
		return &ConfigurationError{Reason: "event log", Err: err}
	}
	eventsOwned := true
	defer func() {
		if eventsOwned {
			events.Close()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("SDL_Init: %w", err)
	}
	defer sdl.Quit()

	if err := ttf.Init(); err != nil {
		return fmt.Errorf("TTF_Init: %w", err)
	}
	defer ttf.Quit()

	windowFlags := sdl.WINDOW_RESIZABLE
	if cfg.Fullscreen {
		windowFlags |= sdl.WINDOW_FULLSCREEN
	}
	window, renderer, err := sdl.CreateWindowAndRenderer("gazevid", cfg.ScreenWidth, cfg.ScreenHeight, windowFlags)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()
	defer renderer.Destroy()

	if cfg.VSync {
		renderer.SetVSync(1)
	} else {
		renderer.SetVSync(0)
	}

	font := openFont(cfg)
	if font != nil {
		defer font.Close()
	}
	text := NewTextCache(renderer, font, cfg.TextColor.Color)
	defer text.Destroy()

	display := NewSDLDisplay(renderer, text, cfg)
	defer display.Destroy()
	input := &SDLInput{}

	clock := timing.NewClock()
	dev, err := openTracker(cfg, clock, cfg.GazeLogPath(started))
	if err != nil {
		return err
	}

	var trig Trigger
	if cfg.TriggerPort != "" {
		dlp, err := trigger.NewDLPIO8G(cfg.TriggerPort, 9600)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"port":  cfg.TriggerPort,
				"error": err.Error(),
			}).Warn("Trigger box unavailable, continuing without it")
		} else {
			trig = dlp
		}
	}

	s := NewSession(cfg, display, input, dev, events, trig, openClip, clock)
	eventsOwned = false
	s.Log.WithFields(logrus.Fields{
		"event_log": events.Path(),
		"tracker":   cfg.Tracker,
	}).Info("Session started")

	if err := showSplash(ctx, s, cfg.StartSplash); err != nil {
		cerr := s.Close()
		if errors.Is(err, ErrAborted) {
			return cerr
		}
		return errors.Join(err, cerr)
	}

	sum, runErr := RunExperiment(ctx, s, clips)
	finishErr := Finish(ctx, s, sum)
	if runErr != nil {
		return errors.Join(runErr, finishErr)
	}
	if finishErr != nil {
		return finishErr
	}
	if !sum.Aborted {
		showSplash(ctx, s, cfg.EndSplash)
	}

	fmt.Printf("Results saved to %s\n", events.Path())
	return nil
}

func openClip(path string) (video.Source, error) {
	src, err := video.Open(path)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func openTracker(cfg *Config, clock timing.Clock, gazePath string) (tracker.Device, error) {
	switch cfg.Tracker {
	case TrackerSerial:
		dev, err := tracker.OpenSerial(cfg.TrackerPort, cfg.TrackerBaud, cfg.TrackerTimeout())
		if err != nil {
			return nil, fmt.Errorf("open tracker on %s: %w", cfg.TrackerPort, err)
		}
		return dev, nil
	default:
		dev, err := tracker.CreateDummy(gazePath, clock)
		if err != nil {
			return nil, &ConfigurationError{Reason: "dummy tracker data file", Err: err}
		}
		return dev, nil
	}
}

func openFont(cfg *Config) *ttf.Font {
	path := cfg.FontFile
	if path == "" {
		path = GetDefaultFontPath()
	}
	if path == "" {
		logrus.Warn("No font found, operator screens will be blank")
		return nil
	}
	font, err := ttf.OpenFont(path, float32(cfg.FontSize))
	if err != nil {
		logrus.WithFields(logrus.Fields{"font": path, "error": err.Error()}).Warn("Failed to load font")
		return nil
	}
	return font
}

// showSplash shows an image and waits for a key. Nothing happens when path
// is empty.
func showSplash(ctx context.Context, s *Session, path string) error {
	if path == "" {
		return nil
	}
	if err := s.Display.ShowSplash(path); err != nil {
		s.Log.WithFields(logrus.Fields{"image": path, "error": err.Error()}).Warn("Failed to show splash")
		return nil
	}
	return s.Input.WaitKey(ctx)
}
