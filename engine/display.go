package engine

import (
	"context"
	"errors"

	"github.com/Zyko0/go-sdl3/img"
	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/sirupsen/logrus"

	"gazevid/video"
)

// SDLDisplay renders on an SDL renderer. Frames are uploaded into one
// streaming RGB24 texture that is recreated when the frame size changes.
type SDLDisplay struct {
	renderer *sdl.Renderer
	text     *TextCache
	cfg      *Config
	refresh  float64

	frameTex *sdl.Texture
	texW     int
	texH     int
}

func NewSDLDisplay(renderer *sdl.Renderer, text *TextCache, cfg *Config) *SDLDisplay {
	d := &SDLDisplay{renderer: renderer, text: text, cfg: cfg}

	win, err := renderer.Window()
	if err == nil {
		display := sdl.GetDisplayForWindow(win)
		mode, err := display.CurrentDisplayMode()
		if err == nil && mode.RefreshRate > 0 {
			d.refresh = float64(mode.RefreshRate)
		}
	}
	logrus.WithField("refresh_rate", d.refresh).Info("Display ready")
	return d
}

func (d *SDLDisplay) Format() video.TargetFormat {
	return video.FormatRGB24
}

func (d *SDLDisplay) RefreshRate() float64 {
	return d.refresh
}

func (d *SDLDisplay) ShowFrame(frame *video.DisplayFrame) error {
	if frame.Format.Range != video.Uint8 {
		return errors.New("sdl display takes 8-bit frames")
	}
	if d.frameTex == nil || d.texW != frame.Width || d.texH != frame.Height {
		if d.frameTex != nil {
			d.frameTex.Destroy()
			d.frameTex = nil
		}
		tex, err := d.renderer.CreateTexture(sdl.PIXELFORMAT_RGB24, sdl.TEXTUREACCESS_STREAMING, frame.Width, frame.Height)
		if err != nil {
			return err
		}
		d.frameTex, d.texW, d.texH = tex, frame.Width, frame.Height
	}
	if err := d.frameTex.Update(nil, frame.Pix, int32(frame.Pitch())); err != nil {
		return err
	}

	d.fill()
	dst := d.centered(float32(frame.Width), float32(frame.Height))
	d.renderer.RenderTexture(d.frameTex, nil, &dst)
	return d.renderer.Present()
}

func (d *SDLDisplay) Clear() error {
	d.fill()
	return d.renderer.Present()
}

func (d *SDLDisplay) ShowText(text string) error {
	d.fill()
	if entry := d.text.get(text); entry != nil {
		outW, outH := d.outputSize()
		dst := centerRect(outW, outH, entry.W, entry.H, 1)
		d.renderer.RenderTexture(entry.Texture, nil, &dst)
	}
	return d.renderer.Present()
}

// ShowSplash draws the image at path. An empty path does nothing.
func (d *SDLDisplay) ShowSplash(path string) error {
	if path == "" {
		return nil
	}
	tex, err := img.LoadTexture(d.renderer, path)
	if err != nil {
		return err
	}
	defer tex.Destroy()

	tw, th, err := tex.Size()
	if err != nil {
		return err
	}
	d.fill()
	dst := d.centered(tw, th)
	d.renderer.RenderTexture(tex, nil, &dst)
	return d.renderer.Present()
}

func (d *SDLDisplay) Destroy() {
	if d.frameTex != nil {
		d.frameTex.Destroy()
		d.frameTex = nil
	}
}

func (d *SDLDisplay) fill() {
	bg := d.cfg.BGColor
	d.renderer.SetDrawColor(bg.R, bg.G, bg.B, bg.A)
	d.renderer.Clear()
}

func (d *SDLDisplay) centered(w, h float32) sdl.FRect {
	outW, outH := d.outputSize()
	return centerRect(outW, outH, w, h, d.cfg.ScaleFactor)
}

// outputSize is the renderer's drawable size, which differs from the
// configured size in fullscreen on another resolution.
func (d *SDLDisplay) outputSize() (float32, float32) {
	w, h, err := d.renderer.CurrentOutputSize()
	if err != nil || w <= 0 || h <= 0 {
		return float32(d.cfg.ScreenWidth), float32(d.cfg.ScreenHeight)
	}
	return float32(w), float32(h)
}

// centerRect places a w x h image scaled by scale in the middle of an
// outW x outH output.
func centerRect(outW, outH, w, h, scale float32) sdl.FRect {
	return sdl.FRect{
		X: (outW - w*scale) / 2.0,
		Y: (outH - h*scale) / 2.0,
		W: w * scale,
		H: h * scale,
	}
}

// SDLInput reads the SDL event queue. It must be used from the thread that
// created the window.
type SDLInput struct {
	aborted bool
}

func (in *SDLInput) WaitKey(ctx context.Context) error {
	for {
		if in.aborted || ctx.Err() != nil {
			return ErrAborted
		}
		var ev sdl.Event
		for sdl.PollEvent(&ev) {
			switch ev.Type {
			case sdl.EVENT_QUIT:
				in.aborted = true
				return ErrAborted
			case sdl.EVENT_KEY_DOWN:
				if ev.KeyboardEvent().Key == sdl.K_ESCAPE {
					in.aborted = true
					return ErrAborted
				}
				return nil
			}
		}
		sdl.Delay(10)
	}
}

func (in *SDLInput) Interrupted() bool {
	var ev sdl.Event
	for sdl.PollEvent(&ev) {
		switch ev.Type {
		case sdl.EVENT_QUIT:
			in.aborted = true
		case sdl.EVENT_KEY_DOWN:
			if ev.KeyboardEvent().Key == sdl.K_ESCAPE {
				in.aborted = true
			}
		}
	}
	return in.aborted
}

func (in *SDLInput) Flush() {
	in.Interrupted()
}
