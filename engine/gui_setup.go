package engine

import (
	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/Zyko0/go-sdl3/ttf"
	"github.com/sirupsen/logrus"
)

type resOption struct {
	W, H  int
	Label string
}

var resOptions = []resOption{
	{800, 600, "800x600 (SVGA)"},
	{1024, 768, "1024x768 (XGA)"},
	{1280, 1024, "1280x1024 (SXGA)"},
	{1920, 1080, "1920x1080 (FHD)"},
	{2560, 1440, "2560x1440 (QHD)"},
}

// setupField is an editable path or port box in the setup window.
type setupField struct {
	label  string
	value  *string
	browse func(window *sdl.Window, set func(string))
}

type setupToggle struct {
	label string
	value func() bool
	flip  func()
}

type setupUI struct {
	renderer *sdl.Renderer
	font     *ttf.Font
}

var (
	guiBlack = sdl.Color{R: 0, G: 0, B: 0, A: 255}
	guiWhite = sdl.Color{R: 255, G: 255, B: 255, A: 255}
)

func (ui *setupUI) label(text string, x, y float32, color sdl.Color) {
	if text == "" {
		return
	}
	surf, err := ui.font.RenderTextBlended(text, color)
	if err != nil || surf == nil {
		return
	}
	defer surf.Destroy()
	tex, err := ui.renderer.CreateTextureFromSurface(surf)
	if err != nil {
		return
	}
	r := sdl.FRect{X: x, Y: y, W: float32(surf.W), H: float32(surf.H)}
	ui.renderer.RenderTexture(tex, nil, &r)
	tex.Destroy()
}

func (ui *setupUI) box(r sdl.FRect, fill, border sdl.Color) {
	ui.renderer.SetDrawColor(fill.R, fill.G, fill.B, fill.A)
	ui.renderer.RenderFillRect(&r)
	ui.renderer.SetDrawColor(border.R, border.G, border.B, border.A)
	ui.renderer.RenderRect(&r)
}

func (ui *setupUI) checkbox(text string, x, y float32, checked bool) {
	ui.box(sdl.FRect{X: x, Y: y, W: 20, H: 20}, guiWhite, guiBlack)
	if checked {
		mark := sdl.FRect{X: x + 4, Y: y + 4, W: 12, H: 12}
		ui.renderer.SetDrawColor(0, 150, 0, 255)
		ui.renderer.RenderFillRect(&mark)
	}
	ui.label(text, x+30, y, guiBlack)
}

func inRect(x, y float32, r sdl.FRect) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

func folderDialog(window *sdl.Window, set func(string)) {
	cb := sdl.NewDialogFileCallback(func(fileList []string, filter int32) {
		if len(fileList) > 0 {
			set(fileList[0])
		}
	})
	sdl.ShowOpenFolderDialog(cb, window, "", false)
}

func csvDialog(window *sdl.Window, set func(string)) {
	filters := []sdl.DialogFileFilter{{Name: "CSV Files", Pattern: "csv"}}
	cb := sdl.NewDialogFileCallback(func(fileList []string, filter int32) {
		if len(fileList) > 0 {
			set(fileList[0])
		}
	})
	sdl.ShowOpenFileDialog(cb, window, filters, "", false)
}

// RunGuiSetup lets the operator edit the main settings before a session.
// It returns false when the window is closed without pressing START.
func RunGuiSetup(cfg *Config) bool {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		logrus.WithField("error", err.Error()).Error("SDL_Init failed")
		return false
	}
	defer sdl.Quit()

	if err := ttf.Init(); err != nil {
		logrus.WithField("error", err.Error()).Error("TTF_Init failed")
		return false
	}
	defer ttf.Quit()

	window, renderer, err := sdl.CreateWindowAndRenderer("gazevid setup", 800, 700, 0)
	if err != nil {
		logrus.WithField("error", err.Error()).Error("Failed to create setup window")
		return false
	}
	defer window.Destroy()
	defer renderer.Destroy()

	fontPath := GetDefaultFontPath()
	if fontPath == "" {
		logrus.Error("No default font found for setup window")
		return false
	}
	font, err := ttf.OpenFont(fontPath, 18)
	if err != nil {
		logrus.WithField("error", err.Error()).Error("Failed to load setup font")
		return false
	}
	defer font.Close()
	ui := &setupUI{renderer: renderer, font: font}

	fields := []setupField{
		{label: "Clip directory:", value: &cfg.ClipDir, browse: folderDialog},
		{label: "Data directory:", value: &cfg.DataDir, browse: folderDialog},
		{label: "Playlist CSV (optional):", value: &cfg.Playlist, browse: csvDialog},
		{label: "Tracker serial port (empty for dummy):", value: &cfg.TrackerPort},
	}
	toggles := []setupToggle{
		{"Shuffle clips", func() bool { return cfg.Shuffle }, func() { cfg.Shuffle = !cfg.Shuffle }},
		{"Fullscreen mode", func() bool { return cfg.Fullscreen }, func() { cfg.Fullscreen = !cfg.Fullscreen }},
	}

	fieldBox := func(i int) sdl.FRect { return sdl.FRect{X: 50, Y: float32(45 + i*70), W: 650, H: 30} }
	browseBtn := func(i int) sdl.FRect { return sdl.FRect{X: 710, Y: float32(45 + i*70), W: 70, H: 30} }
	resBox := func(i int) sdl.FRect { return sdl.FRect{X: 50, Y: float32(330 + i*35), W: 250, H: 25} }
	toggleBox := func(i int) sdl.FRect { return sdl.FRect{X: 400, Y: float32(330 + i*35), W: 250, H: 25} }
	startBtn := sdl.FRect{X: 350, Y: 620, W: 100, H: 40}

	selectedRes := 3
	for i, res := range resOptions {
		if cfg.ScreenWidth == res.W && cfg.ScreenHeight == res.H {
			selectedRes = i
			break
		}
	}
	focus := -1

	window.StartTextInput()
	defer window.StopTextInput()

	for {
		var e sdl.Event
		for sdl.PollEvent(&e) {
			switch e.Type {
			case sdl.EVENT_QUIT:
				return false
			case sdl.EVENT_MOUSE_BUTTON_DOWN:
				me := e.MouseButtonEvent()
				mx, my := me.X, me.Y
				focus = -1
				for i, f := range fields {
					if inRect(mx, my, fieldBox(i)) {
						focus = i
					}
					if f.browse != nil && inRect(mx, my, browseBtn(i)) {
						target := f.value
						f.browse(window, func(v string) { *target = v })
					}
				}
				for i := range resOptions {
					if inRect(mx, my, resBox(i)) {
						selectedRes = i
					}
				}
				for i, tg := range toggles {
					if inRect(mx, my, toggleBox(i)) {
						tg.flip()
					}
				}
				if inRect(mx, my, startBtn) && cfg.ClipDir != "" {
					cfg.ScreenWidth = resOptions[selectedRes].W
					cfg.ScreenHeight = resOptions[selectedRes].H
					if cfg.TrackerPort != "" {
						cfg.Tracker = TrackerSerial
					} else {
						cfg.Tracker = TrackerDummy
					}
					cfg.SaveCache()
					return true
				}
			case sdl.EVENT_TEXT_INPUT:
				if focus != -1 {
					*fields[focus].value += e.TextInputEvent().Text
				}
			case sdl.EVENT_KEY_DOWN:
				if focus != -1 && e.KeyboardEvent().Key == sdl.K_BACKSPACE {
					v := fields[focus].value
					if len(*v) > 0 {
						*v = (*v)[:len(*v)-1]
					}
				}
			}
		}

		renderer.SetDrawColor(240, 240, 240, 255)
		renderer.Clear()

		for i, f := range fields {
			ui.label(f.label, 50, float32(15+i*70), guiBlack)
			border := sdl.Color{R: 180, G: 180, B: 180, A: 255}
			if focus == i {
				border = sdl.Color{R: 0, G: 120, B: 255, A: 255}
			}
			r := fieldBox(i)
			ui.box(r, guiWhite, border)
			ui.label(*f.value, r.X+5, r.Y+5, guiBlack)
			if f.browse != nil {
				b := browseBtn(i)
				ui.box(b, sdl.Color{R: 200, G: 200, B: 200, A: 255}, guiBlack)
				ui.label("...", b.X+25, b.Y+5, guiBlack)
			}
		}

		ui.label("Resolution:", 50, 300, guiBlack)
		for i, opt := range resOptions {
			r := resBox(i)
			ui.checkbox(opt.Label, r.X, r.Y, selectedRes == i)
		}
		for i, tg := range toggles {
			r := toggleBox(i)
			ui.checkbox(tg.label, r.X, r.Y, tg.value())
		}

		ui.box(startBtn, sdl.Color{R: 0, G: 150, B: 0, A: 255}, sdl.Color{R: 0, G: 100, B: 0, A: 255})
		ui.label("START", startBtn.X+25, startBtn.Y+10, guiWhite)

		renderer.Present()
		sdl.Delay(10)
	}
}
