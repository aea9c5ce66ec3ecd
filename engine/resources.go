package engine

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/Zyko0/go-sdl3/ttf"
)

// GetDefaultFontPath returns the first font under ./fonts, else a common
// system font, else "".
func GetDefaultFontPath() string {
	entries, err := os.ReadDir("fonts")
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if ext == ".ttf" || ext == ".ttc" {
				return filepath.Join("fonts", entry.Name())
			}
		}
	}

	var paths []string
	switch runtime.GOOS {
	case "windows":
		paths = []string{"C:\\Windows\\Fonts\\arial.ttf"}
	case "darwin":
		paths = []string{"/System/Library/Fonts/Helvetica.ttc"}
	default:
		paths = []string{
			"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

type textEntry struct {
	Texture *sdl.Texture
	W, H    float32
}

// TextCache keeps one texture per rendered string. The operator screens
// repeat every trial, so each is rasterised once.
type TextCache struct {
	renderer *sdl.Renderer
	font     *ttf.Font
	color    sdl.Color
	entries  map[string]*textEntry
}

func NewTextCache(renderer *sdl.Renderer, font *ttf.Font, color sdl.Color) *TextCache {
	return &TextCache{
		renderer: renderer,
		font:     font,
		color:    color,
		entries:  make(map[string]*textEntry),
	}
}

// get returns the texture for text, rendering it on first use. It returns
// nil when no font is loaded or rendering fails.
func (c *TextCache) get(text string) *textEntry {
	if entry, ok := c.entries[text]; ok {
		return entry
	}
	if c.font == nil {
		return nil
	}
	surf, err := c.font.RenderTextBlended(text, c.color)
	if err != nil || surf == nil {
		return nil
	}
	defer surf.Destroy()

	tex, err := c.renderer.CreateTextureFromSurface(surf)
	if err != nil {
		return nil
	}
	entry := &textEntry{Texture: tex, W: float32(surf.W), H: float32(surf.H)}
	c.entries[text] = entry
	return entry
}

func (c *TextCache) Destroy() {
	for _, entry := range c.entries {
		entry.Texture.Destroy()
	}
	c.entries = nil
}
