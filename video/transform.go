package video

// Transform converts raw into the layout want describes. A nil, empty or
// malformed raw frame, or one whose size differs from the clip's declared
// size, yields the blank fallback frame of the clip's dimensions. The input
// buffer is never modified.
func Transform(raw *RawFrame, clip Clip, want TargetFormat) *DisplayFrame {
	if !raw.Valid() || raw.Width != clip.Width || raw.Height != clip.Height {
		return Blank(clip.Width, clip.Height, want)
	}

	p := plane{w: raw.Width, h: raw.Height, pix: make([]byte, len(raw.Pix))}
	copy(p.pix, raw.Pix)

	if raw.Order != want.Order {
		p.swapRB()
	}
	if raw.BottomUp {
		p = p.flipV()
	}
	if want.Orientation&FlipHorizontal != 0 {
		p = p.flipH()
	}
	if want.Orientation&FlipVertical != 0 {
		p = p.flipV()
	}
	if want.Orientation&Rotate90 != 0 {
		p = p.rot90()
	}

	out := &DisplayFrame{Width: p.w, Height: p.h, Format: want}
	if want.Range == UnitFloat {
		out.Float = make([]float32, len(p.pix))
		for i, v := range p.pix {
			out.Float[i] = float32(v) / 255.0
		}
	} else {
		out.Pix = p.pix
	}
	return out
}

// Blank returns an all-zero frame of width x height pixels in want's layout.
func Blank(width, height int, want TargetFormat) *DisplayFrame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	w, h := width, height
	if want.Orientation&Rotate90 != 0 {
		w, h = h, w
	}
	out := &DisplayFrame{Width: w, Height: h, Format: want, Blank: true}
	if want.Range == UnitFloat {
		out.Float = make([]float32, w*h*3)
	} else {
		out.Pix = make([]byte, w*h*3)
	}
	return out
}

// plane is a packed 3-channel image, rows top to bottom.
type plane struct {
	w, h int
	pix  []byte
}

func (p plane) swapRB() {
	for i := 0; i+2 < len(p.pix); i += 3 {
		p.pix[i], p.pix[i+2] = p.pix[i+2], p.pix[i]
	}
}

func (p plane) flipV() plane {
	stride := p.w * 3
	out := make([]byte, len(p.pix))
	for y := 0; y < p.h; y++ {
		copy(out[(p.h-1-y)*stride:(p.h-y)*stride], p.pix[y*stride:(y+1)*stride])
	}
	return plane{w: p.w, h: p.h, pix: out}
}

func (p plane) flipH() plane {
	out := make([]byte, len(p.pix))
	for y := 0; y < p.h; y++ {
		row := y * p.w * 3
		for x := 0; x < p.w; x++ {
			copy(out[row+(p.w-1-x)*3:row+(p.w-x)*3], p.pix[row+x*3:row+x*3+3])
		}
	}
	return plane{w: p.w, h: p.h, pix: out}
}

// rot90 rotates counter-clockwise: out[r][c] = in[c][w-1-r].
func (p plane) rot90() plane {
	ow, oh := p.h, p.w
	out := make([]byte, len(p.pix))
	for r := 0; r < oh; r++ {
		for c := 0; c < ow; c++ {
			src := (c*p.w + (p.w - 1 - r)) * 3
			dst := (r*ow + c) * 3
			copy(out[dst:dst+3], p.pix[src:src+3])
		}
	}
	return plane{w: ow, h: oh, pix: out}
}
