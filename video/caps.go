package video

import (
	"fmt"
	"strconv"
	"strings"
)

// CapsInfo is the subset of negotiated raw video caps a clip needs.
type CapsInfo struct {
	Format string
	Width  int
	Height int
	RateN  int
	RateD  int
}

// FrameRate returns the negotiated rate in frames per second, or 0 when the
// caps declare a variable rate (0/1).
func (c CapsInfo) FrameRate() float64 {
	if c.RateD == 0 {
		return 0
	}
	return float64(c.RateN) / float64(c.RateD)
}

// ParseCaps reads a serialised GStreamer caps string such as
//
//	video/x-raw, format=(string)BGR, width=(int)1280, height=(int)720, framerate=(fraction)25/1
//
// Only the first structure is considered.
func ParseCaps(s string) (CapsInfo, error) {
	var info CapsInfo
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ";"); i >= 0 {
		s = s[:i]
	}
	fields := strings.Split(s, ",")
	if len(fields) == 0 || !strings.HasPrefix(strings.TrimSpace(fields[0]), "video/") {
		return info, fmt.Errorf("not video caps: %q", s)
	}

	for _, f := range fields[1:] {
		key, val, ok := strings.Cut(strings.TrimSpace(f), "=")
		if !ok {
			continue
		}
		val = stripCapsType(strings.TrimSpace(val))
		switch strings.TrimSpace(key) {
		case "format":
			info.Format = strings.Trim(val, `"`)
		case "width":
			n, err := strconv.Atoi(val)
			if err != nil {
				return info, fmt.Errorf("caps width %q: %w", val, err)
			}
			info.Width = n
		case "height":
			n, err := strconv.Atoi(val)
			if err != nil {
				return info, fmt.Errorf("caps height %q: %w", val, err)
			}
			info.Height = n
		case "framerate":
			num, den, ok := strings.Cut(val, "/")
			if !ok {
				den = "1"
			}
			n, err := strconv.Atoi(num)
			if err != nil {
				return info, fmt.Errorf("caps framerate %q: %w", val, err)
			}
			d, err := strconv.Atoi(den)
			if err != nil {
				return info, fmt.Errorf("caps framerate %q: %w", val, err)
			}
			info.RateN, info.RateD = n, d
		}
	}

	if info.Width <= 0 || info.Height <= 0 {
		return info, fmt.Errorf("caps without dimensions: %q", s)
	}
	return info, nil
}

// stripCapsType removes a leading "(type)" annotation.
func stripCapsType(v string) string {
	if strings.HasPrefix(v, "(") {
		if i := strings.Index(v, ")"); i >= 0 {
			return strings.TrimSpace(v[i+1:])
		}
	}
	return v
}
