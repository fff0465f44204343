package pdf

import (
	"strconv"
	"strings"
)

// RGB is an 8-bit color
type RGB struct {
	R, G, B int
}

var (
	white     = RGB{255, 255, 255}
	textDark  = RGB{33, 33, 33}
	textMuted = RGB{117, 117, 117}
	rowShade  = RGB{242, 242, 242}
	fallback  = RGB{76, 175, 80}
)

// ParseHex parses "#RRGGBB" or "#RGB". The leading '#' is optional.
func ParseHex(s string) (RGB, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return RGB{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, false
	}
	return RGB{R: int(v >> 16 & 0xFF), G: int(v >> 8 & 0xFF), B: int(v & 0xFF)}, true
}

// theme resolves template colors once. Unparseable entries are skipped.
type theme []RGB

func newTheme(colors []string) theme {
	var t theme
	for _, c := range colors {
		if rgb, ok := ParseHex(c); ok {
			t = append(t, rgb)
		}
	}
	if len(t) == 0 {
		t = theme{fallback}
	}
	return t
}

func (t theme) at(i int) RGB {
	if i < 0 {
		i = -i
	}
	return t[i%len(t)]
}
