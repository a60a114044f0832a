package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var hexColorRe = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// ParseHexColor converts a 6-hex-digit color like "#FF8800" into normalized
// RGB components in [0,1]. Anything else is rejected at the boundary so
// malformed colors never reach the byte writer as garbage numbers.
func ParseHexColor(s string) (r, g, b float64, err error) {
	if !hexColorRe.MatchString(s) {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q", s)
	}
	h := strings.TrimPrefix(s, "#")
	rv, _ := strconv.ParseUint(h[0:2], 16, 8)
	gv, _ := strconv.ParseUint(h[2:4], 16, 8)
	bv, _ := strconv.ParseUint(h[4:6], 16, 8)
	return float64(rv) / 255, float64(gv) / 255, float64(bv) / 255, nil
}

// normalizeHex lowercases a validated color and guarantees the leading '#'.
func normalizeHex(s string) string {
	return "#" + strings.ToLower(strings.TrimPrefix(s, "#"))
}

// coreFonts maps requested font families onto the PDF standard fonts the
// stamp writer can embed without external font files.
var coreFonts = map[string]string{
	"helvetica": "Helvetica",
	"arial":     "Helvetica",
	"times":     "Times-Roman",
	"serif":     "Times-Roman",
	"courier":   "Courier",
	"monospace": "Courier",
}

func stampFont(family string) string {
	if f, ok := coreFonts[strings.ToLower(strings.TrimSpace(family))]; ok {
		return f
	}
	return "Helvetica"
}
