package patchsheet

import "strings"

// Swatch is the on-screen rendering of a console scribble-strip color.
type Swatch struct {
	Background string
	Foreground string
}

// palette maps console color codes to hex. OFF is a black strip; INT marks
// the console's internal channels.
var palette = map[string]string{
	"OFF": "#000000",
	"RD":  "#e53935",
	"GN":  "#43a047",
	"YE":  "#fdd835",
	"BL":  "#1e88e5",
	"MG":  "#d81b60",
	"CY":  "#00acc1",
	"WH":  "#ffffff",
	"INT": "#9e9e9e",
}

// light colors need dark text on top of them.
var light = map[string]bool{"YE": true, "WH": true, "CY": true, "INT": true}

// ColorSwatch resolves a color code. Codes ending in "i" are the
// inverted variants: colored text on black.
func ColorSwatch(code string) (Swatch, bool) {
	base, inverted := splitInverted(code)
	hex, ok := palette[base]
	if !ok {
		return Swatch{}, false
	}
	if inverted {
		if base == "OFF" {
			return Swatch{Background: "#ffffff", Foreground: "#000000"}, true
		}
		return Swatch{Background: "#000000", Foreground: hex}, true
	}
	fg := "#ffffff"
	if light[base] {
		fg = "#000000"
	}
	return Swatch{Background: hex, Foreground: fg}, true
}

// IsBlack reports whether a color code is a black strip.
func IsBlack(code string) bool {
	base, _ := splitInverted(code)
	switch base {
	case "OFF", "BK", "BLACK":
		return true
	}
	return false
}

func splitInverted(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if len(code) > 1 && strings.HasSuffix(code, "i") {
		return strings.ToUpper(code[:len(code)-1]), true
	}
	return strings.ToUpper(code), false
}
