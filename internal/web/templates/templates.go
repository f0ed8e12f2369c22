// Package templates holds the templ components of the patch-sheet UI.
// The *_templ.go files are generated from the .templ sources with
// `templ generate`.
package templates

//go:generate templ generate

import (
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/scnpatch/internal/patchsheet"
)

// SheetMeta describes the upload a sheet came from.
type SheetMeta struct {
	ParseID  string
	Filename string
	Duration time.Duration
}

type toggle struct {
	field string
	label string
}

var toggles = []toggle{
	{patchsheet.FieldSetBackground, "Color row backgrounds"},
	{patchsheet.FieldSetForeground, "Color row text"},
	{patchsheet.FieldShowColor, "Show a color column"},
	{patchsheet.FieldHideBlank, "Hide unnamed rows"},
	{patchsheet.FieldHideBlack, "Hide black rows"},
}

func pageTitle(title string) string {
	if title == "" {
		return "X32 Patch Sheet"
	}
	return title + " · X32 Patch Sheet"
}

func sheetHeading(sheet *patchsheet.Sheet, meta SheetMeta) string {
	if sheet.Title != "" {
		return sheet.Title
	}
	return meta.Filename
}

// rowStyle colors a sheet row after its channel strip.
func rowStyle(color string, opts patchsheet.Options) templ.Attributes {
	sw, ok := patchsheet.ColorSwatch(color)
	if !ok || !(opts.SetBackground || opts.SetForeground) {
		return templ.Attributes{}
	}

	var b strings.Builder
	if opts.SetBackground {
		b.WriteString("background:" + sw.Background + ";")
	}
	if opts.SetForeground {
		fg := sw.Foreground
		if !opts.SetBackground {
			// Text alone takes the strip color itself.
			fg = sw.Background
		}
		b.WriteString("color:" + fg + ";")
	}
	return templ.Attributes{"style": b.String()}
}
