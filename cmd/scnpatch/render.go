package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/JonMunkholm/scnpatch/internal/patchsheet"
	"github.com/JonMunkholm/scnpatch/internal/scene"
)

type printer struct {
	out     io.Writer
	re      *lipgloss.Renderer
	noColor bool

	heading lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	muted   lipgloss.Style
}

// newPrinter renders for w. Color follows the terminal behind w and is
// dropped entirely with noColor.
func newPrinter(w io.Writer, noColor bool) *printer {
	re := lipgloss.NewRenderer(w)
	if noColor {
		re.SetColorProfile(termenv.Ascii)
	}
	return &printer{
		out:     w,
		re:      re,
		noColor: noColor,
		heading: re.NewStyle().Bold(true).Underline(true),
		header:  re.NewStyle().Bold(true).Padding(0, 1),
		cell:    re.NewStyle().Padding(0, 1),
		muted:   re.NewStyle().Faint(true).Padding(0, 1),
	}
}

func (p *printer) sections(title string, sections []patchsheet.Section) {
	if title != "" {
		fmt.Fprintln(p.out, p.heading.Render(title))
		fmt.Fprintln(p.out)
	}
	for _, sec := range sections {
		fmt.Fprintln(p.out, p.heading.Render(sec.Title))
		if len(sec.Rows) == 0 {
			fmt.Fprintln(p.out, p.muted.Render("(nothing patched)"))
			fmt.Fprintln(p.out)
			continue
		}
		fmt.Fprintln(p.out, p.sectionTable(sec).Render())
		fmt.Fprintln(p.out)
	}
}

func (p *printer) sectionTable(sec patchsheet.Section) *table.Table {
	rows := make([][]string, len(sec.Rows))
	for i, r := range sec.Rows {
		name := r.Name
		if r.Passthrough {
			name = "(passthrough)"
		}
		rows[i] = []string{strconv.Itoa(r.Index), r.Port, name, r.Color, r.Source}
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.re.NewStyle().Faint(true)).
		Headers("#", "PORT", "NAME", "COLOR", "SOURCE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header
			}
			if col == 2 {
				return p.swatch(sec.Rows[row].Color)
			}
			return p.cell
		})
}

// swatch colors a cell like the channel's scribble strip.
func (p *printer) swatch(code string) lipgloss.Style {
	sw, ok := patchsheet.ColorSwatch(code)
	if p.noColor || !ok {
		return p.cell
	}
	return p.cell.
		Background(lipgloss.Color(sw.Background)).
		Foreground(lipgloss.Color(sw.Foreground))
}

func (p *printer) route(slot scene.RouteSlot, res resolution) {
	channels := res.channels
	state := "on"
	if slot.Off {
		state = "off"
	}
	rows := [][]string{
		{"key", slot.Key},
		{"source", slot.Name},
		{"state", state},
	}
	if slot.OutputKey != "" {
		rows = append(rows, []string{"fed by", slot.OutputKey})
	}
	if res.source != "" && res.source != slot.OutputKey {
		rows = append(rows, []string{"resolves to", res.source})
	}

	fmt.Fprintln(p.out, table.New().
		Border(lipgloss.HiddenBorder()).
		Rows(rows...).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col == 0 {
				return p.header
			}
			return p.cell
		}).
		Render())

	if res.passthrough {
		fmt.Fprintln(p.out, p.muted.Render("(passthrough to "+res.source+")"))
		return
	}
	if len(channels) == 0 {
		fmt.Fprintln(p.out, p.muted.Render("(no channels)"))
		return
	}

	chRows := make([][]string, len(channels))
	for i, ch := range channels {
		info := ch.Info()
		chRows[i] = []string{info.Key, ch.Kind().String(), info.Name, info.Color}
	}
	fmt.Fprintln(p.out, table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.re.NewStyle().Faint(true)).
		Headers("CHANNEL", "KIND", "NAME", "COLOR").
		Rows(chRows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header
			}
			if col == 2 {
				return p.swatch(channels[row].Info().Color)
			}
			return p.cell
		}).
		Render())
}
