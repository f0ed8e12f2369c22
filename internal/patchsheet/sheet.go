// Package patchsheet turns a parsed scene into the rows of a printable
// patch list: one section per physical port type, one row per port.
package patchsheet

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/scnpatch/internal/scene"
)

// Options are the rendering toggles offered on the upload form.
type Options struct {
	SetBackground bool   `json:"set_bg_color" yaml:"set_bg_color"`
	SetForeground bool   `json:"set_fg_color" yaml:"set_fg_color"`
	ShowColor     bool   `json:"set_color" yaml:"set_color"`
	HideBlank     bool   `json:"hide_blank" yaml:"hide_blank"`
	HideBlack     bool   `json:"hide_black" yaml:"hide_black"`
	Title         string `json:"title" yaml:"title"`
}

// Form field names read by ParseOptions.
const (
	FieldSetBackground = "set-bg-color"
	FieldSetForeground = "set-fg-color"
	FieldShowColor     = "set-color"
	FieldHideBlank     = "hide-blank"
	FieldHideBlack     = "hide-black"
	FieldTitle         = "title"
)

// ParseOptions reads the toggles through get, typically a form lookup.
// A toggle is on for "1", "true" or "on".
func ParseOptions(get func(string) string) Options {
	on := func(key string) bool {
		switch strings.ToLower(strings.TrimSpace(get(key))) {
		case "1", "true", "on":
			return true
		}
		return false
	}
	return Options{
		SetBackground: on(FieldSetBackground),
		SetForeground: on(FieldSetForeground),
		ShowColor:     on(FieldShowColor),
		HideBlank:     on(FieldHideBlank),
		HideBlack:     on(FieldHideBlack),
		Title:         strings.TrimSpace(get(FieldTitle)),
	}
}

// Row is one port line on the sheet.
type Row struct {
	Index       int    `json:"index" yaml:"index"`
	Key         string `json:"key" yaml:"key"`
	Port        string `json:"port" yaml:"port"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
	Source      string `json:"source,omitempty" yaml:"source,omitempty"`
	Passthrough bool   `json:"passthrough,omitempty" yaml:"passthrough,omitempty"`
}

// Blank reports whether the row carries nothing worth printing.
func (r Row) Blank() bool {
	return r.Name == "" && !r.Passthrough
}

// Section is all rows of one port type.
type Section struct {
	Type  string `json:"type" yaml:"type"`
	Title string `json:"title" yaml:"title"`
	Rows  []Row  `json:"rows" yaml:"rows"`
}

// Sheet is the complete patch list.
type Sheet struct {
	Title   string    `json:"title" yaml:"title"`
	Options Options   `json:"options" yaml:"options"`
	Inputs  []Section `json:"inputs" yaml:"inputs"`
	Outputs []Section `json:"outputs" yaml:"outputs"`
}

// Build lays out every input and output type of the scene.
func Build(s *scene.Scene, opts Options) (*Sheet, error) {
	sheet := &Sheet{Title: opts.Title, Options: opts}

	for _, typ := range scene.InputTypes {
		sec, err := InputSection(s, typ, opts)
		if err != nil {
			return nil, err
		}
		sheet.Inputs = append(sheet.Inputs, sec)
	}
	for _, typ := range scene.OutputTypes {
		sec, err := OutputSection(s, typ, opts)
		if err != nil {
			return nil, err
		}
		sheet.Outputs = append(sheet.Outputs, sec)
	}
	return sheet, nil
}

// InputSection lists the ports of one input type. A port feeding several
// channels gets one row per channel; an unused port gets a blank row.
func InputSection(s *scene.Scene, typ string, opts Options) (Section, error) {
	list, err := s.ChannelListForType(typ)
	if err != nil {
		return Section{}, fmt.Errorf("inputs: %w", err)
	}

	sec := Section{Type: typ, Title: scene.TypeName(typ, 1) + " Inputs"}
	for _, p := range list {
		base := Row{Index: p.Index, Key: p.Key, Port: InputPort(typ, p.Index), Source: p.RouteKey}
		if len(p.Channels) == 0 {
			sec.add(base, opts)
			continue
		}
		for _, ch := range p.Channels {
			row := base
			row.Name = ch.Info().Name
			row.Color = ch.Info().Color
			sec.add(row, opts)
		}
	}
	return sec, nil
}

// OutputSection lists the ports of one output type with the channel each
// one carries.
func OutputSection(s *scene.Scene, typ string, opts Options) (Section, error) {
	list, err := s.OutputListForType(typ)
	if err != nil {
		return Section{}, fmt.Errorf("outputs: %w", err)
	}

	sec := Section{Type: typ, Title: scene.TypeName(typ, 1) + " Outputs"}
	for _, p := range list {
		row := Row{
			Index:       p.Index,
			Key:         p.Key,
			Port:        OutputPort(typ, p.Index),
			Source:      p.Source,
			Passthrough: p.Passthrough,
		}
		if p.Channel != nil {
			row.Name = p.Channel.Info().Name
			row.Color = p.Channel.Info().Color
		}
		sec.add(row, opts)
	}
	return sec, nil
}

func (sec *Section) add(row Row, opts Options) {
	if opts.HideBlank && row.Blank() {
		return
	}
	if opts.HideBlack && IsBlack(row.Color) {
		return
	}
	sec.Rows = append(sec.Rows, row)
}

// InputPort labels input port n of typ, e.g. "Local 01" or "Aux In 3".
func InputPort(typ string, n int) string {
	if typ == "in" && n > 32 {
		return fmt.Sprintf("%s %d", scene.TypeName(typ, n), n-32)
	}
	return fmt.Sprintf("%s %02d", scene.TypeName(typ, n), n)
}

// OutputPort labels output port n of typ, e.g. "Aux 3" or "AES50-A 07".
func OutputPort(typ string, n int) string {
	if name := scene.OutputName(typ, n); name != "" {
		return name
	}
	return fmt.Sprintf("%s %02d", scene.TypeName(typ, n), n)
}
