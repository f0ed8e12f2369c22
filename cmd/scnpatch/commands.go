package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/scnpatch/internal/patchsheet"
	"github.com/JonMunkholm/scnpatch/internal/scene"
)

// sheetFlags are the patch-sheet toggles shared by inputs and outputs.
type sheetFlags struct {
	hideBlank bool
	hideBlack bool
	noColor   bool
	title     string
	types     []string
}

func (f *sheetFlags) register(cmd *cobra.Command, defaults []string) {
	cmd.Flags().BoolVar(&f.hideBlank, "hide-blank", false, "Hide rows without a channel name")
	cmd.Flags().BoolVar(&f.hideBlack, "hide-black", false, "Hide rows whose channel color is black")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "Do not color rows by channel color")
	cmd.Flags().StringVar(&f.title, "title", "", "Heading printed above the tables")
	cmd.Flags().StringSliceVarP(&f.types, "type", "t", defaults,
		"Port types to list ("+strings.Join(defaults, ", ")+")")
}

func (f *sheetFlags) options() patchsheet.Options {
	return patchsheet.Options{
		SetBackground: !f.noColor,
		SetForeground: !f.noColor,
		ShowColor:     true,
		HideBlank:     f.hideBlank,
		HideBlack:     f.hideBlack,
		Title:         strings.TrimSpace(f.title),
	}
}

type sectionFunc func(*scene.Scene, string, patchsheet.Options) (patchsheet.Section, error)

func newInputsCmd(a *app) *cobra.Command {
	var flags sheetFlags
	cmd := &cobra.Command{
		Use:   "inputs FILE",
		Short: "List each input port and the channels it feeds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printSheet(cmd, args[0], &flags, patchsheet.InputSection)
		},
	}
	flags.register(cmd, scene.InputTypes)
	return cmd
}

func newOutputsCmd(a *app) *cobra.Command {
	var flags sheetFlags
	cmd := &cobra.Command{
		Use:   "outputs FILE",
		Short: "List each output port and the channel it carries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printSheet(cmd, args[0], &flags, patchsheet.OutputSection)
		},
	}
	flags.register(cmd, scene.OutputTypes)
	return cmd
}

func (a *app) printSheet(cmd *cobra.Command, path string, flags *sheetFlags, build sectionFunc) error {
	sc, err := a.loadScene(cmd.Context(), path)
	if err != nil {
		return err
	}

	opts := flags.options()
	sections := make([]patchsheet.Section, 0, len(flags.types))
	for _, typ := range flags.types {
		sec, err := build(sc, strings.ToLower(strings.TrimSpace(typ)), opts)
		if err != nil {
			return err
		}
		sections = append(sections, sec)
	}

	newPrinter(cmd.OutOrStdout(), flags.noColor).sections(opts.Title, sections)
	return nil
}

func newDumpCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print the parsed routing model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains([]string{"json", "yaml"}, format) {
				return fmt.Errorf("unknown format %q: use json or yaml", format)
			}
			sc, err := a.loadScene(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			snap := sc.Snapshot()
			out := cmd.OutOrStdout()
			if format == "yaml" {
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(snap); err != nil {
					return err
				}
				return enc.Close()
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")
	return cmd
}

func newRouteCmd(a *app) *cobra.Command {
	var noColor bool
	cmd := &cobra.Command{
		Use:   "route FILE KEY",
		Short: "Show one routing slot and what it resolves to",
		Example: `  scnpatch route sunday.scn in.01
  scnpatch route sunday.scn aes50a.17`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := a.loadScene(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			key := strings.ToLower(args[1])
			slot, ok := sc.Route(key)
			if !ok {
				return fmt.Errorf("no routing slot %q in %s", key, args[0])
			}
			newPrinter(cmd.OutOrStdout(), noColor).route(slot, resolveRoute(sc, slot))
			return nil
		},
	}
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Do not color channel names")
	return cmd
}

// resolution is what a routing slot reaches: the channels an input slot
// feeds, or the resolved feed of an output slot.
type resolution struct {
	channels []scene.Channel
	// source is the key an output slot resolved to.
	source      string
	passthrough bool
}

func resolveRoute(sc *scene.Scene, slot scene.RouteSlot) resolution {
	if slot.Off {
		return resolution{}
	}
	if slot.OutputKey == "" {
		return resolution{channels: sc.FanOut().Channels(slot.Key)}
	}

	p, ok := sc.ResolveOutput(slot.Key)
	if !ok {
		return resolution{}
	}
	res := resolution{source: p.Source, passthrough: p.Passthrough}
	if p.Channel != nil {
		res.channels = []scene.Channel{p.Channel}
	}
	return res
}
