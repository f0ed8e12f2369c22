package scene

import (
	"fmt"
	"strconv"
	"strings"
)

// Route returns the routing slot stored under key.
func (s *Scene) Route(key string) (RouteSlot, bool) {
	slot, ok := s.routes[key]
	return slot, ok
}

// Channel returns the channel stored under key. Channels are values, so the
// result is a copy.
func (s *Scene) Channel(key string) (Channel, bool) {
	ch, ok := s.channels[key]
	return ch, ok
}

// Output returns the channel key feeding a physical output. It reports
// false when the output is unseen or its source is off.
func (s *Scene) Output(key string) (string, bool) {
	src := s.outputs[key]
	return src, src != ""
}

// OutputPatch is one resolved physical output position.
type OutputPatch struct {
	Index int
	Key   string
	// Source is the key the position resolved to before channel lookup.
	Source string
	// Passthrough marks a position routed straight through to a P-16
	// output rather than from a channel.
	Passthrough bool
	Channel     Channel
}

// Empty reports whether nothing feeds the position.
func (p OutputPatch) Empty() bool {
	return !p.Passthrough && p.Channel == nil
}

// directOutputs are driven by /outputs records alone; every other type is
// driven by its routing bank.
var directOutputs = map[string]bool{
	"p16": true,
	"aux": true,
	"aes": true,
}

// OutputListForType resolves every output position of outputType. The
// result always has MaxOutputs(outputType) entries.
func (s *Scene) OutputListForType(outputType string) ([]OutputPatch, error) {
	count, ok := MaxOutputs(outputType)
	if !ok {
		return nil, fmt.Errorf("%w: %q has no outputs", ErrUnknownType, outputType)
	}

	patch := make([]OutputPatch, count)
	for i := range patch {
		patch[i] = s.resolveOutput(outputType, i+1)
	}
	return patch, nil
}

// ResolveOutput resolves the single output position named by key, such as
// "out.01" or "aes50a.17". It reports false when key is not an output
// position of the console.
func (s *Scene) ResolveOutput(key string) (OutputPatch, bool) {
	outputType, index, ok := strings.Cut(key, ".")
	if !ok {
		return OutputPatch{}, false
	}
	count, ok := MaxOutputs(outputType)
	if !ok {
		return OutputPatch{}, false
	}
	n, err := strconv.Atoi(index)
	if err != nil || n < 1 || n > count {
		return OutputPatch{}, false
	}
	return s.resolveOutput(outputType, n), true
}

func (s *Scene) resolveOutput(outputType string, n int) OutputPatch {
	key := formatKey(outputType, n)
	p := OutputPatch{Index: n, Key: key}

	var source string
	if directOutputs[outputType] {
		source = s.outputs[key]
	} else {
		source = s.outputRouteSource[key]
	}
	if source == "" {
		return p
	}

	if strings.HasPrefix(source, "p16") {
		p.Source = source
		p.Passthrough = true
		return p
	}

	// An output can be sourced from another output.
	if next, ok := s.outputs[source]; ok {
		source = next
	}
	p.Source = source
	if ch, ok := s.channels[source]; ok {
		p.Channel = ch
	}
	return p
}

// InputPatch is one resolved physical input position.
type InputPatch struct {
	Index int
	Key   string
	// RouteKey is the IN routing slot the port is patched to, empty when
	// the port is not routed.
	RouteKey string
	Channels []Channel
}

// Empty reports whether the port feeds no channel.
func (p InputPatch) Empty() bool {
	return len(p.Channels) == 0
}

// ChannelListForType resolves every input position of inputType to the
// channels it feeds. The result always has MaxChannels(inputType) entries.
func (s *Scene) ChannelListForType(inputType string) ([]InputPatch, error) {
	count, ok := MaxChannels(inputType)
	if !ok {
		return nil, fmt.Errorf("%w: %q has no inputs", ErrUnknownType, inputType)
	}

	patch := make([]InputPatch, count)
	for i := range patch {
		key := formatKey(inputType, i+1)
		p := InputPatch{Index: i + 1, Key: key}
		if routeKey, ok := s.inputRouteSource[key]; ok {
			p.RouteKey = routeKey
			p.Channels = s.fanOut.Channels(routeKey)
		}
		patch[i] = p
	}
	return patch, nil
}

// InputChannel returns input channel n (1-based).
func (s *Scene) InputChannel(n int) (Channel, bool) {
	return s.Channel(formatKey("in", n))
}

// InputAuxChannel returns aux input channel n (1-based).
func (s *Scene) InputAuxChannel(n int) (Channel, bool) {
	return s.Channel(formatKey("auxin", n))
}

// P16Channel returns the channel key feeding P-16 output n.
func (s *Scene) P16Channel(n int) (string, bool) {
	return s.Output(formatKey("p16", n))
}

// AuxOutputChannel returns the channel key feeding aux output n.
func (s *Scene) AuxOutputChannel(n int) (string, bool) {
	return s.Output(formatKey("aux", n))
}

// AES50OutputChannel returns the routing slot of AES50 output n on bank
// "a" or "b" (any case).
func (s *Scene) AES50OutputChannel(bank string, n int) (RouteSlot, bool, error) {
	b := strings.ToLower(bank)
	if b != "a" && b != "b" {
		return RouteSlot{}, false, fmt.Errorf("%w: got %q", ErrInvalidBank, bank)
	}
	slot, ok := s.Route(formatKey("aes50"+b, n))
	return slot, ok, nil
}

// CardOutputChannel returns the routing slot of expansion card output n.
func (s *Scene) CardOutputChannel(n int) (RouteSlot, bool) {
	return s.Route(formatKey("card", n))
}

// XLROutputChannel returns the routing slot of rear XLR output n.
func (s *Scene) XLROutputChannel(n int) (RouteSlot, bool) {
	return s.Route(formatKey("out", n))
}
