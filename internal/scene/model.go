package scene

import "sort"

// RouteSlot is one position of the routing matrix, keyed "<bank>.<NN>".
//
// A slot is either Off or has a Name. OutputKey is only set for output
// banks and names the port or channel feeding the slot.
type RouteSlot struct {
	Key       string `json:"key" yaml:"key"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	OutputKey string `json:"output_key,omitempty" yaml:"output_key,omitempty"`
	Off       bool   `json:"off,omitempty" yaml:"off,omitempty"`
}

// ChannelKind tags the concrete type behind a Channel.
type ChannelKind int

const (
	ChannelInput ChannelKind = iota
	ChannelMix
	ChannelInternal
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelInput:
		return "input"
	case ChannelMix:
		return "mix"
	case ChannelInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// ChannelInfo holds the attributes every channel has.
type ChannelInfo struct {
	Key   string
	Name  string
	Color string
}

// Info returns the shared attributes.
func (c ChannelInfo) Info() ChannelInfo { return c }

// Channel is a named mixing entity. It is implemented by InputChannel,
// MixChannel and InternalChannel only.
type Channel interface {
	Info() ChannelInfo
	Kind() ChannelKind
	isChannel()
}

// InputChannel is a ch or auxin strip. RouteKey is empty when the channel's
// source is off or out of range.
type InputChannel struct {
	ChannelInfo
	RouteKey string
	Type     string // "in" or "auxin"
	Index    int
}

func (InputChannel) Kind() ChannelKind { return ChannelInput }
func (InputChannel) isChannel()        {}

// MixChannel is a bus, matrix, main or effects return.
type MixChannel struct {
	ChannelInfo
	Mix      string // "bus", "mtx", "main" or "fxrtn"
	MixIndex string // "l", "r", "m" or two digits
}

func (MixChannel) Kind() ChannelKind { return ChannelMix }
func (MixChannel) isChannel()        {}

// InternalChannel is one of the fixed channels every console has
// (talkback and the monitor pair). They never appear in the file.
type InternalChannel struct {
	ChannelInfo
	Internal string // "tb" or "mon"
}

func (InternalChannel) Kind() ChannelKind { return ChannelInternal }
func (InternalChannel) isChannel()        {}

// FanOut maps a route key to the channels it feeds, in file order.
// An unseen key has an empty list.
type FanOut struct {
	byRoute map[string][]Channel
}

func newFanOut() FanOut {
	return FanOut{byRoute: make(map[string][]Channel)}
}

func (f *FanOut) add(routeKey string, ch Channel) {
	f.byRoute[routeKey] = append(f.byRoute[routeKey], ch)
}

// Channels returns a copy of the channels fed by routeKey. The result is
// never nil.
func (f FanOut) Channels(routeKey string) []Channel {
	list := f.byRoute[routeKey]
	out := make([]Channel, len(list))
	copy(out, list)
	return out
}

// Stats counts the records seen by one parse.
type Stats struct {
	Lines    int `json:"lines"`
	Routing  int `json:"routing"`
	Channels int `json:"channels"`
	Outputs  int `json:"outputs"`
	Ignored  int `json:"ignored"`
}

// Scene is the parsed, read-only routing model of one scene file.
type Scene struct {
	routes   map[string]RouteSlot
	channels map[string]Channel
	// outputs keeps keys whose source decoded to nothing with an empty
	// value: the output exists but is off.
	outputs map[string]string
	fanOut  FanOut

	// inputRouteSource maps a physical port key to the IN slot it is
	// patched to; outputRouteSource maps an output bank slot to its feed.
	inputRouteSource  map[string]string
	outputRouteSource map[string]string

	stats Stats
}

// Stats returns the record counts of the parse that built s.
func (s *Scene) Stats() Stats { return s.stats }

// RouteCount returns the number of routing slots.
func (s *Scene) RouteCount() int { return len(s.routes) }

// ChannelCount returns the number of channels, internal ones included.
func (s *Scene) ChannelCount() int { return len(s.channels) }

// OutputCount returns the number of output records.
func (s *Scene) OutputCount() int { return len(s.outputs) }

// FanOut returns the route-to-channel index.
func (s *Scene) FanOut() FanOut { return s.fanOut }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
