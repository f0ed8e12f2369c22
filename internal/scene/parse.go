package scene

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// contextCheckInterval is how often (in records) ParseContext checks for
// cancellation.
const contextCheckInterval = 256

type options struct {
	logger *slog.Logger
}

// Option configures Parse.
type Option func(*options)

// WithLogger sets the logger used for decode warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Parse reads a scene file and builds its routing model.
//
// Records are processed in file order. A channel or output record with the
// wrong number of fields aborts the parse with a *MalformedRecordError; a
// failure of the reader aborts it with an error wrapping ErrUnreadable.
// Unrecognized lines are skipped.
func Parse(r io.Reader, opts ...Option) (*Scene, error) {
	return ParseContext(context.Background(), r, opts...)
}

// ParseContext is Parse with cancellation.
func ParseContext(ctx context.Context, r io.Reader, opts ...Option) (*Scene, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	cr := csv.NewReader(r)
	cr.Comma = ' '
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	b := newBuilder(o.logger)
	for n := 0; ; n++ {
		if n%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
		}

		line, _ := cr.FieldPos(0)
		if err := b.add(line, fields); err != nil {
			return nil, err
		}
	}

	return b.finish(), nil
}

// builder accumulates one parse. It is discarded once finish returns.
type builder struct {
	logger *slog.Logger
	scene  *Scene
}

func newBuilder(logger *slog.Logger) *builder {
	return &builder{
		logger: logger,
		scene: &Scene{
			routes:            make(map[string]RouteSlot),
			channels:          make(map[string]Channel),
			outputs:           make(map[string]string),
			fanOut:            newFanOut(),
			inputRouteSource:  make(map[string]string),
			outputRouteSource: make(map[string]string),
		},
	}
}

func (b *builder) add(line int, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	b.scene.stats.Lines++

	h := Classify(fields[0])
	switch h.Kind {
	case KindRouting:
		b.scene.stats.Routing++
		b.routing(h.Bank, fields[1:])
		return nil
	case KindChannel:
		b.scene.stats.Channels++
		return b.channel(line, h, fields)
	case KindOutput:
		b.scene.stats.Outputs++
		return b.output(line, h, fields)
	default:
		b.scene.stats.Ignored++
		return nil
	}
}

// routing expands every group of a routing bank record into its slots.
func (b *builder) routing(bank string, groups []string) {
	width := 8
	if bank == BankOut {
		width = 4
	}
	prefix := strings.ToLower(bank)

	for n, group := range groups {
		for i := 0; i < width; i++ {
			slotKey := formatKey(prefix, n*width+i+1)
			ref := DecodeRouteGroup(group, i)

			if ref.Label == "" {
				b.scene.routes[slotKey] = RouteSlot{Key: slotKey, Off: true}
				continue
			}

			slot := RouteSlot{Key: slotKey, Name: ref.Label}
			if bank == BankIn {
				b.scene.inputRouteSource[ref.Key] = slotKey
			} else {
				slot.OutputKey = ref.Key
				b.scene.outputRouteSource[slotKey] = ref.Key
			}
			b.scene.routes[slotKey] = slot
		}
	}
}

func (b *builder) channel(line int, h Header, fields []string) error {
	switch h.Type {
	case "bus", "mtx", "main":
		// path, name, icon, color
		if len(fields) != 4 {
			return malformed(KindChannel, line, fields, "%s config wants 4 fields, got %d", h.Type, len(fields))
		}
		index := h.Index
		if h.Type == "main" && index == "st" {
			index = "l"
		}
		ch := MixChannel{
			ChannelInfo: ChannelInfo{Key: h.Type + "." + index, Name: fields[1], Color: fields[3]},
			Mix:         h.Type,
			MixIndex:    index,
		}
		b.scene.channels[ch.Key] = ch

		// The console exports one record for the stereo main.
		if h.Type == "main" && index == "l" {
			right := ch
			right.Key = "main.r"
			right.MixIndex = "r"
			b.scene.channels[right.Key] = right
		}

	case "ch", "auxin":
		// path, name, icon, color, source
		if len(fields) != 5 {
			return malformed(KindChannel, line, fields, "%s config wants 5 fields, got %d", h.Type, len(fields))
		}
		index, err := strconv.Atoi(h.Index)
		if err != nil {
			return malformed(KindChannel, line, fields, "%s index %q is not numeric", h.Type, h.Index)
		}
		source, err := strconv.Atoi(fields[4])
		if err != nil {
			return malformed(KindChannel, line, fields, "source %q is not a number", fields[4])
		}

		chType := h.Type
		if chType == "ch" {
			chType = "in"
		}
		ch := InputChannel{
			ChannelInfo: ChannelInfo{Key: chType + "." + h.Index, Name: fields[1], Color: fields[3]},
			Type:        chType,
			Index:       index,
		}
		if routeKey, ok := RouteKeyFromSource(b.logger, source); ok {
			ch.RouteKey = routeKey
			b.scene.fanOut.add(routeKey, ch)
		}
		b.scene.channels[ch.Key] = ch

	case "fxrtn":
		// path, name, icon, color
		if len(fields) != 4 {
			return malformed(KindChannel, line, fields, "fxrtn config wants 4 fields, got %d", len(fields))
		}
		ch := MixChannel{
			ChannelInfo: ChannelInfo{Key: "fx." + h.Index, Name: fields[1], Color: fields[3]},
			Mix:         h.Type,
			MixIndex:    h.Index,
		}
		b.scene.channels[ch.Key] = ch
	}
	return nil
}

func (b *builder) output(line int, h Header, fields []string) error {
	// path, source, tap, phase
	if len(fields) != 4 {
		return malformed(KindOutput, line, fields, "output wants 4 fields, got %d", len(fields))
	}
	source, err := strconv.Atoi(fields[1])
	if err != nil {
		return malformed(KindOutput, line, fields, "source %q is not a number", fields[1])
	}

	outType := h.Type
	if outType == "main" {
		outType = "out"
	}
	key, _ := ChannelKeyFromSource(source)
	b.scene.outputs[outType+"."+h.Index] = key
	return nil
}

// internalChannels always exist on the console.
var internalChannels = []InternalChannel{
	{ChannelInfo: ChannelInfo{Key: "tb", Name: "Talkback", Color: "INT"}, Internal: "tb"},
	{ChannelInfo: ChannelInfo{Key: "mon.l", Name: "Monitor L", Color: "INT"}, Internal: "mon"},
	{ChannelInfo: ChannelInfo{Key: "mon.r", Name: "Monitor R", Color: "INT"}, Internal: "mon"},
}

func (b *builder) finish() *Scene {
	for _, ch := range internalChannels {
		b.scene.channels[ch.Key] = ch
	}
	s := b.scene
	b.scene = nil
	return s
}
