package scene

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, lines ...string) *Scene {
	t.Helper()
	s, err := Parse(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	return s
}

func TestParse_KickRoundTrip(t *testing.T) {
	s := mustParse(t,
		`/config/routing/IN AN1-8`,
		`/ch/01/config "Kick" 1 RD 1`,
	)

	ch, ok := s.InputChannel(1)
	require.True(t, ok)
	assert.Equal(t, InputChannel{
		ChannelInfo: ChannelInfo{Key: "in.01", Name: "Kick", Color: "RD"},
		RouteKey:    "in.01",
		Type:        "in",
		Index:       1,
	}, ch)

	slot, ok := s.Route("in.01")
	require.True(t, ok)
	assert.Equal(t, RouteSlot{Key: "in.01", Name: "Local 01"}, slot)
	assert.Empty(t, slot.OutputKey)
}

func TestParse_Snapshot(t *testing.T) {
	s := mustParse(t,
		`/config/routing/IN AN1-8`,
		`/ch/01/config "Kick" 1 RD 1`,
	)

	want := Snapshot{
		Stats: Stats{Lines: 2, Routing: 1, Channels: 1},
		Channels: []ChannelRecord{
			{Key: "in.01", Kind: "input", Name: "Kick", Color: "RD", RouteKey: "in.01", Type: "in", Index: 1},
			{Key: "mon.l", Kind: "internal", Name: "Monitor L", Color: "INT", Internal: "mon"},
			{Key: "mon.r", Kind: "internal", Name: "Monitor R", Color: "INT", Internal: "mon"},
			{Key: "tb", Kind: "internal", Name: "Talkback", Color: "INT", Internal: "tb"},
		},
	}
	for i := 1; i <= 8; i++ {
		want.Routes = append(want.Routes, RouteSlot{
			Key:  formatKey("in", i),
			Name: fmt.Sprintf("Local %02d", i),
		})
	}

	if diff := cmp.Diff(want, s.Snapshot(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_MainStereoIsDuplicated(t *testing.T) {
	s := mustParse(t, `/main/st/config "LR" 1 WH`)

	left, ok := s.Channel("main.l")
	require.True(t, ok)
	right, ok := s.Channel("main.r")
	require.True(t, ok)

	l := left.(MixChannel)
	r := right.(MixChannel)
	assert.Equal(t, "LR", l.Name)
	assert.Equal(t, l.Name, r.Name)
	assert.Equal(t, l.Color, r.Color)
	assert.Equal(t, "main", r.Mix)
	assert.Equal(t, "l", l.MixIndex)
	assert.Equal(t, "r", r.MixIndex)

	_, ok = s.Channel("main.st")
	assert.False(t, ok)
}

func TestParse_MonoMainAndBuses(t *testing.T) {
	s := mustParse(t,
		`/main/m/config "Mono" 1 WH`,
		`/bus/03/config "Wedge 3" 1 GN`,
		`/mtx/01/config "Fill" 1 CY`,
	)

	ch, ok := s.Channel("main.m")
	require.True(t, ok)
	assert.Equal(t, MixChannel{ChannelInfo: ChannelInfo{Key: "main.m", Name: "Mono", Color: "WH"}, Mix: "main", MixIndex: "m"}, ch)

	_, ok = s.Channel("main.r")
	assert.False(t, ok, "only the stereo main is duplicated")

	ch, ok = s.Channel("bus.03")
	require.True(t, ok)
	assert.Equal(t, ChannelMix, ch.Kind())
	assert.Equal(t, "Wedge 3", ch.Info().Name)

	ch, ok = s.Channel("mtx.01")
	require.True(t, ok)
	assert.Equal(t, "mtx", ch.(MixChannel).Mix)
}

func TestParse_FXReturn(t *testing.T) {
	s := mustParse(t, `/fxrtn/01/config "FX Return" 1 MG`)

	ch, ok := s.Channel("fx.01")
	require.True(t, ok)
	mix, isMix := ch.(MixChannel)
	require.True(t, isMix)
	assert.Equal(t, "fxrtn", mix.Mix)
	assert.Equal(t, "01", mix.MixIndex)
	assert.Equal(t, "FX Return", mix.Name)
}

func TestParse_AuxInChannel(t *testing.T) {
	s := mustParse(t, `/auxin/02/config "Playback" 55 YE 34`)

	ch, ok := s.InputAuxChannel(2)
	require.True(t, ok)
	in := ch.(InputChannel)
	assert.Equal(t, "auxin", in.Type)
	assert.Equal(t, 2, in.Index)
	assert.Equal(t, "in.34", in.RouteKey)
}

func TestParse_InternalChannels(t *testing.T) {
	s := mustParse(t)

	for key, name := range map[string]string{"tb": "Talkback", "mon.l": "Monitor L", "mon.r": "Monitor R"} {
		ch, ok := s.Channel(key)
		require.True(t, ok, key)
		assert.Equal(t, ChannelInternal, ch.Kind())
		assert.Equal(t, name, ch.Info().Name)
		assert.Equal(t, "INT", ch.Info().Color)
	}
	assert.Equal(t, 3, s.ChannelCount())
}

func TestParse_SourceOffHasNoRoute(t *testing.T) {
	logger, buf := newCaptureLogger()
	s, err := Parse(strings.NewReader(
		"/ch/01/config \"Spare\" 1 OFF 0\n"+
			"/ch/02/config \"Odd\" 1 RD 70\n",
	), WithLogger(logger))
	require.NoError(t, err)

	for _, n := range []int{1, 2} {
		ch, ok := s.InputChannel(n)
		require.True(t, ok)
		assert.Empty(t, ch.(InputChannel).RouteKey)
	}
	assert.Contains(t, buf.String(), "source=70")
	assert.NotContains(t, buf.String(), "source=0")
}

func TestParse_OutputMainIsNormalized(t *testing.T) {
	s := mustParse(t,
		`/outputs/main/01 1 POST 0`,
		`/outputs/aux/01 0 PRE 0`,
	)

	src, ok := s.Output("out.01")
	assert.True(t, ok)
	assert.Equal(t, "main.l", src)

	_, ok = s.Output("main.01")
	assert.False(t, ok)

	_, ok = s.Output("aux.01")
	assert.False(t, ok, "source 0 is an insert, not a channel")
	assert.Equal(t, 2, s.OutputCount())
}

func TestParse_IgnoresUnrecognizedLines(t *testing.T) {
	s := mustParse(t,
		`#2.7# "Sunday" "" %000000000 1 X32 1 0 0`,
		`/config/chlink OFF OFF OFF`,
		`/ch/01/mix ON -oo ON +0 OFF -oo`,
		`/outputs/p16/01/iQ OFF none Linear 0`,
		``,
		`/ch/01/config "Kick" 1 RD 1`,
	)

	assert.Equal(t, 4, s.Stats().Ignored)
	assert.Equal(t, 1, s.Stats().Channels)
	_, ok := s.InputChannel(1)
	assert.True(t, ok)
}

func TestParse_MalformedRecords(t *testing.T) {
	tests := []struct {
		name string
		line string
		kind Kind
	}{
		{"bus missing color", `/bus/01/config "Drums" 1`, KindChannel},
		{"main extra field", `/main/st/config "LR" 1 WH 9`, KindChannel},
		{"channel missing source", `/ch/01/config "Kick" 1 RD`, KindChannel},
		{"channel source not numeric", `/ch/01/config "Kick" 1 RD X`, KindChannel},
		{"channel stereo index", `/ch/st/config "Kick" 1 RD 1`, KindChannel},
		{"fxrtn extra field", `/fxrtn/01/config "FX" 1 MG 4`, KindChannel},
		{"output missing phase", `/outputs/aux/01 5 POST`, KindOutput},
		{"output source not numeric", `/outputs/p16/01 x POST 0`, KindOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader("/config/routing/IN AN1-8\n" + tt.line + "\n"))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedRecord)

			var mre *MalformedRecordError
			require.ErrorAs(t, err, &mre)
			assert.Equal(t, tt.kind, mre.Kind)
			assert.Equal(t, 2, mre.Line)
			assert.Contains(t, err.Error(), "malformed")
		})
	}
}

func TestParse_ReadFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	_, err := Parse(iotest.ErrReader(boom))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreadable)
	assert.ErrorIs(t, err, boom)
}

func TestParseContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ParseContext(ctx, strings.NewReader("/ch/01/config \"Kick\" 1 RD 1\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParse_ReparseReplacesState(t *testing.T) {
	first := mustParse(t,
		`/config/routing/IN AN1-8`,
		`/ch/01/config "Kick" 1 RD 1`,
		`/outputs/p16/01 26 POST 0`,
	)
	second := mustParse(t,
		`/config/routing/IN A1-8`,
		`/ch/02/config "Snare" 1 BL 2`,
	)

	_, ok := second.InputChannel(1)
	assert.False(t, ok)
	_, ok = second.P16Channel(1)
	assert.False(t, ok)
	slot, ok := second.Route("in.01")
	require.True(t, ok)
	assert.Equal(t, "AES50-A 01", slot.Name)

	inputs, err := second.ChannelListForType("in")
	require.NoError(t, err)
	for _, p := range inputs {
		assert.True(t, p.Empty(), "in port %d should feed nothing", p.Index)
	}

	// The first model is untouched by the second parse.
	ch, ok := first.InputChannel(1)
	require.True(t, ok)
	assert.Equal(t, "Kick", ch.Info().Name)
	slot, _ = first.Route("in.01")
	assert.Equal(t, "Local 01", slot.Name)
}

func TestParse_RoutingBanks(t *testing.T) {
	s := mustParse(t,
		`/config/routing/IN AN1-8 AN9-16 A1-8 USB`,
		`/config/routing/AES50A AN1-8 AUX/CR`,
		`/config/routing/OUT OUT1-4 AN1-4`,
	)

	slot, _ := s.Route("in.17")
	assert.Equal(t, RouteSlot{Key: "in.17", Name: "AES50-A 01"}, slot)

	for i := 25; i <= 32; i++ {
		slot, ok := s.Route(formatKey("in", i))
		require.True(t, ok)
		assert.True(t, slot.Off)
		assert.Empty(t, slot.Name)
	}

	slot, _ = s.Route("aes50a.09")
	assert.Equal(t, RouteSlot{Key: "aes50a.09", Name: "Aux Out 01", OutputKey: "aux.01"}, slot)
	slot, _ = s.Route("aes50a.15")
	assert.Equal(t, RouteSlot{Key: "aes50a.15", Name: "Control Room Left", OutputKey: "mon.l"}, slot)

	// OUT groups are four wide.
	slot, _ = s.Route("out.04")
	assert.Equal(t, "Output 04", slot.Name)
	slot, _ = s.Route("out.05")
	assert.Equal(t, RouteSlot{Key: "out.05", Name: "Local 01", OutputKey: "in.01"}, slot)
	_, ok := s.Route("out.09")
	assert.False(t, ok)

	assert.Equal(t, 32+16+8, s.RouteCount())
}
