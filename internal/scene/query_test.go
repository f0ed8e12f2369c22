package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputListForType_FixedLengths(t *testing.T) {
	empty := mustParse(t)
	busy := mustParse(t,
		`/config/routing/OUT OUT1-4 OUT5-8 OUT9-12 OUT13-16 AN1-4`,
		`/config/routing/CARD AN1-8 AN9-16 AN17-24 AN25-32 A1-8`,
		`/outputs/p16/01 26 POST 0`,
		`/outputs/aux/01 4 POST 0`,
		`/outputs/aes/01 1 POST 0`,
	)

	for _, s := range []*Scene{empty, busy} {
		for _, typ := range OutputTypes {
			want, _ := MaxOutputs(typ)
			list, err := s.OutputListForType(typ)
			require.NoError(t, err)
			assert.Len(t, list, want, typ)
			for i, p := range list {
				assert.Equal(t, i+1, p.Index)
				assert.Equal(t, formatKey(typ, i+1), p.Key)
			}
		}
	}
}

func TestOutputListForType_UnknownType(t *testing.T) {
	s := mustParse(t)
	_, err := s.OutputListForType("bus")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestOutputListForType_XLRFollowsOutputRecord(t *testing.T) {
	s := mustParse(t,
		`/config/routing/OUT OUT1-4`,
		`/main/st/config "LR" 1 WH`,
		`/outputs/main/01 1 POST 0`,
		`/outputs/main/02 2 POST 0`,
	)

	slot, ok := s.XLROutputChannel(1)
	require.True(t, ok)
	assert.Equal(t, RouteSlot{Key: "out.01", Name: "Output 01", OutputKey: "out.01"}, slot)

	list, err := s.OutputListForType("out")
	require.NoError(t, err)

	require.NotNil(t, list[0].Channel)
	assert.Equal(t, "main.l", list[0].Channel.Info().Key)
	assert.Equal(t, "main.l", list[0].Source)
	require.NotNil(t, list[1].Channel)
	assert.Equal(t, "main.r", list[1].Channel.Info().Key)

	// Routed but no output record: the hop resolves to nothing.
	assert.True(t, list[2].Empty())
	assert.True(t, list[4].Empty(), "unrouted position")
}

func TestOutputListForType_Passthrough(t *testing.T) {
	s := mustParse(t, `/config/routing/AES50A P161-8`)

	list, err := s.OutputListForType("aes50a")
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		assert.True(t, list[i].Passthrough, "aes50a.%02d", i+1)
		assert.Nil(t, list[i].Channel)
		assert.False(t, list[i].Empty())
	}
	assert.Equal(t, "p16.01", list[0].Source)
	for i := 8; i < len(list); i++ {
		assert.True(t, list[i].Empty())
	}
}

func TestOutputListForType_DirectOutputs(t *testing.T) {
	s := mustParse(t,
		`/ch/01/config "Kick" 1 RD 1`,
		`/bus/01/config "Wedge" 1 GN`,
		`/outputs/p16/01 26 POST 0`,
		`/outputs/aux/01 4 POST 0`,
		`/outputs/aes/02 76 POST 0`,
		`/outputs/p16/02 0 POST 0`,
	)

	p16, err := s.OutputListForType("p16")
	require.NoError(t, err)
	assert.Equal(t, "Kick", p16[0].Channel.Info().Name)
	assert.True(t, p16[1].Empty())

	aux, err := s.OutputListForType("aux")
	require.NoError(t, err)
	assert.Equal(t, "Wedge", aux[0].Channel.Info().Name)

	aes, err := s.OutputListForType("aes")
	require.NoError(t, err)
	assert.True(t, aes[0].Empty())
	assert.Equal(t, "Talkback", aes[1].Channel.Info().Name)

	key, ok := s.P16Channel(1)
	assert.True(t, ok)
	assert.Equal(t, "in.01", key)

	key, ok = s.AuxOutputChannel(1)
	assert.True(t, ok)
	assert.Equal(t, "bus.01", key)
}

func TestOutputListForType_RoutedToChannelKey(t *testing.T) {
	// A card output patched to AUX/CR resolves through the aux output
	// record to its bus.
	s := mustParse(t,
		`/config/routing/CARD AUX/CR`,
		`/bus/02/config "Sidefill" 1 YE`,
		`/outputs/aux/01 5 POST 0`,
	)

	list, err := s.OutputListForType("card")
	require.NoError(t, err)
	require.NotNil(t, list[0].Channel)
	assert.Equal(t, "bus.02", list[0].Channel.Info().Key)

	// Control room positions resolve to the internal monitor channels.
	assert.Equal(t, "Monitor L", list[6].Channel.Info().Name)
	assert.Equal(t, "Monitor R", list[7].Channel.Info().Name)

	slot, ok := s.CardOutputChannel(7)
	require.True(t, ok)
	assert.Equal(t, "Control Room Left", slot.Name)
}

func TestChannelListForType_FanOut(t *testing.T) {
	s := mustParse(t,
		`/config/routing/IN AN1-8`,
		`/ch/01/config "Vox A" 1 YE 5`,
		`/ch/02/config "Vox B" 1 YE 5`,
		`/ch/03/config "Bass" 1 BL 7`,
	)

	list, err := s.ChannelListForType("in")
	require.NoError(t, err)
	require.Len(t, list, 40)

	slot := list[4]
	assert.Equal(t, "in.05", slot.Key)
	assert.Equal(t, "in.05", slot.RouteKey)
	require.Len(t, slot.Channels, 2)
	assert.Equal(t, "Vox A", slot.Channels[0].Info().Name)
	assert.Equal(t, "Vox B", slot.Channels[1].Info().Name)

	assert.Len(t, list[6].Channels, 1)

	// Routed, but no channel uses it.
	assert.True(t, list[0].Empty())
	assert.Equal(t, "in.01", list[0].RouteKey)

	// Not routed at all.
	assert.True(t, list[8].Empty())
	assert.Empty(t, list[8].RouteKey)
	assert.NotNil(t, s.FanOut().Channels("in.09"))
	assert.Empty(t, s.FanOut().Channels("in.09"))
}

func TestChannelListForType_AES50Input(t *testing.T) {
	s := mustParse(t,
		`/config/routing/IN AN1-8 A1-8`,
		`/ch/09/config "Stage Box 1" 1 GN 9`,
	)

	list, err := s.ChannelListForType("aes50a")
	require.NoError(t, err)
	require.Len(t, list, 48)
	assert.Equal(t, "in.09", list[0].RouteKey)
	require.Len(t, list[0].Channels, 1)
	assert.Equal(t, "Stage Box 1", list[0].Channels[0].Info().Name)

	for _, typ := range InputTypes {
		want, _ := MaxChannels(typ)
		l, err := s.ChannelListForType(typ)
		require.NoError(t, err)
		assert.Len(t, l, want, typ)
	}

	_, err = s.ChannelListForType("p16")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestChannelListForType_ReturnsCopies(t *testing.T) {
	s := mustParse(t,
		`/config/routing/IN AN1-8`,
		`/ch/01/config "Kick" 1 RD 1`,
	)

	list, err := s.ChannelListForType("in")
	require.NoError(t, err)
	list[0].Channels[0] = MixChannel{ChannelInfo: ChannelInfo{Name: "tampered"}}

	again, err := s.ChannelListForType("in")
	require.NoError(t, err)
	assert.Equal(t, "Kick", again[0].Channels[0].Info().Name)
}

func TestAES50OutputChannel(t *testing.T) {
	s := mustParse(t,
		`/config/routing/AES50A AN1-8`,
		`/config/routing/AES50B CARD1-8`,
	)

	slot, ok, err := s.AES50OutputChannel("A", 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, RouteSlot{Key: "aes50a.03", Name: "Local 03", OutputKey: "in.03"}, slot)

	slot, ok, err = s.AES50OutputChannel("b", 8)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Card 08", slot.Name)

	_, ok, err = s.AES50OutputChannel("a", 40)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = s.AES50OutputChannel("c", 1)
	assert.ErrorIs(t, err, ErrInvalidBank)
}

func TestLookupsOnUnseenKeys(t *testing.T) {
	s := mustParse(t)

	_, ok := s.Route("in.01")
	assert.False(t, ok)
	_, ok = s.Channel("bus.01")
	assert.False(t, ok)
	_, ok = s.Output("p16.01")
	assert.False(t, ok)
	_, ok = s.InputChannel(1)
	assert.False(t, ok)
	_, ok = s.InputAuxChannel(1)
	assert.False(t, ok)
	_, ok = s.XLROutputChannel(1)
	assert.False(t, ok)
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "Local", TypeName("in", 1))
	assert.Equal(t, "Local", TypeName("in", 32))
	assert.Equal(t, "Aux In", TypeName("in", 33))
	assert.Equal(t, "AES50-A", TypeName("aes50a", 40))
	assert.Equal(t, "AES50-B", TypeName("aes50b", 1))
	assert.Equal(t, "Card", TypeName("card", 1))
	assert.Equal(t, "Ultranet", TypeName("p16", 1))
	assert.Equal(t, "Local", TypeName("out", 1))
	assert.Equal(t, "xyz", TypeName("xyz", 1))
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "Aux 3", OutputName("aux", 3))
	assert.Equal(t, "Output 12", OutputName("out", 12))
	assert.Equal(t, "Output 1", OutputName("main", 1))
	assert.Equal(t, "AES Left", OutputName("aes", 1))
	assert.Equal(t, "AES Right", OutputName("aes", 2))
	assert.Equal(t, "P16 16", OutputName("p16", 16))
	assert.Empty(t, OutputName("card", 1))
}

func TestResolveOutput(t *testing.T) {
	s := mustParse(t,
		`/config/routing/OUT OUT1-4`,
		`/config/routing/AES50A P161-8`,
		`/main/st/config "LR" 1 WH`,
		`/outputs/main/01 1 POST 0`,
	)

	p, ok := s.ResolveOutput("out.01")
	require.True(t, ok)
	assert.Equal(t, 1, p.Index)
	assert.Equal(t, "main.l", p.Source)
	require.NotNil(t, p.Channel)
	assert.Equal(t, "LR", p.Channel.Info().Name)

	p, ok = s.ResolveOutput("aes50a.03")
	require.True(t, ok)
	assert.True(t, p.Passthrough)
	assert.Equal(t, "p16.03", p.Source)

	list, err := s.OutputListForType("aes50a")
	require.NoError(t, err)
	assert.Equal(t, list[2], p)

	for _, key := range []string{"out.17", "out.00", "bus.01", "out", "out.x"} {
		_, ok := s.ResolveOutput(key)
		assert.False(t, ok, key)
	}
}
