package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeRouteGroup(t *testing.T) {
	tests := []struct {
		name   string
		group  string
		offset int
		want   RouteRef
	}{
		{"local first", "AN1-8", 0, RouteRef{Key: "in.01", Label: "Local 01"}},
		{"local offset", "AN9-16", 7, RouteRef{Key: "in.16", Label: "Local 16"}},
		{"aes50a", "A1-8", 2, RouteRef{Key: "aes50a.03", Label: "AES50-A 03"}},
		{"aes50a two digit base", "A41-48", 7, RouteRef{Key: "aes50a.48", Label: "AES50-A 48"}},
		{"aes50b", "B17-24", 0, RouteRef{Key: "aes50b.17", Label: "AES50-B 17"}},
		{"out", "OUT5-8", 3, RouteRef{Key: "out.08", Label: "Output 08"}},
		{"card", "CARD25-32", 1, RouteRef{Key: "card.26", Label: "Card 26"}},
		{"p16", "P161-8", 4, RouteRef{Key: "p16.05", Label: "P-16 05"}},
		{"p16 upper", "P169-16", 7, RouteRef{Key: "p16.16", Label: "P-16 16"}},
		{"bare aux has no label", "AUX", 3, RouteRef{Key: "in.36"}},
		{"aux block", "AUX1-4", 0, RouteRef{Key: "in.33", Label: "Aux In 01"}},
		{"aux block usb left", "AUX1-4", 6, RouteRef{Key: "in.39", Label: "USB L"}},
		{"aux block usb right", "AUX1-4", 7, RouteRef{Key: "in.40", Label: "USB R"}},
		{"control room aux", "AUX/CR", 0, RouteRef{Key: "aux.01", Label: "Aux Out 01"}},
		{"control room last aux", "AUX/CR", 5, RouteRef{Key: "aux.06", Label: "Aux Out 06"}},
		{"control room left", "AUX/CR", 6, RouteRef{Key: "mon.l", Label: "Control Room Left"}},
		{"control room right", "AUX/CR", 7, RouteRef{Key: "mon.r", Label: "Control Room Right"}},
		{"talkback aux in", "AUX/TB", 1, RouteRef{Key: "auxin.02", Label: "Aux In 02"}},
		{"talkback", "AUX/TB", 6, RouteRef{Key: "tb", Label: "Talkback"}},
		{"talkback past end", "AUX/TB", 7, RouteRef{}},
		{"unknown mnemonic", "USB", 0, RouteRef{}},
		{"empty", "", 0, RouteRef{}},
		{"numbered without number", "AN", 0, RouteRef{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeRouteGroup(tt.group, tt.offset))
		})
	}
}

func TestSplitGroup(t *testing.T) {
	kind, base, ok := splitGroup("AN17-24")
	assert.Equal(t, groupLocal, kind)
	assert.Equal(t, 17, base)
	assert.True(t, ok)

	kind, _, ok = splitGroup("AUX/TB")
	assert.Equal(t, groupAuxTB, kind)
	assert.False(t, ok)
}
