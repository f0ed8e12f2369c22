package scene

import (
	"fmt"
	"strings"
)

// RouteRef is one decoded position inside a routing group.
//
// Key is the canonical key of the port the position refers to; Label is the
// name shown for the routing slot. An empty Label means the slot is off.
type RouteRef struct {
	Key   string
	Label string
}

type groupKind int

const (
	groupUnknown groupKind = iota
	groupLocal
	groupAES50A
	groupAES50B
	groupOut
	groupCard
	groupP16
	groupAux
	groupAuxCR
	groupAuxTB
)

// groupPrefixes is checked in order; longer prefixes sharing a first
// letter must come before shorter ones ("AUX/CR" before "AUX" before "AN"
// before "A").
var groupPrefixes = []struct {
	prefix string
	kind   groupKind
}{
	{"AUX/CR", groupAuxCR},
	{"AUX/TB", groupAuxTB},
	{"AUX", groupAux},
	{"AN", groupLocal},
	{"A", groupAES50A},
	{"B", groupAES50B},
	{"OUT", groupOut},
	{"CARD", groupCard},
	{"P16", groupP16},
}

// numberedGroups need a base number after the mnemonic.
var numberedGroups = map[groupKind]struct {
	keyType string
	label   string
}{
	groupLocal:  {"in", "Local"},
	groupAES50A: {"aes50a", "AES50-A"},
	groupAES50B: {"aes50b", "AES50-B"},
	groupOut:    {"out", "Output"},
	groupCard:   {"card", "Card"},
	groupP16:    {"p16", "P-16"},
}

// splitGroup separates a routing group token such as "AN9-16" into its
// mnemonic and its base number. Anything after the (at most two) digits is
// ignored.
func splitGroup(group string) (kind groupKind, base int, hasBase bool) {
	rest := ""
	for _, p := range groupPrefixes {
		if strings.HasPrefix(group, p.prefix) {
			kind = p.kind
			rest = group[len(p.prefix):]
			break
		}
	}
	if kind == groupUnknown {
		return groupUnknown, 0, false
	}

	for i := 0; i < len(rest) && i < 2; i++ {
		c := rest[i]
		if c < '0' || c > '9' {
			break
		}
		base = base*10 + int(c-'0')
		hasBase = true
	}
	return kind, base, hasBase
}

// DecodeRouteGroup decodes the position at offset within a routing group.
//
// Offsets run 0–7 for the eight-wide banks and 0–3 for the OUT bank. An
// unknown mnemonic, a numbered mnemonic without its number, or an offset
// outside the group's defined positions returns a RouteRef with no Label.
func DecodeRouteGroup(group string, offset int) RouteRef {
	kind, base, hasBase := splitGroup(group)

	if grp, ok := numberedGroups[kind]; ok {
		if !hasBase {
			return RouteRef{}
		}
		n := base + offset
		return RouteRef{
			Key:   formatKey(grp.keyType, n),
			Label: fmt.Sprintf("%s %02d", grp.label, n),
		}
	}

	switch kind {
	case groupAux:
		ref := RouteRef{Key: formatKey("in", offset+33)}
		// The numbered form ("AUX1-4") is the aux input block with the
		// USB pair on its last two positions. Bare "AUX" has no label.
		if hasBase {
			switch {
			case offset >= 0 && offset < 6:
				ref.Label = fmt.Sprintf("Aux In %02d", offset+1)
			case offset == 6:
				ref.Label = "USB L"
			case offset == 7:
				ref.Label = "USB R"
			}
		}
		return ref

	case groupAuxCR:
		switch {
		case offset >= 0 && offset < 6:
			return RouteRef{Key: formatKey("aux", offset+1), Label: fmt.Sprintf("Aux Out %02d", offset+1)}
		case offset == 6:
			return RouteRef{Key: "mon.l", Label: "Control Room Left"}
		case offset == 7:
			return RouteRef{Key: "mon.r", Label: "Control Room Right"}
		}

	case groupAuxTB:
		switch {
		case offset >= 0 && offset < 6:
			return RouteRef{Key: formatKey("auxin", offset+1), Label: fmt.Sprintf("Aux In %02d", offset+1)}
		case offset == 6:
			return RouteRef{Key: "tb", Label: "Talkback"}
		}
	}

	return RouteRef{}
}

// formatKey builds a canonical "<type>.<NN>" key.
func formatKey(keyType string, n int) string {
	return fmt.Sprintf("%s.%02d", keyType, n)
}
