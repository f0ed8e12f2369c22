package scene

import "strings"

// Kind identifies which record shape a scene line has.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindRouting
	KindChannel
	KindOutput
)

func (k Kind) String() string {
	switch k {
	case KindRouting:
		return "routing"
	case KindChannel:
		return "channel config"
	case KindOutput:
		return "output config"
	default:
		return "unrecognized"
	}
}

// Header is the classified leading token of a record.
//
// Bank is set for KindRouting; Type and Index are set for KindChannel and
// KindOutput and hold the values exactly as written in the file.
type Header struct {
	Kind  Kind
	Bank  string
	Type  string
	Index string
}

// Routing banks: IN feeds the input channels, the rest are output banks.
const (
	BankIn     = "IN"
	BankAES50A = "AES50A"
	BankAES50B = "AES50B"
	BankCard   = "CARD"
	BankOut    = "OUT"
)

var routingBanks = map[string]bool{
	BankIn:     true,
	BankAES50A: true,
	BankAES50B: true,
	BankCard:   true,
	BankOut:    true,
}

var channelTypes = map[string]bool{
	"ch":    true,
	"auxin": true,
	"bus":   true,
	"mtx":   true,
	"main":  true,
	"fxrtn": true,
}

var outputTypes = map[string]bool{
	"aux":  true,
	"aes":  true,
	"main": true,
	"p16":  true,
}

// Classify maps a record's leading path token to its record shape.
//
// The grammar is exact: a token matches only when every path segment is
// accepted, so "/outputs/p16/01/iQ" or "/config/routing/PLAY" are
// KindUnrecognized rather than a near miss.
func Classify(token string) Header {
	if !strings.HasPrefix(token, "/") {
		return Header{}
	}
	seg := strings.Split(token[1:], "/")
	if len(seg) != 3 {
		return Header{}
	}

	switch {
	case seg[0] == "config" && seg[1] == "routing":
		if routingBanks[seg[2]] {
			return Header{Kind: KindRouting, Bank: seg[2]}
		}
	case seg[0] == "outputs":
		if outputTypes[seg[1]] && isTwoDigitIndex(seg[2]) {
			return Header{Kind: KindOutput, Type: seg[1], Index: seg[2]}
		}
	case seg[2] == "config":
		if channelTypes[seg[0]] && isChannelIndex(seg[1]) {
			return Header{Kind: KindChannel, Type: seg[0], Index: seg[1]}
		}
	}
	return Header{}
}

// isTwoDigitIndex accepts "00" through "39".
func isTwoDigitIndex(s string) bool {
	return len(s) == 2 &&
		s[0] >= '0' && s[0] <= '3' &&
		s[1] >= '0' && s[1] <= '9'
}

func isChannelIndex(s string) bool {
	return s == "st" || s == "m" || isTwoDigitIndex(s)
}
