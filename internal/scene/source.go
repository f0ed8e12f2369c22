package scene

import "log/slog"

// Console input source numbers (what feeds a ch/auxin channel):
//
//	0      off
//	1-32   routed inputs
//	33-40  aux inputs (1-6 + USB), same "in" namespace
//	41-48  effects returns
//	49-64  mix buses
const (
	inputSourceMax    = 40
	inputSourceFXMax  = 48
	inputSourceBusMax = 64
)

// RouteKeyFromSource decodes the source number of an input-side channel.
//
// It reports false for source 0 (off) and for anything outside the console's
// range. Out-of-range values are logged as warnings on logger (slog.Default
// when nil); the console is not expected to emit them.
func RouteKeyFromSource(logger *slog.Logger, source int) (string, bool) {
	switch {
	case source == 0:
		return "", false
	case source > 0 && source <= inputSourceMax:
		return formatKey("in", source), true
	case source > inputSourceMax && source <= inputSourceFXMax:
		return formatKey("fx", source-inputSourceMax), true
	case source > inputSourceFXMax && source <= inputSourceBusMax:
		return formatKey("bus", source-inputSourceFXMax), true
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("input channel source out of range", "source", source)
	return "", false
}

// ChannelKeyFromSource decodes the source number of an output.
//
// Source 0 is an insert point (aux outputs) or off; it and anything outside
// the console's range report false without logging.
func ChannelKeyFromSource(source int) (string, bool) {
	switch {
	case source <= 0:
		return "", false
	case source == 1:
		return "main.l", true
	case source == 2:
		return "main.r", true
	case source == 3:
		return "main.m", true
	case source <= 19:
		return formatKey("bus", source-3), true
	case source <= 25:
		return formatKey("mtx", source-19), true
	case source <= 57:
		return formatKey("in", source-25), true
	case source <= 65:
		return formatKey("auxin", source-57), true
	case source <= 73:
		return formatKey("fx", source-65), true
	case source == 74:
		return "mon.l", true
	case source == 75:
		return "mon.r", true
	case source == 76:
		return "tb", true
	}
	return "", false
}
