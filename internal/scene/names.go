package scene

import "fmt"

// InputTypes lists the port types with a fixed number of input positions,
// in display order.
var InputTypes = []string{"in", "aes50a", "aes50b", "card"}

// OutputTypes lists the port types with a fixed number of output
// positions, in display order.
var OutputTypes = []string{"out", "p16", "aux", "aes", "aes50a", "aes50b", "card"}

var maxChannels = map[string]int{
	"aes50a": 48,
	"aes50b": 48,
	"in":     40,
	"card":   32,
}

var maxOutputs = map[string]int{
	"aes50a": 48,
	"aes50b": 48,
	"card":   32,
	"out":    16,
	"p16":    16,
	"aux":    6,
	"aes":    2,
}

// MaxChannels returns the number of input positions of a port type.
func MaxChannels(portType string) (int, bool) {
	n, ok := maxChannels[portType]
	return n, ok
}

// MaxOutputs returns the number of output positions of a port type.
func MaxOutputs(portType string) (int, bool) {
	n, ok := maxOutputs[portType]
	return n, ok
}

var typeNames = map[string]string{
	"in":     "Local",
	"aes50a": "AES50-A",
	"aes50b": "AES50-B",
	"card":   "Card",
	"p16":    "Ultranet",
	"out":    "Local",
	"aux":    "Aux",
	"aes":    "AES",
}

// TypeName returns the display name of a port type. Local inputs above 32
// are the rear aux inputs.
func TypeName(portType string, n int) string {
	if portType == "in" && n > 32 {
		return "Aux In"
	}
	if name, ok := typeNames[portType]; ok {
		return name
	}
	return portType
}

// OutputName returns a human-readable name for a physical output.
func OutputName(outputType string, n int) string {
	switch outputType {
	case "aux":
		return fmt.Sprintf("Aux %d", n)
	case "main", "out":
		return fmt.Sprintf("Output %d", n)
	case "aes":
		if n == 1 {
			return "AES Left"
		}
		return "AES Right"
	case "p16":
		return fmt.Sprintf("P16 %d", n)
	}
	return ""
}
