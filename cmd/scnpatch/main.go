package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/scnpatch/internal/core"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if core.IsUserFacing(err) {
			msg := core.MapError(err)
			fmt.Fprintf(os.Stderr, "%s (%s)\n", msg.Action, msg.Code)
		}
		os.Exit(1)
	}
}
