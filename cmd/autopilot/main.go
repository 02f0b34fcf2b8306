package main

import (
	"os"

	"github.com/rustyeddy/autopilot/cmd/autopilot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
